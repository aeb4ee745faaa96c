// Package httpapi serves a read-only view of the scanner over HTTP: health,
// open positions, the last cycle, recent signals and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/recorder"
	"BreakoutSentinel/internal/scanner"
)

// Backend is the part of the scanner the API reads from.
type Backend interface {
	Positions(ctx context.Context) (model.Book, error)
	LastReport() *scanner.CycleReport
}

// Server is the read-only HTTP server.
type Server struct {
	router   *mux.Router
	server   *http.Server
	backend  Backend
	recorder recorder.Recorder
	started  time.Time
}

// NewServer wires routes. A nil gatherer disables /metrics.
func NewServer(addr string, backend Backend, rec recorder.Recorder, gatherer prometheus.Gatherer) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		router:   mux.NewRouter(),
		backend:  backend,
		recorder: rec,
		started:  time.Now(),
	}
	s.setupRoutes(gatherer)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.Use(s.requestLoggingMiddleware)

	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	api.HandleFunc("/positions", s.positions).Methods(http.MethodGet)
	api.HandleFunc("/positions/{ticker}", s.position).Methods(http.MethodGet)
	api.HandleFunc("/status", s.status).Methods(http.MethodGet)
	api.HandleFunc("/signals", s.signals).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if last := s.backend.LastReport(); last != nil {
		resp["last_cycle"] = last.StartedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) positions(w http.ResponseWriter, r *http.Request) {
	book, err := s.backend.Positions(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load positions")
		writeError(w, http.StatusServiceUnavailable, "positions unavailable")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) position(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	book, err := s.backend.Positions(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load positions")
		writeError(w, http.StatusServiceUnavailable, "positions unavailable")
		return
	}
	pos, ok := book[ticker]
	if !ok {
		writeError(w, http.StatusNotFound, ticker+" is not held")
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

type statusResponse struct {
	Cycle         string              `json:"cycle"`
	StartedAt     time.Time           `json:"started_at"`
	DurationMs    int64               `json:"duration_ms"`
	RegimeChecked bool                `json:"regime_checked"`
	Uptrend       bool                `json:"uptrend"`
	Held          int                 `json:"held"`
	Exits         []model.ExitSignal  `json:"exits"`
	Entries       []model.EntrySignal `json:"entries"`
	Skipped       map[string]string   `json:"skipped"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	last := s.backend.LastReport()
	if last == nil {
		writeError(w, http.StatusNotFound, "no completed cycle yet")
		return
	}
	skipped := make(map[string]string, len(last.Skipped))
	for t, stage := range last.Skipped {
		skipped[t] = string(stage)
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Cycle:         last.ID,
		StartedAt:     last.StartedAt,
		DurationMs:    last.Duration.Milliseconds(),
		RegimeChecked: last.RegimeChecked,
		Uptrend:       last.Uptrend,
		Held:          last.Held,
		Exits:         last.Exits,
		Entries:       last.Entries,
		Skipped:       skipped,
	})
}

func (s *Server) signals(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	recs, err := s.recorder.RecentSignals(limit)
	if err != nil {
		log.Error().Err(err).Msg("query recent signals")
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if recs == nil {
		recs = []recorder.SignalRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
