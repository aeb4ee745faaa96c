package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"BreakoutSentinel/internal/model"
)

// SlackNotifier posts signals to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
	Retries    int
	Backoff    time.Duration
}

// NewSlackNotifier creates a notifier with optional proxy support.
func NewSlackNotifier(webhookURL, proxyURL string) *SlackNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		Retries: 2,
		Backoff: time.Second,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

// Notify formats the signal and posts it, retrying transient failures.
func (s *SlackNotifier) Notify(ctx context.Context, sig model.Signal) error {
	text := FormatSlack(sig)
	return retry(ctx, s.Retries, s.Backoff, "slack", func() error {
		return s.Send(ctx, text)
	})
}

// Send posts a plain text message.
func (s *SlackNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("slack: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
