package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/strategy"
)

// DefaultWatchlist is the large-cap universe scanned when none is configured.
var DefaultWatchlist = []string{
	"AAPL", "MSFT", "NVDA", "AMZN", "META", "GOOGL", "TSLA", "AVGO", "LLY",
	"JPM", "V", "UNH", "HD", "MA", "MRK", "ABBV", "COST", "ADBE",
}

// Config holds all application configuration. It is loaded once at startup
// and passed to constructors; nothing reads it globally.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`
	Watchlist []string        `yaml:"watchlist"`
	Strategy  strategy.Params `yaml:"strategy"`
	Regime    struct {
		Symbols  []string `yaml:"symbols"`
		MAWindow int      `yaml:"ma_window"`
	} `yaml:"regime"`
	Feed struct {
		Source       string        `yaml:"source"` // "yahoo" or "rest"
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		LookbackDays int           `yaml:"lookback_days"`
		Timeout      time.Duration `yaml:"timeout"`
		RateLimit    float64       `yaml:"rate_limit"`
		Burst        int           `yaml:"burst"`
	} `yaml:"feed"`
	Schedule struct {
		ScanCron   string `yaml:"scan_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Store struct {
		Backend       string `yaml:"backend"` // "file" or "redis"
		Path          string `yaml:"path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisKey      string `yaml:"redis_key"`
	} `yaml:"store"`
	Slack struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"slack"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults and environment still apply.
// Defaults are laid down before the file is decoded, so a key set explicitly
// to zero in YAML (buy_window: 0) keeps its zero.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Slack.WebhookURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = splitList(v)
	}
	if v := os.Getenv("RISK_PCT_PER_TRADE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RISK_PCT_PER_TRADE=%q: %w", v, model.ErrInvalidConfiguration)
		}
		c.Strategy.RiskPctPerTrade = f
	}
	if v := os.Getenv("POSITIONS_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.Backend = "redis"
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart = v == "true" || v == "1"
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		c.Feed.Source = "rest"
		c.Feed.BaseURL = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := strategy.DefaultParams()
	s := &c.Strategy
	if s.StopPct == 0 {
		s.StopPct = def.StopPct
	}
	if s.TargetPct == 0 {
		s.TargetPct = def.TargetPct
	}
	if s.BuyWindow == 0 {
		s.BuyWindow = def.BuyWindow
	}
	if s.VolRatio == 0 {
		s.VolRatio = def.VolRatio
	}
	if s.VolWindow == 0 {
		s.VolWindow = def.VolWindow
	}
	if s.RSThreshold == 0 {
		s.RSThreshold = def.RSThreshold
	}
	if s.RSShortWindow == 0 {
		s.RSShortWindow = def.RSShortWindow
	}
	if s.RSLongWindow == 0 {
		s.RSLongWindow = def.RSLongWindow
	}
	if s.RiskPctPerTrade == 0 {
		s.RiskPctPerTrade = def.RiskPctPerTrade
	}
	if s.Pattern.BaseWeeks == 0 {
		s.Pattern.BaseWeeks = def.Pattern.BaseWeeks
	}
	if s.Pattern.HandleWeeks == 0 {
		s.Pattern.HandleWeeks = def.Pattern.HandleWeeks
	}
	if s.Pattern.MaxDepth == 0 {
		s.Pattern.MaxDepth = def.Pattern.MaxDepth
	}

	if len(c.Watchlist) == 0 {
		c.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	if len(c.Regime.Symbols) == 0 {
		c.Regime.Symbols = []string{"^GSPC", "SPY", "VOO"}
	}
	if c.Regime.MAWindow == 0 {
		c.Regime.MAWindow = 50
	}
	if c.Feed.Source == "" {
		c.Feed.Source = "yahoo"
	}
	if c.Feed.LookbackDays == 0 {
		c.Feed.LookbackDays = 213 // about seven months
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 15 * time.Second
	}
	if c.Feed.RateLimit == 0 {
		c.Feed.RateLimit = 2
	}
	if c.Feed.Burst == 0 {
		c.Feed.Burst = 2
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "@every 30m"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/positions.json"
	}
	if c.Store.RedisKey == "" {
		c.Store.RedisKey = "breakout:positions"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/breakout_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that the configuration can run. Errors wrap
// model.ErrInvalidConfiguration and are fatal at startup.
func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist is empty: %w", model.ErrInvalidConfiguration)
	}
	if c.Regime.MAWindow <= 0 {
		return fmt.Errorf("regime.ma_window must be positive: %w", model.ErrInvalidConfiguration)
	}
	switch c.Feed.Source {
	case "yahoo":
	case "rest":
		if c.Feed.BaseURL == "" {
			return fmt.Errorf("feed.base_url is required for the rest source: %w", model.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("feed.source %q unknown: %w", c.Feed.Source, model.ErrInvalidConfiguration)
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be positive: %w", model.ErrInvalidConfiguration)
	}
	switch c.Store.Backend {
	case "file":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis backend: %w", model.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("store.backend %q unknown: %w", c.Store.Backend, model.ErrInvalidConfiguration)
	}
	if c.Telegram.Polling && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.polling needs bot_token and chat_id: %w", model.ErrInvalidConfiguration)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(strings.ToUpper(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
