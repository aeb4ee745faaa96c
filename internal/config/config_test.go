package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutSentinel/internal/model"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SLACK_WEBHOOK_URL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "WATCHLIST",
		"RISK_PCT_PER_TRADE", "POSITIONS_PATH", "REDIS_ADDR", "SQLITE_PATH", "SCAN_CRON",
		"RUN_ON_START", "FEED_BASE_URL", "FEED_API_KEY", "HTTP_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultWatchlist, cfg.Watchlist)
	assert.Equal(t, 0.08, cfg.Strategy.StopPct)
	assert.Equal(t, 0.20, cfg.Strategy.TargetPct)
	assert.Equal(t, 0.05, cfg.Strategy.BuyWindow)
	assert.Equal(t, 1.4, cfg.Strategy.VolRatio)
	assert.Equal(t, 85.0, cfg.Strategy.RSThreshold)
	assert.Equal(t, 5, cfg.Strategy.RSShortWindow)
	assert.Equal(t, 126, cfg.Strategy.RSLongWindow)
	assert.Equal(t, 20, cfg.Strategy.Pattern.BaseWeeks)
	assert.Equal(t, 3, cfg.Strategy.Pattern.HandleWeeks)
	assert.Equal(t, []string{"^GSPC", "SPY", "VOO"}, cfg.Regime.Symbols)
	assert.Equal(t, "@every 30m", cfg.Schedule.ScanCron)
	assert.Equal(t, 15*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, "file", cfg.Store.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
watchlist: [AAPL, MSFT]
strategy:
  stop_pct: 0.10
  rs_threshold: 90
feed:
  timeout: 5s
schedule:
  scan_cron: "0 */15 * * * *"
`), 0o644))

	t.Setenv("RISK_PCT_PER_TRADE", "2")
	t.Setenv("WATCHLIST", "nvda, tsla ,")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "TSLA"}, cfg.Watchlist)
	assert.Equal(t, 0.10, cfg.Strategy.StopPct)
	assert.Equal(t, 90.0, cfg.Strategy.RSThreshold)
	assert.Equal(t, 2.0, cfg.Strategy.RiskPctPerTrade)
	assert.Equal(t, 5*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, "0 */15 * * * *", cfg.Schedule.ScanCron)
	assert.Equal(t, "https://hooks.slack.test/x", cfg.Slack.WebhookURL)
	assert.Equal(t, 0.20, cfg.Strategy.TargetPct, "unset fields keep defaults")
}

func TestLoad_ExplicitZeroSurvivesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strategy:
  buy_window: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Strategy.BuyWindow)
	assert.Equal(t, 0.20, cfg.Strategy.TargetPct)
	assert.Equal(t, 50, cfg.Regime.MAWindow)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadRiskEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RISK_PCT_PER_TRADE", "lots")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watchlist: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		return cfg
	}

	cases := map[string]func(c *Config){
		"stop too large":      func(c *Config) { c.Strategy.StopPct = 1.5 },
		"rs over 100":         func(c *Config) { c.Strategy.RSThreshold = 101 },
		"handle longer":       func(c *Config) { c.Strategy.Pattern.HandleWeeks = 30 },
		"rest without url":    func(c *Config) { c.Feed.Source = "rest" },
		"unknown source":      func(c *Config) { c.Feed.Source = "bloomberg" },
		"redis without addr":  func(c *Config) { c.Store.Backend = "redis" },
		"unknown backend":     func(c *Config) { c.Store.Backend = "s3" },
		"polling without bot": func(c *Config) { c.Telegram.Polling = true },
		"empty watchlist":     func(c *Config) { c.Watchlist = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidConfiguration)
		})
	}
}
