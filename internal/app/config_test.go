package app

import (
	"bytes"
	"encoding/json"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SHEETS_ENDPOINT", "https://script.example.test/exec")
	t.Setenv("LEDGER_TIMEZONE", "Asia/Kolkata")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "INVENTORY", cfg.PendingSheet)
	require.Equal(t, "INVENTORY History", cfg.HistorySheet)
	require.Equal(t, "Master Drop-Down", cfg.LookupSheet)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.Equal(t, "Asia/Kolkata", cfg.Location().String())
	require.False(t, cfg.RedisEnabled())
}

func TestLoadConfigRequiresEndpoint(t *testing.T) {
	t.Setenv("SHEETS_ENDPOINT", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsBadCron(t *testing.T) {
	t.Setenv("SHEETS_ENDPOINT", "https://script.example.test/exec")
	t.Setenv("LOW_STOCK_SCAN_CRON", "every morning")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "low stock scan cron")
}

func TestLoadConfigRejectsBadTimezone(t *testing.T) {
	t.Setenv("SHEETS_ENDPOINT", "https://script.example.test/exec")
	t.Setenv("LEDGER_TIMEZONE", "Mars/Olympus")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "ledger timezone")
}

func TestNilConfigLocation(t *testing.T) {
	var cfg *Config
	require.Equal(t, "UTC", cfg.Location().String())
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{AppEnv: "production", LogFormat: "json"}, &buf)
	logger.Info("started")
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "started", line["msg"])
	require.Equal(t, "production", line["env"])
}
