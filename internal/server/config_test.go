package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1<<20), cfg.MaxMessageSize)
	assert.Equal(t, RateLimitConfig{Burst: 5, RefillInterval: time.Second}, cfg.RateLimit)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.False(t, cfg.ReclaimEmptyRooms)
}

func TestParseConfigDefaultsMatchNewConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, *NewConfig(), cfg)
}

func TestParseConfigFromEnvironment(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"SERVER_PORT":                "9090",
		"ALLOWED_ORIGINS":            "https://a.example,https://b.example",
		"MAX_MESSAGE_SIZE":           "2048",
		"RATE_LIMIT_BURST":           "10",
		"RATE_LIMIT_REFILL_INTERVAL": "2s",
		"HISTORY_SIZE":               "50",
		"MAX_AVATAR_SIZE":            "1024",
		"RECLAIM_EMPTY_ROOMS":        "true",
		"SHUTDOWN_TIMEOUT":           "3s",
		"LOG_LEVEL":                  "DEBUG",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(2048), cfg.MaxMessageSize)
	assert.Equal(t, RateLimitConfig{Burst: 10, RefillInterval: 2 * time.Second}, cfg.RateLimit)
	assert.Equal(t, 50, cfg.HistorySize)
	assert.Equal(t, 1024, cfg.MaxAvatarSize)
	assert.True(t, cfg.ReclaimEmptyRooms)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseConfigRejectsMalformedValues(t *testing.T) {
	_, err := ParseConfig(map[string]string{"RATE_LIMIT_REFILL_INTERVAL": "soon"})
	assert.Error(t, err)

	_, err = ParseConfig(map[string]string{"HISTORY_SIZE": "many"})
	assert.Error(t, err)
}

func TestConfigSanitize(t *testing.T) {
	cfg := Config{
		MaxMessageSize: -1,
		RateLimit:      RateLimitConfig{Burst: 0, RefillInterval: -time.Second},
		HistorySize:    -5,
	}.Sanitize()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, int64(1<<20), cfg.MaxMessageSize)
	assert.Equal(t, RateLimitConfig{Burst: 5, RefillInterval: time.Second}, cfg.RateLimit)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.Equal(t, 256<<10, cfg.MaxAvatarSize)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	const key = "HISTORY_SIZE"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set in the environment", key)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=42\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.HistorySize)
}

func TestLoadConfigToleratesMissingEnvFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
