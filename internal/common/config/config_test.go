package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Realtime.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Realtime.Delay)
	assert.Equal(t, "+91", cfg.Checkout.DefaultCountryCode)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Setenv("FOODCOURT_API_URL", "")
	path := writeConfig(t, `
api:
  base_url: https://court.example.com
  timeout: 5s
realtime:
  transport: amqp
  max_attempts: 3
  delay: 250ms
storage:
  driver: pgx
database:
  host: db
  user: court
  password: secret
  database: court
rabbitmq:
  host: mq
  user: guest
  password: guest
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://court.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "amqp", cfg.Realtime.Transport)
	assert.Equal(t, 3, cfg.Realtime.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Realtime.Delay)
	assert.Equal(t, "menu_events", cfg.Realtime.Exchange, "unset keys keep defaults")
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "/", cfg.Rabbit.VHost)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FOODCOURT_API_URL", "http://override:9000")
	t.Setenv("FOODCOURT_LOG_LEVEL", "debug")
	path := writeConfig(t, "api:\n  base_url: http://file:1\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*App)
	}{
		{"unknown storage", func(a *App) { a.Storage.Driver = "redis" }},
		{"pgx without host", func(a *App) { a.Storage.Driver = "pgx" }},
		{"amqp without host", func(a *App) { a.Realtime.Transport = "amqp" }},
		{"websocket without url", func(a *App) { a.Realtime.URL = "" }},
		{"unknown transport", func(a *App) { a.Realtime.Transport = "sse" }},
		{"country code", func(a *App) { a.Checkout.DefaultCountryCode = "91" }},
		{"empty api", func(a *App) { a.API.BaseURL = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
