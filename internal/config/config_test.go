package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EntryBot/internal/constants"
)

var allKeys = []string{
	"TELEGRAM_APITOKEN", "DATABASE_URL", "ENV", "BOT_USERNAME", "ACCESS_CODE",
	"POLL_INTERVAL", "POLL_TIMEOUT", "POLL_PERSIST_WATERMARK", "NOTIFY_TEMPLATE",
	"SHEET_NAME", "PORT", "FORM_URL", "CORS_ORIGINS", "TELEGRAM_API_ENDPOINT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, constants.DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, constants.DefaultPollTimeout, cfg.PollTimeout)
	assert.False(t, cfg.PersistWatermark)
	assert.Equal(t, constants.DefaultSheetName, cfg.SheetName)
	assert.Equal(t, constants.DefaultHTTPPort, cfg.HTTPPort)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Debug())
	assert.Error(t, cfg.ValidateForBot())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_APITOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://bot:s3cret@db:5432/entries?sslmode=disable")
	t.Setenv("ENV", "dev")
	t.Setenv("BOT_USERNAME", "@entry_bot")
	t.Setenv("ACCESS_CODE", "letmein")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("POLL_TIMEOUT", "750ms")
	t.Setenv("POLL_PERSIST_WATERMARK", "true")
	t.Setenv("SHEET_NAME", "Clients")
	t.Setenv("PORT", "9090")
	t.Setenv("FORM_URL", "https://forms.example.com")
	t.Setenv("CORS_ORIGINS", "https://forms.example.com, ,https://admin.example.com")
	t.Setenv("TELEGRAM_API_ENDPOINT", " http://bot-api:8081/bot%s/%s ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "entry_bot", cfg.BotUsername)
	assert.Equal(t, "http://bot-api:8081/bot%s/%s", cfg.TelegramEndpoint)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.PollTimeout)
	assert.True(t, cfg.PersistWatermark)
	assert.Equal(t, "Clients", cfg.SheetName)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, []string{"https://forms.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Debug())
	assert.NoError(t, cfg.ValidateForBot())
	assert.NotContains(t, cfg.RedactedDatabaseURL(), "s3cret")
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLL_INTERVAL", "soon")
	t.Setenv("POLL_TIMEOUT", "-1s")
	t.Setenv("POLL_PERSIST_WATERMARK", "maybe")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, constants.DefaultPollTimeout, cfg.PollTimeout)
	assert.False(t, cfg.PersistWatermark)
}

func TestLoadConfig_BadDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://bad host:%zz/db")

	_, err := LoadConfig()
	assert.Error(t, err)
}
