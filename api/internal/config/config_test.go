package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_TRANSPORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "k", cfg.GeminiAPIKey)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	require.Equal(t, "sdk", cfg.GeminiTransport)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", " k ")
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_TRANSPORT", "REST")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "k", cfg.GeminiAPIKey)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "rest", cfg.GeminiTransport)
	require.Equal(t, "tg", cfg.TelegramBotToken)
}

func TestLoad_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}
