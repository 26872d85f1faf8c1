package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	GeminiAPIKey    string
	GeminiModel     string
	GeminiTransport string // "sdk" | "rest"
	GeminiBaseURL   string

	LogLevel  string
	LogFormat string

	TelegramBotToken string
	WebhookURL       string
}

var ErrMissingAPIKey = errors.New("missing required env GEMINI_API_KEY")

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads the environment, after merging a .env file when one exists.
// The Gemini key is the only required value.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTransport: strings.ToLower(getEnv("GEMINI_TRANSPORT", "sdk")),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}
