package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults and bounds for the numeric settings.
const (
	DefaultProviderTimeout = 10 * time.Second
	MinProviderTimeout     = 1 * time.Second
	MaxProviderTimeout     = 30 * time.Second

	DefaultCacheTTL = 60 * time.Second
	MaxCacheTTL     = 5 * time.Minute

	DefaultRateLimitWindow = 60 * time.Second
	MinRateLimitWindow     = 1 * time.Second
	MaxRateLimitWindow     = 10 * time.Minute

	DefaultRateLimitMax = 10
	MaxRateLimitMax     = 100

	DefaultHouseholdServings = 4
	MaxHouseholdServings     = 50
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath      string
	Port              string
	LogLevel          string
	LogFormat         string
	HouseholdServings int
	ChecklistStoreID  string

	// Checkout provider
	ProviderURL     string
	ProviderAPIKey  string
	ProviderTimeout time.Duration
	CacheTTL        time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int

	// Tracing
	TraceExporter string
	OTLPEndpoint  string
	OTLPInsecure  bool

	// Telegram Config
	TelegramBotToken    string
	TelegramWebhookURL  string
	TelegramAllowUserID int64
}

// ProviderConfigured reports whether both the provider endpoint and key are set.
func (c *Config) ProviderConfigured() bool {
	return c.ProviderURL != "" && c.ProviderAPIKey != ""
}

// NewFromEnv creates a new Config object from environment variables.
// Nothing is mandatory here; binaries that need a setting check it themselves.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		DatabasePath:      stringOr("DATABASE_PATH", "data/meal-planner.db"),
		Port:              stringOr("PORT", "8080"),
		LogLevel:          stringOr("LOG_LEVEL", "info"),
		LogFormat:         stringOr("LOG_FORMAT", "json"),
		HouseholdServings: clampInt(intOr("HOUSEHOLD_SERVINGS", DefaultHouseholdServings), 1, MaxHouseholdServings),
		ChecklistStoreID:  strings.TrimSpace(os.Getenv("CHECKLIST_STORE_ID")),

		ProviderURL:     strings.TrimSpace(os.Getenv("CHECKOUT_PROVIDER_URL")),
		ProviderAPIKey:  strings.TrimSpace(os.Getenv("CHECKOUT_PROVIDER_API_KEY")),
		ProviderTimeout: clampMillis("CHECKOUT_PROVIDER_TIMEOUT_MS", DefaultProviderTimeout, MinProviderTimeout, MaxProviderTimeout),
		CacheTTL:        clampMillis("CHECKOUT_CACHE_TTL_MS", DefaultCacheTTL, 0, MaxCacheTTL),
		RateLimitWindow: clampMillis("CHECKOUT_RATE_LIMIT_WINDOW_MS", DefaultRateLimitWindow, MinRateLimitWindow, MaxRateLimitWindow),
		RateLimitMax:    clampInt(intOr("CHECKOUT_RATE_LIMIT_MAX", DefaultRateLimitMax), 1, MaxRateLimitMax),

		TraceExporter: strings.ToLower(stringOr("TRACE_EXPORTER", "none")),
		OTLPEndpoint:  stringOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:  os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	if raw := os.Getenv("TELEGRAM_ALLOW_USER_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOW_USER_ID must be an integer: %w", err)
		}
		cfg.TelegramAllowUserID = id
	}

	return cfg, nil
}

func stringOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// intOr returns fallback for missing or unparsable values.
func intOr(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampMillis clamps in whole milliseconds so huge values cannot overflow
// the Duration conversion.
func clampMillis(key string, fallback, lo, hi time.Duration) time.Duration {
	ms := intOr(key, int(fallback.Milliseconds()))
	ms = clampInt(ms, int(lo.Milliseconds()), int(hi.Milliseconds()))
	return time.Duration(ms) * time.Millisecond
}
