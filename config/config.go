package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Fetcher   FetcherConfig
	Renderer  RendererConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// SiteConfig pins the target origin and locale identity.
type SiteConfig struct {
	// BaseURL is the origin relative product URLs are joined onto.
	BaseURL string // default: "https://www.walmart.com.mx"

	// AcceptLanguage is sent on every request; the origin serves different
	// content (or blocks) without a locale-appropriate value.
	AcceptLanguage string // default: "es-MX,es;q=0.9,en;q=0.8"
}

// FetcherConfig controls plain HTTP retrieval.
type FetcherConfig struct {
	// Timeout is the per-request deadline.
	Timeout time.Duration // default: 20s

	// MaxAttempts bounds retries on transient status codes.
	MaxAttempts int // default: 3

	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration // default: 500ms

	// Proxy is an optional proxy URL for all requests.
	Proxy string
}

// RendererConfig controls the Rod browser fallback.
type RendererConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// Timeout is the deadline for a full render including waits.
	Timeout time.Duration // default: 45s

	// SignalTimeout bounds the wait on each individual content signal.
	SignalTimeout time.Duration // default: 8s

	// SettleDelay is the fixed pause after a signal fires, letting
	// client-side hydration attach prices and badges.
	SettleDelay time.Duration // default: 1500ms
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per identity.
	Burst int // default: 5
}

// CacheConfig controls the session result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("OFERTAS_HOST", "0.0.0.0"),
			Port: envIntOr("OFERTAS_PORT", 8080),
			Mode: envOr("OFERTAS_MODE", "release"),
		},
		Site: SiteConfig{
			BaseURL:        envOr("OFERTAS_BASE_URL", "https://www.walmart.com.mx"),
			AcceptLanguage: envOr("OFERTAS_ACCEPT_LANGUAGE", "es-MX,es;q=0.9,en;q=0.8"),
		},
		Fetcher: FetcherConfig{
			Timeout:     envDurationOr("OFERTAS_FETCH_TIMEOUT", 20*time.Second),
			MaxAttempts: envIntOr("OFERTAS_FETCH_ATTEMPTS", 3),
			BackoffBase: envDurationOr("OFERTAS_FETCH_BACKOFF", 500*time.Millisecond),
			Proxy:       os.Getenv("OFERTAS_PROXY"),
		},
		Renderer: RendererConfig{
			Headless:      envBoolOr("OFERTAS_HEADLESS", true),
			NoSandbox:     envBoolOr("OFERTAS_NO_SANDBOX", false),
			BrowserBin:    os.Getenv("OFERTAS_BROWSER_BIN"),
			MaxPages:      envIntOr("OFERTAS_MAX_PAGES", 4),
			Timeout:       envDurationOr("OFERTAS_RENDER_TIMEOUT", 45*time.Second),
			SignalTimeout: envDurationOr("OFERTAS_SIGNAL_TIMEOUT", 8*time.Second),
			SettleDelay:   envDurationOr("OFERTAS_SETTLE_DELAY", 1500*time.Millisecond),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("OFERTAS_AUTH_ENABLED", false),
			APIKeys: envSliceOr("OFERTAS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("OFERTAS_RATE_RPS", 2.0),
			Burst:             envIntOr("OFERTAS_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("OFERTAS_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("OFERTAS_LOG_LEVEL", "info"),
			Format: envOr("OFERTAS_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
