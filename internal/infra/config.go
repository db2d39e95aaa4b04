package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	GeoIPDBPath        string
	DefaultLocale      string
	CORSAllowedOrigins []string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	GeminiBackend      string
	GeminiTimeout      time.Duration
	BatchSize          int
	BatchHistory       int
	MaxUploadBytes     int64
	StoragePath        string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// The Gemini API key is optional here; generation calls report its absence.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      strings.ToLower(getEnv("DEFAULT_LOCALE", "id")),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiBackend:      strings.ToLower(getEnv("GEMINI_BACKEND", "rest")),
		GeminiTimeout:      time.Second * time.Duration(getEnvInt("GEMINI_TIMEOUT_SECONDS", 60)),
		BatchSize:          getEnvInt("BATCH_SIZE", 6),
		BatchHistory:       getEnvInt("BATCH_HISTORY", 32),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
	}

	switch cfg.GeminiBackend {
	case "rest", "sdk":
	default:
		return nil, fmt.Errorf("GEMINI_BACKEND must be rest or sdk, got %q", cfg.GeminiBackend)
	}

	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("BATCH_SIZE must be at least 1")
	}

	if cfg.GeminiTimeout < time.Second {
		return nil, fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be at least 1")
	}

	if cfg.DefaultLocale != "id" && cfg.DefaultLocale != "en" {
		cfg.DefaultLocale = "id"
	}

	return cfg, nil
}

// HasDatabase reports whether a database connection is configured.
func (c *Config) HasDatabase() bool {
	return c != nil && c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
