package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	DatabaseURL        string
	CORSAllowedOrigins []string

	CatalogPath     string
	RulesPath       string
	CatalogCacheTTL time.Duration
	SessionTTL      time.Duration
	SessionLockTTL  time.Duration

	PricingSetupCategory string
	PricingOneTimeUnits  []string

	RateLimitRPM int

	MaxBodyBytes    int64
	SecurityHeaders bool
	EnableHSTS      bool

	CatalogLoadAttempts int
	CatalogBreakerOpen  time.Duration

	Obs ObsConfig
}

// ObsConfig controls logging, metrics and tracing.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsBuckets   string
	EnablePrometheus bool
	EnableTracing    bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	EnablePprof      bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CatalogPath:     valueOrDefault(k.String("CATALOG_PATH"), "configs/catalog.yaml"),
		RulesPath:       valueOrDefault(k.String("RULES_PATH"), "configs/rules.yaml"),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		SessionTTL:      parseDuration(k.String("SESSION_TTL"), "72h"),
		SessionLockTTL:  parseDuration(k.String("SESSION_LOCK_TTL"), "5s"),

		PricingSetupCategory: valueOrDefault(k.String("PRICING_SETUP_CATEGORY"), "setup"),
		PricingOneTimeUnits:  splitAndTrim(valueOrDefault(k.String("PRICING_ONETIME_UNITS"), "one-time,onetime,once,setup")),

		RateLimitRPM: parseInt(k.String("RATE_LIMIT_RPM"), 120),

		MaxBodyBytes:    int64(parseInt(k.String("HTTP_MAX_BODY_BYTES"), 1<<20)),
		SecurityHeaders: parseBool(k.String("SECURITY_HEADERS_ENABLE"), true),
		EnableHSTS:      parseBool(k.String("SECURITY_ENABLE_HSTS"), false),

		CatalogLoadAttempts: parseInt(k.String("CATALOG_LOAD_ATTEMPTS"), 3),
		CatalogBreakerOpen:  parseDuration(k.String("CATALOG_BREAKER_OPEN"), "30s"),

		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "quote"),
			MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
			EnablePrometheus: parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
			EnablePprof:      parseBool(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.SessionLockTTL <= 0 {
		return nil, errors.New("SESSION_LOCK_TTL must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// UsesDatabaseCatalog reports whether the catalog is read from Postgres.
func (c *Config) UsesDatabaseCatalog() bool {
	return c.DatabaseURL != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
