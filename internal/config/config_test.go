package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":              "redis://localhost:6379/0",
		"DATABASE_URL":           "",
		"CATALOG_PATH":           "",
		"SESSION_TTL":            "",
		"RATE_LIMIT_RPM":         "",
		"OBS_ENABLE_TRACING":     "",
		"PRICING_ONETIME_UNITS":  "",
		"PRICING_SETUP_CATEGORY": "",
		"HTTP_MAX_BODY_BYTES":    "",
		"CATALOG_LOAD_ATTEMPTS":  "",
		"CATALOG_BREAKER_OPEN":   "",
	})
	require.NoError(t, err)
	require.Equal(t, "configs/catalog.yaml", cfg.CatalogPath)
	require.Equal(t, 72*time.Hour, cfg.SessionTTL)
	require.Equal(t, 120, cfg.RateLimitRPM)
	require.False(t, cfg.Obs.EnableTracing)
	require.Equal(t, "setup", cfg.PricingSetupCategory)
	require.Equal(t, []string{"one-time", "onetime", "once", "setup"}, cfg.PricingOneTimeUnits)
	require.False(t, cfg.UsesDatabaseCatalog())
	require.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	require.Equal(t, 3, cfg.CatalogLoadAttempts)
	require.Equal(t, 30*time.Second, cfg.CatalogBreakerOpen)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":                  "redis://cache:6379/1",
		"DATABASE_URL":               "postgres://quote@db/quote",
		"PORT":                       ":9090",
		"SESSION_TTL":                "30m",
		"CATALOG_CACHE_TTL":          "bogus",
		"CORS_ALLOWED_ORIGINS":       "https://a.example, https://b.example ,",
		"OBS_ENABLE_PROMETHEUS":      "off",
		"OBS_TRACING_SAMPLING_RATIO": "0.25",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.Obs.EnablePrometheus)
	require.Equal(t, 0.25, cfg.Obs.SamplingRatio)
	require.True(t, cfg.UsesDatabaseCatalog())
}

func TestLoadRequiresRedis(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"REDIS_URL": ""})
	require.EqualError(t, err, "REDIS_URL is required")
}
