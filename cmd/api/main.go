package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/config"
	"github.com/noah-isme/backend-quote/internal/db"
	"github.com/noah-isme/backend-quote/internal/discount"
	"github.com/noah-isme/backend-quote/internal/events"
	"github.com/noah-isme/backend-quote/internal/health"
	"github.com/noah-isme/backend-quote/internal/obs"
	"github.com/noah-isme/backend-quote/internal/quote"
	"github.com/noah-isme/backend-quote/internal/ratelimit"
	"github.com/noah-isme/backend-quote/internal/resilience"
	"github.com/noah-isme/backend-quote/internal/rules"
	"github.com/noah-isme/backend-quote/internal/security"
	"github.com/noah-isme/backend-quote/internal/session"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quoteMetrics := obs.NewQuoteMetrics(cfg.Obs.MetricsNamespace, nil)

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "quote-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	var (
		pool   *pgxpool.Pool
		origin catalog.Source = catalog.FileSource{Path: cfg.CatalogPath}
	)
	if cfg.UsesDatabaseCatalog() {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
		pool, err = db.Connect(ctx, cfg.DatabaseURL, "quote-api")
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		origin = catalog.GuardedSource{
			Origin: catalog.PGSource{DB: pool},
			Breaker: resilience.NewBreaker(resilience.BreakerConfig{
				Target:      "catalog_db",
				MinRequests: 3,
				OpenFor:     cfg.CatalogBreakerOpen,
				Metrics:     resilience.NewMetrics(cfg.Obs.MetricsNamespace, nil),
				Logger:      logger,
			}),
			Attempts:  cfg.CatalogLoadAttempts,
			BaseDelay: 200 * time.Millisecond,
		}
	}

	bus := &events.Bus{Notifiers: []events.Notifier{
		events.LogNotifier{Logger: logger.With().Str("component", "events").Logger()},
		events.MetricsNotifier{Added: quoteMetrics.RowsAdded, Removed: quoteMetrics.RowsRemoved},
	}}

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Source: catalog.CachedSource{Origin: origin, Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL)},
		Logger: logger.With().Str("component", "catalog").Logger(),
		OnReload: func(cat *catalog.Catalog, issues []catalog.Issue) {
			for _, issue := range issues {
				quoteMetrics.ObserveDiagnostic(string(issue.Kind))
			}
			payload := events.CatalogReloaded{Items: cat.Len(), Diagnostics: len(issues)}
			if _, err := bus.Emit(context.Background(), events.TopicCatalogReloaded, "catalog", payload); err != nil {
				logger.Warn().Err(err).Msg("emit catalog reload")
			}
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init catalog")
	}
	if _, err := catalogSvc.Reload(ctx, false); err != nil {
		logger.Fatal().Err(err).Msg("load catalog")
	}

	ruleSet, err := rules.LoadFile(cfg.RulesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load rules")
	}

	quoteSvc, err := quote.NewService(quote.Config{
		Catalog:   catalogSvc,
		Rules:     ruleSet,
		Store:     session.NewStore(redisClient, cfg.SessionTTL),
		Locker:    session.Locker{R: redisClient, TTL: cfg.SessionLockTTL},
		Publisher: quote.BusPublisher{Bus: bus},
		Buckets: discount.Buckets{
			SetupCategory: cfg.PricingSetupCategory,
			OneTimeUnits:  cfg.PricingOneTimeUnits,
		},
		Metrics: quoteMetrics,
		Logger:  logger.With().Str("component", "quote").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init quote service")
	}

	limiterStore, err := ratelimit.NewRedisStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("init rate limiter")
	}
	limit := ratelimit.Handler{
		Limiter: ratelimit.PerMinute(limiterStore, cfg.RateLimitRPM),
		Key:     ratelimit.ByClientIP,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	probes := []health.Probe{
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		{Name: "catalog", Check: func(context.Context) error {
			if !catalogSvc.Ready() {
				return errors.New("catalog not loaded")
			}
			return nil
		}},
	}
	if pool != nil {
		probes = append(probes, health.Probe{Name: "db", Check: pool.Ping, Timeout: 500 * time.Millisecond})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.Obs.EnablePrometheus {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.EnablePprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	healthHandler := health.Handler{Probes: probes}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogSvc})
	quoteHandler := quote.NewHandler(quoteSvc, quote.NewValidator())

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limit.Middleware)
		v.Route("/catalog", func(c chi.Router) {
			c.Get("/items", catalogHandler.Items)
			c.Get("/items/{id}", catalogHandler.Item)
			c.Get("/diagnostics", catalogHandler.Diagnostics)
			c.Post("/reload", catalogHandler.Reload)
		})
		v.Route("/quotes", quoteHandler.Routes)
	})

	var handler http.Handler = r
	if tracingEnabled {
		handler = otelhttp.NewHandler(r, "quote-api", otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logStartup(logger, cfg, catalogSvc)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func logStartup(logger zerolog.Logger, cfg *config.Config, catalogSvc *catalog.Service) {
	cat, rev := catalogSvc.Current()
	source := "file"
	if cfg.UsesDatabaseCatalog() {
		source = "postgres"
	}
	logger.Info().
		Str("addr", cfg.HTTPAddr()).
		Str("catalog_source", source).
		Int("catalog_items", cat.Len()).
		Uint64("catalog_revision", rev).
		Msg("server starting")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
