package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/infrastructure/cache"
	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/joaodebarro/backend/internal/infrastructure/logger"
	"github.com/joaodebarro/backend/internal/infrastructure/persistence"
	"github.com/joaodebarro/backend/internal/infrastructure/telemetry"
	"github.com/joaodebarro/backend/internal/interfaces/http/handler"
	"github.com/joaodebarro/backend/internal/interfaces/http/middleware"
	"github.com/joaodebarro/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// telemetryProviders are no-ops unless enabled in config
type telemetryProviders struct {
	tracer  *telemetry.TracerProvider
	meters  *telemetry.MeterProvider
	finance *telemetry.FinanceMetrics
}

func startTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger, closers *cleanup) (*telemetryProviders, error) {
	tc := cfg.Telemetry

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("initialize tracer provider: %w", err)
	}
	closers.add("tracer provider", tracer.Shutdown)

	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("initialize meter provider: %w", err)
	}
	closers.add("meter provider", meters.Shutdown)

	fm, err := telemetry.NewFinanceMetrics(meters.Meter("bookkeeping/finance"))
	if err != nil {
		return nil, fmt.Errorf("create finance metrics: %w", err)
	}
	return &telemetryProviders{tracer: tracer, meters: meters, finance: fm}, nil
}

type stores struct {
	db          *persistence.Database
	receivables finance.ReceivableRepository
	payables    finance.PayableRepository
	preferences finance.PreferenceStore
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger, tel *telemetryProviders, closers *cleanup) (*stores, error) {
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log.Named("gorm"), logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:         tel.tracer.IsEnabled() && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	closers.add("database", func(context.Context) error { return db.Close() })
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("dbname", cfg.Database.DBName))

	// Redis, falling back to memory when unreachable
	prefs, err := cache.NewPreferenceStoreFactory(cfg.Preferences, cfg.Redis,
		cache.WithLogger(log.Named("preferences")),
	).CreateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create preference store: %w", err)
	}
	closers.add("preference store", func(context.Context) error { return prefs.Close() })

	return &stores{
		db:          db,
		receivables: persistence.NewGormReceivableRepository(db.DB),
		payables:    persistence.NewGormPayableRepository(db.DB),
		preferences: prefs,
	}, nil
}

func buildHandlers(cfg *config.Config, log *zap.Logger, s *stores, tel *telemetryProviders) (router.Handlers, error) {
	// "today" is the calendar date in the configured business time zone
	loc, err := cfg.Finance.Location()
	if err != nil {
		return router.Handlers{}, fmt.Errorf("finance timezone: %w", err)
	}

	opts := []financeapp.ServiceOption{
		financeapp.WithLogger(log),
		financeapp.WithClock(shared.NewSystemClock(loc)),
		financeapp.WithMetrics(tel.finance),
		financeapp.WithDefaultCurrency(cfg.Finance.DefaultCurrency),
		financeapp.WithDefaultIssRate(cfg.Finance.DefaultIssRate),
	}
	installments := financeapp.NewInstallmentService(opts...)

	return router.Handlers{
		Receivables: handler.NewReceivableHandler(financeapp.NewReceivableService(s.receivables, opts...), installments),
		Payables:    handler.NewPayableHandler(financeapp.NewPayableService(s.payables, opts...), installments),
		Dashboard:   handler.NewDashboardHandler(financeapp.NewDashboardService(s.receivables, s.payables, opts...)),
		Preferences: handler.NewPreferenceHandler(financeapp.NewPreferenceService(s.preferences, opts...)),
		System:      handler.NewSystemHandler(cfg.App.Name, version, s.db),
	}, nil
}

// newEngine builds the gin engine with the middleware chain in order:
// tracing starts the span, request IDs are tagged onto it, panics are
// recovered and logged, error codes mark the span and the metrics, and the
// guards (headers, CORS, body limit, timeout, rate limit) run last.
func newEngine(cfg *config.Config, log *zap.Logger, meters *telemetry.MeterProvider) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.RequestID(),
		middleware.TracingAttributeInjector(),
		logger.Recovery(log),
		logger.GinMiddleware(log, "/health"),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meters,
			Enabled:       cfg.Telemetry.MetricsEnabled,
		}),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			MaxAge:        12 * time.Hour,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)))
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}
	return engine, nil
}
