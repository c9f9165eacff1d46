// Package bootstrap assembles the shared pieces both binaries need: config,
// logging, tracing, metrics, the payment store, and optional Redis.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/infrastructure/config"
	"github.com/sahelpay/momo/internal/infrastructure/observability"
	infraRedis "github.com/sahelpay/momo/internal/infrastructure/redis"
	"github.com/sahelpay/momo/internal/registry"
	"github.com/sahelpay/momo/internal/repository/memory"
	"github.com/sahelpay/momo/internal/repository/postgres"
	"github.com/sahelpay/momo/internal/repository/sqlite"
)

type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Metrics     *observability.Metrics
	Registry    *registry.Registry
	PaymentRepo payment.Repository

	// Set depending on storage.driver and redis.enabled; nil otherwise.
	Pool     *pgxpool.Pool
	SQLiteDB *sql.DB
	Redis    *goredis.Client

	shutdownTracer func(context.Context) error
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(serviceName, cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Msg("Starting")

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: buildRegistry(cfg),
	}

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			app.shutdownTracer = shutdown
			logger.Info().Msg("Tracing enabled")
		}
	}

	app.Metrics = observability.NewMetrics(metricsNamespace, nil)

	switch cfg.Storage.Driver {
	case "memory":
		app.PaymentRepo = memory.NewPaymentRepository()
		logger.Info().Msg("Using in-memory payment store")
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		app.SQLiteDB = db
		app.PaymentRepo = sqlite.NewPaymentRepository(db)
		logger.Info().Str("path", cfg.Storage.SQLitePath).Msg("Using SQLite payment store")
	case "postgres":
		pool, err := postgres.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		app.Pool = pool
		app.PaymentRepo = postgres.NewPaymentRepository(pool)
		logger.Info().Msg("Connected to PostgreSQL")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Redis.Enabled {
		client, err := infraRedis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		app.Redis = client
		logger.Info().Msg("Connected to Redis")
	}

	return app, nil
}

// buildRegistry converts configured provider settings into the provider
// registry, falling back to sandbox defaults for the rest.
func buildRegistry(cfg *config.Config) *registry.Registry {
	configs := make(map[payment.Provider]registry.ProviderConfig, len(cfg.Providers))
	for name, ps := range cfg.Providers {
		p := payment.Provider(name)
		configs[p] = registry.ProviderConfig{
			Provider:    p,
			MerchantID:  ps.MerchantID,
			APIKey:      ps.APIKey,
			APISecret:   ps.APISecret,
			Environment: registry.Environment(ps.Environment),
			CallbackURL: ps.CallbackURL,
			WebhookURL:  ps.WebhookURL,
			Extra:       ps.Extra,
		}
	}
	return registry.New(configs)
}

func (a *App) Close() {
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(context.Background()); err != nil {
			a.Logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.SQLiteDB != nil {
		a.SQLiteDB.Close()
	}
}
