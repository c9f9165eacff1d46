package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sahelpay/momo/internal/bootstrap"
	"github.com/sahelpay/momo/internal/controller"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/infrastructure/config"
	infraRedis "github.com/sahelpay/momo/internal/infrastructure/redis"
	"github.com/sahelpay/momo/internal/phone"
	"github.com/sahelpay/momo/internal/poller"
	"github.com/sahelpay/momo/internal/providers"
	"github.com/sahelpay/momo/internal/service"
	"github.com/sahelpay/momo/internal/settings"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "momo-api", "momo")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Domain wiring ---
	validator := phone.NewValidator(app.Registry)

	var adapterOpts []providers.Option
	if app.Config.Simulation.Latency > 0 {
		adapterOpts = append(adapterOpts, providers.WithLatency(app.Config.Simulation.Latency))
	}
	if app.Config.Simulation.FailureRate > 0 {
		adapterOpts = append(adapterOpts, providers.WithFailureRate(app.Config.Simulation.FailureRate))
	}
	if app.Config.Simulation.TimeoutRate > 0 {
		adapterOpts = append(adapterOpts, providers.WithTimeoutRate(app.Config.Simulation.TimeoutRate))
	}
	factory := providers.NewFactoryWithSettings(
		breakerSettings(app.Config.Payment),
		providers.DefaultAdapters(app.Registry, adapterOpts...)...)

	var publisher service.EventPublisher
	settingsStore := settings.Store(settings.NewMemoryStore())
	if app.Redis != nil {
		publisher = infraRedis.NewStreamProducer(app.Redis)
		settingsStore = settings.NewRedisStore(app.Redis)
	}

	// Every initiated payment gets a poll watch so this instance advances
	// payments on its own, with or without the worker binary running.
	watchCtx, stopWatches := context.WithCancel(ctx)
	defer stopWatches()
	watcher := &statusWatcher{next: publisher, ctx: watchCtx}

	paymentService := service.NewPaymentService(
		app.PaymentRepo, app.Registry, validator, factory, watcher, app.Logger)
	watcher.poller = poller.New(paymentService, app.Logger,
		poller.WithInterval(app.Config.Payment.PollInterval))

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		PaymentService: paymentService,
		Registry:       app.Registry,
		PhoneValidator: validator,
		SettingsStore:  settingsStore,
		HealthBackends: healthBackends(app),
		Metrics:        app.Metrics,
		CORSConfig:     app.Config.Server.CORS,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}

func healthBackends(app *bootstrap.App) map[string]controller.Pinger {
	backends := map[string]controller.Pinger{}
	if app.Pool != nil {
		backends["database"] = pingFunc(app.Pool.Ping)
	}
	if app.SQLiteDB != nil {
		backends["database"] = sqlPinger{app.SQLiteDB}
	}
	if app.Redis != nil {
		backends["redis"] = redisPinger{app.Redis}
	}
	return backends
}

func breakerSettings(cfg config.PaymentConfig) providers.BreakerSettings {
	return providers.BreakerSettings{
		MaxRequests:  cfg.BreakerMaxRequests,
		Interval:     cfg.BreakerInterval,
		Timeout:      cfg.BreakerTimeout,
		MinRequests:  cfg.BreakerMinRequests,
		FailureRatio: cfg.BreakerFailureRatio,
	}
}

// statusWatcher starts a poll watch for each freshly initiated payment and
// forwards every lifecycle event to the wrapped publisher. Watches end on
// their own when the payment turns terminal.
type statusWatcher struct {
	next   service.EventPublisher
	poller *poller.Poller
	ctx    context.Context
}

func (s *statusWatcher) PublishPaymentEvent(ctx context.Context, eventType string, p *payment.Payment) error {
	if eventType == "payment.initiated" && s.poller != nil {
		w := s.poller.Watch(s.ctx, p.ID)
		go func() {
			for range w.Updates() {
			}
		}()
	}
	if s.next == nil {
		return nil
	}
	return s.next.PublishPaymentEvent(ctx, eventType, p)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type sqlPinger struct{ db *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

type redisPinger struct{ client *goredis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }
