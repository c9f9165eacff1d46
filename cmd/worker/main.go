package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sahelpay/momo/internal/bootstrap"
	"github.com/sahelpay/momo/internal/infrastructure/config"
	infraRedis "github.com/sahelpay/momo/internal/infrastructure/redis"
	"github.com/sahelpay/momo/internal/phone"
	"github.com/sahelpay/momo/internal/providers"
	"github.com/sahelpay/momo/internal/service"
	"github.com/sahelpay/momo/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "momo-worker", "momo_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	validator := phone.NewValidator(app.Registry)
	factory := providers.NewFactoryWithSettings(
		breakerSettings(app.Config.Payment), providers.DefaultAdapters(app.Registry)...)

	var publisher service.EventPublisher
	if app.Redis != nil {
		publisher = infraRedis.NewStreamProducer(app.Redis)
	}
	paymentService := service.NewPaymentService(
		app.PaymentRepo, app.Registry, validator, factory, publisher, app.Logger)

	sweeper := worker.NewSweeper(paymentService, app.PaymentRepo, app.Redis, worker.SweeperConfig{
		Interval:  app.Config.Worker.SweepInterval,
		BatchSize: app.Config.Worker.SweepBatchSize,
		LockTTL:   app.Config.Payment.LockTTL,
	}, app.Metrics, app.Logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Msg("Starting sweeper")
		return sweeper.Run(gctx)
	})

	if app.Redis != nil {
		dispatcher := worker.NewDispatcher(app.Redis, worker.DispatcherConfig{
			Group:         app.Config.Worker.ConsumerGroup,
			Consumer:      app.Config.InstanceID,
			BatchSize:     app.Config.Worker.BatchSize,
			BlockDuration: app.Config.Worker.BlockDuration,
			Timeout:       app.Config.Worker.WebhookTimeout,
			Attempts:      app.Config.Worker.WebhookAttempts,
		}, app.Metrics, app.Logger)

		g.Go(func() error {
			app.Logger.Info().Msg("Starting callback dispatcher")
			return dispatcher.Run(gctx)
		})
	} else {
		app.Logger.Warn().Msg("Redis disabled, callback dispatcher not started")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Worker exited with error")
		os.Exit(1)
	}
	app.Logger.Info().Msg("Worker exited")
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
