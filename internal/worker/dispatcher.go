package worker

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sahelpay/momo/internal/infrastructure/observability"
	infraRedis "github.com/sahelpay/momo/internal/infrastructure/redis"
	"github.com/sahelpay/momo/pkg/retry"
)

// Dispatcher consumes payment events off the Redis stream and delivers
// webhook notifications to each payment's callback URL.
type Dispatcher struct {
	consumer *infraRedis.StreamConsumer
	client   *http.Client
	retryCfg retry.Config
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// DispatcherConfig tunes webhook delivery.
type DispatcherConfig struct {
	Group         string
	Consumer      string
	BatchSize     int64
	BlockDuration time.Duration
	Timeout       time.Duration
	Attempts      uint
}

// NewDispatcher creates a dispatcher over the payment event stream.
func NewDispatcher(
	redisClient *redis.Client,
	cfg DispatcherConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	retryCfg := retry.DefaultConfig()
	if cfg.Attempts > 0 {
		retryCfg.MaxAttempts = cfg.Attempts
	}
	return &Dispatcher{
		consumer: infraRedis.NewStreamConsumer(
			redisClient, infraRedis.PaymentEventStream,
			cfg.Group, cfg.Consumer, cfg.BatchSize, cfg.BlockDuration),
		client:   &http.Client{Timeout: cfg.Timeout},
		retryCfg: retryCfg,
		metrics:  metrics,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Run consumes and delivers until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.consumer.CreateGroup(ctx); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := d.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Error().Err(err).Msg("read payment event stream")
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				d.handle(ctx, msg)
			}
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg redis.XMessage) {
	callbackURL, _ := msg.Values["callback_url"].(string)
	payload, _ := msg.Values["payload"].(string)
	eventType, _ := msg.Values["event_type"].(string)

	// Payments without a callback URL are acked straight away.
	if callbackURL != "" {
		if err := d.deliver(ctx, callbackURL, eventType, payload); err != nil {
			d.logger.Error().Err(err).
				Str("message_id", msg.ID).
				Str("callback_url", callbackURL).
				Msg("webhook delivery failed, giving up")
			if d.metrics != nil {
				d.metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
			}
			// Ack anyway: callbacks are best effort, consumers can use the
			// events endpoint to reconcile.
		} else if d.metrics != nil {
			d.metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
		}
	}

	if err := d.consumer.Ack(ctx, msg.ID); err != nil {
		d.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
	if d.metrics != nil {
		d.metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.PaymentEventStream, "processed").Inc()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, url, eventType, payload string) error {
	return retry.Do(ctx, d.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(payload)))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Momo-Event", eventType)

		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("callback returned %d", resp.StatusCode)
		}
		return nil
	})
}
