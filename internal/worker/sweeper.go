// Package worker holds the background loops: the sweeper that advances
// in-flight payments and the dispatcher that delivers callback webhooks.
package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/infrastructure/observability"
	infraRedis "github.com/sahelpay/momo/internal/infrastructure/redis"
	"github.com/sahelpay/momo/internal/service"
)

// Sweeper periodically reconciles non-terminal payments with their
// providers. With Redis configured, a per-payment distributed lock keeps
// concurrent worker instances from driving the same transition.
type Sweeper struct {
	service   *service.PaymentService
	repo      payment.Repository
	redis     *redis.Client
	interval  time.Duration
	batchSize int
	lockTTL   time.Duration
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// SweeperConfig tunes the sweep loop.
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
	LockTTL   time.Duration
}

// NewSweeper creates a sweeper. redisClient may be nil for single-instance
// deployments; locking is skipped then.
func NewSweeper(
	svc *service.PaymentService,
	repo payment.Repository,
	redisClient *redis.Client,
	cfg SweeperConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &Sweeper{
		service:   svc,
		repo:      repo,
		redis:     redisClient,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		lockTTL:   cfg.LockTTL,
		metrics:   metrics,
		logger:    logger.With().Str("component", "sweeper").Logger(),
	}
}

// Run sweeps until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
		}
	}()

	for _, status := range payment.InFlightStatuses() {
		status := status
		payments, err := s.repo.List(ctx, payment.ListFilter{
			Status: &status,
			Limit:  s.batchSize,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("status", string(status)).Msg("list in-flight payments")
			continue
		}

		for _, p := range payments {
			// Freshly created payments may still be mid-initiation.
			if p.Status == payment.StatusPending && time.Since(p.CreatedAt) < s.interval {
				continue
			}
			s.check(ctx, p)
		}
	}
}

func (s *Sweeper) check(ctx context.Context, p *payment.Payment) {
	if s.redis != nil {
		lock := infraRedis.NewDistributedLock(s.redis, "payment:"+p.ID.String(), s.lockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("acquire sweep lock")
			return
		}
		if !acquired {
			// Another instance owns this payment right now.
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				s.logger.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("release sweep lock")
			}
		}()
	}

	if _, err := s.service.CheckPaymentStatus(ctx, p.ID); err != nil {
		s.logger.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("sweep status check failed")
		if s.metrics != nil {
			s.metrics.PollsTotal.WithLabelValues("error").Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.PollsTotal.WithLabelValues("ok").Inc()
	}
}
