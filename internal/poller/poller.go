// Package poller watches in-flight payments and surfaces status changes as
// they land in the store.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/zoobzio/clockz"
)

// DefaultInterval is the poll cadence when none is configured.
const DefaultInterval = 5 * time.Second

// StatusChecker refreshes a payment's status, typically by asking the
// provider and applying any observed change through the store.
type StatusChecker interface {
	CheckPaymentStatus(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
}

// Poller spawns watches over individual payments. Watches are independent;
// stopping one never affects another.
type Poller struct {
	checker  StatusChecker
	interval time.Duration
	clock    clockz.Clock
	logger   zerolog.Logger
}

// Option configures the poller.
type Option func(*Poller)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock injects the clock. Default is clockz.RealClock.
func WithClock(c clockz.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// New creates a poller over the given status checker.
func New(checker StatusChecker, logger zerolog.Logger, opts ...Option) *Poller {
	p := &Poller{
		checker:  checker,
		interval: DefaultInterval,
		clock:    clockz.RealClock,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch is a handle on one payment's poll loop.
type Watch struct {
	updates  chan *payment.Payment
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Updates emits the payment after every observed status change. The channel
// closes when the payment reaches a terminal status or the watch stops.
func (w *Watch) Updates() <-chan *payment.Payment {
	return w.updates
}

// Stop cancels the watch and blocks until the loop has fully exited. An
// in-flight status check completes before the loop stops; no checker call
// starts after Stop returns. Idempotent.
func (w *Watch) Stop() {
	w.stopOnce.Do(w.cancel)
	<-w.done
}

// Watch begins polling the payment with the given id. The loop runs until
// the payment turns terminal, the context is cancelled, or Stop is called.
func (p *Poller) Watch(ctx context.Context, id uuid.UUID) *Watch {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watch{
		updates: make(chan *payment.Payment, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go p.run(ctx, id, w)
	return w
}

func (p *Poller) run(ctx context.Context, id uuid.UUID, w *Watch) {
	defer close(w.done)
	defer close(w.updates)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	var lastStatus payment.Status

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		// The check runs to completion once started; cancellation is only
		// observed at the top of the loop.
		current, err := p.checker.CheckPaymentStatus(context.WithoutCancel(ctx), id)
		if err != nil {
			// Transient provider errors are expected; keep polling.
			p.logger.Warn().Err(err).Str("payment_id", id.String()).Msg("status check failed")
			continue
		}

		if current.Status != lastStatus {
			lastStatus = current.Status
			select {
			case w.updates <- current:
			case <-ctx.Done():
				return
			}
		}

		if current.IsTerminal() {
			return
		}
	}
}
