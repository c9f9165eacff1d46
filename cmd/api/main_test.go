package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/poller"
	"github.com/sahelpay/momo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct {
	mu    sync.Mutex
	calls int
}

func (c *countingChecker) CheckPaymentStatus(context.Context, uuid.UUID) (*payment.Payment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted)), nil
}

func (c *countingChecker) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordedEvent struct {
	eventType string
}

type recordingNext struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingNext) PublishPaymentEvent(_ context.Context, eventType string, _ *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType: eventType})
	return nil
}

func TestStatusWatcher_PollsInitiatedPayments(t *testing.T) {
	checker := &countingChecker{}
	next := &recordingNext{}
	w := &statusWatcher{
		next:   next,
		poller: poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond)),
		ctx:    t.Context(),
	}

	p := testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated))
	require.NoError(t, w.PublishPaymentEvent(t.Context(), "payment.initiated", p))

	assert.Eventually(t, func() bool { return checker.Calls() > 0 },
		5*time.Second, time.Millisecond)
	assert.Equal(t, []recordedEvent{{eventType: "payment.initiated"}}, next.events)
}

func TestStatusWatcher_IgnoresOtherEvents(t *testing.T) {
	checker := &countingChecker{}
	w := &statusWatcher{
		poller: poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond)),
		ctx:    t.Context(),
	}

	p := testutil.NewPayment(testutil.WithStatus(payment.StatusCancelled))
	require.NoError(t, w.PublishPaymentEvent(t.Context(), "payment.cancelled", p))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, checker.Calls())
}
