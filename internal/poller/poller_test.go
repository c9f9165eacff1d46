package poller_test

import (
	"context"
	"errors"
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
	"github.com/zoobzio/clockz"
)

// scriptedChecker returns the scripted results in order, repeating the last
// one. A nil entry stands for an error.
type scriptedChecker struct {
	mu      sync.Mutex
	script  []*payment.Payment
	i       int
	calls   int
	onCheck func()
}

func (c *scriptedChecker) CheckPaymentStatus(_ context.Context, _ uuid.UUID) (*payment.Payment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.onCheck != nil {
		c.onCheck()
	}
	p := c.script[c.i]
	if c.i < len(c.script)-1 {
		c.i++
	}
	if p == nil {
		return nil, errors.New("provider hiccup")
	}
	return p, nil
}

func (c *scriptedChecker) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func collect(t *testing.T, updates <-chan *payment.Payment, n int) []payment.Status {
	t.Helper()
	var got []payment.Status
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case p, ok := <-updates:
			if !ok {
				return got
			}
			got = append(got, p.Status)
		case <-timeout:
			t.Fatalf("timed out after %d of %d updates", len(got), n)
		}
	}
	return got
}

func TestWatch_EmitsOnStatusChange(t *testing.T) {
	checker := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusProcessing)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted)),
	}}
	p := poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond))

	w := p.Watch(context.Background(), uuid.New())
	defer w.Stop()

	got := collect(t, w.Updates(), 3)
	assert.Equal(t, []payment.Status{
		payment.StatusInitiated,
		payment.StatusProcessing,
		payment.StatusCompleted,
	}, got)
}

func TestWatch_ClosesAtTerminal(t *testing.T) {
	checker := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusFailed)),
	}}
	p := poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond))

	w := p.Watch(context.Background(), uuid.New())

	got := collect(t, w.Updates(), 1)
	require.Equal(t, []payment.Status{payment.StatusFailed}, got)

	select {
	case _, ok := <-w.Updates():
		assert.False(t, ok, "channel should be closed after a terminal status")
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after terminal status")
	}
}

func TestWatch_KeepsPollingThroughErrors(t *testing.T) {
	checker := &scriptedChecker{script: []*payment.Payment{
		nil,
		nil,
		testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted)),
	}}
	p := poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond))

	w := p.Watch(context.Background(), uuid.New())
	defer w.Stop()

	got := collect(t, w.Updates(), 1)
	assert.Equal(t, []payment.Status{payment.StatusCompleted}, got)
	assert.GreaterOrEqual(t, checker.Calls(), 3)
}

func TestWatch_StopBlocksUntilLoopExits(t *testing.T) {
	checker := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
	}}
	p := poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond))

	w := p.Watch(context.Background(), uuid.New())
	collect(t, w.Updates(), 1)

	w.Stop()
	// No checker call starts after Stop returns.
	calls := checker.Calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, checker.Calls())
}

func TestWatch_StopIdempotent(t *testing.T) {
	checker := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
	}}
	p := poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond))

	w := p.Watch(context.Background(), uuid.New())
	w.Stop()
	assert.NotPanics(t, w.Stop)
}

func TestWatch_ParentContextCancellation(t *testing.T) {
	checker := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
	}}
	p := poller.New(checker, zerolog.Nop(), poller.WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	w := p.Watch(ctx, uuid.New())
	collect(t, w.Updates(), 1)
	cancel()

	select {
	case <-time.After(5 * time.Second):
		t.Fatal("updates channel not closed after context cancellation")
	case _, ok := <-w.Updates():
		if ok {
			// Drain a buffered emission; the close must follow.
			_, ok = <-w.Updates()
			assert.False(t, ok)
		}
	}
}

func TestWatch_NoCheckBeforeFirstTick(t *testing.T) {
	clock := clockz.NewFakeClock()
	checker := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
	}}
	p := poller.New(checker, zerolog.Nop(),
		poller.WithInterval(time.Second), poller.WithClock(clock))

	w := p.Watch(context.Background(), uuid.New())
	defer w.Stop()

	// Let the loop reach its ticker; with no tick there must be no check.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, checker.Calls())

	clock.Advance(time.Second)
	clock.BlockUntilReady()

	got := collect(t, w.Updates(), 1)
	assert.Equal(t, []payment.Status{payment.StatusInitiated}, got)
	assert.Equal(t, 1, checker.Calls())
}

func TestWatch_StopBetweenTicksPreventsFurtherChecks(t *testing.T) {
	clock := clockz.NewFakeClock()
	checker := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
	}}
	p := poller.New(checker, zerolog.Nop(),
		poller.WithInterval(time.Second), poller.WithClock(clock))

	w := p.Watch(context.Background(), uuid.New())
	time.Sleep(50 * time.Millisecond)

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	collect(t, w.Updates(), 1)

	w.Stop()

	// Ticks after Stop never reach the checker.
	clock.Advance(time.Second)
	clock.BlockUntilReady()
	assert.Equal(t, 1, checker.Calls())

	_, ok := <-w.Updates()
	assert.False(t, ok, "updates channel should be closed after Stop")
}

func TestWatch_IndependentWatches(t *testing.T) {
	completed := &scriptedChecker{script: []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted)),
	}}
	p := poller.New(completed, zerolog.Nop(), poller.WithInterval(time.Millisecond))

	w1 := p.Watch(context.Background(), uuid.New())
	w2 := p.Watch(context.Background(), uuid.New())

	w1.Stop()

	got := collect(t, w2.Updates(), 1)
	assert.Equal(t, []payment.Status{payment.StatusCompleted}, got)
	w2.Stop()
}
