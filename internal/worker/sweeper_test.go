package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/phone"
	"github.com/sahelpay/momo/internal/providers"
	"github.com/sahelpay/momo/internal/registry"
	"github.com/sahelpay/momo/internal/service"
	"github.com/sahelpay/momo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSweeperFixture(t *testing.T, adapter *testutil.FakeAdapter) (*Sweeper, *testutil.MockPaymentRepository) {
	t.Helper()
	reg := registry.New(nil)
	repo := testutil.NewMockPaymentRepository()
	svc := service.NewPaymentService(
		repo, reg, phone.NewValidator(reg), providers.NewFactory(adapter), nil, zerolog.Nop())
	s := NewSweeper(svc, repo, nil, SweeperConfig{Interval: time.Minute}, nil, zerolog.Nop())
	return s, repo
}

func TestSweep_AdvancesInFlightPayment(t *testing.T) {
	adapter := &testutil.FakeAdapter{Provider: payment.ProviderWave}
	s, repo := newSweeperFixture(t, adapter)

	p := testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated))
	p.Provider = payment.ProviderWave
	require.NoError(t, repo.Create(t.Context(), p))

	s.sweep(t.Context())

	got, err := repo.GetByID(t.Context(), p.ID)
	require.NoError(t, err)
	// The adapter reports processing, so the sweep moves the payment there.
	assert.Equal(t, payment.StatusProcessing, got.Status)
}

func TestSweep_SkipsFreshPendingPayment(t *testing.T) {
	adapter := &testutil.FakeAdapter{Provider: payment.ProviderWave}
	s, repo := newSweeperFixture(t, adapter)

	called := false
	adapter.CheckStatusFunc = func(context.Context, string) (*providers.StatusResult, error) {
		called = true
		return &providers.StatusResult{Status: payment.StatusProcessing}, nil
	}

	p := testutil.NewPayment()
	require.NoError(t, repo.Create(t.Context(), p))

	s.sweep(t.Context())

	assert.False(t, called)
	got, err := repo.GetByID(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)
}

func TestSweep_StalePendingWithoutTransactionUntouched(t *testing.T) {
	adapter := &testutil.FakeAdapter{Provider: payment.ProviderWave}
	s, repo := newSweeperFixture(t, adapter)

	p := testutil.NewPayment(testutil.WithCreatedAt(time.Now().Add(-time.Hour)))
	require.NoError(t, repo.Create(t.Context(), p))

	s.sweep(t.Context())

	// No provider transaction exists, so there is nothing to reconcile.
	got, err := repo.GetByID(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)
}

func TestSweep_ProviderErrorLeavesPaymentAlone(t *testing.T) {
	adapter := &testutil.FakeAdapter{Provider: payment.ProviderWave}
	s, repo := newSweeperFixture(t, adapter)

	adapter.CheckStatusFunc = func(context.Context, string) (*providers.StatusResult, error) {
		return nil, context.DeadlineExceeded
	}

	p := testutil.NewPayment(testutil.WithStatus(payment.StatusProcessing))
	p.Provider = payment.ProviderWave
	require.NoError(t, repo.Create(t.Context(), p))

	s.sweep(t.Context())

	got, err := repo.GetByID(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusProcessing, got.Status)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	adapter := &testutil.FakeAdapter{Provider: payment.ProviderWave}
	s, _ := newSweeperFixture(t, adapter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
