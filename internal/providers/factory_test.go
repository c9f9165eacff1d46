package providers

import (
	"context"
	"testing"

	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyAdapter fails every call until healed. Used to trip the breaker.
type flakyAdapter struct {
	provider payment.Provider
	err      error
}

func (f *flakyAdapter) Name() payment.Provider { return f.provider }

func (f *flakyAdapter) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &InitiateResult{TransactionID: "flaky_txn_1"}, nil
}

func (f *flakyAdapter) CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &StatusResult{Status: payment.StatusProcessing}, nil
}

func (f *flakyAdapter) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &RefundResult{TransactionID: "flaky_refund_1"}, nil
}

func TestFactory_Get(t *testing.T) {
	f := NewFactory(DefaultAdapters(registry.New(nil), WithLatency(0))...)

	a, err := f.Get(payment.ProviderWave)
	require.NoError(t, err)
	assert.Equal(t, payment.ProviderWave, a.Name())
}

func TestFactory_GetUnknownProvider(t *testing.T) {
	f := NewFactory()
	_, err := f.Get(payment.ProviderWave)
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotFound)
}

func TestFactory_InitiateUnknownProvider(t *testing.T) {
	f := NewFactory()
	_, err := f.Initiate(context.Background(), payment.ProviderMPesa, InitiateRequest{})
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotFound)
}

func TestFactory_InitiateDispatches(t *testing.T) {
	f := NewFactory(&flakyAdapter{provider: payment.ProviderWave})

	res, err := f.Initiate(context.Background(), payment.ProviderWave, InitiateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "flaky_txn_1", res.TransactionID)
}

func TestFactory_ErrorsPassThrough(t *testing.T) {
	f := NewFactory(&flakyAdapter{provider: payment.ProviderWave, err: domainErrors.ErrProviderTimeout})

	_, err := f.Initiate(context.Background(), payment.ProviderWave, InitiateRequest{})
	assert.ErrorIs(t, err, domainErrors.ErrProviderTimeout)
}

func TestFactory_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	adapter := &flakyAdapter{provider: payment.ProviderMoovMoney, err: domainErrors.ErrProviderTimeout}
	f := NewFactory(adapter)

	// Breaker trips at >= 10 requests with a 60% failure ratio.
	for i := 0; i < 10; i++ {
		_, err := f.CheckStatus(context.Background(), payment.ProviderMoovMoney, "txn")
		require.Error(t, err)
	}

	_, err := f.CheckStatus(context.Background(), payment.ProviderMoovMoney, "txn")
	assert.ErrorIs(t, err, domainErrors.ErrProviderUnavailable)

	// A healthy adapter is still unreachable while the circuit is open.
	adapter.err = nil
	_, err = f.CheckStatus(context.Background(), payment.ProviderMoovMoney, "txn")
	assert.ErrorIs(t, err, domainErrors.ErrProviderUnavailable)
}

func TestFactory_BreakerSettingsConfigurable(t *testing.T) {
	adapter := &flakyAdapter{provider: payment.ProviderWave, err: domainErrors.ErrProviderTimeout}
	f := NewFactoryWithSettings(BreakerSettings{MinRequests: 3, FailureRatio: 0.5}, adapter)

	// Below the configured threshold the adapter error still passes through.
	for i := 0; i < 3; i++ {
		_, err := f.CheckStatus(context.Background(), payment.ProviderWave, "txn")
		require.ErrorIs(t, err, domainErrors.ErrProviderTimeout)
	}

	_, err := f.CheckStatus(context.Background(), payment.ProviderWave, "txn")
	assert.ErrorIs(t, err, domainErrors.ErrProviderUnavailable)
}

func TestBreakerSettings_ZeroFieldsFallBackToDefaults(t *testing.T) {
	assert.Equal(t, DefaultBreakerSettings(), BreakerSettings{}.withDefaults())

	partial := BreakerSettings{MinRequests: 3}.withDefaults()
	assert.EqualValues(t, 3, partial.MinRequests)
	assert.Equal(t, DefaultBreakerSettings().Interval, partial.Interval)
}

func TestFactory_BreakersIsolatedPerProvider(t *testing.T) {
	failing := &flakyAdapter{provider: payment.ProviderMoovMoney, err: domainErrors.ErrProviderTimeout}
	healthy := &flakyAdapter{provider: payment.ProviderWave}
	f := NewFactory(failing, healthy)

	for i := 0; i < 11; i++ {
		_, _ = f.CheckStatus(context.Background(), payment.ProviderMoovMoney, "txn")
	}

	_, err := f.CheckStatus(context.Background(), payment.ProviderWave, "txn")
	assert.NoError(t, err)
}

func TestDefaultAdapters_CoversAllProviders(t *testing.T) {
	adapters := DefaultAdapters(registry.New(nil), WithLatency(0))
	names := make(map[payment.Provider]bool, len(adapters))
	for _, a := range adapters {
		names[a.Name()] = true
	}
	for _, p := range payment.AllProviders() {
		assert.True(t, names[p], "missing adapter for %s", p)
	}
}
