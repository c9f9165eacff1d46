package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/registry"
)

// Factory maps each provider to its adapter and guards every provider call
// with a per-provider circuit breaker.
type Factory struct {
	adapters map[payment.Provider]Adapter
	breakers map[payment.Provider]*gobreaker.CircuitBreaker[any]
	breaker  BreakerSettings
}

// BreakerSettings tunes the per-provider circuit breakers. The breaker trips
// once at least MinRequests calls in the rolling Interval have failed at
// FailureRatio or above, and re-closes after Timeout if probes succeed.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings is the profile used when nothing is configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  10,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// withDefaults fills unset fields from DefaultBreakerSettings.
func (s BreakerSettings) withDefaults() BreakerSettings {
	def := DefaultBreakerSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = def.MaxRequests
	}
	if s.Interval <= 0 {
		s.Interval = def.Interval
	}
	if s.Timeout <= 0 {
		s.Timeout = def.Timeout
	}
	if s.MinRequests == 0 {
		s.MinRequests = def.MinRequests
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = def.FailureRatio
	}
	return s
}

// DefaultAdapters builds the full simulated adapter set from the registry's
// provider configs. Orange and MTN run the largest networks, so they get the
// lower simulated failure rates.
func DefaultAdapters(reg *registry.Registry, opts ...Option) []Adapter {
	cfg := func(p payment.Provider) registry.ProviderConfig {
		c, _ := reg.Config(p)
		return c
	}
	withDefaults := func(extra []Option) []Option {
		return append(extra, opts...)
	}
	return []Adapter{
		NewOrangeMoney(cfg(payment.ProviderOrangeMoney), withDefaults([]Option{WithLatency(150 * time.Millisecond), WithFailureRate(0.04)})...),
		NewMTNMoney(cfg(payment.ProviderMTNMoney), withDefaults([]Option{WithLatency(200 * time.Millisecond), WithFailureRate(0.05)})...),
		NewWave(cfg(payment.ProviderWave), withDefaults([]Option{WithLatency(100 * time.Millisecond), WithFailureRate(0.03)})...),
		NewMPesa(cfg(payment.ProviderMPesa), withDefaults([]Option{WithLatency(250 * time.Millisecond), WithFailureRate(0.05)})...),
		NewMoovMoney(cfg(payment.ProviderMoovMoney), withDefaults([]Option{WithLatency(300 * time.Millisecond), WithFailureRate(0.08)})...),
		NewFreeMoney(cfg(payment.ProviderFreeMoney), withDefaults([]Option{WithLatency(250 * time.Millisecond), WithFailureRate(0.07)})...),
	}
}

// NewFactory registers the given adapters with the default breaker profile.
func NewFactory(adapters ...Adapter) *Factory {
	return NewFactoryWithSettings(DefaultBreakerSettings(), adapters...)
}

// NewFactoryWithSettings registers the given adapters with a custom breaker
// profile. Unset settings fall back to the defaults.
func NewFactoryWithSettings(settings BreakerSettings, adapters ...Adapter) *Factory {
	f := &Factory{
		adapters: make(map[payment.Provider]Adapter),
		breakers: make(map[payment.Provider]*gobreaker.CircuitBreaker[any]),
		breaker:  settings.withDefaults(),
	}
	for _, a := range adapters {
		f.Register(a)
	}
	return f
}

// Register adds an adapter and its circuit breaker.
func (f *Factory) Register(a Adapter) {
	name := a.Name()
	cfg := f.breaker
	f.adapters[name] = a
	f.breakers[name] = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        string(name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
	})
}

// Get returns the adapter for a provider.
func (f *Factory) Get(name payment.Provider) (Adapter, error) {
	a, ok := f.adapters[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, domainErrors.ErrProviderNotFound)
	}
	return a, nil
}

// Initiate dispatches through the provider's breaker.
func (f *Factory) Initiate(ctx context.Context, provider payment.Provider, req InitiateRequest) (*InitiateResult, error) {
	res, err := f.execute(provider, func(a Adapter) (any, error) {
		return a.Initiate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*InitiateResult), nil
}

// CheckStatus queries through the provider's breaker.
func (f *Factory) CheckStatus(ctx context.Context, provider payment.Provider, transactionID string) (*StatusResult, error) {
	res, err := f.execute(provider, func(a Adapter) (any, error) {
		return a.CheckStatus(ctx, transactionID)
	})
	if err != nil {
		return nil, err
	}
	return res.(*StatusResult), nil
}

// Refund refunds through the provider's breaker.
func (f *Factory) Refund(ctx context.Context, provider payment.Provider, req RefundRequest) (*RefundResult, error) {
	res, err := f.execute(provider, func(a Adapter) (any, error) {
		return a.Refund(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*RefundResult), nil
}

func (f *Factory) execute(provider payment.Provider, call func(Adapter) (any, error)) (any, error) {
	a, err := f.Get(provider)
	if err != nil {
		return nil, err
	}
	res, err := f.breakers[provider].Execute(func() (any, error) {
		return call(a)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s circuit open: %w", provider, domainErrors.ErrProviderUnavailable)
		}
		return nil, err
	}
	return res, nil
}
