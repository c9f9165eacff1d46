// Package registry holds the static mapping of payment providers available
// per country, plus per-provider configuration. Read-only after construction.
package registry

import (
	"fmt"

	"github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
)

// Environment selects the provider endpoint set.
type Environment string

const (
	EnvSandbox    Environment = "sandbox"
	EnvProduction Environment = "production"
)

// ProviderConfig is the static per-provider configuration loaded at process
// start. Never created by end users.
type ProviderConfig struct {
	Provider    payment.Provider
	MerchantID  string
	APIKey      string
	APISecret   string
	Environment Environment
	CallbackURL string
	WebhookURL  string
	Extra       map[string]string
}

// availability is the canonical country -> providers table. Coverage follows
// where each operator actually runs mobile-money services.
var availability = map[payment.Country][]payment.Provider{
	payment.CountrySenegal:     {payment.ProviderOrangeMoney, payment.ProviderWave, payment.ProviderFreeMoney},
	payment.CountryCoteDivoire: {payment.ProviderOrangeMoney, payment.ProviderMTNMoney, payment.ProviderWave, payment.ProviderMoovMoney},
	payment.CountryMali:        {payment.ProviderOrangeMoney, payment.ProviderMoovMoney},
	payment.CountryBurkinaFaso: {payment.ProviderOrangeMoney, payment.ProviderMoovMoney},
	payment.CountryBenin:       {payment.ProviderMTNMoney, payment.ProviderMoovMoney},
	payment.CountryTogo:        {payment.ProviderMoovMoney},
	payment.CountryKenya:       {payment.ProviderMPesa},
	payment.CountryCameroon:    {payment.ProviderOrangeMoney, payment.ProviderMTNMoney},
}

// Registry resolves provider availability and configuration. Pure lookup.
type Registry struct {
	configs map[payment.Provider]ProviderConfig
}

// New builds a registry from per-provider configs. Providers without an
// explicit config get a sandbox default so development setups work out of
// the box.
func New(configs map[payment.Provider]ProviderConfig) *Registry {
	r := &Registry{configs: make(map[payment.Provider]ProviderConfig, len(payment.AllProviders()))}
	for _, p := range payment.AllProviders() {
		cfg, ok := configs[p]
		if !ok {
			cfg = ProviderConfig{
				Provider:    p,
				MerchantID:  fmt.Sprintf("sandbox-%s", p),
				Environment: EnvSandbox,
			}
		}
		cfg.Provider = p
		if cfg.Environment == "" {
			cfg.Environment = EnvSandbox
		}
		r.configs[p] = cfg
	}
	return r
}

// AvailableProviders returns the providers operating in the given country.
// An unknown country yields an empty set: absence means "no providers
// available", not a fault.
func (r *Registry) AvailableProviders(country payment.Country) []payment.Provider {
	providers := availability[country]
	out := make([]payment.Provider, len(providers))
	copy(out, providers)
	return out
}

// Supports reports whether the provider operates in the country.
func (r *Registry) Supports(provider payment.Provider, country payment.Country) bool {
	for _, p := range availability[country] {
		if p == provider {
			return true
		}
	}
	return false
}

// Config returns the configuration for a provider.
func (r *Registry) Config(provider payment.Provider) (ProviderConfig, error) {
	cfg, ok := r.configs[provider]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("provider %q: %w", provider, errors.ErrProviderNotFound)
	}
	return cfg, nil
}
