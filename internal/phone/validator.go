// Package phone validates mobile-money phone numbers against per-country
// numbering plans. Validation is pure and synchronous; any debouncing of
// rapid input belongs to callers.
package phone

import (
	"fmt"
	"regexp"

	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/registry"
)

// Result is the outcome of a validation. Reason is set when invalid.
type Result struct {
	Valid  bool
	Reason string
}

// Each country has one canonical mobile pattern. Prefix classes track the
// mobile ranges the local operators actually assign.
var countryPatterns = map[payment.Country]*regexp.Regexp{
	payment.CountrySenegal:     regexp.MustCompile(`^\+221(7[05-8])\d{7}$`),
	payment.CountryCoteDivoire: regexp.MustCompile(`^\+225(0[157])\d{8}$`),
	payment.CountryMali:        regexp.MustCompile(`^\+223[5-9]\d{7}$`),
	payment.CountryBurkinaFaso: regexp.MustCompile(`^\+226[02567]\d{7}$`),
	payment.CountryBenin:       regexp.MustCompile(`^\+229(9[0-9]|4[0-9]|6[0-9])\d{6}$`),
	payment.CountryTogo:        regexp.MustCompile(`^\+228[97]\d{7}$`),
	payment.CountryKenya:       regexp.MustCompile(`^\+254(7\d{2}|1[01]\d)\d{6}$`),
	payment.CountryCameroon:    regexp.MustCompile(`^\+2376[5-9]\d{7}$`),
}

// genericPattern accepts "+<1-3 digit country code><9-12 digits>" for
// countries without a registered plan.
var genericPattern = regexp.MustCompile(`^\+\d{1,3}\d{9,12}$`)

// Validator checks phone numbers against a provider/country pair.
type Validator struct {
	registry *registry.Registry
}

// NewValidator creates a validator backed by the provider registry.
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate checks that the provider operates in the country and that the
// number matches the country's numbering plan.
func (v *Validator) Validate(number string, provider payment.Provider, country payment.Country) Result {
	if !v.registry.Supports(provider, country) {
		return Result{
			Valid:  false,
			Reason: fmt.Sprintf("provider %s is not available in %s", provider, country),
		}
	}

	pattern, ok := countryPatterns[country]
	if !ok {
		pattern = genericPattern
	}
	if !pattern.MatchString(number) {
		return Result{
			Valid:  false,
			Reason: fmt.Sprintf("number does not match the %s mobile numbering plan", country),
		}
	}

	return Result{Valid: true}
}
