package phone_test

import (
	"testing"

	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/phone"
	"github.com/sahelpay/momo/internal/registry"
	"github.com/stretchr/testify/assert"
)

func newValidator() *phone.Validator {
	return phone.NewValidator(registry.New(nil))
}

func TestValidate_SenegalOrangeMoney(t *testing.T) {
	v := newValidator()
	res := v.Validate("+221771234567", payment.ProviderOrangeMoney, payment.CountrySenegal)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Reason)
}

func TestValidate_SenegalBadPrefix(t *testing.T) {
	v := newValidator()
	// 99 is not an assigned Senegalese mobile prefix.
	res := v.Validate("+221991234567", payment.ProviderOrangeMoney, payment.CountrySenegal)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "numbering plan")
}

func TestValidate_ProviderNotInCountry(t *testing.T) {
	v := newValidator()
	res := v.Validate("+221771234567", payment.ProviderMPesa, payment.CountrySenegal)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "not available")
}

func TestValidate_KenyaMPesa(t *testing.T) {
	v := newValidator()
	res := v.Validate("+254712345678", payment.ProviderMPesa, payment.CountryKenya)
	assert.True(t, res.Valid)
}

func TestValidate_KenyaNewRange(t *testing.T) {
	v := newValidator()
	res := v.Validate("+254110123456", payment.ProviderMPesa, payment.CountryKenya)
	assert.True(t, res.Valid)
}

func TestValidate_CoteDivoireTenDigit(t *testing.T) {
	v := newValidator()
	res := v.Validate("+2250712345678", payment.ProviderMTNMoney, payment.CountryCoteDivoire)
	assert.True(t, res.Valid)
}

func TestValidate_MissingPlusPrefix(t *testing.T) {
	v := newValidator()
	res := v.Validate("221771234567", payment.ProviderOrangeMoney, payment.CountrySenegal)
	assert.False(t, res.Valid)
}

func TestValidate_TooShort(t *testing.T) {
	v := newValidator()
	res := v.Validate("+22177123", payment.ProviderOrangeMoney, payment.CountrySenegal)
	assert.False(t, res.Valid)
}

func TestValidate_WrongCountryCode(t *testing.T) {
	v := newValidator()
	// Malian number submitted against the Senegal plan.
	res := v.Validate("+22371234567", payment.ProviderOrangeMoney, payment.CountrySenegal)
	assert.False(t, res.Valid)
}

func TestValidate_TableAcrossCountries(t *testing.T) {
	v := newValidator()
	cases := []struct {
		name     string
		number   string
		provider payment.Provider
		country  payment.Country
		valid    bool
	}{
		{"mali moov", "+22361234567", payment.ProviderMoovMoney, payment.CountryMali, true},
		{"mali fixed line", "+22321234567", payment.ProviderMoovMoney, payment.CountryMali, false},
		{"burkina orange", "+22670123456", payment.ProviderOrangeMoney, payment.CountryBurkinaFaso, true},
		{"benin mtn", "+22991234567", payment.ProviderMTNMoney, payment.CountryBenin, true},
		{"togo moov", "+22890123456", payment.ProviderMoovMoney, payment.CountryTogo, true},
		{"cameroon orange", "+237651234567", payment.ProviderOrangeMoney, payment.CountryCameroon, true},
		{"cameroon bad range", "+237601234567", payment.ProviderOrangeMoney, payment.CountryCameroon, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.number, tc.provider, tc.country)
			assert.Equal(t, tc.valid, res.Valid, "reason: %s", res.Reason)
		})
	}
}
