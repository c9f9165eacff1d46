package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/sahelpay/momo/internal/domain/payment"
)

// PaymentOption mutates a fixture payment.
type PaymentOption func(*payment.Payment)

// WithStatus walks the fixture into the given status through legal
// transitions so entity invariants (completedAt, failureReason) hold.
func WithStatus(status payment.Status) PaymentOption {
	return func(p *payment.Payment) {
		switch status {
		case payment.StatusPending:
		case payment.StatusInitiated:
			_ = p.MarkInitiated("txn_test_1", "merchant/ref")
		case payment.StatusProcessing:
			_ = p.MarkInitiated("txn_test_1", "merchant/ref")
			_ = p.MarkProcessing()
		case payment.StatusCompleted:
			_ = p.MarkInitiated("txn_test_1", "merchant/ref")
			_ = p.MarkProcessing()
			_ = p.MarkCompleted()
		case payment.StatusFailed:
			_ = p.MarkInitiated("txn_test_1", "merchant/ref")
			_ = p.MarkFailed("fixture failure")
		case payment.StatusCancelled:
			_ = p.MarkCancelled()
		case payment.StatusRefunded:
			_ = p.MarkInitiated("txn_test_1", "merchant/ref")
			_ = p.MarkProcessing()
			_ = p.MarkCompleted()
			_ = p.MarkRefunded(p.Amount.Value)
		}
	}
}

// WithAmount overrides the fixture amount.
func WithAmount(value int64, currency string) PaymentOption {
	return func(p *payment.Payment) {
		p.Amount = payment.Amount{Value: value, Currency: currency}
	}
}

// WithProvider overrides the provider and country pair.
func WithProvider(provider payment.Provider, country payment.Country) PaymentOption {
	return func(p *payment.Payment) {
		p.Provider = provider
		p.Country = country
	}
}

// WithCreatedAt overrides the creation time.
func WithCreatedAt(t time.Time) PaymentOption {
	return func(p *payment.Payment) {
		p.CreatedAt = t
		p.UpdatedAt = t
	}
}

// NewPayment builds a valid Senegal Orange Money payment fixture.
func NewPayment(opts ...PaymentOption) *payment.Payment {
	now := time.Now()
	p := &payment.Payment{
		ID:          uuid.New(),
		Reference:   "INV-2024-001",
		Description: "test payment",
		Amount:      payment.Amount{Value: 25000, Currency: "XOF"},
		Direction:   payment.DirectionInbound,
		Provider:    payment.ProviderOrangeMoney,
		PhoneNumber: "+221771234567",
		Country:     payment.CountrySenegal,
		Status:      payment.StatusPending,
		Metadata:    map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewRequest builds a valid initiation request fixture.
func NewRequest(opts ...func(*payment.Request)) payment.Request {
	req := payment.Request{
		Amount:    payment.Amount{Value: 25000, Currency: "XOF"},
		Reference: "INV-2024-001",
		Direction: payment.DirectionInbound,
		Method: payment.MobileMoneyInfo{
			Provider:    payment.ProviderWave,
			PhoneNumber: "+221781234567",
			Country:     payment.CountrySenegal,
		},
		Metadata: map[string]any{},
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
