package providers

import (
	"context"

	"github.com/sahelpay/momo/internal/domain/payment"
)

// InitiateRequest carries everything an adapter needs for the provider
// handshake.
type InitiateRequest struct {
	PaymentID   string
	Provider    payment.Provider
	Amount      int64
	Currency    string
	PhoneNumber string
	Country     payment.Country
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

// InitiateResult is the provider acknowledgement. Mobile-money payments are
// confirmed on the payer's handset, so the result points the caller at the
// out-of-band confirmation step.
type InitiateResult struct {
	TransactionID   string
	ProviderRef     string
	RedirectURL     string
	CustomerMessage string
}

// StatusResult reports the provider-side view of a transaction.
type StatusResult struct {
	Status        payment.Status
	FailureReason string
}

// RefundRequest asks the provider to return funds for a settled transaction.
type RefundRequest struct {
	PaymentID     string
	TransactionID string
	Amount        int64
	Currency      string
}

// RefundResult carries the provider's refund reference.
type RefundResult struct {
	TransactionID string
}

// Adapter is the per-provider capability. One concrete type exists per
// Provider variant; each rejects requests naming a different provider.
type Adapter interface {
	// Name returns the provider identity this adapter serves.
	Name() payment.Provider
	// Initiate performs the provider handshake for a new payment.
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	// CheckStatus returns the provider-side status of a transaction.
	CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error)
	// Refund returns funds for a completed transaction.
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
