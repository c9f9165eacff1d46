package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for payment persistence.
//
// Implementations must serialize UpdateStatus calls per payment id so the
// transition legality check always runs against the latest committed state.
// Reads may proceed concurrently with writes.
type Repository interface {
	// Create persists a new payment
	Create(ctx context.Context, payment *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// UpdateStatus applies a status transition after validating it against
	// the state machine, refreshing updatedAt. Returns the updated payment.
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status, update StatusUpdate) (*Payment, error)

	// List lists payments matching all set filters
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// AddEvent appends a payment event to the audit trail
	AddEvent(ctx context.Context, event *Event) error

	// GetEvents retrieves the audit trail for a payment
	GetEvents(ctx context.Context, paymentID uuid.UUID) ([]*Event, error)
}

// StatusUpdate carries the fields a status transition may set alongside the
// new status itself.
type StatusUpdate struct {
	TransactionID  *string
	ProviderRef    *string
	FailureReason  *string
	RefundedAmount *int64
}

// ApplyTransition mutates p according to the requested transition, routing
// through the Mark* methods so entity invariants hold. Store implementations
// share this after they have pinned the payment under its per-id lock.
func ApplyTransition(p *Payment, newStatus Status, update StatusUpdate) error {
	switch newStatus {
	case StatusInitiated:
		var txID, ref string
		if update.TransactionID != nil {
			txID = *update.TransactionID
		}
		if update.ProviderRef != nil {
			ref = *update.ProviderRef
		}
		return p.MarkInitiated(txID, ref)
	case StatusProcessing:
		return p.MarkProcessing()
	case StatusCompleted:
		return p.MarkCompleted()
	case StatusFailed:
		reason := "provider reported failure"
		if update.FailureReason != nil {
			reason = *update.FailureReason
		}
		return p.MarkFailed(reason)
	case StatusCancelled:
		return p.MarkCancelled()
	case StatusRefunded:
		amount := p.Amount.Value
		if update.RefundedAmount != nil {
			amount = *update.RefundedAmount
		}
		return p.MarkRefunded(amount)
	default:
		return p.TransitionTo(newStatus)
	}
}

// ListFilter defines filters for listing payments. All set fields are
// combined with AND.
type ListFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Status      *Status
	Provider    *Provider
	Country     *Country
	Direction   *Direction
	MinAmount   *int64
	MaxAmount   *int64
	Reference   string // substring match
	PhoneNumber string // substring match
	ClientID    *uuid.UUID
	SupplierID  *uuid.UUID
	Limit       int
	Offset      int
	SortBy      string
	SortOrder   string
}

// Event represents an entry in a payment's audit trail
type Event struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	EventType string
	EventData map[string]any
	CreatedAt time.Time
}
