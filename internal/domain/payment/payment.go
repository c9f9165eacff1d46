package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sahelpay/momo/internal/domain/errors"
)

// Status represents the payment status in the state machine
type Status string

const (
	StatusPending    Status = "pending"
	StatusInitiated  Status = "initiated"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// AllStatuses lists every status variant.
func AllStatuses() []Status {
	return []Status{
		StatusPending, StatusInitiated, StatusProcessing,
		StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded,
	}
}

// InFlightStatuses are the non-terminal statuses a poller watches.
func InFlightStatuses() []Status {
	return []Status{StatusPending, StatusInitiated, StatusProcessing}
}

// Provider represents a mobile-money operator
type Provider string

const (
	ProviderOrangeMoney Provider = "orange_money"
	ProviderMTNMoney    Provider = "mtn_money"
	ProviderWave        Provider = "wave"
	ProviderMPesa       Provider = "mpesa"
	ProviderMoovMoney   Provider = "moov_money"
	ProviderFreeMoney   Provider = "free_money"
)

// AllProviders lists every provider variant.
func AllProviders() []Provider {
	return []Provider{
		ProviderOrangeMoney, ProviderMTNMoney, ProviderWave,
		ProviderMPesa, ProviderMoovMoney, ProviderFreeMoney,
	}
}

// Country is an ISO 3166-1 alpha-2 country code
type Country string

const (
	CountrySenegal     Country = "SN"
	CountryCoteDivoire Country = "CI"
	CountryMali        Country = "ML"
	CountryBurkinaFaso Country = "BF"
	CountryBenin       Country = "BJ"
	CountryTogo        Country = "TG"
	CountryKenya       Country = "KE"
	CountryCameroon    Country = "CM"
)

// AllCountries lists every country variant.
func AllCountries() []Country {
	return []Country{
		CountrySenegal, CountryCoteDivoire, CountryMali, CountryBurkinaFaso,
		CountryBenin, CountryTogo, CountryKenya, CountryCameroon,
	}
}

// Direction indicates whether funds flow into or out of the business
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Amount represents a monetary amount in the smallest currency unit.
// XOF and most mobile-money currencies carry exponent 0, so Value is
// the face amount for those.
type Amount struct {
	Value    int64
	Currency string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Value, a.Currency)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	if a.Value <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if len(a.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}

// MobileMoneyInfo is the chosen payment instrument: which operator moves
// the funds and which phone-linked account they move against.
type MobileMoneyInfo struct {
	Provider    Provider
	PhoneNumber string
	Country     Country
	AccountName string
}

// Request is the transient value object submitted by a caller to initiate
// a payment. It is consumed once by the orchestrator and never persisted.
type Request struct {
	Amount      Amount
	Description string
	Reference   string
	Direction   Direction
	Method      MobileMoneyInfo
	ClientID    *uuid.UUID
	SupplierID  *uuid.UUID
	CallbackURL string
	Metadata    map[string]any
}

// Payment is the central financial record. Payments are never physically
// deleted; terminal states are immutable except completed -> refunded.
type Payment struct {
	ID             uuid.UUID
	Reference      string
	Description    string
	Amount         Amount
	Direction      Direction
	Provider       Provider
	PhoneNumber    string
	Country        Country
	AccountName    string
	Status         Status
	TransactionID  *string
	ProviderRef    *string
	ClientID       *uuid.UUID
	SupplierID     *uuid.UUID
	CallbackURL    string
	FailureReason  *string
	RefundedAmount *int64
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// NewPayment creates a payment in pending state from an initiation request.
func NewPayment(req Request) (*Payment, error) {
	if err := req.Amount.Validate(); err != nil {
		return nil, err
	}
	if req.Reference == "" {
		return nil, errors.NewValidationError("reference", "cannot be empty")
	}
	if req.Direction != DirectionInbound && req.Direction != DirectionOutbound {
		return nil, errors.NewValidationError("direction", "must be inbound or outbound")
	}
	// A payment settles against exactly one counterparty.
	if req.ClientID != nil && req.SupplierID != nil {
		return nil, errors.NewValidationError("client_id", "cannot reference both a client and a supplier")
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	now := time.Now()
	return &Payment{
		ID:          uuid.New(),
		Reference:   req.Reference,
		Description: req.Description,
		Amount:      req.Amount,
		Direction:   req.Direction,
		Provider:    req.Method.Provider,
		PhoneNumber: req.Method.PhoneNumber,
		Country:     req.Method.Country,
		AccountName: req.Method.AccountName,
		Status:      StatusPending,
		ClientID:    req.ClientID,
		SupplierID:  req.SupplierID,
		CallbackURL: req.CallbackURL,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusInitiated, StatusProcessing, StatusFailed, StatusCancelled},
	StatusInitiated:  {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRefunded},
	StatusFailed:     {}, // Terminal state
	StatusCancelled:  {}, // Terminal state
	StatusRefunded:   {}, // Terminal state
}

// CanTransitionTo checks if the payment can transition to the given status
func (p *Payment) CanTransitionTo(newStatus Status) bool {
	allowed, exists := transitions[p.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the payment to a new status.
// completedAt is set exactly when the payment completes and is retained
// through a refund; failureReason is only ever set by MarkFailed.
func (p *Payment) TransitionTo(newStatus Status) error {
	if !p.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(p.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	p.Status = newStatus
	p.UpdatedAt = time.Now()

	if newStatus == StatusCompleted {
		now := time.Now()
		p.CompletedAt = &now
	}

	return nil
}

// MarkInitiated records the provider handshake and moves to initiated.
func (p *Payment) MarkInitiated(transactionID, providerRef string) error {
	if err := p.TransitionTo(StatusInitiated); err != nil {
		return err
	}
	if transactionID != "" {
		p.TransactionID = &transactionID
	}
	if providerRef != "" {
		p.ProviderRef = &providerRef
	}
	return nil
}

// MarkProcessing transitions the payment to processing status
func (p *Payment) MarkProcessing() error {
	return p.TransitionTo(StatusProcessing)
}

// MarkCompleted transitions the payment to completed status
func (p *Payment) MarkCompleted() error {
	return p.TransitionTo(StatusCompleted)
}

// MarkFailed transitions the payment to failed status
func (p *Payment) MarkFailed(reason string) error {
	if err := p.TransitionTo(StatusFailed); err != nil {
		return err
	}
	p.FailureReason = &reason
	return nil
}

// MarkCancelled transitions the payment to cancelled status
func (p *Payment) MarkCancelled() error {
	return p.TransitionTo(StatusCancelled)
}

// MarkRefunded transitions the payment to refunded status, recording how
// much was returned. Partial refunds still land on refunded.
func (p *Payment) MarkRefunded(amount int64) error {
	if amount <= 0 || amount > p.Amount.Value {
		return errors.NewValidationError("refund_amount", "must be positive and not exceed the original amount")
	}
	if err := p.TransitionTo(StatusRefunded); err != nil {
		return err
	}
	p.RefundedAmount = &amount
	return nil
}

// IsTerminal checks if the payment is in a terminal state
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusCompleted ||
		p.Status == StatusFailed ||
		p.Status == StatusCancelled ||
		p.Status == StatusRefunded
}
