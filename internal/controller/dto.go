package controller

import (
	"time"

	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/stats"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (string ids, validation tags).
// Controllers convert them to domain values before calling business logic.
// Amounts travel as plain integers: XOF and the other supported currencies
// carry exponent 0.

// InitiatePaymentRequest holds the input for initiating a payment.
type InitiatePaymentRequest struct {
	Amount      int64          `json:"amount" validate:"required,gt=0"`
	Currency    string         `json:"currency" validate:"required,len=3"`
	Description string         `json:"description"`
	Reference   string         `json:"reference" validate:"required"`
	Direction   string         `json:"direction" validate:"required,oneof=inbound outbound"`
	Provider    string         `json:"provider" validate:"required"`
	PhoneNumber string         `json:"phone_number" validate:"required"`
	Country     string         `json:"country" validate:"required,len=2"`
	AccountName string         `json:"account_name"`
	ClientID    *string        `json:"client_id,omitempty"`
	SupplierID  *string        `json:"supplier_id,omitempty"`
	CallbackURL string         `json:"callback_url" validate:"omitempty,url"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RefundPaymentRequest holds an optional partial refund amount. Zero or
// absent means a full refund.
type RefundPaymentRequest struct {
	Amount int64 `json:"amount" validate:"gte=0"`
}

// ValidatePhoneRequest holds the input for phone validation.
type ValidatePhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Provider    string `json:"provider" validate:"required"`
	Country     string `json:"country" validate:"required,len=2"`
}

// SetSettingRequest holds the value for a settings write.
type SetSettingRequest struct {
	Value string `json:"value" validate:"required"`
}

// --- Response DTOs ---

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID             string         `json:"id"`
	Reference      string         `json:"reference"`
	Description    string         `json:"description,omitempty"`
	Amount         int64          `json:"amount"`
	Currency       string         `json:"currency"`
	Direction      string         `json:"direction"`
	Provider       string         `json:"provider"`
	PhoneNumber    string         `json:"phone_number"`
	Country        string         `json:"country"`
	AccountName    string         `json:"account_name,omitempty"`
	Status         string         `json:"status"`
	TransactionID  *string        `json:"transaction_id,omitempty"`
	ProviderRef    *string        `json:"provider_ref,omitempty"`
	ClientID       *string        `json:"client_id,omitempty"`
	SupplierID     *string        `json:"supplier_id,omitempty"`
	CallbackURL    string         `json:"callback_url,omitempty"`
	FailureReason  *string        `json:"failure_reason,omitempty"`
	RefundedAmount *int64         `json:"refunded_amount,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// InitiatePaymentResponse wraps the payment plus the confirmation pointers
// the payer needs.
type InitiatePaymentResponse struct {
	Payment         *PaymentResponse `json:"payment"`
	RedirectURL     string           `json:"redirect_url,omitempty"`
	CustomerMessage string           `json:"customer_message,omitempty"`
}

// EventResponse represents an audit-trail entry.
type EventResponse struct {
	ID        string         `json:"id"`
	PaymentID string         `json:"payment_id"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ValidatePhoneResponse reports a validation outcome.
type ValidatePhoneResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// StatsBucket is a per-group count and amount.
type StatsBucket struct {
	Count  int64 `json:"count"`
	Amount int64 `json:"amount"`
}

// StatsResponse represents aggregate payment stats.
type StatsResponse struct {
	TotalPayments int64                  `json:"total_payments"`
	TotalAmount   int64                  `json:"total_amount"`
	Successful    int64                  `json:"successful_payments"`
	Failed        int64                  `json:"failed_payments"`
	Pending       int64                  `json:"pending_payments"`
	AverageAmount float64                `json:"average_amount"`
	ByProvider    map[string]StatsBucket `json:"by_provider"`
	ByCountry     map[string]StatsBucket `json:"by_country"`
}

// SettingResponse represents one setting.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromPayment converts a domain payment to API response.
func FromPayment(p *payment.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:             p.ID.String(),
		Reference:      p.Reference,
		Description:    p.Description,
		Amount:         p.Amount.Value,
		Currency:       p.Amount.Currency,
		Direction:      string(p.Direction),
		Provider:       string(p.Provider),
		PhoneNumber:    p.PhoneNumber,
		Country:        string(p.Country),
		AccountName:    p.AccountName,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		ProviderRef:    p.ProviderRef,
		CallbackURL:    p.CallbackURL,
		FailureReason:  p.FailureReason,
		RefundedAmount: p.RefundedAmount,
		Metadata:       p.Metadata,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		CompletedAt:    p.CompletedAt,
	}
	if p.ClientID != nil {
		cid := p.ClientID.String()
		resp.ClientID = &cid
	}
	if p.SupplierID != nil {
		sid := p.SupplierID.String()
		resp.SupplierID = &sid
	}
	return resp
}

// FromEvent converts an audit-trail entry to API response.
func FromEvent(e *payment.Event) *EventResponse {
	return &EventResponse{
		ID:        e.ID.String(),
		PaymentID: e.PaymentID.String(),
		EventType: e.EventType,
		EventData: e.EventData,
		CreatedAt: e.CreatedAt,
	}
}

// FromStats converts a stats summary to API response.
func FromStats(s stats.Summary) *StatsResponse {
	resp := &StatsResponse{
		TotalPayments: s.TotalPayments,
		TotalAmount:   s.TotalAmount,
		Successful:    s.Successful,
		Failed:        s.Failed,
		Pending:       s.Pending,
		AverageAmount: s.AverageAmount,
		ByProvider:    make(map[string]StatsBucket, len(s.ByProvider)),
		ByCountry:     make(map[string]StatsBucket, len(s.ByCountry)),
	}
	for prov, b := range s.ByProvider {
		resp.ByProvider[string(prov)] = StatsBucket{Count: b.Count, Amount: b.Amount}
	}
	for country, b := range s.ByCountry {
		resp.ByCountry[string(country)] = StatsBucket{Count: b.Count, Amount: b.Amount}
	}
	return resp
}
