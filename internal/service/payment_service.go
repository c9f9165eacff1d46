// Package service holds the payment orchestration logic: validation,
// persistence, provider dispatch, and status reconciliation.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/phone"
	"github.com/sahelpay/momo/internal/providers"
	"github.com/sahelpay/momo/internal/registry"
	"github.com/sahelpay/momo/internal/stats"
)

// EventPublisher pushes payment lifecycle events to downstream consumers
// (the callback dispatcher reads them off a Redis stream). Publishing is
// best effort; delivery failures never fail the payment operation.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, eventType string, p *payment.Payment) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

// PublishPaymentEvent implements EventPublisher.
func (NopPublisher) PublishPaymentEvent(context.Context, string, *payment.Payment) error {
	return nil
}

// PaymentService orchestrates the payment lifecycle.
type PaymentService struct {
	repo      payment.Repository
	registry  *registry.Registry
	validator *phone.Validator
	factory   *providers.Factory
	publisher EventPublisher
	logger    zerolog.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	repo payment.Repository,
	reg *registry.Registry,
	validator *phone.Validator,
	factory *providers.Factory,
	publisher EventPublisher,
	logger zerolog.Logger,
) *PaymentService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &PaymentService{
		repo:      repo,
		registry:  reg,
		validator: validator,
		factory:   factory,
		publisher: publisher,
		logger:    logger.With().Str("component", "payment_service").Logger(),
	}
}

// InitiateResponse is the outcome of an initiation. Status is either
// initiated or failed; a provider-side failure is recorded on the payment
// rather than returned as an error.
type InitiateResponse struct {
	Payment         *payment.Payment
	RedirectURL     string
	CustomerMessage string
}

// InitiatePayment validates the request, persists a pending payment, and
// performs the provider handshake.
//
// Validation failures (unsupported provider, bad phone number, bad amount)
// are returned before any record exists. Once the payment is persisted,
// provider failures land on the record as status=failed instead of escaping
// as errors; the caller always gets a durable trace of the attempt.
func (s *PaymentService) InitiatePayment(ctx context.Context, req payment.Request) (*InitiateResponse, error) {
	if !s.registry.Supports(req.Method.Provider, req.Method.Country) {
		return nil, fmt.Errorf("%s in %s: %w",
			req.Method.Provider, req.Method.Country, domainErrors.ErrProviderNotSupported)
	}

	if res := s.validator.Validate(req.Method.PhoneNumber, req.Method.Provider, req.Method.Country); !res.Valid {
		return nil, domainErrors.NewValidationError("phone_number", res.Reason)
	}

	p, err := payment.NewPayment(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.addEvent(ctx, p, "payment.created", map[string]any{
		"amount":   p.Amount.Value,
		"currency": p.Amount.Currency,
		"provider": string(p.Provider),
	})

	result, err := s.factory.Initiate(ctx, p.Provider, providers.InitiateRequest{
		PaymentID:   p.ID.String(),
		Provider:    p.Provider,
		Amount:      p.Amount.Value,
		Currency:    p.Amount.Currency,
		PhoneNumber: p.PhoneNumber,
		Country:     p.Country,
		Reference:   p.Reference,
		CallbackURL: p.CallbackURL,
		Metadata:    p.Metadata,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("payment_id", p.ID.String()).
			Str("provider", string(p.Provider)).
			Msg("provider initiation failed")
		return s.failPayment(ctx, p, err.Error())
	}

	updated, err := s.repo.UpdateStatus(ctx, p.ID, payment.StatusInitiated, payment.StatusUpdate{
		TransactionID: &result.TransactionID,
		ProviderRef:   &result.ProviderRef,
	})
	if err != nil {
		return nil, fmt.Errorf("record initiation: %w", err)
	}
	s.addEvent(ctx, updated, "payment.initiated", map[string]any{
		"transaction_id": result.TransactionID,
		"provider_ref":   result.ProviderRef,
	})
	s.publish(ctx, "payment.initiated", updated)

	return &InitiateResponse{
		Payment:         updated,
		RedirectURL:     result.RedirectURL,
		CustomerMessage: result.CustomerMessage,
	}, nil
}

// failPayment records a provider failure on the payment. The failed payment
// is the response; no error escapes.
func (s *PaymentService) failPayment(ctx context.Context, p *payment.Payment, reason string) (*InitiateResponse, error) {
	failed, err := s.repo.UpdateStatus(ctx, p.ID, payment.StatusFailed, payment.StatusUpdate{
		FailureReason: &reason,
	})
	if err != nil {
		return nil, fmt.Errorf("record failure: %w", err)
	}
	s.addEvent(ctx, failed, "payment.failed", map[string]any{"reason": reason})
	s.publish(ctx, "payment.failed", failed)
	return &InitiateResponse{Payment: failed}, nil
}

// GetPayment retrieves a payment by id.
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPayments lists payments matching the filter.
func (s *PaymentService) ListPayments(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	return s.repo.List(ctx, filter)
}

// GetPaymentEvents retrieves the audit trail for a payment.
func (s *PaymentService) GetPaymentEvents(ctx context.Context, id uuid.UUID) ([]*payment.Event, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetEvents(ctx, id)
}

// CheckPaymentStatus asks the provider for the transaction's current state
// and applies any observed change through the store. Terminal payments are
// returned as is without touching the provider. Provider errors surface to
// the caller; no automatic retry happens here.
func (s *PaymentService) CheckPaymentStatus(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsTerminal() {
		return p, nil
	}
	if p.TransactionID == nil {
		// Never acknowledged by the provider; nothing to reconcile.
		return p, nil
	}

	result, err := s.factory.CheckStatus(ctx, p.Provider, *p.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("check status with %s: %w", p.Provider, err)
	}

	if result.Status == p.Status {
		return p, nil
	}

	update := payment.StatusUpdate{}
	if result.FailureReason != "" {
		update.FailureReason = &result.FailureReason
	}
	updated, err := s.repo.UpdateStatus(ctx, p.ID, result.Status, update)
	if err != nil {
		return nil, err
	}
	s.addEvent(ctx, updated, "payment.status_changed", map[string]any{
		"from": string(p.Status),
		"to":   string(updated.Status),
	})
	s.publish(ctx, "payment."+string(updated.Status), updated)
	return updated, nil
}

// CancelPayment cancels a payment that has not yet reached processing.
func (s *PaymentService) CancelPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	cancelled, err := s.repo.UpdateStatus(ctx, id, payment.StatusCancelled, payment.StatusUpdate{})
	if err != nil {
		return nil, err
	}
	s.addEvent(ctx, cancelled, "payment.cancelled", nil)
	s.publish(ctx, "payment.cancelled", cancelled)
	return cancelled, nil
}

// RefundPayment refunds a completed payment. Amount 0 means a full refund.
// A partial amount is accepted but the resulting status is still refunded.
func (s *PaymentService) RefundPayment(ctx context.Context, id uuid.UUID, amount int64) (*payment.Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status != payment.StatusCompleted {
		return nil, domainErrors.NewDomainError(
			"invalid_refund",
			fmt.Sprintf("cannot refund payment in status %s", p.Status),
			domainErrors.ErrInvalidStateTransition,
		)
	}

	if amount == 0 {
		amount = p.Amount.Value
	}
	// Reject before the provider call so an over-amount never mutates state.
	if amount < 0 || amount > p.Amount.Value {
		return nil, domainErrors.NewValidationError("refund_amount", "must be positive and not exceed the original amount")
	}

	txID := ""
	if p.TransactionID != nil {
		txID = *p.TransactionID
	}
	if _, err := s.factory.Refund(ctx, p.Provider, providers.RefundRequest{
		PaymentID:     p.ID.String(),
		TransactionID: txID,
		Amount:        amount,
		Currency:      p.Amount.Currency,
	}); err != nil {
		return nil, fmt.Errorf("provider refund: %w", err)
	}

	refunded, err := s.repo.UpdateStatus(ctx, p.ID, payment.StatusRefunded, payment.StatusUpdate{
		RefundedAmount: &amount,
	})
	if err != nil {
		return nil, err
	}
	s.addEvent(ctx, refunded, "payment.refunded", map[string]any{"amount": amount})
	s.publish(ctx, "payment.refunded", refunded)
	return refunded, nil
}

// statsPageSize bounds each page fetched while aggregating stats.
const statsPageSize = 1000

// GetPaymentStats aggregates payments matching the filter. Without an
// explicit limit the whole matching set is walked page by page; a caller
// limit scopes the aggregation to that page.
func (s *PaymentService) GetPaymentStats(ctx context.Context, filter payment.ListFilter) (stats.Summary, error) {
	if filter.Limit > 0 {
		payments, err := s.repo.List(ctx, filter)
		if err != nil {
			return stats.Summary{}, err
		}
		return stats.Aggregate(payments), nil
	}

	filter.Limit = statsPageSize
	var all []*payment.Payment
	for {
		page, err := s.repo.List(ctx, filter)
		if err != nil {
			return stats.Summary{}, err
		}
		all = append(all, page...)
		if len(page) < statsPageSize {
			return stats.Aggregate(all), nil
		}
		filter.Offset += statsPageSize
	}
}

func (s *PaymentService) addEvent(ctx context.Context, p *payment.Payment, eventType string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["status"] = string(p.Status)
	if err := s.repo.AddEvent(ctx, &payment.Event{
		ID:        uuid.New(),
		PaymentID: p.ID,
		EventType: eventType,
		EventData: data,
	}); err != nil {
		s.logger.Error().Err(err).
			Str("payment_id", p.ID.String()).
			Str("event_type", eventType).
			Msg("failed to append payment event")
	}
}

func (s *PaymentService) publish(ctx context.Context, eventType string, p *payment.Payment) {
	if err := s.publisher.PublishPaymentEvent(ctx, eventType, p); err != nil {
		s.logger.Warn().Err(err).
			Str("payment_id", p.ID.String()).
			Str("event_type", eventType).
			Msg("failed to publish payment event")
	}
}
