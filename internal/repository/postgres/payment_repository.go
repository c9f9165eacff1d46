package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
)

// allowedSortColumns is a whitelist of columns valid for ORDER BY.
var allowedSortColumns = map[string]string{
	"created_at": "created_at",
	"amount":     "amount",
	"status":     "status",
	"updated_at": "updated_at",
}

const paymentColumns = `id, reference, description, amount, currency, direction,
	        provider, phone_number, country, account_name, status,
	        transaction_id, provider_ref, client_id, supplier_id, callback_url,
	        failure_reason, refunded_amount, metadata, created_at, updated_at, completed_at`

// PaymentRepository implements payment.Repository using PostgreSQL.
// UpdateStatus serializes per payment id through SELECT ... FOR UPDATE.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO payments
		 (id, reference, description, amount, currency, direction,
		  provider, phone_number, country, account_name, status,
		  transaction_id, provider_ref, client_id, supplier_id, callback_url,
		  failure_reason, refunded_amount, metadata, created_at, updated_at, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		p.ID, p.Reference, p.Description, p.Amount.Value, p.Amount.Currency, string(p.Direction),
		string(p.Provider), p.PhoneNumber, string(p.Country), p.AccountName, string(p.Status),
		p.TransactionID, p.ProviderRef, p.ClientID, p.SupplierID, p.CallbackURL,
		p.FailureReason, p.RefundedAmount, metadata, p.CreatedAt, p.UpdatedAt, p.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// UpdateStatus applies a status transition inside a transaction, pinning the
// row with FOR UPDATE so concurrent transitions for the same id serialize.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus payment.Status, update payment.StatusUpdate) (*payment.Payment, error) {
	return r.transition(ctx, id, func(p *payment.Payment) error {
		return payment.ApplyTransition(p, newStatus, update)
	})
}

// List lists payments with optional filters.
func (r *PaymentRepository) List(ctx context.Context, f payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []any{}
	argIdx := 1

	addArg := func(clause string, value any) {
		query += fmt.Sprintf(clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if f.CreatedFrom != nil {
		addArg(" AND created_at >= $%d", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		addArg(" AND created_at <= $%d", *f.CreatedTo)
	}
	if f.Status != nil {
		addArg(" AND status = $%d", string(*f.Status))
	}
	if f.Provider != nil {
		addArg(" AND provider = $%d", string(*f.Provider))
	}
	if f.Country != nil {
		addArg(" AND country = $%d", string(*f.Country))
	}
	if f.Direction != nil {
		addArg(" AND direction = $%d", string(*f.Direction))
	}
	if f.MinAmount != nil {
		addArg(" AND amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		addArg(" AND amount <= $%d", *f.MaxAmount)
	}
	if f.Reference != "" {
		addArg(" AND reference LIKE $%d", "%"+f.Reference+"%")
	}
	if f.PhoneNumber != "" {
		addArg(" AND phone_number LIKE $%d", "%"+f.PhoneNumber+"%")
	}
	if f.ClientID != nil {
		addArg(" AND client_id = $%d", *f.ClientID)
	}
	if f.SupplierID != nil {
		addArg(" AND supplier_id = $%d", *f.SupplierID)
	}

	// Strict whitelist for sort column
	sortBy := "created_at"
	if col, ok := allowedSortColumns[f.SortBy]; ok {
		sortBy = col
	}
	sortOrder := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		sortOrder = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// AddEvent inserts a payment event.
func (r *PaymentRepository) AddEvent(ctx context.Context, event *payment.Event) error {
	data, err := json.Marshal(event.EventData)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO payment_events (id, payment_id, event_type, event_data, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		event.ID, event.PaymentID, event.EventType, data,
	)
	if err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

// GetEvents retrieves events for a payment.
func (r *PaymentRepository) GetEvents(ctx context.Context, paymentID uuid.UUID) ([]*payment.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, payment_id, event_type, event_data, created_at
		 FROM payment_events WHERE payment_id = $1 ORDER BY created_at ASC`, paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()

	var events []*payment.Event
	for rows.Next() {
		e := &payment.Event{}
		var data []byte
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.EventType, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal(data, &e.EventData); err != nil {
			return nil, fmt.Errorf("unmarshal event data: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- scanning helpers ---

// scanPayment scans a payment from any source implementing the scanner interface.
func (r *PaymentRepository) scanPayment(s scanner) (*payment.Payment, error) {
	p := &payment.Payment{Metadata: make(map[string]any)}
	var (
		direction string
		provider  string
		country   string
		status    string
		metadata  []byte
	)
	err := s.Scan(
		&p.ID, &p.Reference, &p.Description, &p.Amount.Value, &p.Amount.Currency, &direction,
		&provider, &p.PhoneNumber, &country, &p.AccountName, &status,
		&p.TransactionID, &p.ProviderRef, &p.ClientID, &p.SupplierID, &p.CallbackURL,
		&p.FailureReason, &p.RefundedAmount, &metadata, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	p.Direction = payment.Direction(direction)
	p.Provider = payment.Provider(provider)
	p.Country = payment.Country(country)
	p.Status = payment.Status(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal payment metadata: %w", err)
		}
	}
	return p, nil
}
