package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
)

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

// PaymentRepository implements payment.Repository over SQLite. SQLite has a
// single writer, but the transition legality check still needs
// read-modify-write atomicity, so UpdateStatus holds a process-wide
// transition lock around its transaction.
type PaymentRepository struct {
	db   *sql.DB
	txMu sync.Mutex
}

// NewPaymentRepository creates a repository over an opened database.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO payments
		 (id, reference, description, amount, currency, direction,
		  provider, phone_number, country, account_name, status,
		  transaction_id, provider_ref, client_id, supplier_id, callback_url,
		  failure_reason, refunded_amount, metadata, created_at, updated_at, completed_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), p.Reference, p.Description, p.Amount.Value, p.Amount.Currency, string(p.Direction),
		string(p.Provider), p.PhoneNumber, string(p.Country), p.AccountName, string(p.Status),
		p.TransactionID, p.ProviderRef, uuidPtrToString(p.ClientID), uuidPtrToString(p.SupplierID), p.CallbackURL,
		p.FailureReason, p.RefundedAmount, string(metadata), p.CreatedAt, p.UpdatedAt, p.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id.String())
	return scanPayment(row)
}

// UpdateStatus applies a status transition under the transition lock.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus payment.Status, update payment.StatusUpdate) (*payment.Payment, error) {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id.String())
	p, err := scanPayment(row)
	if err != nil {
		return nil, err
	}

	if err := payment.ApplyTransition(p, newStatus, update); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payments SET
		  status=?, transaction_id=?, provider_ref=?, failure_reason=?,
		  refunded_amount=?, updated_at=?, completed_at=?
		 WHERE id=?`,
		string(p.Status), p.TransactionID, p.ProviderRef, p.FailureReason,
		p.RefundedAmount, p.UpdatedAt, p.CompletedAt, p.ID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return p, nil
}

// List lists payments with optional filters.
func (r *PaymentRepository) List(ctx context.Context, f payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []any{}

	if f.CreatedFrom != nil {
		query += " AND created_at >= ?"
		args = append(args, *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query += " AND created_at <= ?"
		args = append(args, *f.CreatedTo)
	}
	if f.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*f.Status))
	}
	if f.Provider != nil {
		query += " AND provider = ?"
		args = append(args, string(*f.Provider))
	}
	if f.Country != nil {
		query += " AND country = ?"
		args = append(args, string(*f.Country))
	}
	if f.Direction != nil {
		query += " AND direction = ?"
		args = append(args, string(*f.Direction))
	}
	if f.MinAmount != nil {
		query += " AND amount >= ?"
		args = append(args, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		query += " AND amount <= ?"
		args = append(args, *f.MaxAmount)
	}
	if f.Reference != "" {
		query += " AND reference LIKE ?"
		args = append(args, "%"+f.Reference+"%")
	}
	if f.PhoneNumber != "" {
		query += " AND phone_number LIKE ?"
		args = append(args, "%"+f.PhoneNumber+"%")
	}
	if f.ClientID != nil {
		query += " AND client_id = ?"
		args = append(args, f.ClientID.String())
	}
	if f.SupplierID != nil {
		query += " AND supplier_id = ?"
		args = append(args, f.SupplierID.String())
	}

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
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
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
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO payment_events (id, payment_id, event_type, event_data, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.ID.String(), event.PaymentID.String(), event.EventType, string(data), createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

// GetEvents retrieves events for a payment.
func (r *PaymentRepository) GetEvents(ctx context.Context, paymentID uuid.UUID) ([]*payment.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payment_id, event_type, event_data, created_at
		 FROM payment_events WHERE payment_id = ? ORDER BY created_at ASC`, paymentID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()

	var events []*payment.Event
	for rows.Next() {
		e := &payment.Event{}
		var (
			idStr, paymentIDStr, data string
		)
		if err := rows.Scan(&idStr, &paymentIDStr, &e.EventType, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse event id: %w", err)
		}
		if e.PaymentID, err = uuid.Parse(paymentIDStr); err != nil {
			return nil, fmt.Errorf("parse event payment id: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.EventData); err != nil {
			return nil, fmt.Errorf("unmarshal event data: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- scanning helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*payment.Payment, error) {
	p := &payment.Payment{Metadata: make(map[string]any)}
	var (
		idStr      string
		direction  string
		provider   string
		country    string
		status     string
		clientID   sql.NullString
		supplierID sql.NullString
		metadata   string
	)
	err := s.Scan(
		&idStr, &p.Reference, &p.Description, &p.Amount.Value, &p.Amount.Currency, &direction,
		&provider, &p.PhoneNumber, &country, &p.AccountName, &status,
		&p.TransactionID, &p.ProviderRef, &clientID, &supplierID, &p.CallbackURL,
		&p.FailureReason, &p.RefundedAmount, &metadata, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse payment id: %w", err)
	}
	p.Direction = payment.Direction(direction)
	p.Provider = payment.Provider(provider)
	p.Country = payment.Country(country)
	p.Status = payment.Status(status)
	if id, ok := parseNullUUID(clientID); ok {
		p.ClientID = id
	}
	if id, ok := parseNullUUID(supplierID); ok {
		p.SupplierID = id
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal payment metadata: %w", err)
		}
	}
	return p, nil
}

func parseNullUUID(v sql.NullString) (*uuid.UUID, bool) {
	if !v.Valid || v.String == "" {
		return nil, false
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func uuidPtrToString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
