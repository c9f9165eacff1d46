// Package memory provides the in-process payment store. It is the reference
// Repository implementation: concurrent status transitions for the same
// payment are serialized through a per-id lock so the legality check always
// sees the latest committed state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
)

// PaymentRepository implements payment.Repository over mutex-guarded maps.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*payment.Payment
	events   map[uuid.UUID][]*payment.Event

	lockMu  sync.Mutex
	idLocks map[uuid.UUID]*sync.Mutex
}

// NewPaymentRepository creates an empty store.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[uuid.UUID]*payment.Payment),
		events:   make(map[uuid.UUID][]*payment.Event),
		idLocks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the transition lock for a payment id, creating it on first
// use. Locks are never removed: payments are never deleted either.
func (r *PaymentRepository) lockFor(id uuid.UUID) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	l, ok := r.idLocks[id]
	if !ok {
		l = &sync.Mutex{}
		r.idLocks[id] = l
	}
	return l
}

// Create persists a new payment.
func (r *PaymentRepository) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = clone(p)
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return clone(p), nil
}

// UpdateStatus applies a status transition under the payment's id lock.
func (r *PaymentRepository) UpdateStatus(_ context.Context, id uuid.UUID, newStatus payment.Status, update payment.StatusUpdate) (*payment.Payment, error) {
	idLock := r.lockFor(id)
	idLock.Lock()
	defer idLock.Unlock()

	r.mu.RLock()
	current, ok := r.payments[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}

	next := clone(current)
	if err := payment.ApplyTransition(next, newStatus, update); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.payments[id] = next
	r.mu.Unlock()
	return clone(next), nil
}

// List lists payments matching all set filters, newest first by default.
func (r *PaymentRepository) List(_ context.Context, f payment.ListFilter) ([]*payment.Payment, error) {
	r.mu.RLock()
	matched := make([]*payment.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		if matches(p, f) {
			matched = append(matched, clone(p))
		}
	}
	r.mu.RUnlock()

	sortPayments(matched, f.SortBy, f.SortOrder)

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []*payment.Payment{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// AddEvent appends a payment event.
func (r *PaymentRepository) AddEvent(_ context.Context, event *payment.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *event
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.events[event.PaymentID] = append(r.events[event.PaymentID], &e)
	return nil
}

// GetEvents retrieves the audit trail for a payment.
func (r *PaymentRepository) GetEvents(_ context.Context, paymentID uuid.UUID) ([]*payment.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := r.events[paymentID]
	out := make([]*payment.Event, len(events))
	for i, e := range events {
		ev := *e
		out[i] = &ev
	}
	return out, nil
}

func matches(p *payment.Payment, f payment.ListFilter) bool {
	if f.CreatedFrom != nil && p.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && p.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Provider != nil && p.Provider != *f.Provider {
		return false
	}
	if f.Country != nil && p.Country != *f.Country {
		return false
	}
	if f.Direction != nil && p.Direction != *f.Direction {
		return false
	}
	if f.MinAmount != nil && p.Amount.Value < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && p.Amount.Value > *f.MaxAmount {
		return false
	}
	if f.Reference != "" && !strings.Contains(p.Reference, f.Reference) {
		return false
	}
	if f.PhoneNumber != "" && !strings.Contains(p.PhoneNumber, f.PhoneNumber) {
		return false
	}
	if f.ClientID != nil && (p.ClientID == nil || *p.ClientID != *f.ClientID) {
		return false
	}
	if f.SupplierID != nil && (p.SupplierID == nil || *p.SupplierID != *f.SupplierID) {
		return false
	}
	return true
}

func sortPayments(payments []*payment.Payment, sortBy, sortOrder string) {
	less := func(a, b *payment.Payment) bool {
		switch sortBy {
		case "amount":
			return a.Amount.Value < b.Amount.Value
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "status":
			return a.Status < b.Status
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	asc := strings.EqualFold(sortOrder, "asc")
	sort.SliceStable(payments, func(i, j int) bool {
		if asc {
			return less(payments[i], payments[j])
		}
		return less(payments[j], payments[i])
	})
}

// clone copies a payment so callers cannot mutate stored state. Pointer
// fields hold immutable values and are replaced wholesale on update, so a
// shallow pointer copy is safe; the metadata map is duplicated.
func clone(p *payment.Payment) *payment.Payment {
	c := *p
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
