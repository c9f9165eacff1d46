// Package testutil holds shared test doubles and fixtures.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/providers"
)

// --- Payment Repository Mock ---

// MockPaymentRepository is a mock implementation of payment.Repository.
// The default behavior is a working in-memory map; set a Func field to
// override a single method.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment
	events   map[uuid.UUID][]*payment.Event

	CreateFunc       func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, newStatus payment.Status, update payment.StatusUpdate) (*payment.Payment, error)
	ListFunc         func(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error)
	AddEventFunc     func(ctx context.Context, event *payment.Event) error
	GetEventsFunc    func(ctx context.Context, paymentID uuid.UUID) ([]*payment.Event, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[uuid.UUID]*payment.Payment),
		events:   make(map[uuid.UUID][]*payment.Event),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus payment.Status, update payment.StatusUpdate) (*payment.Payment, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, newStatus, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	if err := payment.ApplyTransition(p, newStatus, update); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *MockPaymentRepository) List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*payment.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *MockPaymentRepository) AddEvent(ctx context.Context, event *payment.Event) error {
	if m.AddEventFunc != nil {
		return m.AddEventFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.PaymentID] = append(m.events[event.PaymentID], event)
	return nil
}

func (m *MockPaymentRepository) GetEvents(ctx context.Context, paymentID uuid.UUID) ([]*payment.Event, error) {
	if m.GetEventsFunc != nil {
		return m.GetEventsFunc(ctx, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[paymentID], nil
}

// Events returns the recorded events for a payment without going through
// the interface.
func (m *MockPaymentRepository) Events(paymentID uuid.UUID) []*payment.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[paymentID]
}

// --- Provider adapter fake ---

// FakeAdapter is a scripted providers.Adapter.
type FakeAdapter struct {
	Provider        payment.Provider
	InitiateFunc    func(ctx context.Context, req providers.InitiateRequest) (*providers.InitiateResult, error)
	CheckStatusFunc func(ctx context.Context, transactionID string) (*providers.StatusResult, error)
	RefundFunc      func(ctx context.Context, req providers.RefundRequest) (*providers.RefundResult, error)
}

func (f *FakeAdapter) Name() payment.Provider { return f.Provider }

func (f *FakeAdapter) Initiate(ctx context.Context, req providers.InitiateRequest) (*providers.InitiateResult, error) {
	if f.InitiateFunc != nil {
		return f.InitiateFunc(ctx, req)
	}
	return &providers.InitiateResult{
		TransactionID: "fake_txn_1",
		ProviderRef:   "fake/ref",
	}, nil
}

func (f *FakeAdapter) CheckStatus(ctx context.Context, transactionID string) (*providers.StatusResult, error) {
	if f.CheckStatusFunc != nil {
		return f.CheckStatusFunc(ctx, transactionID)
	}
	return &providers.StatusResult{Status: payment.StatusProcessing}, nil
}

func (f *FakeAdapter) Refund(ctx context.Context, req providers.RefundRequest) (*providers.RefundResult, error) {
	if f.RefundFunc != nil {
		return f.RefundFunc(ctx, req)
	}
	return &providers.RefundResult{TransactionID: "fake_refund_1"}, nil
}

// SeqRand returns a rand source that replays the given values in order,
// then repeats the last one. Lets tests force specific simulator branches.
func SeqRand(values ...float64) func() float64 {
	i := 0
	var mu sync.Mutex
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}
