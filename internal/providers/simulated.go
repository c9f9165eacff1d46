package providers

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/registry"
)

// simulator is the shared core behind every adapter: it remembers the
// transactions it has acknowledged and walks them through the provider-side
// lifecycle on each status check. Randomness is injectable so tests can
// force either branch.
type simulator struct {
	provider    payment.Provider
	config      registry.ProviderConfig
	latency     time.Duration
	failureRate float64 // 0.0 to 1.0, chance initiate is rejected
	timeoutRate float64 // 0.0 to 1.0, chance initiate times out
	advanceRate float64 // chance a status check moves the transaction forward
	pollFailure float64 // chance a processing transaction fails instead of completing
	randFn      func() float64

	mu           sync.Mutex
	transactions map[string]*simTx
}

type simTx struct {
	status        payment.Status
	failureReason string
}

// Option tunes a simulated adapter.
type Option func(*simulator)

func WithLatency(d time.Duration) Option {
	return func(s *simulator) { s.latency = d }
}

func WithFailureRate(rate float64) Option {
	return func(s *simulator) { s.failureRate = rate }
}

func WithTimeoutRate(rate float64) Option {
	return func(s *simulator) { s.timeoutRate = rate }
}

func WithAdvanceRate(rate float64) Option {
	return func(s *simulator) { s.advanceRate = rate }
}

func WithPollFailureRate(rate float64) Option {
	return func(s *simulator) { s.pollFailure = rate }
}

// WithRandSource replaces the randomness source. Tests use a scripted
// sequence to pin down the success and failure branches.
func WithRandSource(fn func() float64) Option {
	return func(s *simulator) { s.randFn = fn }
}

func newSimulator(provider payment.Provider, cfg registry.ProviderConfig, opts ...Option) *simulator {
	s := &simulator{
		provider:     provider,
		config:       cfg,
		latency:      50 * time.Millisecond,
		failureRate:  0.05,
		advanceRate:  0.5,
		pollFailure:  0.05,
		randFn:       rand.Float64,
		transactions: make(map[string]*simTx),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *simulator) Name() payment.Provider { return s.provider }

func (s *simulator) sleep(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(s.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *simulator) initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if req.Provider != s.provider {
		return nil, fmt.Errorf("adapter %s received request for %s: %w",
			s.provider, req.Provider, domainErrors.ErrProviderMismatch)
	}
	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	if s.randFn() < s.timeoutRate {
		return nil, domainErrors.ErrProviderTimeout
	}
	if s.randFn() < s.failureRate {
		return nil, fmt.Errorf("%s declined payment %s for %s: %w",
			s.provider, req.PaymentID, req.PhoneNumber, domainErrors.ErrProviderRejected)
	}

	txID := fmt.Sprintf("%s_txn_%s", s.provider, uuid.New().String()[:8])
	s.mu.Lock()
	s.transactions[txID] = &simTx{status: payment.StatusInitiated}
	s.mu.Unlock()

	return &InitiateResult{
		TransactionID: txID,
		ProviderRef:   fmt.Sprintf("%s/%s", s.config.MerchantID, req.Reference),
	}, nil
}

func (s *simulator) CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("%s transaction %s: %w", s.provider, transactionID, domainErrors.ErrTransactionUnknown)
	}

	switch tx.status {
	case payment.StatusInitiated:
		if s.randFn() < s.advanceRate {
			tx.status = payment.StatusProcessing
		}
	case payment.StatusProcessing:
		if s.randFn() < s.pollFailure {
			tx.status = payment.StatusFailed
			tx.failureReason = fmt.Sprintf("%s: payer did not confirm", s.provider)
		} else if s.randFn() < s.advanceRate {
			tx.status = payment.StatusCompleted
		}
	}

	return &StatusResult{Status: tx.status, FailureReason: tx.failureReason}, nil
}

func (s *simulator) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[req.TransactionID]
	if !ok {
		return nil, fmt.Errorf("%s transaction %s: %w", s.provider, req.TransactionID, domainErrors.ErrTransactionUnknown)
	}
	if tx.status != payment.StatusCompleted {
		return nil, fmt.Errorf("%s transaction %s is %s, not completed: %w",
			s.provider, req.TransactionID, tx.status, domainErrors.ErrProviderRejected)
	}

	tx.status = payment.StatusRefunded
	return &RefundResult{
		TransactionID: fmt.Sprintf("%s_refund_%s", s.provider, uuid.New().String()[:8]),
	}, nil
}

// forceStatus pins a provider-side transaction into a state. Test hook.
func (s *simulator) forceStatus(transactionID string, status payment.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.transactions[transactionID]; ok {
		tx.status = status
	}
}

// --- Concrete adapters, one per provider variant ---

// OrangeMoney confirms payments through a USSD prompt on the payer's phone.
type OrangeMoney struct{ *simulator }

func NewOrangeMoney(cfg registry.ProviderConfig, opts ...Option) *OrangeMoney {
	return &OrangeMoney{newSimulator(payment.ProviderOrangeMoney, cfg, opts...)}
}

func (a *OrangeMoney) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	res, err := a.initiate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.CustomerMessage = "Dial #144# and confirm the pending Orange Money payment."
	return res, nil
}

// MTNMoney pushes an approval prompt through the MoMo API.
type MTNMoney struct{ *simulator }

func NewMTNMoney(cfg registry.ProviderConfig, opts ...Option) *MTNMoney {
	return &MTNMoney{newSimulator(payment.ProviderMTNMoney, cfg, opts...)}
}

func (a *MTNMoney) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	res, err := a.initiate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.CustomerMessage = "Approve the MoMo payment prompt on your handset."
	return res, nil
}

// Wave hands the payer a checkout link.
type Wave struct{ *simulator }

func NewWave(cfg registry.ProviderConfig, opts ...Option) *Wave {
	return &Wave{newSimulator(payment.ProviderWave, cfg, opts...)}
}

func (a *Wave) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	res, err := a.initiate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.RedirectURL = fmt.Sprintf("https://pay.wave.com/c/%s", res.TransactionID)
	res.CustomerMessage = "Open the Wave link to confirm the payment."
	return res, nil
}

// MPesa drives an STK push to the payer's SIM toolkit.
type MPesa struct{ *simulator }

func NewMPesa(cfg registry.ProviderConfig, opts ...Option) *MPesa {
	return &MPesa{newSimulator(payment.ProviderMPesa, cfg, opts...)}
}

func (a *MPesa) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	res, err := a.initiate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.CustomerMessage = "Enter your M-Pesa PIN on the STK prompt to complete the payment."
	return res, nil
}

// MoovMoney confirms through the Flooz USSD menu.
type MoovMoney struct{ *simulator }

func NewMoovMoney(cfg registry.ProviderConfig, opts ...Option) *MoovMoney {
	return &MoovMoney{newSimulator(payment.ProviderMoovMoney, cfg, opts...)}
}

func (a *MoovMoney) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	res, err := a.initiate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.CustomerMessage = "Dial *855# and validate the pending Moov Money payment."
	return res, nil
}

// FreeMoney confirms through the Free Money USSD menu.
type FreeMoney struct{ *simulator }

func NewFreeMoney(cfg registry.ProviderConfig, opts ...Option) *FreeMoney {
	return &FreeMoney{newSimulator(payment.ProviderFreeMoney, cfg, opts...)}
}

func (a *FreeMoney) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	res, err := a.initiate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.CustomerMessage = "Dial #150# and confirm the pending Free Money payment."
	return res, nil
}
