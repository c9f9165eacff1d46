package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/repository/memory"
	"github.com/sahelpay/momo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetByID(t *testing.T) {
	repo := memory.NewPaymentRepository()
	p := testutil.NewPayment()

	require.NoError(t, repo.Create(context.Background(), p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Reference, got.Reference)
	assert.Equal(t, payment.StatusPending, got.Status)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := memory.NewPaymentRepository()
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

func TestGetByID_ReturnsCopy(t *testing.T) {
	repo := memory.NewPaymentRepository()
	p := testutil.NewPayment()
	require.NoError(t, repo.Create(context.Background(), p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	got.Status = payment.StatusCompleted
	got.Metadata["injected"] = true

	fresh, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, fresh.Status)
	assert.NotContains(t, fresh.Metadata, "injected")
}

func TestUpdateStatus_LegalTransition(t *testing.T) {
	repo := memory.NewPaymentRepository()
	p := testutil.NewPayment()
	require.NoError(t, repo.Create(context.Background(), p))

	txID := "om_txn_1"
	updated, err := repo.UpdateStatus(context.Background(), p.ID, payment.StatusInitiated, payment.StatusUpdate{
		TransactionID: &txID,
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusInitiated, updated.Status)
	assert.Equal(t, "om_txn_1", *updated.TransactionID)
}

func TestUpdateStatus_IllegalTransitionLeavesStateUntouched(t *testing.T) {
	repo := memory.NewPaymentRepository()
	p := testutil.NewPayment()
	require.NoError(t, repo.Create(context.Background(), p))

	_, err := repo.UpdateStatus(context.Background(), p.ID, payment.StatusCompleted, payment.StatusUpdate{})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo := memory.NewPaymentRepository()
	_, err := repo.UpdateStatus(context.Background(), uuid.New(), payment.StatusCancelled, payment.StatusUpdate{})
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

func TestUpdateStatus_ConcurrentTransitionsSerialized(t *testing.T) {
	repo := memory.NewPaymentRepository()
	p := testutil.NewPayment()
	require.NoError(t, repo.Create(context.Background(), p))

	// Race a cancel against a processing transition. Both are legal from
	// pending, but only one can win: the loser must observe the committed
	// state and be rejected.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = repo.UpdateStatus(context.Background(), p.ID, payment.StatusCancelled, payment.StatusUpdate{})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = repo.UpdateStatus(context.Background(), p.ID, payment.StatusProcessing, payment.StatusUpdate{})
	}()
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Contains(t, []payment.Status{payment.StatusCancelled, payment.StatusProcessing}, got.Status)
}

func TestList_FilterByStatus(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testutil.NewPayment()))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted))))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted))))

	status := payment.StatusCompleted
	got, err := repo.List(ctx, payment.ListFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestList_FilterByProviderAndAmount(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithAmount(5000, "XOF"))))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithAmount(50000, "XOF"))))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(
		testutil.WithAmount(50000, "KES"),
		testutil.WithProvider(payment.ProviderMPesa, payment.CountryKenya),
	)))

	provider := payment.ProviderOrangeMoney
	minAmount := int64(10000)
	got, err := repo.List(ctx, payment.ListFilter{Provider: &provider, MinAmount: &minAmount})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(50000), got[0].Amount.Value)
}

func TestList_FilterByReferenceSubstring(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	p := testutil.NewPayment()
	p.Reference = "ORDER-7781"
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment()))

	got, err := repo.List(ctx, payment.ListFilter{Reference: "7781"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ORDER-7781", got[0].Reference)
}

func TestList_FilterByCreatedWindow(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithCreatedAt(base.Add(-48*time.Hour)))))
	inWindow := testutil.NewPayment(testutil.WithCreatedAt(base))
	require.NoError(t, repo.Create(ctx, inWindow))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithCreatedAt(base.Add(48*time.Hour)))))

	from := base.Add(-time.Hour)
	to := base.Add(time.Hour)
	got, err := repo.List(ctx, payment.ListFilter{CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inWindow.ID, got[0].ID)
}

func TestList_DefaultSortNewestFirst(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := testutil.NewPayment(testutil.WithCreatedAt(base))
	newest := testutil.NewPayment(testutil.WithCreatedAt(base.Add(2 * time.Hour)))
	middle := testutil.NewPayment(testutil.WithCreatedAt(base.Add(time.Hour)))
	for _, p := range []*payment.Payment{oldest, newest, middle} {
		require.NoError(t, repo.Create(ctx, p))
	}

	got, err := repo.List(ctx, payment.ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, newest.ID, got[0].ID)
	assert.Equal(t, oldest.ID, got[2].ID)
}

func TestList_SortByAmountAsc(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithAmount(30000, "XOF"))))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithAmount(10000, "XOF"))))
	require.NoError(t, repo.Create(ctx, testutil.NewPayment(testutil.WithAmount(20000, "XOF"))))

	got, err := repo.List(ctx, payment.ListFilter{SortBy: "amount", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(10000), got[0].Amount.Value)
	assert.Equal(t, int64(30000), got[2].Amount.Value)
}

func TestList_LimitAndOffset(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx,
			testutil.NewPayment(testutil.WithCreatedAt(base.Add(time.Duration(i)*time.Minute)))))
	}

	page, err := repo.List(ctx, payment.ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	empty, err := repo.List(ctx, payment.ListFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEvents_AppendAndRead(t *testing.T) {
	repo := memory.NewPaymentRepository()
	ctx := context.Background()
	p := testutil.NewPayment()
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, repo.AddEvent(ctx, &payment.Event{
		ID:        uuid.New(),
		PaymentID: p.ID,
		EventType: "payment.created",
	}))
	require.NoError(t, repo.AddEvent(ctx, &payment.Event{
		ID:        uuid.New(),
		PaymentID: p.ID,
		EventType: "payment.initiated",
	}))

	events, err := repo.GetEvents(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "payment.created", events[0].EventType)
	assert.Equal(t, "payment.initiated", events[1].EventType)
	// CreatedAt is stamped when the caller leaves it zero.
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestGetEvents_NoEventsEmptySlice(t *testing.T) {
	repo := memory.NewPaymentRepository()
	events, err := repo.GetEvents(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, events)
}
