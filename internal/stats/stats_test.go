package stats_test

import (
	"testing"

	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/stats"
	"github.com/sahelpay/momo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_EmptyInput(t *testing.T) {
	s := stats.Aggregate(nil)

	assert.Zero(t, s.TotalPayments)
	assert.Zero(t, s.TotalAmount)
	assert.Zero(t, s.Successful)
	assert.Zero(t, s.Failed)
	assert.Zero(t, s.Pending)
	assert.Zero(t, s.AverageAmount)

	// Every enum variant is present even with no data.
	assert.Len(t, s.ByProvider, len(payment.AllProviders()))
	assert.Len(t, s.ByCountry, len(payment.AllCountries()))
	for p, b := range s.ByProvider {
		assert.Equal(t, stats.Bucket{}, b, "provider %s", p)
	}
	for c, b := range s.ByCountry {
		assert.Equal(t, stats.Bucket{}, b, "country %s", c)
	}
}

func TestAggregate_StatusBuckets(t *testing.T) {
	payments := []*payment.Payment{
		testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusCompleted)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusFailed)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusPending)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusInitiated)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusProcessing)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusCancelled)),
		testutil.NewPayment(testutil.WithStatus(payment.StatusRefunded)),
	}

	s := stats.Aggregate(payments)
	assert.Equal(t, int64(8), s.TotalPayments)
	// Only completed counts as successful; a refunded payment does not.
	assert.Equal(t, int64(2), s.Successful)
	assert.Equal(t, int64(1), s.Failed)
	// Pending covers every in-flight status.
	assert.Equal(t, int64(3), s.Pending)
}

func TestAggregate_AmountsAndAverage(t *testing.T) {
	payments := []*payment.Payment{
		testutil.NewPayment(testutil.WithAmount(10000, "XOF")),
		testutil.NewPayment(testutil.WithAmount(20000, "XOF")),
		testutil.NewPayment(testutil.WithAmount(60000, "XOF")),
	}

	s := stats.Aggregate(payments)
	assert.Equal(t, int64(90000), s.TotalAmount)
	assert.InDelta(t, 30000.0, s.AverageAmount, 0.001)
}

func TestAggregate_GroupBuckets(t *testing.T) {
	payments := []*payment.Payment{
		testutil.NewPayment(testutil.WithAmount(10000, "XOF")),
		testutil.NewPayment(testutil.WithAmount(15000, "XOF")),
		testutil.NewPayment(
			testutil.WithAmount(5000, "KES"),
			testutil.WithProvider(payment.ProviderMPesa, payment.CountryKenya),
		),
	}

	s := stats.Aggregate(payments)

	require.Contains(t, s.ByProvider, payment.ProviderOrangeMoney)
	assert.Equal(t, stats.Bucket{Count: 2, Amount: 25000}, s.ByProvider[payment.ProviderOrangeMoney])
	assert.Equal(t, stats.Bucket{Count: 1, Amount: 5000}, s.ByProvider[payment.ProviderMPesa])
	assert.Equal(t, stats.Bucket{}, s.ByProvider[payment.ProviderWave])

	assert.Equal(t, stats.Bucket{Count: 2, Amount: 25000}, s.ByCountry[payment.CountrySenegal])
	assert.Equal(t, stats.Bucket{Count: 1, Amount: 5000}, s.ByCountry[payment.CountryKenya])
}
