// Package stats reduces payment collections into dashboard aggregates.
// Pure computation over already-fetched payments; filtering belongs to the
// store.
package stats

import (
	"github.com/sahelpay/momo/internal/domain/payment"
)

// Bucket is a per-group count and amount sum.
type Bucket struct {
	Count  int64
	Amount int64
}

// Summary is the aggregate view over a payment collection. ByProvider and
// ByCountry always carry every enum variant so chart consumers never probe
// for missing keys.
type Summary struct {
	TotalPayments int64
	TotalAmount   int64
	Successful    int64
	Failed        int64
	Pending       int64
	AverageAmount float64
	ByProvider    map[payment.Provider]Bucket
	ByCountry     map[payment.Country]Bucket
}

// Aggregate reduces payments into a Summary. Amounts are summed without
// currency conversion; callers wanting per-currency totals filter first.
// An empty input yields all zeroes with fully-populated maps.
func Aggregate(payments []*payment.Payment) Summary {
	s := Summary{
		ByProvider: make(map[payment.Provider]Bucket, len(payment.AllProviders())),
		ByCountry:  make(map[payment.Country]Bucket, len(payment.AllCountries())),
	}
	for _, p := range payment.AllProviders() {
		s.ByProvider[p] = Bucket{}
	}
	for _, c := range payment.AllCountries() {
		s.ByCountry[c] = Bucket{}
	}

	for _, p := range payments {
		s.TotalPayments++
		s.TotalAmount += p.Amount.Value

		pb := s.ByProvider[p.Provider]
		pb.Count++
		pb.Amount += p.Amount.Value
		s.ByProvider[p.Provider] = pb

		cb := s.ByCountry[p.Country]
		cb.Count++
		cb.Amount += p.Amount.Value
		s.ByCountry[p.Country] = cb

		switch p.Status {
		case payment.StatusCompleted:
			s.Successful++
		case payment.StatusFailed:
			s.Failed++
		case payment.StatusPending, payment.StatusInitiated, payment.StatusProcessing:
			s.Pending++
		}
	}

	if s.TotalPayments > 0 {
		s.AverageAmount = float64(s.TotalAmount) / float64(s.TotalPayments)
	}
	return s
}
