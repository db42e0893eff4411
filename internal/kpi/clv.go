package kpi

import (
	"sort"
	"time"

	"github.com/ignite/customer-intelligence/internal/domain"
)

// ComputeCLV derives the per-customer lifetime value estimate:
//
//	first purchase -> months active -> avg order value -> purchase
//	frequency -> CLV = AOV * frequency * months active
//
// asOf is the run's reference timestamp. It is always injected by the caller
// so the same inputs produce the same output on every run; nothing in here
// reads the wall clock. Customers whose tenure rounds to zero get a zero
// frequency and zero CLV rather than a division blowup.
func ComputeCLV(txs []domain.Transaction, asOf time.Time) []CLVRecord {
	type acc struct {
		sum   float64
		n     int
		first time.Time
	}
	byCustomer := make(map[string]*acc)
	for _, tx := range txs {
		a := byCustomer[tx.CustomerID]
		if a == nil {
			a = &acc{first: tx.Date}
			byCustomer[tx.CustomerID] = a
		}
		a.sum += tx.Amount
		a.n++
		if tx.Date.Before(a.first) {
			a.first = tx.Date
		}
	}

	result := make([]CLVRecord, 0, len(byCustomer))
	for id, a := range byCustomer {
		rec := CLVRecord{
			CustomerID:    id,
			AvgOrderValue: round2(a.sum / float64(a.n)),
			MonthsActive:  round1(monthsBetween(asOf, a.first)),
		}
		if rec.MonthsActive > 0 {
			rec.PurchaseFreqMonth = round2(float64(a.n) / rec.MonthsActive)
			rec.CLV = round2(rec.AvgOrderValue * rec.PurchaseFreqMonth * rec.MonthsActive)
		}
		result = append(result, rec)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].CustomerID < result[j].CustomerID })

	return result
}
