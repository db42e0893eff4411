package kpi

import (
	"sort"

	"github.com/ignite/customer-intelligence/internal/domain"
)

// ComputeTotals sums customer monetary value and derives the mean order value.
func ComputeTotals(scores []domain.CustomerScore) Totals {
	var sum float64
	for _, s := range scores {
		sum += s.MonetaryValue
	}

	avg := 0.0
	if len(scores) > 0 {
		avg = round2(sum / float64(len(scores)))
	}

	return Totals{TotalRevenue: sum, AvgOrderValue: avg}
}

// ComputeActivity counts customers by activity class. Active means any
// segment other than Churn Risk; loyal means Loyal or High Value.
func ComputeActivity(scores []domain.CustomerScore) Activity {
	a := Activity{TotalCustomers: len(scores)}

	for _, s := range scores {
		if s.Segment.IsChurn() {
			a.ChurnCustomers++
		} else {
			a.ActiveCustomers++
		}
		if s.Segment.IsLoyal() {
			a.LoyalCustomers++
		}
	}

	total := float64(a.TotalCustomers)
	a.ActiveCustomerPct = round2(safeDiv(float64(a.ActiveCustomers), total) * 100)
	a.LoyalCustomerPct = round2(safeDiv(float64(a.LoyalCustomers), total) * 100)
	a.ChurnRatePct = round2(safeDiv(float64(a.ChurnCustomers), total) * 100)

	return a
}

// ComputeSegmentRevenue groups customer spend by segment, sorted by revenue
// descending with segment name as the deterministic tie-breaker.
func ComputeSegmentRevenue(scores []domain.CustomerScore) []SegmentRevenue {
	type acc struct {
		sum float64
		n   int
	}
	bySegment := make(map[string]*acc)
	for _, s := range scores {
		seg := string(s.Segment)
		if bySegment[seg] == nil {
			bySegment[seg] = &acc{}
		}
		bySegment[seg].sum += s.MonetaryValue
		bySegment[seg].n++
	}

	result := make([]SegmentRevenue, 0, len(bySegment))
	for seg, a := range bySegment {
		result = append(result, SegmentRevenue{
			Segment:       seg,
			Revenue:       a.sum,
			AvgOrderValue: round2(a.sum / float64(a.n)),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Revenue != result[j].Revenue {
			return result[i].Revenue > result[j].Revenue
		}
		return result[i].Segment < result[j].Segment
	})

	return result
}

// ComputeMonthlyRevenue sums transaction amounts per calendar month,
// ascending by month.
func ComputeMonthlyRevenue(txs []domain.Transaction) []MonthRevenue {
	byMonth := make(map[string]float64)
	for _, tx := range txs {
		byMonth[tx.Month()] += tx.Amount
	}

	result := make([]MonthRevenue, 0, len(byMonth))
	for month, revenue := range byMonth {
		result = append(result, MonthRevenue{Month: month, Revenue: revenue})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })

	return result
}

// ComputeTopCustomers returns the top n customers by spend, descending, with
// customer_id as the deterministic tie-breaker. Fewer than n rows come back
// as-is, no padding.
func ComputeTopCustomers(scores []domain.CustomerScore, n int) []TopCustomer {
	result := make([]TopCustomer, 0, len(scores))
	for _, s := range scores {
		result = append(result, TopCustomer{CustomerID: s.CustomerID, MonetaryValue: s.MonetaryValue})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].MonetaryValue != result[j].MonetaryValue {
			return result[i].MonetaryValue > result[j].MonetaryValue
		}
		return result[i].CustomerID < result[j].CustomerID
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

// ComputeTopProducts sums sales per product, keeps the top n descending
// (product_id breaks ties), and left-joins catalog attributes. The second
// return value counts ranked products missing from the catalog.
func ComputeTopProducts(txs []domain.Transaction, products []domain.Product, n int) ([]TopProduct, int) {
	sales := make(map[string]float64)
	for _, tx := range txs {
		sales[tx.ProductID] += tx.Amount
	}

	catalog := make(map[string]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ProductID] = p
	}

	result := make([]TopProduct, 0, len(sales))
	for id, total := range sales {
		result = append(result, TopProduct{ProductID: id, TotalSales: total})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalSales != result[j].TotalSales {
			return result[i].TotalSales > result[j].TotalSales
		}
		return result[i].ProductID < result[j].ProductID
	})

	if len(result) > n {
		result = result[:n]
	}

	missing := 0
	for i := range result {
		p, ok := catalog[result[i].ProductID]
		if !ok {
			missing++
			continue
		}
		result[i].Name = p.Name
		result[i].Category = p.Category
	}

	return result, missing
}
