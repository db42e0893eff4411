// Package kpi computes the customer analytics KPI set: revenue totals,
// segment activity, lifetime value and cohort retention, consolidated into a
// single master row. Every stage is a pure function over fully materialized
// slices; each relation is immutable once produced, and stage ordering is
// enforced by data dependency alone.
package kpi

import (
	"log"
	"time"

	"github.com/ignite/customer-intelligence/internal/domain"
)

// DefaultTopN is the ranking depth for the top-customers and top-products
// relations when the caller does not override it.
const DefaultTopN = 10

// Inputs holds the three input relations of a batch run.
type Inputs struct {
	Scores       []domain.CustomerScore
	Transactions []domain.Transaction
	Products     []domain.Product
}

// Run executes the full KPI derivation over the inputs. asOf is the run's
// reference timestamp for tenure calculations; callers inject it (typically
// the batch start time, or a pinned date for reproducible runs). The run
// either returns a complete Result or an error, never a partial one.
func Run(in Inputs, asOf time.Time, topN int) (*Result, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	res := &Result{AsOf: asOf}

	res.Totals = ComputeTotals(in.Scores)
	res.Activity = ComputeActivity(in.Scores)
	res.Segments = ComputeSegmentRevenue(in.Scores)
	res.Monthly = ComputeMonthlyRevenue(in.Transactions)
	res.TopCustomers = ComputeTopCustomers(in.Scores, topN)

	var missingProducts int
	res.TopProducts, missingProducts = ComputeTopProducts(in.Transactions, in.Products, topN)

	res.CLV = ComputeCLV(in.Transactions, asOf)
	res.Retention = ComputeRetention(in.Transactions)
	res.RetentionRate = RetentionRate(res.Retention)

	res.Gaps = Gaps{
		UnknownCustomers: countUnknownCustomers(in.Scores, in.Transactions),
		UnknownProducts:  missingProducts,
	}
	if res.Gaps.UnknownCustomers > 0 || res.Gaps.UnknownProducts > 0 {
		log.Printf("referential gaps: %d transaction rows with unknown customer_id, %d ranked products missing from catalog",
			res.Gaps.UnknownCustomers, res.Gaps.UnknownProducts)
	}

	final, err := Consolidate(res.Activity, res.Segments, res.CLV, res.RetentionRate)
	if err != nil {
		return nil, err
	}
	res.Final = final

	return res, nil
}

// countUnknownCustomers counts ledger rows whose customer_id does not resolve
// to a scoring row. These degrade to null-equivalent joins downstream; they
// are reported, not dropped.
func countUnknownCustomers(scores []domain.CustomerScore, txs []domain.Transaction) int {
	known := make(map[string]struct{}, len(scores))
	for _, s := range scores {
		known[s.CustomerID] = struct{}{}
	}

	unknown := 0
	for _, tx := range txs {
		if _, ok := known[tx.CustomerID]; !ok {
			unknown++
		}
	}
	return unknown
}
