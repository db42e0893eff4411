package kpi

import (
	"sort"

	"github.com/ignite/customer-intelligence/internal/domain"
)

// ComputeRetention builds the cohort retention matrix. Each customer's cohort
// is the calendar month of their first purchase; a cell counts the distinct
// customers of a cohort active in a given month. Columns cover every observed
// transaction month so later cells read as true zeros once a cohort goes
// quiet.
func ComputeRetention(txs []domain.Transaction) RetentionMatrix {
	if len(txs) == 0 {
		return RetentionMatrix{}
	}

	// Cohort month per customer (min transaction date).
	cohort := make(map[string]string)
	for _, tx := range txs {
		month := tx.Month()
		if cur, ok := cohort[tx.CustomerID]; !ok || month < cur {
			cohort[tx.CustomerID] = month
		}
	}

	// Distinct customers per (cohort, month).
	type cell struct{ cohort, month string }
	seen := make(map[cell]map[string]struct{})
	monthSet := make(map[string]struct{})
	for _, tx := range txs {
		c := cell{cohort: cohort[tx.CustomerID], month: tx.Month()}
		if seen[c] == nil {
			seen[c] = make(map[string]struct{})
		}
		seen[c][tx.CustomerID] = struct{}{}
		monthSet[c.month] = struct{}{}
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)

	cohortSet := make(map[string]struct{})
	for _, c := range cohort {
		cohortSet[c] = struct{}{}
	}
	cohorts := make([]string, 0, len(cohortSet))
	for c := range cohortSet {
		cohorts = append(cohorts, c)
	}
	sort.Strings(cohorts)

	matrix := RetentionMatrix{Months: months, Rows: make([]RetentionRow, 0, len(cohorts))}
	for _, c := range cohorts {
		row := RetentionRow{CohortMonth: c, Counts: make([]int, len(months))}
		for i, m := range months {
			row.Counts[i] = len(seen[cell{cohort: c, month: m}])
		}
		matrix.Rows = append(matrix.Rows, row)
	}

	return matrix
}

// RetentionRate derives the aggregate retention rate from the matrix:
// the sum of every cell divided by (first-period column sum * period count),
// rounded to 2 decimals. This is a coarse single-number approximation across
// all cohorts and periods at once, not a per-cohort retention curve; the
// definition is kept as-is for compatibility with downstream consumers.
// An empty matrix or a zero first column yields 0.
func RetentionRate(m RetentionMatrix) float64 {
	if len(m.Months) == 0 || len(m.Rows) == 0 {
		return 0
	}

	var sumAll, firstCol float64
	for _, row := range m.Rows {
		firstCol += float64(row.Counts[0])
		for _, n := range row.Counts {
			sumAll += float64(n)
		}
	}

	return round2(safeDiv(sumAll, firstCol*float64(len(m.Months))))
}
