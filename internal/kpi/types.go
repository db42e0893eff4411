package kpi

import (
	"errors"
	"time"
)

// ErrEmptyRelation is returned when a KPI relation that must carry at least
// one row comes up empty. The consolidator refuses to emit a master row built
// on missing upstream data.
var ErrEmptyRelation = errors.New("empty KPI relation")

// Totals holds revenue totals over the customer scoring table.
type Totals struct {
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// Activity holds customer activity counts and percentages. Percentages are
// rounded to 2 decimals; a zero customer base yields zero percentages.
type Activity struct {
	TotalCustomers    int     `json:"total_customers"`
	ActiveCustomers   int     `json:"active_customers"`
	ActiveCustomerPct float64 `json:"active_customer_pct"`
	LoyalCustomers    int     `json:"loyal_customers"`
	LoyalCustomerPct  float64 `json:"loyal_customer_pct"`
	ChurnCustomers    int     `json:"churn_customers"`
	ChurnRatePct      float64 `json:"churn_rate_pct"`
}

// SegmentRevenue is one row of the revenue-by-segment relation.
type SegmentRevenue struct {
	Segment       string  `json:"segment"`
	Revenue       float64 `json:"revenue_by_segment"`
	AvgOrderValue float64 `json:"avg_order_value_segment"`
}

// MonthRevenue is one row of the monthly revenue trend.
type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"monthly_revenue"`
}

// TopCustomer is one row of the top-customers-by-spend relation.
type TopCustomer struct {
	CustomerID    string  `json:"customer_id"`
	MonetaryValue float64 `json:"monetary_value"`
}

// TopProduct is one row of the top-products-by-sales relation. Name and
// Category come from a left join against the product catalog and stay empty
// when the catalog has no matching row.
type TopProduct struct {
	ProductID  string  `json:"product_id"`
	TotalSales float64 `json:"total_sales"`
	Name       string  `json:"product_name"`
	Category   string  `json:"category"`
}

// CLVRecord holds the per-customer lifetime value derivation.
type CLVRecord struct {
	CustomerID        string  `json:"customer_id"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	MonthsActive      float64 `json:"months_active"`
	PurchaseFreqMonth float64 `json:"purchase_freq_month"`
	CLV               float64 `json:"CLV"`
}

// RetentionMatrix is the cohort retention pivot: one row per cohort month,
// one column per observed transaction month, both ascending. A cell counts
// the distinct customers of that cohort active in that month; cohorts that
// went quiet contribute a true zero, not a missing value.
type RetentionMatrix struct {
	Months []string       `json:"months"`
	Rows   []RetentionRow `json:"rows"`
}

// RetentionRow is one cohort's counts, aligned with RetentionMatrix.Months.
type RetentionRow struct {
	CohortMonth string `json:"cohort_month"`
	Counts      []int  `json:"counts"`
}

// Cell returns the count for a (cohort, month) pair, 0 when unobserved.
func (m RetentionMatrix) Cell(cohort, month string) int {
	col := -1
	for i, mo := range m.Months {
		if mo == month {
			col = i
			break
		}
	}
	if col < 0 {
		return 0
	}
	for _, row := range m.Rows {
		if row.CohortMonth == cohort {
			return row.Counts[col]
		}
	}
	return 0
}

// FinalKpis is the single master summary row merging all upstream KPIs.
type FinalKpis struct {
	TotalCustomers    int     `json:"total_customers"`
	ActiveCustomers   int     `json:"active_customers"`
	ActiveCustomerPct float64 `json:"active_customer_pct"`
	LoyalCustomers    int     `json:"loyal_customers"`
	LoyalCustomerPct  float64 `json:"loyal_customer_pct"`
	ChurnCustomers    int     `json:"churn_customers"`
	ChurnRatePct      float64 `json:"churn_rate_pct"`
	TotalRevenue      float64 `json:"total_revenue"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	AvgCLV            float64 `json:"avg_clv"`
	RetentionRate     float64 `json:"retention_rate"`
}

// Gaps counts transaction rows whose foreign keys had no match. Gaps degrade
// the joins to null-equivalent values; they never abort a run.
type Gaps struct {
	UnknownCustomers int `json:"unknown_customers"`
	UnknownProducts  int `json:"unknown_products"`
}

// Result is the full output of one batch run.
type Result struct {
	AsOf          time.Time        `json:"as_of"`
	Totals        Totals           `json:"totals"`
	Activity      Activity         `json:"activity"`
	Segments      []SegmentRevenue `json:"segments"`
	Monthly       []MonthRevenue   `json:"monthly_revenue"`
	TopCustomers  []TopCustomer    `json:"top_customers"`
	TopProducts   []TopProduct     `json:"top_products"`
	CLV           []CLVRecord      `json:"clv"`
	Retention     RetentionMatrix  `json:"retention"`
	RetentionRate float64          `json:"retention_rate"`
	Final         FinalKpis        `json:"final"`
	Gaps          Gaps             `json:"gaps"`
}
