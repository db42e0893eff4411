package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/ignite/customer-intelligence/internal/kpi"
)

// Table is one flat tabular artifact ready for materialization. Name is the
// artifact name without extension; downstream consumers depend on both the
// names and the column order, so neither may change.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// EncodeCSV renders the table as CSV bytes.
func (t Table) EncodeCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("encoding %s header: %w", t.Name, err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("encoding %s row %d: %w", t.Name, i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", t.Name, err)
	}

	return buf.Bytes(), nil
}

func ffmt(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func ifmt(v int) string { return strconv.Itoa(v) }

// Tables renders a pipeline result into the nine output artifacts.
func Tables(res *kpi.Result) []Table {
	tables := []Table{
		{
			Name:   "kpi_totals",
			Header: []string{"total_revenue", "avg_order_value"},
			Rows:   [][]string{{ffmt(res.Totals.TotalRevenue), ffmt(res.Totals.AvgOrderValue)}},
		},
		{
			Name: "kpi_activity",
			Header: []string{"total_customers", "active_customers", "active_customer_pct",
				"loyal_customers", "loyal_customer_pct", "churn_customers", "churn_rate_pct"},
			Rows: [][]string{{
				ifmt(res.Activity.TotalCustomers),
				ifmt(res.Activity.ActiveCustomers),
				ffmt(res.Activity.ActiveCustomerPct),
				ifmt(res.Activity.LoyalCustomers),
				ffmt(res.Activity.LoyalCustomerPct),
				ifmt(res.Activity.ChurnCustomers),
				ffmt(res.Activity.ChurnRatePct),
			}},
		},
	}

	segment := Table{
		Name:   "kpi_revenue_segment",
		Header: []string{"segment", "revenue_by_segment", "avg_order_value_segment"},
	}
	for _, s := range res.Segments {
		segment.Rows = append(segment.Rows, []string{s.Segment, ffmt(s.Revenue), ffmt(s.AvgOrderValue)})
	}
	tables = append(tables, segment)

	monthly := Table{
		Name:   "kpi_monthly_revenue",
		Header: []string{"month", "monthly_revenue"},
	}
	for _, m := range res.Monthly {
		monthly.Rows = append(monthly.Rows, []string{m.Month, ffmt(m.Revenue)})
	}
	tables = append(tables, monthly)

	topCustomers := Table{
		Name:   "kpi_top_customers",
		Header: []string{"customer_id", "monetary_value"},
	}
	for _, c := range res.TopCustomers {
		topCustomers.Rows = append(topCustomers.Rows, []string{c.CustomerID, ffmt(c.MonetaryValue)})
	}
	tables = append(tables, topCustomers)

	topProducts := Table{
		Name:   "kpi_top_products",
		Header: []string{"product_id", "total_sales", "product_name", "category"},
	}
	for _, p := range res.TopProducts {
		topProducts.Rows = append(topProducts.Rows, []string{p.ProductID, ffmt(p.TotalSales), p.Name, p.Category})
	}
	tables = append(tables, topProducts)

	clv := Table{
		Name:   "kpi_clv",
		Header: []string{"customer_id", "avg_order_value", "months_active", "purchase_freq_month", "CLV"},
	}
	for _, c := range res.CLV {
		clv.Rows = append(clv.Rows, []string{
			c.CustomerID, ffmt(c.AvgOrderValue), ffmt(c.MonthsActive), ffmt(c.PurchaseFreqMonth), ffmt(c.CLV),
		})
	}
	tables = append(tables, clv)

	retention := Table{
		Name:   "kpi_retention",
		Header: append([]string{"cohort_month"}, res.Retention.Months...),
	}
	for _, row := range res.Retention.Rows {
		record := make([]string, 0, len(row.Counts)+1)
		record = append(record, row.CohortMonth)
		for _, n := range row.Counts {
			record = append(record, ifmt(n))
		}
		retention.Rows = append(retention.Rows, record)
	}
	tables = append(tables, retention)

	tables = append(tables, Table{
		Name: "customer_kpis",
		Header: []string{"total_customers", "active_customers", "active_customer_pct",
			"loyal_customers", "loyal_customer_pct", "churn_customers", "churn_rate_pct",
			"total_revenue", "avg_order_value", "avg_clv", "retention_rate"},
		Rows: [][]string{{
			ifmt(res.Final.TotalCustomers),
			ifmt(res.Final.ActiveCustomers),
			ffmt(res.Final.ActiveCustomerPct),
			ifmt(res.Final.LoyalCustomers),
			ffmt(res.Final.LoyalCustomerPct),
			ifmt(res.Final.ChurnCustomers),
			ffmt(res.Final.ChurnRatePct),
			ffmt(res.Final.TotalRevenue),
			ffmt(res.Final.AvgOrderValue),
			ffmt(res.Final.AvgCLV),
			ffmt(res.Final.RetentionRate),
		}},
	})

	return tables
}
