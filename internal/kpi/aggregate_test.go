package kpi

import (
	"testing"
	"time"

	"github.com/ignite/customer-intelligence/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeTotals(t *testing.T) {
	scores := []domain.CustomerScore{
		{CustomerID: "c1", MonetaryValue: 100, Segment: domain.SegmentLoyal},
		{CustomerID: "c2", MonetaryValue: 50.555, Segment: domain.SegmentChurnRisk},
	}

	totals := ComputeTotals(scores)

	assert.Equal(t, 150.555, totals.TotalRevenue)
	assert.Equal(t, 75.28, totals.AvgOrderValue)
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)

	assert.Equal(t, 0.0, totals.TotalRevenue)
	assert.Equal(t, 0.0, totals.AvgOrderValue)
}

func TestComputeActivity(t *testing.T) {
	scores := []domain.CustomerScore{
		{CustomerID: "c1", MonetaryValue: 100, Segment: domain.SegmentLoyal},
		{CustomerID: "c2", MonetaryValue: 50, Segment: domain.SegmentChurnRisk},
	}

	a := ComputeActivity(scores)

	assert.Equal(t, 2, a.TotalCustomers)
	assert.Equal(t, 1, a.ActiveCustomers)
	assert.Equal(t, 50.0, a.ActiveCustomerPct)
	assert.Equal(t, 1, a.LoyalCustomers)
	assert.Equal(t, 1, a.ChurnCustomers)
	assert.Equal(t, 50.0, a.ChurnRatePct)
}

func TestComputeActivityZeroCustomers(t *testing.T) {
	a := ComputeActivity(nil)

	// No customers means every percentage resolves to 0, never a panic.
	assert.Equal(t, 0, a.TotalCustomers)
	assert.Equal(t, 0.0, a.ActiveCustomerPct)
	assert.Equal(t, 0.0, a.LoyalCustomerPct)
	assert.Equal(t, 0.0, a.ChurnRatePct)
}

func TestComputeActivityUnknownSegment(t *testing.T) {
	scores := []domain.CustomerScore{
		{CustomerID: "c1", Segment: "New"},
		{CustomerID: "c2", Segment: domain.SegmentHighValue},
	}

	a := ComputeActivity(scores)

	// Unknown segments count as active but not loyal.
	assert.Equal(t, 2, a.ActiveCustomers)
	assert.Equal(t, 1, a.LoyalCustomers)
	assert.Equal(t, 0, a.ChurnCustomers)
}

func TestComputeSegmentRevenueSumsToTotal(t *testing.T) {
	scores := []domain.CustomerScore{
		{CustomerID: "c1", MonetaryValue: 120.50, Segment: domain.SegmentLoyal},
		{CustomerID: "c2", MonetaryValue: 80, Segment: domain.SegmentLoyal},
		{CustomerID: "c3", MonetaryValue: 40.25, Segment: domain.SegmentChurnRisk},
		{CustomerID: "c4", MonetaryValue: 300, Segment: domain.SegmentHighValue},
	}

	segments := ComputeSegmentRevenue(scores)
	require.Len(t, segments, 3)

	var segmentSum float64
	for _, s := range segments {
		segmentSum += s.Revenue
	}
	assert.InDelta(t, ComputeTotals(scores).TotalRevenue, segmentSum, 1e-9)

	// Sorted by revenue descending.
	assert.Equal(t, "High Value", segments[0].Segment)
	assert.Equal(t, "Loyal", segments[1].Segment)
	assert.Equal(t, 200.5, segments[1].Revenue)
	assert.Equal(t, 100.25, segments[1].AvgOrderValue)
	assert.Equal(t, "Churn Risk", segments[2].Segment)
}

func TestComputeSegmentRevenueTieBreak(t *testing.T) {
	scores := []domain.CustomerScore{
		{CustomerID: "c1", MonetaryValue: 100, Segment: "B"},
		{CustomerID: "c2", MonetaryValue: 100, Segment: "A"},
	}

	segments := ComputeSegmentRevenue(scores)
	require.Len(t, segments, 2)
	assert.Equal(t, "A", segments[0].Segment)
	assert.Equal(t, "B", segments[1].Segment)
}

func TestComputeMonthlyRevenue(t *testing.T) {
	txs := []domain.Transaction{
		{TransactionID: "t1", CustomerID: "c1", Amount: 100, Date: date(2024, 3, 5)},
		{TransactionID: "t2", CustomerID: "c1", Amount: 25, Date: date(2024, 1, 20)},
		{TransactionID: "t3", CustomerID: "c2", Amount: 75, Date: date(2024, 1, 2)},
	}

	monthly := ComputeMonthlyRevenue(txs)

	require.Len(t, monthly, 2)
	assert.Equal(t, MonthRevenue{Month: "2024-01", Revenue: 100}, monthly[0])
	assert.Equal(t, MonthRevenue{Month: "2024-03", Revenue: 100}, monthly[1])
}

func TestComputeTopCustomers(t *testing.T) {
	scores := []domain.CustomerScore{
		{CustomerID: "c3", MonetaryValue: 50},
		{CustomerID: "c1", MonetaryValue: 200},
		{CustomerID: "c2", MonetaryValue: 200},
	}

	top := ComputeTopCustomers(scores, 2)

	require.Len(t, top, 2)
	// Equal spend falls back to customer_id ascending.
	assert.Equal(t, "c1", top[0].CustomerID)
	assert.Equal(t, "c2", top[1].CustomerID)
}

func TestComputeTopCustomersFewerThanN(t *testing.T) {
	scores := []domain.CustomerScore{
		{CustomerID: "c1", MonetaryValue: 10},
		{CustomerID: "c2", MonetaryValue: 20},
	}

	top := ComputeTopCustomers(scores, 10)

	// Fewer rows than requested returns all rows, no padding, no error.
	require.Len(t, top, 2)
	assert.Equal(t, "c2", top[0].CustomerID)
}

func TestComputeTopProducts(t *testing.T) {
	txs := []domain.Transaction{
		{TransactionID: "t1", ProductID: "p1", Amount: 100, Date: date(2024, 1, 1)},
		{TransactionID: "t2", ProductID: "p2", Amount: 60, Date: date(2024, 1, 2)},
		{TransactionID: "t3", ProductID: "p2", Amount: 60, Date: date(2024, 1, 3)},
	}
	products := []domain.Product{
		{ProductID: "p1", Name: "Espresso Machine", Category: "Kitchen"},
	}

	top, missing := ComputeTopProducts(txs, products, 10)

	require.Len(t, top, 2)
	assert.Equal(t, "p2", top[0].ProductID)
	assert.Equal(t, 120.0, top[0].TotalSales)
	// p2 has no catalog row: left-join semantics leave attributes empty.
	assert.Empty(t, top[0].Name)
	assert.Equal(t, "Espresso Machine", top[1].Name)
	assert.Equal(t, 1, missing)
}
