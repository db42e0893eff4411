package kpi

import (
	"testing"

	"github.com/ignite/customer-intelligence/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInputs() Inputs {
	return Inputs{
		Scores: []domain.CustomerScore{
			{CustomerID: "c1", MonetaryValue: 150, Segment: domain.SegmentLoyal},
			{CustomerID: "c2", MonetaryValue: 90, Segment: domain.SegmentHighValue},
			{CustomerID: "c3", MonetaryValue: 30, Segment: domain.SegmentChurnRisk},
		},
		Transactions: []domain.Transaction{
			{TransactionID: "t1", CustomerID: "c1", ProductID: "p1", Amount: 100, Date: date(2024, 1, 5)},
			{TransactionID: "t2", CustomerID: "c1", ProductID: "p2", Amount: 50, Date: date(2024, 3, 5)},
			{TransactionID: "t3", CustomerID: "c2", ProductID: "p1", Amount: 90, Date: date(2024, 2, 10)},
			{TransactionID: "t4", CustomerID: "c3", ProductID: "p3", Amount: 30, Date: date(2024, 1, 8)},
		},
		Products: []domain.Product{
			{ProductID: "p1", Name: "Grinder", Category: "Kitchen"},
			{ProductID: "p2", Name: "Kettle", Category: "Kitchen"},
			{ProductID: "p3", Name: "Mug", Category: "Tableware"},
		},
	}
}

func TestRunFullPipeline(t *testing.T) {
	res, err := Run(testInputs(), date(2024, 3, 5), 10)
	require.NoError(t, err)

	assert.Equal(t, 270.0, res.Totals.TotalRevenue)
	assert.Equal(t, 3, res.Activity.TotalCustomers)
	assert.Equal(t, 2, res.Activity.ActiveCustomers)
	require.Len(t, res.Segments, 3)
	require.Len(t, res.Monthly, 3)
	require.Len(t, res.TopCustomers, 3)
	require.Len(t, res.TopProducts, 3)
	require.Len(t, res.CLV, 3)
	require.Len(t, res.Retention.Rows, 2)
	assert.Equal(t, Gaps{}, res.Gaps)

	// Per-segment revenue reconciles with the totals relation.
	var segmentSum float64
	for _, s := range res.Segments {
		segmentSum += s.Revenue
	}
	assert.InDelta(t, res.Totals.TotalRevenue, segmentSum, 1e-9)

	assert.Equal(t, res.RetentionRate, res.Final.RetentionRate)
	assert.Equal(t, 3, res.Final.TotalCustomers)
}

func TestRunIsDeterministic(t *testing.T) {
	asOf := date(2024, 3, 5)

	first, err := Run(testInputs(), asOf, 10)
	require.NoError(t, err)
	second, err := Run(testInputs(), asOf, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunCountsReferentialGaps(t *testing.T) {
	in := testInputs()
	in.Transactions = append(in.Transactions,
		domain.Transaction{TransactionID: "t5", CustomerID: "ghost", ProductID: "p9", Amount: 5, Date: date(2024, 2, 2)},
	)

	res, err := Run(in, date(2024, 3, 5), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Gaps.UnknownCustomers)
	assert.Equal(t, 1, res.Gaps.UnknownProducts)
}

func TestRunEmptyScoresFailsLoudly(t *testing.T) {
	in := testInputs()
	in.Scores = nil

	_, err := Run(in, date(2024, 3, 5), 10)
	assert.ErrorIs(t, err, ErrEmptyRelation)
}

func TestRunDefaultTopN(t *testing.T) {
	res, err := Run(testInputs(), date(2024, 3, 5), 0)
	require.NoError(t, err)
	assert.Len(t, res.TopCustomers, 3)
}
