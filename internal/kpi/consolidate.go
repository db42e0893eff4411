package kpi

import (
	"fmt"
)

// Consolidate merges the already-aggregated KPI relations into the single
// master row. Counts are carried over, rates and order values are averaged,
// and the retention rate passes through untouched. Any empty upstream
// relation is an error: a master row silently built on missing data would be
// worse than no row at all.
func Consolidate(activity Activity, segments []SegmentRevenue, clv []CLVRecord, retentionRate float64) (FinalKpis, error) {
	if activity.TotalCustomers == 0 {
		return FinalKpis{}, fmt.Errorf("kpi_activity: %w", ErrEmptyRelation)
	}
	if len(segments) == 0 {
		return FinalKpis{}, fmt.Errorf("kpi_revenue_segment: %w", ErrEmptyRelation)
	}
	if len(clv) == 0 {
		return FinalKpis{}, fmt.Errorf("kpi_clv: %w", ErrEmptyRelation)
	}

	var totalRevenue, sumAOV float64
	for _, s := range segments {
		totalRevenue += s.Revenue
		sumAOV += s.AvgOrderValue
	}

	var sumCLV float64
	for _, c := range clv {
		sumCLV += c.CLV
	}

	return FinalKpis{
		TotalCustomers:    activity.TotalCustomers,
		ActiveCustomers:   activity.ActiveCustomers,
		ActiveCustomerPct: round2(activity.ActiveCustomerPct),
		LoyalCustomers:    activity.LoyalCustomers,
		LoyalCustomerPct:  round2(activity.LoyalCustomerPct),
		ChurnCustomers:    activity.ChurnCustomers,
		ChurnRatePct:      round2(activity.ChurnRatePct),
		TotalRevenue:      totalRevenue,
		AvgOrderValue:     sumAOV / float64(len(segments)),
		AvgCLV:            round2(sumCLV / float64(len(clv))),
		RetentionRate:     retentionRate,
	}, nil
}
