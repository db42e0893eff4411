package kpi

import (
	"math"
	"time"
)

// round2 rounds to 2 decimal places (monetary values and percentages).
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// round1 rounds to 1 decimal place (months of tenure).
func round1(v float64) float64 { return math.Round(v*10) / 10 }

// safeDiv divides a by b, returning 0 on a zero denominator. Every ratio in
// this package goes through it so no NaN or Inf can reach an output artifact.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// monthsBetween returns the number of months from start to end using
// warehouse month arithmetic: a whole number when the days of month match
// (or both dates fall on month ends), otherwise the calendar month delta
// plus the day difference over a 31-day month.
func monthsBetween(end, start time.Time) float64 {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() == start.Day() || (isLastDayOfMonth(end) && isLastDayOfMonth(start)) {
		return float64(months)
	}
	return float64(months) + float64(end.Day()-start.Day())/31.0
}

func isLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
