package domain

import "time"

// Segment enumerates the customer classifications assigned upstream by the
// scoring model. The engine consumes them as-is; unknown values are carried
// through untouched so a new upstream segment never breaks a run.
type Segment string

const (
	SegmentLoyal     Segment = "Loyal"
	SegmentHighValue Segment = "High Value"
	SegmentChurnRisk Segment = "Churn Risk"
)

// IsChurn reports whether the segment marks a customer as churned.
func (s Segment) IsChurn() bool { return s == SegmentChurnRisk }

// IsLoyal reports whether the segment counts toward the loyal cohort.
func (s Segment) IsLoyal() bool { return s == SegmentLoyal || s == SegmentHighValue }

// CustomerScore is one row of the customer scoring table: total spend and
// segment classification per customer.
type CustomerScore struct {
	CustomerID    string  `json:"customer_id" db:"customer_id"`
	MonetaryValue float64 `json:"monetary_value" db:"monetary_value"`
	Segment       Segment `json:"segment" db:"segment"`
}

// Transaction is one row of the cleaned transaction ledger. The ledger is
// append-only; rows are never mutated after load.
type Transaction struct {
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	CustomerID    string    `json:"customer_id" db:"customer_id"`
	ProductID     string    `json:"product_id" db:"product_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Date          time.Time `json:"transaction_date" db:"transaction_date"`
}

// Month returns the calendar-month bucket ("2006-01") of the transaction date.
func (t Transaction) Month() string { return t.Date.Format("2006-01") }

// Product is one row of the product catalog.
type Product struct {
	ProductID string `json:"product_id" db:"product_id"`
	Name      string `json:"product_name" db:"product_name"`
	Category  string `json:"category" db:"category"`
}
