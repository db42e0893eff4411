// Package dataset moves relations in and out of the engine: CSV decoding with
// strict schema validation on the way in, flat tabular artifacts on the way
// out, with local-file and HTTP loaders matching how the upstream platform
// publishes its cleaned extracts.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ignite/customer-intelligence/internal/domain"
)

// Input relation names. They double as the CSV file names (with .csv) used
// by the file and HTTP loaders.
const (
	RelationCustomerScores = "customer_scores"
	RelationTransactions   = "transactions_clean"
	RelationProducts       = "products_clean"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// header maps column names to their index, validating required columns.
type header map[string]int

func readHeader(relation string, r *csv.Reader, required []string) (header, error) {
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", relation, err)
	}

	h := make(header, len(record))
	for i, name := range record {
		h[name] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := h[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Relation: relation, Missing: missing}
	}

	return h, nil
}

func (h header) get(record []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (h header) getFloat(relation string, row int, record []string, column string) (float64, error) {
	raw := h.get(record, column)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &DataFormatError{Relation: relation, Row: row, Column: column, Err: err}
	}
	return v, nil
}

func (h header) getDate(relation string, row int, record []string, column string) (time.Time, error) {
	raw := h.get(record, column)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DataFormatError{
		Relation: relation, Row: row, Column: column,
		Err: fmt.Errorf("unrecognized date %q", raw),
	}
}

// DecodeCustomerScores parses the customer scoring relation from CSV.
func DecodeCustomerScores(r io.Reader) ([]domain.CustomerScore, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(RelationCustomerScores, cr, []string{"customer_id", "monetary_value", "segment"})
	if err != nil {
		return nil, err
	}

	var scores []domain.CustomerScore
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", RelationCustomerScores, row, err)
		}

		value, err := h.getFloat(RelationCustomerScores, row, record, "monetary_value")
		if err != nil {
			return nil, err
		}

		scores = append(scores, domain.CustomerScore{
			CustomerID:    h.get(record, "customer_id"),
			MonetaryValue: value,
			Segment:       domain.Segment(h.get(record, "segment")),
		})
	}

	return scores, nil
}

// DecodeTransactions parses the cleaned transaction ledger from CSV.
func DecodeTransactions(r io.Reader) ([]domain.Transaction, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(RelationTransactions, cr,
		[]string{"transaction_id", "customer_id", "product_id", "amount", "transaction_date"})
	if err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", RelationTransactions, row, err)
		}

		amount, err := h.getFloat(RelationTransactions, row, record, "amount")
		if err != nil {
			return nil, err
		}
		txDate, err := h.getDate(RelationTransactions, row, record, "transaction_date")
		if err != nil {
			return nil, err
		}

		txs = append(txs, domain.Transaction{
			TransactionID: h.get(record, "transaction_id"),
			CustomerID:    h.get(record, "customer_id"),
			ProductID:     h.get(record, "product_id"),
			Amount:        amount,
			Date:          txDate,
		})
	}

	return txs, nil
}

// DecodeProducts parses the product catalog from CSV. Only product_id is
// required; name and category are optional attributes.
func DecodeProducts(r io.Reader) ([]domain.Product, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(RelationProducts, cr, []string{"product_id"})
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", RelationProducts, row, err)
		}

		products = append(products, domain.Product{
			ProductID: h.get(record, "product_id"),
			Name:      h.get(record, "product_name"),
			Category:  h.get(record, "category"),
		})
	}

	return products, nil
}
