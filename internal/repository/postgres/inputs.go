// Package postgres implements warehouse-backed input loading and the run
// ledger against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver

	"github.com/ignite/customer-intelligence/internal/domain"
)

// InputRepo loads the three input relations from Postgres. It implements
// dataset.Source.
type InputRepo struct{ db *sql.DB }

// NewInputRepo creates a Postgres-backed input repository.
func NewInputRepo(db *sql.DB) *InputRepo { return &InputRepo{db: db} }

// Open connects to Postgres using a connection URL.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func (r *InputRepo) CustomerScores(ctx context.Context) ([]domain.CustomerScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT customer_id, monetary_value, segment
		FROM customer_scores
		ORDER BY customer_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query customer scores: %w", err)
	}
	defer rows.Close()

	var out []domain.CustomerScore
	for rows.Next() {
		var s domain.CustomerScore
		if err := rows.Scan(&s.CustomerID, &s.MonetaryValue, &s.Segment); err != nil {
			return nil, fmt.Errorf("scan customer score: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *InputRepo) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, customer_id, product_id, amount, transaction_date
		FROM transactions_clean
		ORDER BY transaction_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.TransactionID, &t.CustomerID, &t.ProductID, &t.Amount, &t.Date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *InputRepo) Products(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, COALESCE(product_name,''), COALESCE(category,'')
		FROM products_clean
		ORDER BY product_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
