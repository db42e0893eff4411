// Package warehouse provides Snowflake-backed loading of the input relations.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/customer-intelligence/internal/config"
	"github.com/ignite/customer-intelligence/internal/domain"
)

// Client provides access to the Snowflake analytics schema. It implements
// dataset.Source so a batch run can pull its inputs straight from the
// warehouse.
type Client struct {
	config config.SnowflakeConfig
	db     *sql.DB
}

// NewClient creates a new Snowflake client
func NewClient(cfg config.SnowflakeConfig) (*Client, error) {
	// Build DSN (Data Source Name)
	// Format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		cfg.User,
		cfg.Password,
		cfg.Account,
		cfg.Database,
		cfg.Schema,
	)

	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Client{
		config: cfg,
		db:     db,
	}, nil
}

// NewClientWithDB wraps an existing database handle. Used by tests.
func NewClientWithDB(db *sql.DB, cfg config.SnowflakeConfig) *Client {
	return &Client{config: cfg, db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// CustomerScores loads the customer score relation.
func (c *Client) CustomerScores(ctx context.Context) ([]domain.CustomerScore, error) {
	query := `
		SELECT CUSTOMER_ID, MONETARY_VALUE, SEGMENT
		FROM CUSTOMER_SCORES
		ORDER BY CUSTOMER_ID
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer scores: %w", err)
	}
	defer rows.Close()

	var result []domain.CustomerScore
	for rows.Next() {
		var score domain.CustomerScore
		if err := rows.Scan(&score.CustomerID, &score.MonetaryValue, &score.Segment); err != nil {
			return nil, fmt.Errorf("failed to scan customer score row: %w", err)
		}
		result = append(result, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading customer score rows: %w", err)
	}

	return result, nil
}

// Transactions loads the cleaned transaction relation.
func (c *Client) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `
		SELECT TRANSACTION_ID, CUSTOMER_ID, PRODUCT_ID, AMOUNT, TRANSACTION_DATE
		FROM TRANSACTIONS_CLEAN
		ORDER BY TRANSACTION_ID
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.TransactionID, &tx.CustomerID, &tx.ProductID, &tx.Amount, &tx.Date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading transaction rows: %w", err)
	}

	return result, nil
}

// Products loads the product catalog relation. Name and category may be NULL
// in the warehouse; they come back as empty strings.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT PRODUCT_ID, COALESCE(PRODUCT_NAME, ''), COALESCE(CATEGORY, '')
		FROM PRODUCTS_CLEAN
		ORDER BY PRODUCT_ID
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading product rows: %w", err)
	}

	return result, nil
}
