package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses recorded in the ledger.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// ErrRunNotFound is returned when a ledger row does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the pipeline run ledger.
type Run struct {
	ID               string    `json:"id" db:"id"`
	AsOf             time.Time `json:"as_of" db:"as_of"`
	Status           string    `json:"status" db:"status"`
	StartedAt        time.Time `json:"started_at" db:"started_at"`
	FinishedAt       time.Time `json:"finished_at" db:"finished_at"`
	ScoreRows        int       `json:"score_rows" db:"score_rows"`
	TransactionRows  int       `json:"transaction_rows" db:"transaction_rows"`
	ProductRows      int       `json:"product_rows" db:"product_rows"`
	UnknownCustomers int       `json:"unknown_customers" db:"unknown_customers"`
	UnknownProducts  int       `json:"unknown_products" db:"unknown_products"`
	Error            string    `json:"error,omitempty" db:"error"`
}

// RunRepo records pipeline runs in the kpi_runs ledger table.
type RunRepo struct{ db *sql.DB }

// NewRunRepo creates a Postgres-backed run ledger.
func NewRunRepo(db *sql.DB) *RunRepo { return &RunRepo{db: db} }

// EnsureSchema creates the ledger table and its index if they do not exist.
// The runner calls this on startup so a fresh database needs no separate
// migration step before its first run.
func (r *RunRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kpi_runs (
			id                UUID PRIMARY KEY,
			as_of             TIMESTAMPTZ NOT NULL,
			status            TEXT NOT NULL,
			started_at        TIMESTAMPTZ NOT NULL,
			finished_at       TIMESTAMPTZ,
			score_rows        INTEGER NOT NULL DEFAULT 0,
			transaction_rows  INTEGER NOT NULL DEFAULT 0,
			product_rows      INTEGER NOT NULL DEFAULT 0,
			unknown_customers INTEGER NOT NULL DEFAULT 0,
			unknown_products  INTEGER NOT NULL DEFAULT 0,
			error             TEXT
		);
		CREATE INDEX IF NOT EXISTS kpi_runs_started_at_idx
			ON kpi_runs (started_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("ensure kpi_runs schema: %w", err)
	}
	return nil
}

// Begin inserts a running ledger row and returns its id.
func (r *RunRepo) Begin(ctx context.Context, asOf, startedAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kpi_runs (id, as_of, status, started_at)
		VALUES ($1, $2, $3, $4)
	`, id, asOf, RunStatusRunning, startedAt)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// Succeed marks a run as succeeded and records its input and gap counts.
func (r *RunRepo) Succeed(ctx context.Context, id string, run Run) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE kpi_runs
		SET status = $2, finished_at = $3,
		    score_rows = $4, transaction_rows = $5, product_rows = $6,
		    unknown_customers = $7, unknown_products = $8
		WHERE id = $1
	`, id, RunStatusSucceeded, run.FinishedAt,
		run.ScoreRows, run.TransactionRows, run.ProductRows,
		run.UnknownCustomers, run.UnknownProducts)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return checkRowFound(res)
}

// Fail marks a run as failed and records the error message.
func (r *RunRepo) Fail(ctx context.Context, id string, finishedAt time.Time, runErr error) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE kpi_runs
		SET status = $2, finished_at = $3, error = $4
		WHERE id = $1
	`, id, RunStatusFailed, finishedAt, runErr.Error())
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return checkRowFound(res)
}

// Get retrieves one ledger row.
func (r *RunRepo) Get(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	var finished sql.NullTime
	var errMsg sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, as_of, status, started_at, finished_at,
		       score_rows, transaction_rows, product_rows,
		       unknown_customers, unknown_products, error
		FROM kpi_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.AsOf, &run.Status, &run.StartedAt, &finished,
		&run.ScoreRows, &run.TransactionRows, &run.ProductRows,
		&run.UnknownCustomers, &run.UnknownProducts, &errMsg,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, as_of, status, started_at, finished_at,
		       score_rows, transaction_rows, product_rows,
		       unknown_customers, unknown_products, error
		FROM kpi_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(
			&run.ID, &run.AsOf, &run.Status, &run.StartedAt, &finished,
			&run.ScoreRows, &run.TransactionRows, &run.ProductRows,
			&run.UnknownCustomers, &run.UnknownProducts, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func checkRowFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}
