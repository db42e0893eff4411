package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/customer-intelligence/internal/config"
	"github.com/ignite/customer-intelligence/internal/domain"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewClientWithDB(db, config.SnowflakeConfig{}), mock
}

func TestCustomerScores(t *testing.T) {
	client, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{"CUSTOMER_ID", "MONETARY_VALUE", "SEGMENT"}).
		AddRow("c1", 100.5, "Loyal").
		AddRow("c2", 50.0, "Churn Risk")
	mock.ExpectQuery("SELECT CUSTOMER_ID, MONETARY_VALUE, SEGMENT").WillReturnRows(rows)

	scores, err := client.CustomerScores(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].CustomerID != "c1" || scores[0].MonetaryValue != 100.5 {
		t.Errorf("unexpected first score: %+v", scores[0])
	}
	if scores[1].Segment != domain.SegmentChurnRisk {
		t.Errorf("expected Churn Risk segment, got %q", scores[1].Segment)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransactions(t *testing.T) {
	client, mock := newMockClient(t)

	when := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"TRANSACTION_ID", "CUSTOMER_ID", "PRODUCT_ID", "AMOUNT", "TRANSACTION_DATE"}).
		AddRow("t1", "c1", "p1", 99.99, when)
	mock.ExpectQuery("SELECT TRANSACTION_ID, CUSTOMER_ID, PRODUCT_ID, AMOUNT, TRANSACTION_DATE").WillReturnRows(rows)

	txs, err := client.Transactions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Month() != "2024-01" {
		t.Errorf("expected month 2024-01, got %s", txs[0].Month())
	}
}

func TestProducts(t *testing.T) {
	client, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{"PRODUCT_ID", "PRODUCT_NAME", "CATEGORY"}).
		AddRow("p1", "Grinder", "Kitchen").
		AddRow("p2", "", "")
	mock.ExpectQuery("SELECT PRODUCT_ID").WillReturnRows(rows)

	products, err := client.Products(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[1].Name != "" {
		t.Errorf("expected empty name for p2, got %q", products[1].Name)
	}
}

func TestCustomerScoresQueryError(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT CUSTOMER_ID").WillReturnError(context.DeadlineExceeded)

	if _, err := client.CustomerScores(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}
