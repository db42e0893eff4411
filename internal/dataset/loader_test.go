package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scoresCSV = "customer_id,monetary_value,segment\nc1,100,Loyal\nc2,50,Churn Risk\n"
	txsCSV    = "transaction_id,customer_id,product_id,amount,transaction_date\nt1,c1,p1,100,2024-01-05\n"
	prodsCSV  = "product_id,product_name,category\np1,Grinder,Kitchen\n"
)

func writeInputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"customer_scores.csv":    scoresCSV,
		"transactions_clean.csv": txsCSV,
		"products_clean.csv":     prodsCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestFileSource(t *testing.T) {
	src := NewFileSource(writeInputDir(t))
	ctx := context.Background()

	scores, txs, products, err := LoadAll(ctx, src)
	require.NoError(t, err)

	assert.Len(t, scores, 2)
	assert.Len(t, txs, 1)
	assert.Len(t, products, 1)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(t.TempDir())

	_, err := src.CustomerScores(context.Background())
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	files := map[string]string{
		"/data/customer_scores.csv":    scoresCSV,
		"/data/transactions_clean.csv": txsCSV,
		"/data/products_clean.csv":     prodsCSV,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(content))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/data/", 5*time.Second)
	ctx := context.Background()

	scores, txs, products, err := LoadAll(ctx, src)
	require.NoError(t, err)

	assert.Len(t, scores, 2)
	assert.Equal(t, "t1", txs[0].TransactionID)
	assert.Equal(t, "p1", products[0].ProductID)
}

func TestHTTPSourceNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second)

	_, err := src.CustomerScores(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
