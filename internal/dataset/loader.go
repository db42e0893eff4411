package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/customer-intelligence/internal/domain"
	"github.com/ignite/customer-intelligence/internal/pkg/httpretry"
)

// Source provides the three input relations of a batch run. Implementations
// exist for local CSV files, HTTP-published CSV extracts, and the Snowflake
// and Postgres warehouses.
type Source interface {
	CustomerScores(ctx context.Context) ([]domain.CustomerScore, error)
	Transactions(ctx context.Context) ([]domain.Transaction, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

// FileSource loads the input relations from CSV files in a local directory.
type FileSource struct {
	dir string
}

// NewFileSource creates a file-backed source rooted at dir.
func NewFileSource(dir string) *FileSource { return &FileSource{dir: dir} }

func (s *FileSource) open(relation string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.dir, relation+".csv"))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", relation, err)
	}
	return f, nil
}

func (s *FileSource) CustomerScores(_ context.Context) ([]domain.CustomerScore, error) {
	f, err := s.open(RelationCustomerScores)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCustomerScores(f)
}

func (s *FileSource) Transactions(_ context.Context) ([]domain.Transaction, error) {
	f, err := s.open(RelationTransactions)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTransactions(f)
}

func (s *FileSource) Products(_ context.Context) ([]domain.Product, error) {
	f, err := s.open(RelationProducts)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeProducts(f)
}

// HTTPSource loads the input relations as CSV over HTTP from a base URL, the
// way the upstream platform publishes its cleaned extracts. Fetches retry on
// transient errors.
type HTTPSource struct {
	baseURL string
	client  httpretry.HTTPDoer
}

// NewHTTPSource creates an HTTP-backed source. timeout bounds each attempt.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3),
	}
}

func (s *HTTPSource) fetch(ctx context.Context, relation string) (*http.Response, error) {
	u, err := url.JoinPath(s.baseURL, relation+".csv")
	if err != nil {
		return nil, fmt.Errorf("building URL for %s: %w", relation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", relation, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", relation, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: unexpected status %d", relation, resp.StatusCode)
	}

	return resp, nil
}

func (s *HTTPSource) CustomerScores(ctx context.Context) ([]domain.CustomerScore, error) {
	resp, err := s.fetch(ctx, RelationCustomerScores)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return DecodeCustomerScores(resp.Body)
}

func (s *HTTPSource) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	resp, err := s.fetch(ctx, RelationTransactions)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return DecodeTransactions(resp.Body)
}

func (s *HTTPSource) Products(ctx context.Context) ([]domain.Product, error) {
	resp, err := s.fetch(ctx, RelationProducts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return DecodeProducts(resp.Body)
}

// LoadAll pulls all three relations from a source in dependency order.
func LoadAll(ctx context.Context, src Source) (scores []domain.CustomerScore, txs []domain.Transaction, products []domain.Product, err error) {
	if scores, err = src.CustomerScores(ctx); err != nil {
		return nil, nil, nil, err
	}
	if txs, err = src.Transactions(ctx); err != nil {
		return nil, nil, nil, err
	}
	if products, err = src.Products(ctx); err != nil {
		return nil, nil, nil, err
	}
	return scores, txs, products, nil
}
