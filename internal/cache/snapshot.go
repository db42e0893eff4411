// Package cache keeps the latest pipeline result in Redis so the API can
// serve it without re-reading artifacts.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/customer-intelligence/internal/config"
	"github.com/ignite/customer-intelligence/internal/kpi"
)

const latestKey = "kpi:latest"

// ErrNoSnapshot is returned when no run has been cached yet.
var ErrNoSnapshot = errors.New("no snapshot cached")

// Snapshot is the cached payload: the full result plus run metadata.
type Snapshot struct {
	RunID       string      `json:"run_id"`
	CompletedAt time.Time   `json:"completed_at"`
	Result      *kpi.Result `json:"result"`
}

// Store reads and writes the latest-result snapshot.
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed snapshot store.
func New(cfg config.CacheConfig) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client exposes the underlying Redis client for callers that share the
// connection, such as the run lock.
func (s *Store) Client() *redis.Client {
	return s.client
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SetLatest replaces the cached snapshot.
func (s *Store) SetLatest(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := s.client.Set(ctx, latestKey, data, 0).Err(); err != nil {
		return fmt.Errorf("caching snapshot: %w", err)
	}
	return nil
}

// Latest returns the cached snapshot, or ErrNoSnapshot when empty.
func (s *Store) Latest(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, latestKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}
