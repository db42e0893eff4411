// Package runlock guards against concurrent pipeline runs. Two runs writing
// the same artifact prefix or ledger at once would race on the latest
// pointer, so the runner takes a distributed lock before loading inputs.
package runlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a distributed mutual exclusion primitive. A Lock instance is owned
// by a single goroutine.
type Lock interface {
	// Acquire tries to take the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// New creates a run lock using the best available backend. Redis is preferred
// for cross-host exclusion; without it we fall back to a Postgres advisory
// lock, which is released automatically if the connection drops.
func New(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) Lock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewPGAdvisoryLock(db, key)
}

// PGAdvisoryLock implements Lock using pg_try_advisory_lock, which is
// session-scoped and non-blocking.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
}

// NewPGAdvisoryLock creates a Postgres advisory lock with a deterministic
// lock ID derived from the key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired)
	if err != nil {
		return false, err
	}
	return acquired, nil
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	var released bool
	return l.db.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID).Scan(&released)
}
