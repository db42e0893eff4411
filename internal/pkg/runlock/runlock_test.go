package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLockAcquireRelease(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	lock := NewRedisLock(client, "kpi:run", time.Minute)

	ok, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected lock to be acquired")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
}

func TestRedisLockExcludesSecondHolder(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	first := NewRedisLock(client, "kpi:run", time.Minute)
	second := NewRedisLock(client, "kpi:run", time.Minute)

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("expected first lock to be acquired")
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("expected second acquire to fail while held")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected second acquire to succeed after release")
	}
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	owner := NewRedisLock(client, "kpi:run", time.Minute)
	intruder := NewRedisLock(client, "kpi:run", time.Minute)

	if ok, _ := owner.Acquire(ctx); !ok {
		t.Fatal("expected lock to be acquired")
	}

	// A different instance must not free the owner's lock.
	if err := intruder.Release(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := intruder.Acquire(ctx); ok {
		t.Fatal("expected lock to still be held by owner")
	}
}

func TestNewPrefersRedis(t *testing.T) {
	client := newRedisClient(t)

	lock := New(client, nil, "kpi:run", time.Minute)
	if _, ok := lock.(*RedisLock); !ok {
		t.Fatalf("expected RedisLock, got %T", lock)
	}
}
