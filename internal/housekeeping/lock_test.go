package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/servico/notifier/pkg/redis"
)

func newLockClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return redis.NewFromClient(raw), mr
}

func mustLock(t *testing.T, client *redis.Client, key string, ttl time.Duration) *RedisLock {
	t.Helper()
	lock, err := NewRedisLock(client, key, ttl)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	return lock
}

func mustAcquire(t *testing.T, lock *RedisLock, want bool) {
	t.Helper()
	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok != want {
		t.Fatalf("expected acquire=%v, got %v", want, ok)
	}
}

func mustRelease(t *testing.T, lock *RedisLock) {
	t.Helper()
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestRedisLockIsExclusive(t *testing.T) {
	client, mr := newLockClient(t)
	key := client.LockKey("housekeeper", "test")

	first := mustLock(t, client, key, time.Hour)
	second := mustLock(t, client, key, time.Hour)

	mustAcquire(t, first, true)
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", ttl)
	}
	mustAcquire(t, second, false)

	mustRelease(t, second)
	if !mr.Exists(key) {
		t.Fatal("non-owner release must keep the key")
	}

	mustRelease(t, first)
	if mr.Exists(key) {
		t.Fatal("owner release should delete the key")
	}

	mustAcquire(t, second, true)
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	client, mr := newLockClient(t)
	key := client.LockKey("housekeeper", "test")

	lock := mustLock(t, client, key, time.Minute)
	mustAcquire(t, lock, true)

	mr.FastForward(2 * time.Minute)
	mustRelease(t, lock)

	other := mustLock(t, client, key, time.Minute)
	mustAcquire(t, other, true)

	mustRelease(t, lock)
	if !mr.Exists(key) {
		t.Fatal("stale owner must not delete a newer lock")
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error for nil client")
	}

	client, _ := newLockClient(t)
	if _, err := NewRedisLock(client, "", 0); err == nil {
		t.Fatal("expected error for empty key")
	}

	lock := mustLock(t, client, "k", 0)
	if lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl %s, got %s", defaultLockTTL, lock.ttl)
	}
}
