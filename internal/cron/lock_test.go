package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryLockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{data: map[string]string{}}
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryLockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryLockStore) LockKey(name string) string { return "phytopro:lock:" + name }

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := newMemoryLockStore()
	first, err := NewRedisLock(store, "cron", time.Minute)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	second, _ := NewRedisLock(store, "cron", time.Minute)

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatalf("first acquire should win")
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatalf("second acquire should lose")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release without ownership: %v", err)
	}
	if _, ok := store.data["phytopro:lock:cron"]; !ok {
		t.Fatalf("non-owner release must not delete the key")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatalf("lock should be free after release")
	}
}

func TestRedisLockLeavesForeignOwner(t *testing.T) {
	ctx := context.Background()
	store := newMemoryLockStore()
	lock, _ := NewRedisLock(store, "cron", time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("acquire failed")
	}
	store.data["phytopro:lock:cron"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.data["phytopro:lock:cron"] != "someone-else" {
		t.Fatalf("foreign lock was removed")
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "cron", 0); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := NewRedisLock(newMemoryLockStore(), "", 0); err == nil {
		t.Fatalf("expected name error")
	}
	lock, err := NewRedisLock(newMemoryLockStore(), "cron", 0)
	if err != nil || lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v (%v)", lock.ttl, err)
	}
}
