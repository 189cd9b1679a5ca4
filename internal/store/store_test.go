package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scorelayer/scoring/internal/logging"
)

// flakyBackend fails a scripted number of times per operation before
// succeeding, and keeps data in memory.
type flakyBackend struct {
	mu        sync.Mutex
	data      map[string]string
	failures  int
	calls     int
	lastTTL   time.Duration
	permanent bool
}

var errBackendDown = errors.New("connection refused")

func (b *flakyBackend) fail() bool {
	b.calls++
	if b.permanent {
		return true
	}
	if b.failures > 0 {
		b.failures--
		return true
	}
	return false
}

func (b *flakyBackend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail() {
		return "", false, errBackendDown
	}
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *flakyBackend) Set(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail() {
		return errBackendDown
	}
	if b.data == nil {
		b.data = map[string]string{}
	}
	b.data[key] = value
	return nil
}

func (b *flakyBackend) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail() {
		return errBackendDown
	}
	if b.data == nil {
		b.data = map[string]string{}
	}
	b.data[key] = value
	b.lastTTL = ttl
	return nil
}

func (b *flakyBackend) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail() {
		return errBackendDown
	}
	return nil
}

func newTestStore(b Backend) *RetryingStore {
	return New(b, logging.NewNop(), WithInterval(0))
}

func TestGetRetriesThroughTransientFailure(t *testing.T) {
	backend := &flakyBackend{data: map[string]string{"k": "v"}, failures: 1}
	s := newTestStore(backend)

	value, found, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || value != "v" {
		t.Fatalf("expected v, got %q found=%v", value, found)
	}
	if backend.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", backend.calls)
	}
}

func TestGetExhaustsAttempts(t *testing.T) {
	backend := &flakyBackend{permanent: true}
	s := newTestStore(backend)

	_, _, err := s.Get(context.Background(), "k")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if backend.calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, backend.calls)
	}
}

func TestSetExhaustsAttempts(t *testing.T) {
	backend := &flakyBackend{permanent: true}
	s := newTestStore(backend)

	err := s.Set(context.Background(), "k", "v")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	backend := &flakyBackend{}
	s := newTestStore(backend)

	value, found, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found || value != "" {
		t.Fatalf("expected missing key, got %q found=%v", value, found)
	}
}

func TestCacheAliasesShareBackend(t *testing.T) {
	backend := &flakyBackend{}
	s := newTestStore(backend)

	if err := s.CacheSet(context.Background(), "k", "v", 90*time.Second); err != nil {
		t.Fatalf("cache set: %v", err)
	}
	if backend.lastTTL != 90*time.Second {
		t.Fatalf("expected backend-native TTL, got %v", backend.lastTTL)
	}

	value, found, err := s.CacheGet(context.Background(), "k")
	if err != nil || !found || value != "v" {
		t.Fatalf("cache get: %q found=%v err=%v", value, found, err)
	}
}

func TestRetryBudgetIsConfigurable(t *testing.T) {
	backend := &flakyBackend{permanent: true}
	s := New(backend, logging.NewNop(), WithInterval(0), WithAttempts(2))

	err := s.Ping(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if backend.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", backend.calls)
	}
}
