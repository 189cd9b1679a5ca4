// Package store wraps the remote key-value backend with bounded retries.
// Every handler in the service sees the backend only through RetryingStore.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scorelayer/scoring/internal/logging"
	"github.com/scorelayer/scoring/internal/metrics"
)

// ErrUnavailable is returned once an operation has exhausted its retry
// budget. Callers must treat it as a hard failure, never as a missing key.
var ErrUnavailable = errors.New("storage unavailable")

const (
	// maxAttempts bounds how often a primitive operation is tried.
	maxAttempts = 5
	// retryInterval is the fixed pause between attempts. The flat pacing is
	// part of the observed contract; do not switch to backoff.
	retryInterval = time.Second
)

// Backend is the remote key-value service. Implementations must be safe for
// concurrent use; the store adds no locking of its own.
type Backend interface {
	// Get returns the value and whether the key exists. A missing key is
	// not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetEx stores a value with a backend-native expiry.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// RetryingStore retries each backend primitive a fixed number of times with
// a fixed sleep in between. Values pass through as opaque strings. One
// instance is created at startup and shared by all requests.
type RetryingStore struct {
	backend  Backend
	attempts int
	interval time.Duration
	log      *logging.Logger
}

// Option adjusts a RetryingStore.
type Option func(*RetryingStore)

// WithAttempts overrides the retry budget.
func WithAttempts(n int) Option {
	return func(s *RetryingStore) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithInterval overrides the pause between attempts. Intended for tests.
func WithInterval(d time.Duration) Option {
	return func(s *RetryingStore) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// New wraps a backend with the default retry policy.
func New(backend Backend, log *logging.Logger, opts ...Option) *RetryingStore {
	s := &RetryingStore{
		backend:  backend,
		attempts: maxAttempts,
		interval: retryInterval,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get fetches a key. The boolean reports existence; an ErrUnavailable-
// wrapped error reports an unreachable backend, never a silent default.
func (s *RetryingStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var found bool
	err := s.retry(ctx, "get", func() error {
		var err error
		value, found, err = s.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// Set stores a key without expiry.
func (s *RetryingStore) Set(ctx context.Context, key, value string) error {
	return s.retry(ctx, "set", func() error {
		return s.backend.Set(ctx, key, value)
	})
}

// CacheGet is Get under its caching alias. There is no separate cache tier;
// the same backend and the same retry policy apply.
func (s *RetryingStore) CacheGet(ctx context.Context, key string) (string, bool, error) {
	return s.Get(ctx, key)
}

// CacheSet stores a key with a TTL; expiry is native to the backend.
func (s *RetryingStore) CacheSet(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.retry(ctx, "cache_set", func() error {
		return s.backend.SetEx(ctx, key, value, ttl)
	})
}

// Ping probes backend liveness, with the same retry policy as data access.
func (s *RetryingStore) Ping(ctx context.Context) error {
	return s.retry(ctx, "ping", func() error {
		return s.backend.Ping(ctx)
	})
}

// retry runs op up to the attempt budget, sleeping the fixed interval
// between attempts. A started attempt always runs to completion; the loop
// does not watch ctx, matching the observed contract.
func (s *RetryingStore) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if s.log != nil {
			s.log.WithContext(ctx).WithError(lastErr).Warnf("store %s attempt %d/%d failed", op, attempt, s.attempts)
		}
		if attempt < s.attempts {
			metrics.RecordStoreRetry(op)
			time.Sleep(s.interval)
		}
	}
	metrics.RecordStoreFailure(op)
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrUnavailable, op, s.attempts, lastErr)
}
