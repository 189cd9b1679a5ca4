// Package scoring computes person scores and looks up client interests,
// using the key-value store as score cache and interests source.
package scoring

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/scorelayer/scoring/internal/logging"
)

const (
	scoreCacheTTL   = 60 * time.Minute
	interestsKeyFmt = "i:%d"
	scoreKeyPrefix  = "uid:"
	birthdayKeyForm = "20060102"
)

// Store is the slice of the retrying store the scorer needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	CacheGet(ctx context.Context, key string) (string, bool, error)
	CacheSet(ctx context.Context, key, value string, ttl time.Duration) error
}

// Traits is the validated, coerced argument set of a score request. Gender
// is the wire string form ("0", "1", "2"); empty means not supplied.
type Traits struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    string
	Birthday  time.Time
}

// Service is the scoring collaborator.
type Service struct {
	store Store
	log   *logging.Logger
}

// NewService builds the scorer over a store.
func NewService(store Store, log *logging.Logger) *Service {
	return &Service{store: store, log: log}
}

// Score computes an additive score from the supplied traits. Results are
// cached for an hour keyed by identity; an unreachable cache degrades to a
// fresh computation and never fails the request.
func (s *Service) Score(ctx context.Context, t Traits) (float64, error) {
	key := cacheKey(t)
	if cached, ok, err := s.store.CacheGet(ctx, key); err == nil && ok {
		if score, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return score, nil
		}
	} else if err != nil && s.log != nil {
		s.log.WithContext(ctx).WithError(err).Warn("score cache unavailable, computing fresh")
	}

	var score float64
	if t.Phone != "" {
		score += 1.5
	}
	if t.Email != "" {
		score += 1.5
	}
	if !t.Birthday.IsZero() && t.Gender != "" {
		score += 1.5
	}
	if t.FirstName != "" && t.LastName != "" {
		score += 0.5
	}

	// Best effort; a down cache must not fail the score request.
	if err := s.store.CacheSet(ctx, key, strconv.FormatFloat(score, 'f', -1, 64), scoreCacheTTL); err != nil && s.log != nil {
		s.log.WithContext(ctx).WithError(err).Warn("score cache write failed")
	}
	return score, nil
}

// InterestsFor returns the stored interests of one client id. A missing key
// yields an empty list; an unreachable store is a hard error.
func (s *Service) InterestsFor(ctx context.Context, clientID int64) ([]string, error) {
	raw, ok, err := s.store.Get(ctx, fmt.Sprintf(interestsKeyFmt, clientID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	var interests []string
	if err := json.Unmarshal([]byte(raw), &interests); err != nil {
		return nil, fmt.Errorf("decode interests for client %d: %w", clientID, err)
	}
	return interests, nil
}

// cacheKey derives the identity key a score is cached under.
func cacheKey(t Traits) string {
	birthday := ""
	if !t.Birthday.IsZero() {
		birthday = t.Birthday.Format(birthdayKeyForm)
	}
	sum := md5.Sum([]byte(t.FirstName + t.LastName + t.Phone + birthday))
	return scoreKeyPrefix + hex.EncodeToString(sum[:])
}
