package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

var (
	// ErrNotFound is returned when no data is available for a given spot.
	ErrNotFound = errors.New("not found")
)

type recordKey struct {
	provider string
	spotID   int64
	ts       int64
}

func keyOf(k surf.RecordKey) recordKey {
	return recordKey{provider: k.Provider, spotID: k.SpotID, ts: k.Timestamp.UnixNano()}
}

// MemoryStore is a concurrency-safe in-memory implementation of surf.Store.
type MemoryStore struct {
	mu sync.RWMutex

	records map[recordKey]surf.ForecastRecord

	// request log, oldest first
	requests    []surf.APIRequest
	maxRequests int // 0 = unlimited
}

// NewMemoryStore creates a new MemoryStore. If maxRequests is <= 0 the
// request log is unbounded.
func NewMemoryStore(maxRequests int) *MemoryStore {
	return &MemoryStore{
		records:     make(map[recordKey]surf.ForecastRecord),
		maxRequests: maxRequests,
	}
}

// Upsert finds or initializes the record for key and saves it when apply
// returns true. The whole find-apply-save runs under the store lock, so
// concurrent writers to one key never duplicate it and the last writer wins.
func (s *MemoryStore) Upsert(ctx context.Context, key surf.RecordKey, apply func(*surf.ForecastRecord) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	k := keyOf(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[k]
	if !ok {
		rec = surf.ForecastRecord{
			Provider:  key.Provider,
			SpotID:    key.SpotID,
			Timestamp: key.Timestamp.UTC(),
		}
	}

	if !apply(&rec) {
		return false, nil
	}
	rec.UpdatedAt = time.Now().UTC()
	s.records[k] = rec
	return true, nil
}

// Records returns a spot's records between from and to (inclusive, zero
// bounds are open) ordered by timestamp.
func (s *MemoryStore) Records(ctx context.Context, provider string, spotID int64, from, to time.Time) ([]surf.ForecastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []surf.ForecastRecord
	for k, rec := range s.records {
		if k.provider != provider || k.spotID != spotID {
			continue
		}
		if !from.IsZero() && rec.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Timestamp.After(to) {
			continue
		}
		result = append(result, rec)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// SaveRequest appends a fetch attempt to the request log and enforces retention.
func (s *MemoryStore) SaveRequest(ctx context.Context, req surf.APIRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if s.maxRequests > 0 && len(s.requests) > s.maxRequests {
		over := len(s.requests) - s.maxRequests
		s.requests = s.requests[over:]
	}
	return nil
}

// Requests returns the retained fetch attempts for a spot, newest last.
func (s *MemoryStore) Requests(ctx context.Context, spotID int64) ([]surf.APIRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]surf.APIRequest, 0)
	for _, r := range s.requests {
		if r.SpotID == spotID {
			result = append(result, r)
		}
	}
	return result, nil
}
