package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

type stubIngester struct {
	mu      sync.Mutex
	seen    []int64
	active  int32
	maxSeen int32
	failOn  int64
}

func (s *stubIngester) FetchAndStore(ctx context.Context, spot surf.Spot) (map[string]surf.IngestResult, error) {
	n := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	for {
		cur := atomic.LoadInt32(&s.maxSeen)
		if n <= cur || atomic.CompareAndSwapInt32(&s.maxSeen, cur, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	s.mu.Lock()
	s.seen = append(s.seen, spot.ID)
	s.mu.Unlock()

	if spot.ID == s.failOn {
		return nil, errors.New("boom")
	}
	return map[string]surf.IngestResult{}, nil
}

func TestRunCycleVisitsEverySpot(t *testing.T) {
	spots := []surf.Spot{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}
	ing := &stubIngester{failOn: 2}

	New(spots, time.Hour, 2, ing).RunCycle(context.Background())

	if len(ing.seen) != len(spots) {
		t.Fatalf("expected %d spots fetched, got %v", len(spots), ing.seen)
	}
	if ing.maxSeen > 2 {
		t.Fatalf("expected at most 2 concurrent fetches, saw %d", ing.maxSeen)
	}
}

func TestStartWithoutSpotsIsNoop(t *testing.T) {
	s := New(nil, time.Hour, 1, &stubIngester{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
