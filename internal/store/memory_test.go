package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

func ts(hour int) time.Time {
	return time.Date(2024, 3, 1, hour, 0, 0, 0, time.UTC)
}

func TestMemoryStoreUpsertGate(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	key := surf.NewRecordKey(surf.ProviderMSW, 1, ts(0))

	ok, err := s.Upsert(ctx, key, func(rec *surf.ForecastRecord) bool { return false })
	if err != nil || ok || s.Count() != 0 {
		t.Fatalf("rejected record must not be stored: ok=%v err=%v count=%d", ok, err, s.Count())
	}

	rating := 3
	ok, err = s.Upsert(ctx, key, func(rec *surf.ForecastRecord) bool {
		rec.Rating = &rating
		return true
	})
	if err != nil || !ok {
		t.Fatalf("expected stored: ok=%v err=%v", ok, err)
	}

	// The same instant in another zone hits the same key.
	loc, _ := surf.LoadZone("Hawaii")
	other := surf.NewRecordKey(surf.ProviderMSW, 1, ts(0).In(loc))
	_, err = s.Upsert(ctx, other, func(rec *surf.ForecastRecord) bool {
		if rec.Rating == nil || *rec.Rating != 3 {
			t.Fatalf("expected existing record to be loaded, got %+v", rec)
		}
		return true
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected a single record, got %d", s.Count())
	}
}

func TestMemoryStoreConcurrentUpserts(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	key := surf.NewRecordKey(surf.ProviderSpitcast, 1, ts(3))

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Upsert(ctx, key, func(rec *surf.ForecastRecord) bool {
				h := float64(i)
				rec.Height = &h
				if rec.Rating == nil {
					r := 1
					rec.Rating = &r
				} else {
					r := *rec.Rating + 1
					rec.Rating = &r
				}
				return true
			})
		}(i)
	}
	wg.Wait()

	recs, _ := s.Records(ctx, surf.ProviderSpitcast, 1, time.Time{}, time.Time{})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if *recs[0].Rating != 50 {
		t.Fatalf("lost updates: rating counter %d, want 50", *recs[0].Rating)
	}
}

func TestMemoryStoreRecordsRangeAndOrder(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	for _, h := range []int{9, 0, 6, 3} {
		s.Upsert(ctx, surf.NewRecordKey(surf.ProviderMSW, 1, ts(h)), func(*surf.ForecastRecord) bool { return true })
	}
	s.Upsert(ctx, surf.NewRecordKey(surf.ProviderMSW, 2, ts(0)), func(*surf.ForecastRecord) bool { return true })
	s.Upsert(ctx, surf.NewRecordKey(surf.ProviderSurfline, 1, ts(0)), func(*surf.ForecastRecord) bool { return true })

	all, _ := s.Records(ctx, surf.ProviderMSW, 1, time.Time{}, time.Time{})
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if !all[i-1].Timestamp.Before(all[i].Timestamp) {
			t.Fatalf("records not ordered: %v", all)
		}
	}

	window, _ := s.Records(ctx, surf.ProviderMSW, 1, ts(3), ts(6))
	if len(window) != 2 || !window[0].Timestamp.Equal(ts(3)) || !window[1].Timestamp.Equal(ts(6)) {
		t.Fatalf("unexpected window %v", window)
	}
}

func TestMemoryStoreRequestRetention(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.SaveRequest(ctx, surf.NewAPIRequest(surf.ProviderMSW, 1, "u"))
	}
	s.SaveRequest(ctx, surf.NewAPIRequest(surf.ProviderMSW, 2, "u"))

	reqs, err := s.Requests(ctx, 1)
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected retention to keep 1 request for spot 1, got %d", len(reqs))
	}
	if none, err := s.Requests(ctx, 9); err != nil || len(none) != 0 {
		t.Fatalf("expected empty log, got %v, %v", none, err)
	}
}

func TestSpotDirectory(t *testing.T) {
	d := NewSpotDirectory([]surf.Spot{
		{ID: 2, Name: "Rincon", SurflineID: "4197", MSWID: "277"},
		{ID: 1, Name: "Ocean Beach", SpitcastID: "114"},
	})
	ctx := context.Background()

	if s, err := d.Spot(ctx, 2); err != nil || s.Name != "Rincon" {
		t.Fatalf("Spot(2) = %+v, %v", s, err)
	}
	if _, err := d.Spot(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if s, ok, err := d.SpotByExternalID(ctx, surf.ProviderSurfline, "4197"); err != nil || !ok || s.ID != 2 {
		t.Fatalf("surfline lookup: %+v %v %v", s, ok, err)
	}
	if s, ok, _ := d.SpotByExternalID(ctx, surf.ProviderSpitcast, "114"); !ok || s.ID != 1 {
		t.Fatalf("spitcast lookup failed")
	}
	if _, ok, _ := d.SpotByExternalID(ctx, surf.ProviderMSW, ""); ok {
		t.Fatalf("empty id must not match spots without an msw id")
	}
	if _, _, err := d.SpotByExternalID(ctx, "buoyweather", "1"); !errors.Is(err, surf.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}

	spots, _ := d.Spots(ctx)
	if len(spots) != 2 || spots[0].ID != 1 {
		t.Fatalf("unexpected spot order %+v", spots)
	}
}
