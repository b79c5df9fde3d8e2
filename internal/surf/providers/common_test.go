package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), fastBackoff)
	body, status, err := f.Fetch(context.Background(), "msw", srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "[]" || status != http.StatusOK {
		t.Fatalf("unexpected response %q %d", body, status)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestFetcherReportsFinalStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), fastBackoff)
	_, status, err := f.Fetch(context.Background(), "msw", srv.URL)
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("expected errUnexpected, got %v", err)
	}
	if status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", status)
	}
}

func TestFetcherHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(srv.Client(), fastBackoff)
	if _, _, err := f.Fetch(ctx, "msw", srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetcherConfigValidation(t *testing.T) {
	if _, _, err := NewFetcher(nil, fastBackoff).Fetch(context.Background(), "msw", "http://x"); !errors.Is(err, errNoHTTPClient) {
		t.Fatalf("expected errNoHTTPClient, got %v", err)
	}
	if _, _, err := NewFetcher(http.DefaultClient, BackoffConfig{MaxRetries: -1}).Fetch(context.Background(), "msw", "http://x"); !errors.Is(err, errInvalidConfig) {
		t.Fatalf("expected errInvalidConfig, got %v", err)
	}
}

func TestFetcherDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), fastBackoff)
	for i := 0; i < 10; i++ {
		_, status, err := f.Fetch(context.Background(), "msw", srv.URL)
		if errors.Is(err, errCircuitOpen) {
			t.Fatalf("fetch %d: client errors must not open the breaker", i)
		}
		if status != http.StatusUnauthorized {
			t.Fatalf("fetch %d: expected 401, got %d (%v)", i, status, err)
		}
	}
	if calls != 10 {
		t.Fatalf("expected one attempt per fetch, got %d", calls)
	}
}

func TestFetcherBreakerIsPerProvider(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer healthy.Close()

	f := NewFetcher(http.DefaultClient, fastBackoff)
	for i := 0; i < 2; i++ {
		f.Fetch(context.Background(), "msw", failing.URL)
	}
	if _, _, err := f.Fetch(context.Background(), "msw", failing.URL); !errors.Is(err, errCircuitOpen) {
		t.Fatalf("expected msw breaker to be open, got %v", err)
	}

	body, status, err := f.Fetch(context.Background(), "spitcast", healthy.URL)
	if err != nil || status != http.StatusOK || string(body) != "[]" {
		t.Fatalf("healthy provider blocked: %q %d %v", body, status, err)
	}
}
