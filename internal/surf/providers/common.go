package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Config carries the per-provider settings injected at construction.
type Config struct {
	APIKey       string
	ForecastDays int
}

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by NewFetcher.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// statusError keeps the HTTP status of a rejected response.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// Fetcher downloads provider payloads with retries, exponential backoff and
// one circuit breaker per provider.
type Fetcher struct {
	client  *http.Client
	backoff BackoffConfig

	mu       sync.Mutex
	circuits map[string]*gobreaker.CircuitBreaker
}

// NewFetcher creates a Fetcher around client.
func NewFetcher(client *http.Client, backoff BackoffConfig) *Fetcher {
	return &Fetcher{
		client:   client,
		backoff:  backoff,
		circuits: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (f *Fetcher) circuit(provider string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb, ok := f.circuits[provider]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         provider,
			MaxRequests:  5,
			Interval:     1 * time.Minute,
			Timeout:      2 * time.Minute,
			IsSuccessful: isBreakerSuccess,
		})
		f.circuits[provider] = cb
	}
	return cb
}

// isClientError reports a 4xx rejection other than rate limiting. Those are
// caused by the request itself, so they are neither retried nor held against
// the provider's breaker.
func isClientError(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.status >= 400 && se.status < 500 && se.status != http.StatusTooManyRequests
}

func isBreakerSuccess(err error) bool {
	return err == nil || isClientError(err)
}

// Fetch GETs url through the provider's breaker and returns the body and the
// final HTTP status.
func (f *Fetcher) Fetch(ctx context.Context, provider, url string) ([]byte, int, error) {
	if f.client == nil {
		return nil, 0, errNoHTTPClient
	}
	if f.backoff.MaxRetries < 0 || f.backoff.InitialInterval <= 0 {
		return nil, 0, errInvalidConfig
	}

	cb := f.circuit(provider)
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Accept", "application/json")

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := f.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			// Handle rate limiting and server errors explicitly.
			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, &statusError{status: resp.StatusCode, err: errRateLimited}
			}
			if resp.StatusCode >= 500 {
				return nil, &statusError{status: resp.StatusCode, err: errServerError}
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, &statusError{status: resp.StatusCode, err: fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)}
			}

			body, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return nil, readErr
			}
			return body, nil
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, 0, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return body, http.StatusOK, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, 0, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if isClientError(err) || attempt >= f.backoff.MaxRetries {
			var se *statusError
			if errors.As(lastErr, &se) {
				return nil, se.status, lastErr
			}
			return nil, 0, lastErr
		}

		delay := f.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > f.backoff.MaxInterval && f.backoff.MaxInterval > 0 {
			delay = f.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, 0, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
