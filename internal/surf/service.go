package surf

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Service orchestrates fetch cycles across providers and serves read projections.
type Service struct {
	store     Store
	spots     SpotDirectory
	fetcher   Fetcher
	providers []Provider
}

// NewService creates a new Service.
func NewService(store Store, spots SpotDirectory, fetcher Fetcher, providers []Provider) *Service {
	return &Service{
		store:     store,
		spots:     spots,
		fetcher:   fetcher,
		providers: providers,
	}
}

// Provider returns the registered provider with the given name.
func (s *Service) Provider(name string) (Provider, error) {
	for _, p := range s.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// FetchAndStore runs one fetch cycle for the spot against every provider
// concurrently. Providers the spot is not configured for are skipped; other
// failures are logged and joined into the returned error so that one
// provider's outage does not block the rest.
func (s *Service) FetchAndStore(ctx context.Context, spot Spot) (map[string]IngestResult, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]IngestResult)
		errs    []error
	)

	if len(s.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch forecasts for spot %d", spot.ID)
		return nil, fmt.Errorf("no surf providers configured")
	}

	for _, p := range s.providers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := s.Ingest(ctx, p, spot)
			var cfgErr *ConfigurationError
			switch {
			case errors.As(err, &cfgErr):
				log.Printf("DEBUG: skipping %s for spot %d: %v", p.Name(), spot.ID, err)
				return
			case err != nil:
				log.Printf("provider %s ingest failed for spot %d: %v", p.Name(), spot.ID, err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
				mu.Unlock()
				return
			}

			mu.Lock()
			results[p.Name()] = res
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results, errors.Join(errs...)
}

// Ingest fetches and parses one provider's forecast for the spot. The fetch
// attempt is recorded in the request log whether or not it succeeds.
func (s *Service) Ingest(ctx context.Context, p Provider, spot Spot) (IngestResult, error) {
	url, err := p.BuildAPIURL(spot)
	if err != nil {
		return IngestResult{}, err
	}

	req := NewAPIRequest(p.Name(), spot.ID, url)
	body, status, fetchErr := s.fetcher.Fetch(ctx, p.Name(), url)
	req.Status = status
	if fetchErr != nil {
		req.Err = fetchErr.Error()
	}
	if err := s.store.SaveRequest(ctx, req); err != nil {
		return IngestResult{}, fmt.Errorf("record request: %w", err)
	}
	if fetchErr != nil {
		return IngestResult{}, fmt.Errorf("fetch %s: %w", p.Name(), fetchErr)
	}

	res, err := p.ParseResponse(ctx, spot, req, body)
	if err != nil {
		return res, err
	}
	log.Printf("INFO: %s spot %d: persisted=%d discarded=%d skipped=%d",
		p.Name(), spot.ID, res.Persisted, res.Discarded, res.Skipped)
	return res, nil
}

// Chart returns the provider's chart projection for a spot.
func (s *Service) Chart(ctx context.Context, provider string, spotID int64) ([]ChartPoint, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}
	return p.ForChart(ctx, spotID)
}

// Records delegates to the underlying store.
func (s *Service) Records(ctx context.Context, provider string, spotID int64, from, to time.Time) ([]ForecastRecord, error) {
	if _, err := s.Provider(provider); err != nil {
		return nil, err
	}
	return s.store.Records(ctx, provider, spotID, from, to)
}

// Requests returns the fetch log of a known spot.
func (s *Service) Requests(ctx context.Context, spotID int64) ([]APIRequest, error) {
	if _, err := s.spots.Spot(ctx, spotID); err != nil {
		return nil, err
	}
	return s.store.Requests(ctx, spotID)
}

// Spot delegates to the spot directory.
func (s *Service) Spot(ctx context.Context, id int64) (Spot, error) {
	return s.spots.Spot(ctx, id)
}

// Spots delegates to the spot directory.
func (s *Service) Spots(ctx context.Context) ([]Spot, error) {
	return s.spots.Spots(ctx)
}
