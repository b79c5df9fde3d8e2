package surf

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownProvider is returned when a provider name is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ConfigurationError reports a spot that cannot be addressed by a provider,
// either because the spot lacks the provider's ID or because the provider
// itself is missing a setting such as an API key.
type ConfigurationError struct {
	Provider string
	Spot     Spot
	Missing  string
}

func (e *ConfigurationError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("%s is not configured: missing %s", e.Provider, e.Missing)
	}
	return fmt.Sprintf("no %s spot associated with %s (%d)", e.Provider, e.Spot.Name, e.Spot.ID)
}

// Provider abstracts a surf forecast source (e.g. MagicSeaweed, Spitcast, Surfline).
type Provider interface {
	Name() string
	SiteURL() string
	// BuildAPIURL returns a *ConfigurationError when the spot has no ID for this
	// provider or the provider lacks a required setting.
	BuildAPIURL(spot Spot) (string, error)
	// ParseResponse normalizes an already-fetched payload and upserts the
	// resulting records. Bad samples are skipped; store errors are returned.
	ParseResponse(ctx context.Context, spot Spot, req APIRequest, payload []byte) (IngestResult, error)
	ForChart(ctx context.Context, spotID int64) ([]ChartPoint, error)
}

// Store is the contract the in-memory store (and the Postgres store) must satisfy.
type Store interface {
	// Upsert loads the record for key, or initializes an empty one, and hands
	// it to apply. The record is saved only when apply returns true. Calls
	// for the same key are serialized.
	Upsert(ctx context.Context, key RecordKey, apply func(*ForecastRecord) bool) (bool, error)
	// Records returns a spot's records for a provider ordered by timestamp.
	// Zero bounds are open.
	Records(ctx context.Context, provider string, spotID int64, from, to time.Time) ([]ForecastRecord, error)
	SaveRequest(ctx context.Context, req APIRequest) error
	// Requests returns the logged fetch attempts for a spot, oldest first.
	Requests(ctx context.Context, spotID int64) ([]APIRequest, error)
}

// SpotDirectory looks up spot metadata.
type SpotDirectory interface {
	Spot(ctx context.Context, id int64) (Spot, error)
	SpotByExternalID(ctx context.Context, provider, externalID string) (Spot, bool, error)
	Spots(ctx context.Context) ([]Spot, error)
}

// Fetcher performs the network round trip for a provider URL. Failures are
// tracked per provider so one outage does not block the others.
type Fetcher interface {
	Fetch(ctx context.Context, provider, url string) (body []byte, status int, err error)
}
