package surf

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider names used as the first component of every record key.
const (
	ProviderMSW      = "msw"
	ProviderSpitcast = "spitcast"
	ProviderSurfline = "surfline"
)

// Spot represents a surf location along with the identifiers each provider
// uses to address it.
type Spot struct {
	ID         int64  `json:"id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required"`
	Timezone   string `json:"timezone" validate:"required"`
	MSWID      string `json:"mswId,omitempty"`
	SpitcastID string `json:"spitcastId,omitempty"`
	SurflineID string `json:"surflineId,omitempty"`
}

// RecordKey identifies a forecast record. Timestamp is always UTC.
type RecordKey struct {
	Provider  string
	SpotID    int64
	Timestamp time.Time
}

// NewRecordKey normalizes the timestamp to UTC.
func NewRecordKey(provider string, spotID int64, ts time.Time) RecordKey {
	return RecordKey{Provider: provider, SpotID: spotID, Timestamp: ts.UTC()}
}

// ForecastRecord is the canonical normalized forecast for one spot at one instant.
// Which fields are populated depends on the provider.
type ForecastRecord struct {
	Provider  string    `json:"provider"`
	SpotID    int64     `json:"spotId"`
	Timestamp time.Time `json:"timestamp"` // always UTC

	MinHeight   *float64            `json:"minHeight,omitempty"`
	MaxHeight   *float64            `json:"maxHeight,omitempty"`
	Height      *float64            `json:"height,omitempty"`
	Rating      *int                `json:"rating,omitempty"`
	WindEffect  *int                `json:"windEffect,omitempty"`
	SwellRating decimal.NullDecimal `json:"swellRating"`
	OptimalWind *bool               `json:"optimalWind,omitempty"`

	// APIRequest is the fetch attempt that produced or last updated the record.
	APIRequest uuid.UUID `json:"apiRequest"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Key returns the record's identity.
func (r ForecastRecord) Key() RecordKey {
	return NewRecordKey(r.Provider, r.SpotID, r.Timestamp)
}

// HasQuality reports whether the record carries its provider's primary quality
// signal. Records without it are never persisted.
func (r ForecastRecord) HasQuality() bool {
	if r.Provider == ProviderSurfline {
		return r.SwellRating.Valid
	}
	return r.Rating != nil && *r.Rating != 0
}

// AvgHeight returns the midpoint of the min/max band.
func (r ForecastRecord) AvgHeight() (float64, bool) {
	if r.MinHeight == nil || r.MaxHeight == nil {
		return 0, false
	}
	return (*r.MinHeight + *r.MaxHeight) / 2, true
}

// DisplaySwellRating scales a swell rating onto a 0-5 scale, halving it when
// the wind is not optimal.
func (r ForecastRecord) DisplaySwellRating() (int, bool) {
	if !r.SwellRating.Valid || r.OptimalWind == nil {
		return 0, false
	}
	factor := 0.5
	if *r.OptimalWind {
		factor = 1
	}
	v, _ := r.SwellRating.Decimal.Float64()
	return int(math.Round(v * 5 * factor)), true
}

// APIRequest is the handle for one fetch attempt against a provider.
type APIRequest struct {
	ID          uuid.UUID `json:"id"`
	Provider    string    `json:"provider"`
	SpotID      int64     `json:"spotId"`
	URL         string    `json:"url"`
	RequestedAt time.Time `json:"requestedAt"`
	Status      int       `json:"status,omitempty"`
	Err         string    `json:"error,omitempty"`
}

// NewAPIRequest creates a handle with a fresh ID.
func NewAPIRequest(provider string, spotID int64, url string) APIRequest {
	return APIRequest{
		ID:          uuid.New(),
		Provider:    provider,
		SpotID:      spotID,
		URL:         url,
		RequestedAt: time.Now().UTC(),
	}
}

// ChartPoint is one rounded sample of a chart projection. Values holds either
// a (low, high) pair or a single height.
type ChartPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Values    []float64 `json:"values"`
}

// IngestResult summarizes one ParseResponse call.
type IngestResult struct {
	Persisted int `json:"persisted"`
	Discarded int `json:"discarded"` // failed the quality gate
	Skipped   int `json:"skipped"`   // bad timestamps or unknown spots
}

// Add accumulates another result.
func (r *IngestResult) Add(o IngestResult) {
	r.Persisted += o.Persisted
	r.Discarded += o.Discarded
	r.Skipped += o.Skipped
}
