package providers

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

// SurflineOptions toggles the optional query flags of the forecast endpoint.
type SurflineOptions struct {
	UseNearshore bool
	GetAllSpots  bool
}

// SurflineProvider implements the surf.Provider interface for Surfline.
// A single response can carry forecasts for several nearby spots.
type SurflineProvider struct {
	cfg     Config
	opts    SurflineOptions
	baseURL string
	coord   *surf.Coordinator
	store   surf.Store
	spots   surf.SpotDirectory
}

func NewSurflineProvider(cfg Config, opts SurflineOptions, store surf.Store, spots surf.SpotDirectory) *SurflineProvider {
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 15
	}
	return &SurflineProvider{
		cfg:     cfg,
		opts:    opts,
		baseURL: "http://api.surfline.com/v1/forecasts",
		coord:   surf.NewCoordinator(store),
		store:   store,
		spots:   spots,
	}
}

func (p *SurflineProvider) Name() string {
	return surf.ProviderSurfline
}

func (p *SurflineProvider) SiteURL() string {
	return "http://www.surfline.com"
}

func (p *SurflineProvider) BuildAPIURL(spot surf.Spot) (string, error) {
	if spot.SurflineID == "" {
		return "", &surf.ConfigurationError{Provider: "Surfline", Spot: spot}
	}
	return fmt.Sprintf("%s/%s?resources=surf,wind,sort&days=%d&getAllSpots=%s&units=e&interpolate=true&showOptimal=true&usenearshore=%s",
		p.baseURL,
		url.PathEscape(spot.SurflineID),
		p.cfg.ForecastDays,
		strconv.FormatBool(p.opts.GetAllSpots),
		strconv.FormatBool(p.opts.UseNearshore),
	), nil
}

// ParseResponse merges the three axes of every spot response, fills interior
// swell rating gaps and upserts the result. Date stamps are read in the
// requesting spot's zone.
func (p *SurflineProvider) ParseResponse(ctx context.Context, spot surf.Spot, req surf.APIRequest, payload []byte) (surf.IngestResult, error) {
	var res surf.IngestResult

	responses, dropped, err := decodeSurfline(payload)
	if err != nil {
		return res, err
	}
	if dropped > 0 {
		log.Printf("DEBUG: surfline payload for spot %d: dropped %d undecodable spot responses", spot.ID, dropped)
		res.Skipped += dropped
	}

	loc, err := surf.LoadZone(spot.Timezone)
	if err != nil {
		return res, err
	}

	var order []string
	forecasts := make(map[string]*surf.Series)
	for _, r := range responses {
		id := string(r.ID)
		series, ok := forecasts[id]
		if !ok {
			series = surf.NewSeries()
			forecasts[id] = series
			order = append(order, id)
		}
		res.Skipped += mergeAxes(r, loc, series)
	}

	for _, id := range order {
		forecasts[id].FillSwellGaps()
	}

	for _, id := range order {
		series := forecasts[id]
		target, ok, err := p.resolveSpot(ctx, spot, id)
		if err != nil {
			return res, err
		}
		if !ok {
			log.Printf("DEBUG: surfline spot %q not tracked; dropping %d samples", id, series.Len())
			res.Skipped += series.Len()
			continue
		}

		for _, ts := range series.Timestamps() {
			partial, _ := series.Get(ts)
			corrected := surf.CorrectRegional(ts, spot.Timezone)
			persisted, err := p.coord.Upsert(ctx, surf.NewRecordKey(p.Name(), target.ID, corrected), req.ID, partial.Apply)
			if err != nil {
				return res, err
			}
			res.Tally(persisted)
		}
	}
	return res, nil
}

func (p *SurflineProvider) resolveSpot(ctx context.Context, requested surf.Spot, id string) (surf.Spot, bool, error) {
	if id == "" {
		return surf.Spot{}, false, nil
	}
	if id == requested.SurflineID {
		return requested, true, nil
	}
	return p.spots.SpotByExternalID(ctx, p.Name(), id)
}

// ForChart returns rounded (min, max) pairs for records that have both a swell
// rating and a wind verdict.
func (p *SurflineProvider) ForChart(ctx context.Context, spotID int64) ([]surf.ChartPoint, error) {
	records, err := allRecords(ctx, p.store, p.Name(), spotID)
	if err != nil {
		return nil, err
	}
	rated := records[:0]
	for _, r := range records {
		if r.SwellRating.Valid && r.OptimalWind != nil {
			rated = append(rated, r)
		}
	}
	return heightRange(rated), nil
}
