package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/i474232898/surf-forecast-aggregation/internal/common"
	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

// SpitcastProvider implements the surf.Provider interface for Spitcast.
type SpitcastProvider struct {
	baseURL string
	coord   *surf.Coordinator
	store   surf.Store
}

func NewSpitcastProvider(store surf.Store) *SpitcastProvider {
	return &SpitcastProvider{
		baseURL: "http://api.spitcast.com/api/spot/forecast",
		coord:   surf.NewCoordinator(store),
		store:   store,
	}
}

func (p *SpitcastProvider) Name() string {
	return surf.ProviderSpitcast
}

func (p *SpitcastProvider) SiteURL() string {
	return "http://www.spitcast.com"
}

func (p *SpitcastProvider) BuildAPIURL(spot surf.Spot) (string, error) {
	if spot.SpitcastID == "" {
		return "", &surf.ConfigurationError{Provider: "Spitcast", Spot: spot}
	}
	return fmt.Sprintf("%s/%s/?dcat=week", p.baseURL, url.PathEscape(spot.SpitcastID)), nil
}

type spitcastEntry struct {
	GMT       string   `json:"gmt"`
	SizeFt    *float64 `json:"size_ft"`
	ShapeFull string   `json:"shape_full"`
}

// ParseResponse stores one record per entry. The gmt field is already UTC,
// so no regional correction applies. Entries that fail to decode are skipped.
func (p *SpitcastProvider) ParseResponse(ctx context.Context, spot surf.Spot, req surf.APIRequest, payload []byte) (surf.IngestResult, error) {
	var res surf.IngestResult

	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return res, fmt.Errorf("decode spitcast payload: %w", err)
	}

	for _, item := range raw {
		var e spitcastEntry
		if err := json.Unmarshal(item, &e); err != nil {
			res.Skipped++
			continue
		}
		ts, err := surf.ResolveUTCWallClock(e.GMT)
		if err != nil {
			res.Skipped++
			continue
		}

		persisted, err := p.coord.Upsert(ctx, surf.NewRecordKey(p.Name(), spot.ID, ts), req.ID, func(rec *surf.ForecastRecord) {
			rec.Height = e.SizeFt
			rec.Rating = common.Ptr(ShapeRating(e.ShapeFull))
		})
		if err != nil {
			return res, err
		}
		res.Tally(persisted)
	}
	return res, nil
}

// ForChart returns rounded single heights.
func (p *SpitcastProvider) ForChart(ctx context.Context, spotID int64) ([]surf.ChartPoint, error) {
	records, err := allRecords(ctx, p.store, p.Name(), spotID)
	if err != nil {
		return nil, err
	}
	points := make([]surf.ChartPoint, 0, len(records))
	for _, r := range records {
		if r.Height == nil {
			continue
		}
		points = append(points, surf.ChartPoint{
			Timestamp: r.Timestamp,
			Values:    []float64{common.Round(*r.Height, 1)},
		})
	}
	return points, nil
}
