package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

const mswFields = "timestamp,solidRating,fadedRating,swell.absMinBreakingHeight,swell.absMaxBreakingHeight,swell.absHeight"

// MSWProvider implements the surf.Provider interface for MagicSeaweed.
type MSWProvider struct {
	cfg     Config
	baseURL string
	coord   *surf.Coordinator
	store   surf.Store
}

func NewMSWProvider(cfg Config, store surf.Store) *MSWProvider {
	return &MSWProvider{
		cfg:     cfg,
		baseURL: "http://magicseaweed.com/api",
		coord:   surf.NewCoordinator(store),
		store:   store,
	}
}

func (p *MSWProvider) Name() string {
	return surf.ProviderMSW
}

func (p *MSWProvider) SiteURL() string {
	return "http://magicseaweed.com"
}

func (p *MSWProvider) BuildAPIURL(spot surf.Spot) (string, error) {
	if spot.MSWID == "" {
		return "", &surf.ConfigurationError{Provider: "MagicSeaweed", Spot: spot}
	}
	if p.cfg.APIKey == "" {
		return "", &surf.ConfigurationError{Provider: "MagicSeaweed", Spot: spot, Missing: "API key"}
	}
	return fmt.Sprintf("%s/%s/forecast?spot_id=%s&units=us&fields=%s",
		p.baseURL, url.PathEscape(p.cfg.APIKey), url.QueryEscape(spot.MSWID), mswFields), nil
}

type mswEntry struct {
	Timestamp   json.Number `json:"timestamp"`
	SolidRating *int        `json:"solidRating"`
	FadedRating *int        `json:"fadedRating"`
	Swell       struct {
		AbsMinBreakingHeight *float64 `json:"absMinBreakingHeight"`
		AbsMaxBreakingHeight *float64 `json:"absMaxBreakingHeight"`
		AbsHeight            *float64 `json:"absHeight"`
	} `json:"swell"`
}

// epoch returns the entry's Unix timestamp, or false when it is absent or
// not a positive number.
func (e mswEntry) epoch() (int64, bool) {
	if e.Timestamp == "" {
		return 0, false
	}
	sec, err := e.Timestamp.Int64()
	if err != nil {
		f, ferr := e.Timestamp.Float64()
		if ferr != nil {
			return 0, false
		}
		sec = int64(f)
	}
	return sec, sec > 0
}

// ParseResponse stores one record per entry. Entries are decoded one at a
// time so a malformed sample is skipped without losing the rest.
func (p *MSWProvider) ParseResponse(ctx context.Context, spot surf.Spot, req surf.APIRequest, payload []byte) (surf.IngestResult, error) {
	var res surf.IngestResult

	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return res, fmt.Errorf("decode msw payload: %w", err)
	}

	loc, err := surf.LoadZone(spot.Timezone)
	if err != nil {
		return res, err
	}

	for _, item := range raw {
		var e mswEntry
		if err := json.Unmarshal(item, &e); err != nil {
			res.Skipped++
			continue
		}
		sec, ok := e.epoch()
		if !ok {
			res.Skipped++
			continue
		}
		ts := surf.ResolveEpoch(sec, loc)
		ts = surf.CorrectRegional(ts, spot.Timezone)

		persisted, err := p.coord.Upsert(ctx, surf.NewRecordKey(p.Name(), spot.ID, ts), req.ID, func(rec *surf.ForecastRecord) {
			rec.MinHeight = BreakingHeight(e.Swell.AbsMinBreakingHeight, e.Swell.AbsHeight)
			rec.MaxHeight = BreakingHeight(e.Swell.AbsMaxBreakingHeight, e.Swell.AbsHeight)
			rec.Rating = e.SolidRating
			rec.WindEffect = e.FadedRating
		})
		if err != nil {
			return res, err
		}
		res.Tally(persisted)
	}
	return res, nil
}

// ForChart returns rounded (min, max) height pairs.
func (p *MSWProvider) ForChart(ctx context.Context, spotID int64) ([]surf.ChartPoint, error) {
	records, err := allRecords(ctx, p.store, p.Name(), spotID)
	if err != nil {
		return nil, err
	}
	return heightRange(records), nil
}
