package providers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/i474232898/surf-forecast-aggregation/internal/common"
	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

// ShapeRating maps Spitcast's shape labels onto a 1-5 scale. Unknown labels
// map to 0, which the quality gate treats as unrated.
func ShapeRating(label string) int {
	switch label {
	case "Poor":
		return 1
	case "Poor-Fair":
		return 2
	case "Fair":
		return 3
	case "Fair-Good":
		return 4
	case "Good":
		return 5
	default:
		return 0
	}
}

// BreakingHeight prefers the breaking height and falls back to the absolute
// swell height when the provider omits it.
func BreakingHeight(breaking, abs *float64) *float64 {
	if breaking != nil {
		return breaking
	}
	return abs
}

// MaxOptimal returns the largest of the swell sub-scores. Absent scores count
// as zero.
func MaxOptimal(scores []decimal.Decimal) decimal.Decimal {
	best := decimal.Zero
	for _, s := range scores {
		if s.GreaterThan(best) {
			best = s
		}
	}
	return best
}

// heightRange projects records onto rounded (min, max) chart pairs.
func heightRange(records []surf.ForecastRecord) []surf.ChartPoint {
	points := make([]surf.ChartPoint, 0, len(records))
	for _, r := range records {
		if r.MinHeight == nil || r.MaxHeight == nil {
			continue
		}
		points = append(points, surf.ChartPoint{
			Timestamp: r.Timestamp,
			Values:    []float64{common.Round(*r.MinHeight, 1), common.Round(*r.MaxHeight, 1)},
		})
	}
	return points
}

func allRecords(ctx context.Context, store surf.Store, provider string, spotID int64) ([]surf.ForecastRecord, error) {
	return store.Records(ctx, provider, spotID, time.Time{}, time.Time{})
}
