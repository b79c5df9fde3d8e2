package surf

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PartialRecord accumulates the fields contributed by independent data axes
// for a single timestamp.
type PartialRecord struct {
	MinHeight   *float64
	MaxHeight   *float64
	SwellRating decimal.NullDecimal
	OptimalWind *bool
}

// Merge copies fields from o that are not yet set on p.
func (p *PartialRecord) Merge(o PartialRecord) {
	if p.MinHeight == nil {
		p.MinHeight = o.MinHeight
	}
	if p.MaxHeight == nil {
		p.MaxHeight = o.MaxHeight
	}
	if !p.SwellRating.Valid {
		p.SwellRating = o.SwellRating
	}
	if p.OptimalWind == nil {
		p.OptimalWind = o.OptimalWind
	}
}

// Apply writes the set fields onto a record.
func (p PartialRecord) Apply(rec *ForecastRecord) {
	if p.MinHeight != nil {
		rec.MinHeight = p.MinHeight
	}
	if p.MaxHeight != nil {
		rec.MaxHeight = p.MaxHeight
	}
	if p.SwellRating.Valid {
		rec.SwellRating = p.SwellRating
	}
	if p.OptimalWind != nil {
		rec.OptimalWind = p.OptimalWind
	}
}

// Series is a timestamp-indexed set of partial records.
type Series struct {
	points map[int64]*PartialRecord
}

// NewSeries returns an empty series.
func NewSeries() *Series {
	return &Series{points: make(map[int64]*PartialRecord)}
}

// Merge augments the partial record at ts with the fields of p.
func (s *Series) Merge(ts time.Time, p PartialRecord) {
	k := ts.UnixNano()
	cur, ok := s.points[k]
	if !ok {
		cur = &PartialRecord{}
		s.points[k] = cur
	}
	cur.Merge(p)
}

// Len returns the number of timestamps in the series.
func (s *Series) Len() int {
	return len(s.points)
}

// Get returns the partial record at ts.
func (s *Series) Get(ts time.Time) (PartialRecord, bool) {
	p, ok := s.points[ts.UnixNano()]
	if !ok {
		return PartialRecord{}, false
	}
	return *p, true
}

// Timestamps returns the series keys in chronological order, independent of
// insertion order.
func (s *Series) Timestamps() []time.Time {
	keys := make([]int64, 0, len(s.points))
	for k := range s.points {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]time.Time, len(keys))
	for i, k := range keys {
		out[i] = time.Unix(0, k).UTC()
	}
	return out
}

// FillSwellGaps sets a missing swell rating on every interior timestamp to the
// mean of its chronological neighbours, provided both neighbours carry one.
// Endpoints are never filled. Neighbour values are read before any fill, so a
// filled value never feeds another fill. It returns the number of filled points.
func (s *Series) FillSwellGaps() int {
	keys := s.Timestamps()
	if len(keys) < 3 {
		return 0
	}

	orig := make([]decimal.NullDecimal, len(keys))
	for i, ts := range keys {
		orig[i] = s.points[ts.UnixNano()].SwellRating
	}

	two := decimal.NewFromInt(2)
	filled := 0
	for i := 1; i < len(keys)-1; i++ {
		if orig[i].Valid {
			continue
		}
		prev, next := orig[i-1], orig[i+1]
		if !prev.Valid || !next.Valid {
			continue
		}
		s.points[keys[i].UnixNano()].SwellRating = decimal.NewNullDecimal(prev.Decimal.Add(next.Decimal).Div(two))
		filled++
	}
	return filled
}
