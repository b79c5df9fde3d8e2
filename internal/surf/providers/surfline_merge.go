package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

// surflineID accepts both numeric and string spot identifiers.
type surflineID string

func (id *surflineID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = surflineID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("surfline id: %w", err)
	}
	*id = surflineID(n.String())
	return nil
}

// rawGrid is a day-by-slot grid whose cells are parsed on demand, so one
// unreadable cell only blanks that cell. Rows that are not arrays are kept
// as empty rows to preserve day indexes.
type rawGrid [][]json.RawMessage

func (g *rawGrid) UnmarshalJSON(b []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(b, &rows); err != nil {
		*g = nil
		return nil
	}
	grid := make(rawGrid, len(rows))
	for i, row := range rows {
		var cells []json.RawMessage
		if err := json.Unmarshal(row, &cells); err == nil {
			grid[i] = cells
		}
	}
	*g = grid
	return nil
}

// raw returns the trimmed cell at (day, idx), or nil when the cell is out of
// range or null.
func (g rawGrid) raw(day, idx int) []byte {
	if day >= len(g) || idx >= len(g[day]) {
		return nil
	}
	v := bytes.TrimSpace(g[day][idx])
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	return v
}

// text returns a string cell unquoted and any other cell verbatim.
func (g rawGrid) text(day, idx int) (string, bool) {
	v := g.raw(day, idx)
	if v == nil {
		return "", false
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(v), true
}

func (g rawGrid) dec(day, idx int) *decimal.Decimal {
	s, ok := g.text(day, idx)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &d
}

func (g rawGrid) float(day, idx int) *float64 {
	s, ok := g.text(day, idx)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// windFlag reads an optimal-wind cell, which the API encodes as a boolean or
// as 0/1.
func (g rawGrid) windFlag(day, idx int) *bool {
	v := g.raw(day, idx)
	if v == nil {
		return nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return &b
	}
	s, _ := g.text(day, idx)
	if flag, err := strconv.ParseBool(s); err == nil {
		return &flag
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		flag := f != 0
		return &flag
	}
	return nil
}

type surflineResponse struct {
	ID   surflineID `json:"id"`
	Surf struct {
		DateStamp rawGrid `json:"dateStamp"`
		SurfMin   rawGrid `json:"surf_min"`
		SurfMax   rawGrid `json:"surf_max"`
	} `json:"Surf"`
	Sort struct {
		DateStamp rawGrid `json:"dateStamp"`
		Optimal1  rawGrid `json:"optimal1"`
		Optimal2  rawGrid `json:"optimal2"`
		Optimal3  rawGrid `json:"optimal3"`
		Optimal4  rawGrid `json:"optimal4"`
		Optimal5  rawGrid `json:"optimal5"`
		Optimal6  rawGrid `json:"optimal6"`
	} `json:"Sort"`
	Wind struct {
		DateStamp   rawGrid `json:"dateStamp"`
		OptimalWind rawGrid `json:"optimalWind"`
	} `json:"Wind"`
}

// decodeSurfline accepts a single spot response or an array of them; the API
// only returns an array when all nearby spots were requested. Array elements
// that fail to decode are dropped and counted.
func decodeSurfline(payload []byte) (responses []surflineResponse, dropped int, err error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("decode surfline payload: %w", err)
		}
		for _, item := range items {
			var r surflineResponse
			if err := json.Unmarshal(item, &r); err != nil {
				dropped++
				continue
			}
			responses = append(responses, r)
		}
		return responses, dropped, nil
	}
	var one surflineResponse
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, 0, fmt.Errorf("decode surfline payload: %w", err)
	}
	return []surflineResponse{one}, 0, nil
}

// eachStamp resolves every date stamp of an axis grid and calls fn with its
// grid address. Unparsable stamps are counted and skipped.
func eachStamp(stamps rawGrid, loc *time.Location, fn func(ts time.Time, day, idx int)) (skipped int) {
	for day, row := range stamps {
		for idx := range row {
			stamp, ok := stamps.text(day, idx)
			if !ok {
				skipped++
				continue
			}
			ts, err := surf.ResolveLocal(stamp, loc)
			if err != nil {
				skipped++
				continue
			}
			fn(ts, day, idx)
		}
	}
	return skipped
}

// mergeAxes folds the Surf, Sort and Wind axes of one response into series.
// Later passes only fill fields earlier passes left unset.
func mergeAxes(r surflineResponse, loc *time.Location, series *surf.Series) (skipped int) {
	skipped += eachStamp(r.Surf.DateStamp, loc, func(ts time.Time, day, idx int) {
		series.Merge(ts, surf.PartialRecord{
			MinHeight: r.Surf.SurfMin.float(day, idx),
			MaxHeight: r.Surf.SurfMax.float(day, idx),
		})
	})

	optimal := []rawGrid{
		r.Sort.Optimal1, r.Sort.Optimal2, r.Sort.Optimal3,
		r.Sort.Optimal4, r.Sort.Optimal5, r.Sort.Optimal6,
	}
	skipped += eachStamp(r.Sort.DateStamp, loc, func(ts time.Time, day, idx int) {
		var scores []decimal.Decimal
		for _, grid := range optimal {
			if v := grid.dec(day, idx); v != nil {
				scores = append(scores, *v)
			}
		}
		var p surf.PartialRecord
		if len(scores) > 0 {
			p.SwellRating = decimal.NewNullDecimal(MaxOptimal(scores))
		}
		series.Merge(ts, p)
	})

	skipped += eachStamp(r.Wind.DateStamp, loc, func(ts time.Time, day, idx int) {
		series.Merge(ts, surf.PartialRecord{OptimalWind: r.Wind.OptimalWind.windFlag(day, idx)})
	})
	return skipped
}
