package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

// SpotDirectory is a read-only in-memory surf.SpotDirectory.
type SpotDirectory struct {
	byID map[int64]surf.Spot
}

// NewSpotDirectory indexes spots by ID. Later duplicates replace earlier ones.
func NewSpotDirectory(spots []surf.Spot) *SpotDirectory {
	d := &SpotDirectory{byID: make(map[int64]surf.Spot, len(spots))}
	for _, s := range spots {
		d.byID[s.ID] = s
	}
	return d
}

func (d *SpotDirectory) Spot(ctx context.Context, id int64) (surf.Spot, error) {
	s, ok := d.byID[id]
	if !ok {
		return surf.Spot{}, fmt.Errorf("spot %d: %w", id, ErrNotFound)
	}
	return s, nil
}

// SpotByExternalID finds the spot a provider knows by externalID.
func (d *SpotDirectory) SpotByExternalID(ctx context.Context, provider, externalID string) (surf.Spot, bool, error) {
	if externalID == "" {
		return surf.Spot{}, false, nil
	}
	for _, s := range d.byID {
		var id string
		switch provider {
		case surf.ProviderMSW:
			id = s.MSWID
		case surf.ProviderSpitcast:
			id = s.SpitcastID
		case surf.ProviderSurfline:
			id = s.SurflineID
		default:
			return surf.Spot{}, false, fmt.Errorf("%w: %q", surf.ErrUnknownProvider, provider)
		}
		if id == externalID {
			return s, true, nil
		}
	}
	return surf.Spot{}, false, nil
}

// Spots returns all spots ordered by ID.
func (d *SpotDirectory) Spots(ctx context.Context) ([]surf.Spot, error) {
	out := make([]surf.Spot, 0, len(d.byID))
	for _, s := range d.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
