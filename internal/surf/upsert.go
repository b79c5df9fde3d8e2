package surf

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Coordinator applies field mutations to records found or created by key and
// persists them only when they pass the quality gate.
type Coordinator struct {
	store Store
}

// NewCoordinator creates a Coordinator over store.
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store}
}

// Upsert stamps provenance, applies the mutation and saves the record if it
// carries its primary quality field. A record that fails the gate is
// discarded without error.
func (c *Coordinator) Upsert(ctx context.Context, key RecordKey, request uuid.UUID, apply func(*ForecastRecord)) (bool, error) {
	persisted, err := c.store.Upsert(ctx, key, func(rec *ForecastRecord) bool {
		rec.APIRequest = request
		apply(rec)
		return rec.HasQuality()
	})
	if err != nil {
		return false, fmt.Errorf("upsert %s spot %d at %s: %w",
			key.Provider, key.SpotID, key.Timestamp.Format("2006-01-02T15:04Z"), err)
	}
	return persisted, nil
}

// Tally records the outcome of one upsert.
func (r *IngestResult) Tally(persisted bool) {
	if persisted {
		r.Persisted++
	} else {
		r.Discarded++
	}
}
