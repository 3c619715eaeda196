package pipeline

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/store"
)

// DuplicateChecker decides whether a fetched place is already in the store,
// either by its external identity or by a same-name venue at effectively the
// same coordinates.
type DuplicateChecker struct {
	store   store.Store
	degrees float64
}

// NewDuplicateChecker creates a DuplicateChecker. degrees is the coordinate
// delta under which two same-name venues count as one.
func NewDuplicateChecker(st store.Store, degrees float64) *DuplicateChecker {
	if degrees <= 0 {
		degrees = 0.0005
	}
	return &DuplicateChecker{store: st, degrees: degrees}
}

// Check returns a non-empty skip reason when the place duplicates an
// existing restaurant.
func (d *DuplicateChecker) Check(ctx context.Context, detail *model.PlaceDetail) (string, error) {
	existing, err := d.store.GetRestaurantByExternalID(ctx, model.SourceGoogle, detail.PlaceID)
	if err != nil {
		return "", eris.Wrap(err, "dedup: lookup by external id")
	}
	if existing != nil {
		return "already ingested", nil
	}

	// Same name at nearly the same spot is the same venue listed twice.
	matches, err := d.store.FindRestaurantsByName(ctx, detail.Name)
	if err != nil {
		return "", eris.Wrap(err, "dedup: lookup by name")
	}
	for _, m := range matches {
		if math.Abs(m.Latitude-detail.Latitude) < d.degrees &&
			math.Abs(m.Longitude-detail.Longitude) < d.degrees {
			return "same name and coordinates as existing restaurant", nil
		}
	}

	return "", nil
}
