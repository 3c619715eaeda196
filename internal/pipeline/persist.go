package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/normalize"
	"github.com/tastevine/ingest-cli/internal/store"
)

// Persister writes a fetched place and its capped asset sets to the store.
type Persister struct {
	store      store.Store
	maxImages  int
	maxReviews int
}

// NewPersister creates a Persister. maxImages and maxReviews cap the assets
// stored per restaurant.
func NewPersister(st store.Store, maxImages, maxReviews int) *Persister {
	if maxImages <= 0 {
		maxImages = 8
	}
	if maxReviews <= 0 {
		maxReviews = 5
	}
	return &Persister{store: st, maxImages: maxImages, maxReviews: maxReviews}
}

// Persist creates the restaurant row, its image and review rows, and the
// cuisine tags derived from the place types. Asset inserts are
// insert-or-skip so a re-run never duplicates rows.
func (p *Persister) Persist(ctx context.Context, detail *model.PlaceDetail) (*model.Restaurant, error) {
	rest := &model.Restaurant{
		ID:         uuid.NewString(),
		Source:     model.SourceGoogle,
		ExternalID: detail.PlaceID,
		Name:       detail.Name,
		Latitude:   detail.Latitude,
		Longitude:  detail.Longitude,
		PriceTier:  normalize.PriceTier(detail.PriceLevel),
		Rating:     detail.Rating,
		Address:    detail.Address,
		Phone:      detail.Phone,
		MapsURL:    detail.MapsURL,
	}
	if err := p.store.CreateRestaurant(ctx, rest); err != nil {
		return nil, eris.Wrap(err, "persist: create restaurant")
	}

	var images int
	for i, ref := range detail.PhotoRefs {
		if i >= p.maxImages {
			break
		}
		inserted, err := p.store.InsertImage(ctx, &model.Image{
			ID:           uuid.NewString(),
			RestaurantID: rest.ID,
			SourceRef:    ref,
		})
		if err != nil {
			return nil, eris.Wrap(err, "persist: insert image")
		}
		if inserted {
			images++
		}
	}

	var reviews int
	for i, snippet := range detail.Reviews {
		if i >= p.maxReviews {
			break
		}
		inserted, err := p.store.InsertReview(ctx, &model.Review{
			ID:           uuid.NewString(),
			RestaurantID: rest.ID,
			SourceRef:    reviewSourceRef(snippet),
			Body:         snippet.Text,
			Rating:       snippet.Rating,
			Author:       snippet.Author,
		})
		if err != nil {
			return nil, eris.Wrap(err, "persist: insert review")
		}
		if inserted {
			reviews++
		}
	}

	if err := p.tagCuisines(ctx, rest.ID, detail.Types); err != nil {
		return nil, err
	}

	zap.L().Debug("restaurant persisted",
		zap.String("restaurant_id", rest.ID),
		zap.String("name", rest.Name),
		zap.Int("images", images),
		zap.Int("reviews", reviews),
	)
	return rest, nil
}

func (p *Persister) tagCuisines(ctx context.Context, restaurantID string, types []string) error {
	tagType, err := p.store.GetOrCreateTagType(ctx, model.TagTypeCuisine)
	if err != nil {
		return eris.Wrap(err, "persist: cuisine tag type")
	}
	for _, cuisine := range normalize.Cuisines(types) {
		tag, err := p.store.GetOrCreateTag(ctx, cuisine, tagType.ID)
		if err != nil {
			return eris.Wrapf(err, "persist: cuisine tag %q", cuisine)
		}
		if err := p.store.TagRestaurant(ctx, restaurantID, tag.ID); err != nil {
			return eris.Wrapf(err, "persist: attach cuisine %q", cuisine)
		}
	}
	return nil
}

// reviewSourceRef prefers the upstream review resource name; reviews that
// arrive without one fall back to a content hash so re-runs still key on a
// stable value.
func reviewSourceRef(snippet model.ReviewSnippet) string {
	if snippet.SourceRef != "" {
		return snippet.SourceRef
	}
	sum := sha256.Sum256([]byte(snippet.Author + "\x00" + snippet.Text))
	return "hash:" + hex.EncodeToString(sum[:16])
}
