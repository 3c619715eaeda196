package store

import (
	"context"

	"github.com/tastevine/ingest-cli/internal/model"
)

// Store defines the persistence interface for the ingestion pipeline.
// Lookups return (nil, nil) when no row matches. Asset inserts report
// whether a row was actually written, so re-runs skip instead of
// duplicating.
type Store interface {
	// Restaurants
	GetRestaurantByExternalID(ctx context.Context, source, externalID string) (*model.Restaurant, error)
	FindRestaurantsByName(ctx context.Context, name string) ([]model.Restaurant, error)
	CreateRestaurant(ctx context.Context, r *model.Restaurant) error
	UpdateRestaurantScores(ctx context.Context, restaurantID string, ambiance, foodQuality *float64) error

	// Images
	InsertImage(ctx context.Context, img *model.Image) (bool, error)
	ListImages(ctx context.Context, restaurantID string) ([]model.Image, error)
	SetImageCategory(ctx context.Context, imageID, category string) error

	// Reviews
	InsertReview(ctx context.Context, rev *model.Review) (bool, error)
	ListReviews(ctx context.Context, restaurantID string) ([]model.Review, error)

	// Tag vocabulary
	GetOrCreateTagType(ctx context.Context, name string) (*model.TagType, error)
	GetOrCreateTag(ctx context.Context, value, tagTypeID string) (*model.Tag, error)
	TagRestaurant(ctx context.Context, restaurantID, tagID string) error
	TagImage(ctx context.Context, imageID, tagID string) error
	TagReview(ctx context.Context, reviewID, tagID string) error
	RestaurantTagValues(ctx context.Context, restaurantID string) ([]string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
