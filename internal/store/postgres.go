package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tastevine/ingest-cli/internal/db"
	"github.com/tastevine/ingest-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS restaurants (
	id                 TEXT PRIMARY KEY,
	source             TEXT NOT NULL,
	external_id        TEXT NOT NULL,
	name               TEXT NOT NULL,
	latitude           DOUBLE PRECISION NOT NULL,
	longitude          DOUBLE PRECISION NOT NULL,
	price_tier         TEXT NOT NULL DEFAULT '$$',
	rating             DOUBLE PRECISION NOT NULL DEFAULT 0,
	address            TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	maps_url           TEXT NOT NULL DEFAULT '',
	ambiance_score     DOUBLE PRECISION,
	food_quality_score DOUBLE PRECISION,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants(name);

CREATE TABLE IF NOT EXISTS restaurant_images (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	source_ref    TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (restaurant_id, source_ref)
);

CREATE TABLE IF NOT EXISTS restaurant_reviews (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	source_ref    TEXT NOT NULL,
	body          TEXT NOT NULL DEFAULT '',
	rating        DOUBLE PRECISION NOT NULL DEFAULT 0,
	author        TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (restaurant_id, source_ref)
);

CREATE TABLE IF NOT EXISTS tag_types (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tags (
	id          TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	tag_type_id TEXT NOT NULL REFERENCES tag_types(id),
	UNIQUE (value, tag_type_id)
);

CREATE TABLE IF NOT EXISTS restaurant_tags (
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	tag_id        TEXT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (restaurant_id, tag_id)
);

CREATE TABLE IF NOT EXISTS image_tags (
	image_id TEXT NOT NULL REFERENCES restaurant_images(id),
	tag_id   TEXT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (image_id, tag_id)
);

CREATE TABLE IF NOT EXISTS review_tags (
	review_id TEXT NOT NULL REFERENCES restaurant_reviews(id),
	tag_id    TEXT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (review_id, tag_id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const restaurantColumns = `id, source, external_id, name, latitude, longitude, price_tier, rating, address, phone, maps_url, ambiance_score, food_quality_score, created_at, updated_at`

func scanRestaurant(row pgx.Row) (*model.Restaurant, error) {
	var r model.Restaurant
	err := row.Scan(
		&r.ID, &r.Source, &r.ExternalID, &r.Name, &r.Latitude, &r.Longitude,
		&r.PriceTier, &r.Rating, &r.Address, &r.Phone, &r.MapsURL,
		&r.AmbianceScore, &r.FoodQualityScore, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) GetRestaurantByExternalID(ctx context.Context, source, externalID string) (*model.Restaurant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE source = $1 AND external_id = $2`,
		source, externalID,
	)
	r, err := scanRestaurant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get restaurant by external id")
	}
	return r, nil
}

func (s *PostgresStore) FindRestaurantsByName(ctx context.Context, name string) ([]model.Restaurant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE name = $1`,
		name,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find restaurants by name")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan restaurant")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: find restaurants by name")
}

func (s *PostgresStore) CreateRestaurant(ctx context.Context, r *model.Restaurant) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO restaurants (`+restaurantColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.Source, r.ExternalID, r.Name, r.Latitude, r.Longitude,
		r.PriceTier, r.Rating, r.Address, r.Phone, r.MapsURL,
		r.AmbianceScore, r.FoodQualityScore, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert restaurant")
}

func (s *PostgresStore) UpdateRestaurantScores(ctx context.Context, restaurantID string, ambiance, foodQuality *float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE restaurants SET
			ambiance_score = COALESCE($1, ambiance_score),
			food_quality_score = COALESCE($2, food_quality_score),
			updated_at = $3
		WHERE id = $4`,
		ambiance, foodQuality, time.Now().UTC(), restaurantID,
	)
	return eris.Wrap(err, "postgres: update restaurant scores")
}

func (s *PostgresStore) InsertImage(ctx context.Context, img *model.Image) (bool, error) {
	if img.ID == "" {
		img.ID = uuid.New().String()
	}
	img.CreatedAt = time.Now().UTC()

	inserted, err := db.InsertIgnore(ctx, s.pool, "restaurant_images",
		[]string{"id", "restaurant_id", "source_ref", "category", "created_at"},
		[]string{"restaurant_id", "source_ref"},
		[]any{img.ID, img.RestaurantID, img.SourceRef, img.Category, img.CreatedAt},
	)
	return inserted, eris.Wrap(err, "postgres: insert image")
}

func (s *PostgresStore) ListImages(ctx context.Context, restaurantID string) ([]model.Image, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, restaurant_id, source_ref, category, created_at FROM restaurant_images WHERE restaurant_id = $1 ORDER BY created_at, id`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list images")
	}
	defer rows.Close()

	var out []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.RestaurantID, &img.SourceRef, &img.Category, &img.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan image")
		}
		out = append(out, img)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list images")
}

func (s *PostgresStore) SetImageCategory(ctx context.Context, imageID, category string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE restaurant_images SET category = $1 WHERE id = $2`,
		category, imageID,
	)
	return eris.Wrap(err, "postgres: set image category")
}

func (s *PostgresStore) InsertReview(ctx context.Context, rev *model.Review) (bool, error) {
	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	rev.CreatedAt = time.Now().UTC()

	inserted, err := db.InsertIgnore(ctx, s.pool, "restaurant_reviews",
		[]string{"id", "restaurant_id", "source_ref", "body", "rating", "author", "created_at"},
		[]string{"restaurant_id", "source_ref"},
		[]any{rev.ID, rev.RestaurantID, rev.SourceRef, rev.Body, rev.Rating, rev.Author, rev.CreatedAt},
	)
	return inserted, eris.Wrap(err, "postgres: insert review")
}

func (s *PostgresStore) ListReviews(ctx context.Context, restaurantID string) ([]model.Review, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, restaurant_id, source_ref, body, rating, author, created_at FROM restaurant_reviews WHERE restaurant_id = $1 ORDER BY created_at, id`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reviews")
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ID, &rev.RestaurantID, &rev.SourceRef, &rev.Body, &rev.Rating, &rev.Author, &rev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan review")
		}
		out = append(out, rev)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list reviews")
}

func (s *PostgresStore) GetOrCreateTagType(ctx context.Context, name string) (*model.TagType, error) {
	_, err := db.InsertIgnore(ctx, s.pool, "tag_types",
		[]string{"id", "name"},
		[]string{"name"},
		[]any{uuid.New().String(), name},
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert tag type")
	}

	var tt model.TagType
	err = s.pool.QueryRow(ctx, `SELECT id, name FROM tag_types WHERE name = $1`, name).Scan(&tt.ID, &tt.Name)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get tag type")
	}
	return &tt, nil
}

func (s *PostgresStore) GetOrCreateTag(ctx context.Context, value, tagTypeID string) (*model.Tag, error) {
	_, err := db.InsertIgnore(ctx, s.pool, "tags",
		[]string{"id", "value", "tag_type_id"},
		[]string{"value", "tag_type_id"},
		[]any{uuid.New().String(), value, tagTypeID},
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert tag")
	}

	var t model.Tag
	err = s.pool.QueryRow(ctx,
		`SELECT id, value, tag_type_id FROM tags WHERE value = $1 AND tag_type_id = $2`,
		value, tagTypeID,
	).Scan(&t.ID, &t.Value, &t.TagTypeID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get tag")
	}
	return &t, nil
}

func (s *PostgresStore) TagRestaurant(ctx context.Context, restaurantID, tagID string) error {
	_, err := db.InsertIgnore(ctx, s.pool, "restaurant_tags",
		[]string{"restaurant_id", "tag_id"},
		[]string{"restaurant_id", "tag_id"},
		[]any{restaurantID, tagID},
	)
	return eris.Wrap(err, "postgres: tag restaurant")
}

func (s *PostgresStore) TagImage(ctx context.Context, imageID, tagID string) error {
	_, err := db.InsertIgnore(ctx, s.pool, "image_tags",
		[]string{"image_id", "tag_id"},
		[]string{"image_id", "tag_id"},
		[]any{imageID, tagID},
	)
	return eris.Wrap(err, "postgres: tag image")
}

func (s *PostgresStore) TagReview(ctx context.Context, reviewID, tagID string) error {
	_, err := db.InsertIgnore(ctx, s.pool, "review_tags",
		[]string{"review_id", "tag_id"},
		[]string{"review_id", "tag_id"},
		[]any{reviewID, tagID},
	)
	return eris.Wrap(err, "postgres: tag review")
}

func (s *PostgresStore) RestaurantTagValues(ctx context.Context, restaurantID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT t.value FROM tags t WHERE t.id IN (
			SELECT tag_id FROM restaurant_tags WHERE restaurant_id = $1
			UNION
			SELECT it.tag_id FROM image_tags it
				JOIN restaurant_images i ON i.id = it.image_id
				WHERE i.restaurant_id = $1
			UNION
			SELECT rt.tag_id FROM review_tags rt
				JOIN restaurant_reviews r ON r.id = rt.review_id
				WHERE r.restaurant_id = $1
		)
		ORDER BY t.value`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: restaurant tag values")
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tag value")
		}
		values = append(values, v)
	}
	return values, eris.Wrap(rows.Err(), "postgres: restaurant tag values")
}
