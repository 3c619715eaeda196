package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tastevine/ingest-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// runs without a postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS restaurants (
	id                 TEXT PRIMARY KEY,
	source             TEXT NOT NULL,
	external_id        TEXT NOT NULL,
	name               TEXT NOT NULL,
	latitude           REAL NOT NULL,
	longitude          REAL NOT NULL,
	price_tier         TEXT NOT NULL DEFAULT '$$',
	rating             REAL NOT NULL DEFAULT 0,
	address            TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	maps_url           TEXT NOT NULL DEFAULT '',
	ambiance_score     REAL,
	food_quality_score REAL,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants(name);

CREATE TABLE IF NOT EXISTS restaurant_images (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	source_ref    TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (restaurant_id, source_ref)
);

CREATE TABLE IF NOT EXISTS restaurant_reviews (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	source_ref    TEXT NOT NULL,
	body          TEXT NOT NULL DEFAULT '',
	rating        REAL NOT NULL DEFAULT 0,
	author        TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteRestaurantColumns = `id, source, external_id, name, latitude, longitude, price_tier, rating, address, phone, maps_url, ambiance_score, food_quality_score, created_at, updated_at`

type sqliteRow interface {
	Scan(dest ...any) error
}

func scanSQLiteRestaurant(row sqliteRow) (*model.Restaurant, error) {
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

func (s *SQLiteStore) GetRestaurantByExternalID(ctx context.Context, source, externalID string) (*model.Restaurant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRestaurantColumns+` FROM restaurants WHERE source = ? AND external_id = ?`,
		source, externalID,
	)
	r, err := scanSQLiteRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get restaurant by external id")
	}
	return r, nil
}

func (s *SQLiteStore) FindRestaurantsByName(ctx context.Context, name string) ([]model.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteRestaurantColumns+` FROM restaurants WHERE name = ?`,
		name,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find restaurants by name")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		r, err := scanSQLiteRestaurant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan restaurant")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: find restaurants by name")
}

func (s *SQLiteStore) CreateRestaurant(ctx context.Context, r *model.Restaurant) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurants (`+sqliteRestaurantColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.ExternalID, r.Name, r.Latitude, r.Longitude,
		r.PriceTier, r.Rating, r.Address, r.Phone, r.MapsURL,
		r.AmbianceScore, r.FoodQualityScore, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert restaurant")
}

func (s *SQLiteStore) UpdateRestaurantScores(ctx context.Context, restaurantID string, ambiance, foodQuality *float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE restaurants SET
			ambiance_score = COALESCE(?, ambiance_score),
			food_quality_score = COALESCE(?, food_quality_score),
			updated_at = ?
		WHERE id = ?`,
		ambiance, foodQuality, time.Now().UTC(), restaurantID,
	)
	return eris.Wrap(err, "sqlite: update restaurant scores")
}

func (s *SQLiteStore) InsertImage(ctx context.Context, img *model.Image) (bool, error) {
	if img.ID == "" {
		img.ID = uuid.New().String()
	}
	img.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurant_images (id, restaurant_id, source_ref, category, created_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (restaurant_id, source_ref) DO NOTHING`,
		img.ID, img.RestaurantID, img.SourceRef, img.Category, img.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert image")
	}
	n, err := res.RowsAffected()
	return n > 0, eris.Wrap(err, "sqlite: insert image")
}

func (s *SQLiteStore) ListImages(ctx context.Context, restaurantID string) ([]model.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, restaurant_id, source_ref, category, created_at FROM restaurant_images WHERE restaurant_id = ? ORDER BY created_at, id`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list images")
	}
	defer rows.Close()

	var out []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.RestaurantID, &img.SourceRef, &img.Category, &img.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan image")
		}
		out = append(out, img)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list images")
}

func (s *SQLiteStore) SetImageCategory(ctx context.Context, imageID, category string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE restaurant_images SET category = ? WHERE id = ?`,
		category, imageID,
	)
	return eris.Wrap(err, "sqlite: set image category")
}

func (s *SQLiteStore) InsertReview(ctx context.Context, rev *model.Review) (bool, error) {
	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	rev.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurant_reviews (id, restaurant_id, source_ref, body, rating, author, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (restaurant_id, source_ref) DO NOTHING`,
		rev.ID, rev.RestaurantID, rev.SourceRef, rev.Body, rev.Rating, rev.Author, rev.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert review")
	}
	n, err := res.RowsAffected()
	return n > 0, eris.Wrap(err, "sqlite: insert review")
}

func (s *SQLiteStore) ListReviews(ctx context.Context, restaurantID string) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, restaurant_id, source_ref, body, rating, author, created_at FROM restaurant_reviews WHERE restaurant_id = ? ORDER BY created_at, id`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reviews")
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ID, &rev.RestaurantID, &rev.SourceRef, &rev.Body, &rev.Rating, &rev.Author, &rev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review")
		}
		out = append(out, rev)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list reviews")
}

func (s *SQLiteStore) GetOrCreateTagType(ctx context.Context, name string) (*model.TagType, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tag_types (id, name) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`,
		uuid.New().String(), name,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert tag type")
	}

	var tt model.TagType
	err = s.db.QueryRowContext(ctx, `SELECT id, name FROM tag_types WHERE name = ?`, name).Scan(&tt.ID, &tt.Name)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get tag type")
	}
	return &tt, nil
}

func (s *SQLiteStore) GetOrCreateTag(ctx context.Context, value, tagTypeID string) (*model.Tag, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, value, tag_type_id) VALUES (?, ?, ?) ON CONFLICT (value, tag_type_id) DO NOTHING`,
		uuid.New().String(), value, tagTypeID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert tag")
	}

	var t model.Tag
	err = s.db.QueryRowContext(ctx,
		`SELECT id, value, tag_type_id FROM tags WHERE value = ? AND tag_type_id = ?`,
		value, tagTypeID,
	).Scan(&t.ID, &t.Value, &t.TagTypeID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get tag")
	}
	return &t, nil
}

func (s *SQLiteStore) TagRestaurant(ctx context.Context, restaurantID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurant_tags (restaurant_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		restaurantID, tagID,
	)
	return eris.Wrap(err, "sqlite: tag restaurant")
}

func (s *SQLiteStore) TagImage(ctx context.Context, imageID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO image_tags (image_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		imageID, tagID,
	)
	return eris.Wrap(err, "sqlite: tag image")
}

func (s *SQLiteStore) TagReview(ctx context.Context, reviewID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_tags (review_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		reviewID, tagID,
	)
	return eris.Wrap(err, "sqlite: tag review")
}

func (s *SQLiteStore) RestaurantTagValues(ctx context.Context, restaurantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.value FROM tags t WHERE t.id IN (
			SELECT tag_id FROM restaurant_tags WHERE restaurant_id = ?
			UNION
			SELECT it.tag_id FROM image_tags it
				JOIN restaurant_images i ON i.id = it.image_id
				WHERE i.restaurant_id = ?
			UNION
			SELECT rt.tag_id FROM review_tags rt
				JOIN restaurant_reviews r ON r.id = rt.review_id
				WHERE r.restaurant_id = ?
		)
		ORDER BY t.value`,
		restaurantID, restaurantID, restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: restaurant tag values")
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tag value")
		}
		values = append(values, v)
	}
	return values, eris.Wrap(rows.Err(), "sqlite: restaurant tag values")
}
