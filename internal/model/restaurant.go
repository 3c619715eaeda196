package model

import "time"

// SourceGoogle identifies records ingested from the Google Places API.
const SourceGoogle = "google"

// Restaurant is the canonical persisted venue.
type Restaurant struct {
	ID               string    `json:"id" db:"id"`
	Source           string    `json:"source" db:"source"`
	ExternalID       string    `json:"external_id" db:"external_id"`
	Name             string    `json:"name" db:"name"`
	Latitude         float64   `json:"latitude" db:"latitude"`
	Longitude        float64   `json:"longitude" db:"longitude"`
	PriceTier        string    `json:"price_tier" db:"price_tier"`
	Rating           float64   `json:"rating" db:"rating"`
	Address          string    `json:"address,omitempty" db:"address"`
	Phone            string    `json:"phone,omitempty" db:"phone"`
	MapsURL          string    `json:"maps_url,omitempty" db:"maps_url"`
	AmbianceScore    *float64  `json:"ambiance_score,omitempty" db:"ambiance_score"`
	FoodQualityScore *float64  `json:"food_quality_score,omitempty" db:"food_quality_score"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Image is a photo asset belonging to exactly one restaurant. SourceRef is
// the upstream photo resource name and keys insert-or-skip on re-runs.
type Image struct {
	ID           string    `json:"id" db:"id"`
	RestaurantID string    `json:"restaurant_id" db:"restaurant_id"`
	SourceRef    string    `json:"source_ref" db:"source_ref"`
	Category     string    `json:"category,omitempty" db:"category"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Review is a review snippet belonging to exactly one restaurant.
type Review struct {
	ID           string    `json:"id" db:"id"`
	RestaurantID string    `json:"restaurant_id" db:"restaurant_id"`
	SourceRef    string    `json:"source_ref" db:"source_ref"`
	Body         string    `json:"body" db:"body"`
	Rating       float64   `json:"rating" db:"rating"`
	Author       string    `json:"author,omitempty" db:"author"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
