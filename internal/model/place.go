package model

// SearchLocation seeds one geo-bounded discovery query. Immutable for the
// duration of a run.
type SearchLocation struct {
	Name         string  `json:"name" yaml:"name"`
	Latitude     float64 `json:"latitude" yaml:"latitude"`
	Longitude    float64 `json:"longitude" yaml:"longitude"`
	RadiusMeters float64 `json:"radius_meters" yaml:"radius_meters"`
}

// Candidate is a place returned by discovery but not yet fetched or
// persisted. Exists only in memory during a run.
type Candidate struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

// ReviewSnippet is a raw review as returned by the detail fetch.
type ReviewSnippet struct {
	SourceRef string  `json:"source_ref"`
	Text      string  `json:"text"`
	Rating    float64 `json:"rating"`
	Author    string  `json:"author"`
}

// PlaceDetail holds the full attributes fetched for a candidate. Consumed
// immediately by normalization and persistence.
type PlaceDetail struct {
	PlaceID    string          `json:"place_id"`
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Rating     float64         `json:"rating"`
	PriceLevel string          `json:"price_level"`
	Phone      string          `json:"phone"`
	MapsURL    string          `json:"maps_url"`
	PhotoRefs  []string        `json:"photo_refs"`
	Reviews    []ReviewSnippet `json:"reviews"`
	Types      []string        `json:"types"`
}
