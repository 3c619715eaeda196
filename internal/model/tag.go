package model

// Tag type names shared across the pipeline. Image and review tags reuse
// the same vocabulary tables as restaurant cuisine tags.
const (
	TagTypeCuisine  = "cuisine"
	TagTypeAmbiance = "ambiance"
)

// TagType is a category of descriptive labels (cuisine, ambiance).
type TagType struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Tag is a reusable descriptive label, unique per (value, tag type).
type Tag struct {
	ID        string `json:"id" db:"id"`
	Value     string `json:"value" db:"value"`
	TagTypeID string `json:"tag_type_id" db:"tag_type_id"`
}
