// Package normalize maps external place vocabularies onto the internal
// price tiers and cuisine tags. All functions are pure.
package normalize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPriceTier is assigned when the upstream price level is absent or
// outside the known vocabulary.
const DefaultPriceTier = "$$"

// DefaultCuisine is assigned when no category code maps to a known cuisine.
const DefaultCuisine = "international"

// priceTiers maps Places API price levels to display tiers.
var priceTiers = map[string]string{
	"PRICE_LEVEL_FREE":           "$",
	"PRICE_LEVEL_INEXPENSIVE":    "$",
	"PRICE_LEVEL_MODERATE":       "$$",
	"PRICE_LEVEL_EXPENSIVE":      "$$$",
	"PRICE_LEVEL_VERY_EXPENSIVE": "$$$$",
}

// PriceTier maps an external price-level code to one of the four tiers.
// Unknown codes fall back to DefaultPriceTier.
func PriceTier(code string) string {
	if tier, ok := priceTiers[code]; ok {
		return tier
	}
	return DefaultPriceTier
}

// cuisineByType maps Places API place types to the curated cuisine
// vocabulary. A place may carry several matching types.
var cuisineByType = map[string]string{
	"american_restaurant":       "american",
	"barbecue_restaurant":       "barbecue",
	"brazilian_restaurant":      "brazilian",
	"breakfast_restaurant":      "breakfast",
	"brunch_restaurant":         "brunch",
	"chinese_restaurant":        "chinese",
	"french_restaurant":         "french",
	"greek_restaurant":          "greek",
	"hamburger_restaurant":      "burgers",
	"indian_restaurant":         "indian",
	"indonesian_restaurant":     "indonesian",
	"italian_restaurant":        "italian",
	"japanese_restaurant":       "japanese",
	"korean_restaurant":         "korean",
	"lebanese_restaurant":       "lebanese",
	"mediterranean_restaurant":  "mediterranean",
	"mexican_restaurant":        "mexican",
	"middle_eastern_restaurant": "middle eastern",
	"pizza_restaurant":          "pizza",
	"ramen_restaurant":          "ramen",
	"seafood_restaurant":        "seafood",
	"spanish_restaurant":        "spanish",
	"steak_house":               "steakhouse",
	"sushi_restaurant":          "sushi",
	"thai_restaurant":           "thai",
	"turkish_restaurant":        "turkish",
	"vegan_restaurant":          "vegan",
	"vegetarian_restaurant":     "vegetarian",
	"vietnamese_restaurant":     "vietnamese",
}

// Cuisines maps external category codes to cuisine tag values, preserving
// the input order and removing duplicates. When nothing matches it returns
// the single DefaultCuisine.
func Cuisines(types []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range types {
		cuisine, ok := cuisineByType[t]
		if !ok || seen[cuisine] {
			continue
		}
		seen[cuisine] = true
		out = append(out, cuisine)
	}
	if len(out) == 0 {
		return []string{DefaultCuisine}
	}
	return out
}

var titleCaser = cases.Title(language.English)

// DisplayName renders a lower-cased tag value for human-facing output,
// e.g. "middle eastern" → "Middle Eastern".
func DisplayName(value string) string {
	return titleCaser.String(value)
}
