// Package enrich submits persisted assets to the classification service and
// attaches derived tags and composite scores.
package enrich

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tastevine/ingest-cli/pkg/anthropic"
)

// tagsPerAsset is the number of descriptive tags requested per image or
// review. Responses with any other count are rejected.
const tagsPerAsset = 5

// Image categories the classifier may return.
const (
	CategoryAmbiance = "ambiance"
	CategoryFood     = "food"
	CategoryOther    = "other"
)

// ImageClassification is the validated result of one image call.
type ImageClassification struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// ParseImageClassification decodes and validates a classification response.
// Any deviation from the expected shape rejects the response rather than
// trusting it downstream.
func ParseImageClassification(text string) (*ImageClassification, error) {
	var result ImageClassification
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
		return nil, eris.Wrap(err, "enrich: decode image classification")
	}

	result.Category = strings.ToLower(strings.TrimSpace(result.Category))
	switch result.Category {
	case CategoryAmbiance, CategoryFood, CategoryOther:
	default:
		return nil, eris.Errorf("enrich: unknown image category %q", result.Category)
	}

	if len(result.Tags) != tagsPerAsset {
		return nil, eris.Errorf("enrich: expected %d image tags, got %d", tagsPerAsset, len(result.Tags))
	}
	for i, tag := range result.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return nil, eris.New("enrich: empty image tag")
		}
		result.Tags[i] = tag
	}
	return &result, nil
}

// ReviewTag is one labeled phrase from a review-tagging response.
type ReviewTag struct {
	Phrase   string `json:"phrase"`
	Category string `json:"category"`
}

// ParseReviewTags decodes and validates a review-tagging response. Phrases
// are lower-cased; each must be labeled cuisine or ambiance.
func ParseReviewTags(text string) ([]ReviewTag, error) {
	var result struct {
		Tags []ReviewTag `json:"tags"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
		return nil, eris.Wrap(err, "enrich: decode review tags")
	}

	if len(result.Tags) != tagsPerAsset {
		return nil, eris.Errorf("enrich: expected %d review tags, got %d", tagsPerAsset, len(result.Tags))
	}
	for i, tag := range result.Tags {
		phrase := strings.ToLower(strings.TrimSpace(tag.Phrase))
		if phrase == "" {
			return nil, eris.New("enrich: empty review tag phrase")
		}
		category := strings.ToLower(strings.TrimSpace(tag.Category))
		if category != CategoryAmbiance && category != "cuisine" {
			return nil, eris.Errorf("enrich: unknown review tag category %q", tag.Category)
		}
		result.Tags[i] = ReviewTag{Phrase: phrase, Category: category}
	}
	return result.Tags, nil
}

// ParseRubricScore decodes a scoring response and validates that every
// named dimension plus "overall" is present and numeric.
func ParseRubricScore(text string, dimensions []string) (float64, error) {
	var scores map[string]float64
	if err := json.Unmarshal([]byte(cleanJSON(text)), &scores); err != nil {
		return 0, eris.Wrap(err, "enrich: decode rubric score")
	}

	for _, dim := range dimensions {
		if _, ok := scores[dim]; !ok {
			return 0, eris.Errorf("enrich: rubric score missing dimension %q", dim)
		}
	}
	overall, ok := scores["overall"]
	if !ok {
		return 0, eris.New("enrich: rubric score missing overall")
	}
	return overall, nil
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
