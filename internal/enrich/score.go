package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/resilience"
	"github.com/tastevine/ingest-cli/internal/store"
	"github.com/tastevine/ingest-cli/pkg/anthropic"
)

// rubric names a scoring pass and the dimensions the model must score.
type rubric struct {
	name       string
	focus      string
	dimensions []string
}

var ambianceRubric = rubric{
	name:       "ambiance",
	focus:      "the atmosphere, decor, and overall feel of the space",
	dimensions: []string{"vibrant", "romantic", "trendy", "stylish", "immersive", "inviting"},
}

var foodQualityRubric = rubric{
	name:       "food_quality",
	focus:      "the quality, craft, and appeal of the food and drink",
	dimensions: []string{"flavorful", "authentic", "satisfying", "comforting", "aromatic", "appetizing"},
}

// ScoreAnalyzer runs the two rubric passes over a restaurant's accumulated
// tag vocabulary and persists the composite scores.
type ScoreAnalyzer struct {
	ai    anthropic.Client
	store store.Store
	pacer *resilience.Pacer
	retry resilience.RetryConfig
	model string
}

// NewScoreAnalyzer wires a ScoreAnalyzer from its dependencies.
func NewScoreAnalyzer(ai anthropic.Client, st store.Store, pacer *resilience.Pacer, retry resilience.RetryConfig, modelID string) *ScoreAnalyzer {
	return &ScoreAnalyzer{
		ai:    ai,
		store: st,
		pacer: pacer,
		retry: retry,
		model: modelID,
	}
}

// Score runs both rubric passes for a restaurant. A malformed response fails
// only that pass; whichever passes succeed are persisted. The returned error
// is reserved for store failures.
func (a *ScoreAnalyzer) Score(ctx context.Context, rest *model.Restaurant) error {
	values, err := a.store.RestaurantTagValues(ctx, rest.ID)
	if err != nil {
		return eris.Wrap(err, "enrich: tag values")
	}

	ambiance := a.runPass(ctx, rest, values, ambianceRubric)
	foodQuality := a.runPass(ctx, rest, values, foodQualityRubric)

	if ambiance == nil && foodQuality == nil {
		zap.L().Warn("no rubric pass succeeded", zap.String("restaurant_id", rest.ID))
		return nil
	}

	if err := a.store.UpdateRestaurantScores(ctx, rest.ID, ambiance, foodQuality); err != nil {
		return eris.Wrap(err, "enrich: persist scores")
	}
	rest.AmbianceScore = ambiance
	rest.FoodQualityScore = foodQuality
	return nil
}

// runPass returns the clamped overall score for one rubric, or nil when the
// call or decode failed.
func (a *ScoreAnalyzer) runPass(ctx context.Context, rest *model.Restaurant, values []string, r rubric) *float64 {
	req := anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: 512,
		System:    anthropic.BuildCachedSystemBlocks(rubricPrompt(r)),
		Messages: []anthropic.Message{
			{Role: "user", Content: scoringInput(rest, values)},
		},
	}

	cfg := a.retry
	cfg.Op = "anthropic: score " + r.name
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := a.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		return a.ai.CreateMessage(ctx, req)
	})
	if err != nil {
		zap.L().Warn("rubric pass failed",
			zap.String("restaurant_id", rest.ID),
			zap.String("rubric", r.name),
			zap.Error(err),
		)
		return nil
	}
	resp.Usage.LogCost(a.model, "score_"+r.name)

	overall, err := ParseRubricScore(extractText(resp), r.dimensions)
	if err != nil {
		zap.L().Warn("rubric response rejected",
			zap.String("restaurant_id", rest.ID),
			zap.String("rubric", r.name),
			zap.Error(err),
		)
		return nil
	}

	overall = clamp(overall, 0, 10)
	return &overall
}

func rubricPrompt(r rubric) string {
	return fmt.Sprintf(`You are scoring a restaurant on %s, based only on the descriptive tags
derived from its photos and reviews.

Score each of these dimensions from 0 to 10: %s.
Then give a single "overall" score from 0 to 10 weighing them together.

Respond with only a JSON object mapping each dimension name and "overall"
to a number, for example:
{"%s": 7, ..., "overall": 6.5}`, r.focus, strings.Join(r.dimensions, ", "), r.dimensions[0])
}

func scoringInput(rest *model.Restaurant, values []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Restaurant: %s\n", rest.Name)
	if rest.PriceTier != "" {
		fmt.Fprintf(&b, "Price tier: %s\n", rest.PriceTier)
	}
	if rest.Rating > 0 {
		fmt.Fprintf(&b, "Public rating: %.1f\n", rest.Rating)
	}
	b.WriteString("Tags:\n")
	for _, v := range values {
		fmt.Fprintf(&b, "- %s\n", v)
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
