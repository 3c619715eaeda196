package enrich

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/resilience"
	"github.com/tastevine/ingest-cli/internal/store"
	"github.com/tastevine/ingest-cli/pkg/anthropic"
)

const reviewSystemPrompt = `You are extracting descriptive tags from restaurant reviews. Given one
review, pull out exactly 5 short lowercase phrases that capture what the
reviewer experienced. Label each phrase "cuisine" when it describes food
or drink, or "ambiance" when it describes the space, service, or mood.

Respond with only a JSON object in this exact shape:
{"tags": [{"phrase": "...", "category": "cuisine|ambiance"}, ...]}`

// ReviewTagger submits each stored review body to the classification model
// and attaches the extracted phrases as tags.
type ReviewTagger struct {
	ai    anthropic.Client
	store store.Store
	pacer *resilience.Pacer
	retry resilience.RetryConfig
	model string
}

// NewReviewTagger wires a ReviewTagger from its dependencies.
func NewReviewTagger(ai anthropic.Client, st store.Store, pacer *resilience.Pacer, retry resilience.RetryConfig, modelID string) *ReviewTagger {
	return &ReviewTagger{
		ai:    ai,
		store: st,
		pacer: pacer,
		retry: retry,
		model: modelID,
	}
}

// TagReviews tags every stored review for a restaurant. Reviews with empty
// bodies are skipped without a model call. A failure on one review is logged
// and skipped; the rest of the set still runs.
func (t *ReviewTagger) TagReviews(ctx context.Context, restaurantID string) (tagged, failed int, err error) {
	reviews, err := t.store.ListReviews(ctx, restaurantID)
	if err != nil {
		return 0, 0, eris.Wrap(err, "enrich: list reviews")
	}

	for _, rev := range reviews {
		if rev.Body == "" {
			continue
		}
		if err := t.tagOne(ctx, rev); err != nil {
			failed++
			zap.L().Warn("review tagging failed",
				zap.String("restaurant_id", restaurantID),
				zap.String("review_id", rev.ID),
				zap.Error(err),
			)
			continue
		}
		tagged++
	}

	return tagged, failed, nil
}

func (t *ReviewTagger) tagOne(ctx context.Context, rev model.Review) error {
	req := anthropic.MessageRequest{
		Model:     t.model,
		MaxTokens: 512,
		System:    anthropic.BuildCachedSystemBlocks(reviewSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("Review:\n%s", rev.Body)},
		},
	}

	cfg := t.retry
	cfg.Op = "anthropic: tag review"
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := t.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		return t.ai.CreateMessage(ctx, req)
	})
	if err != nil {
		return err
	}
	resp.Usage.LogCost(t.model, "review_tag")

	tags, err := ParseReviewTags(extractText(resp))
	if err != nil {
		return err
	}

	// One tag-type lookup per distinct label within the response.
	tagTypes := map[string]*model.TagType{}
	for _, tag := range tags {
		tagType, ok := tagTypes[tag.Category]
		if !ok {
			tagType, err = t.store.GetOrCreateTagType(ctx, tag.Category)
			if err != nil {
				return eris.Wrapf(err, "enrich: tag type %q", tag.Category)
			}
			tagTypes[tag.Category] = tagType
		}

		stored, err := t.store.GetOrCreateTag(ctx, tag.Phrase, tagType.ID)
		if err != nil {
			return eris.Wrapf(err, "enrich: tag %q", tag.Phrase)
		}
		if err := t.store.TagReview(ctx, rev.ID, stored.ID); err != nil {
			return eris.Wrapf(err, "enrich: attach tag %q", tag.Phrase)
		}
	}

	return nil
}
