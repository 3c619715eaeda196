package enrich

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/resilience"
	"github.com/tastevine/ingest-cli/internal/store"
	"github.com/tastevine/ingest-cli/pkg/anthropic"
	"github.com/tastevine/ingest-cli/pkg/google"
)

const imageSystemPrompt = `You are classifying photographs of restaurants. For each image, decide
whether it primarily shows the restaurant's ambiance (interior, decor,
seating, lighting, exterior), food (dishes, drinks, plating), or other
(menus, people, unrelated subjects).

Then produce exactly 5 descriptive multi-word tags for the image. Tags
must be lowercase short phrases, for example "dim candlelit seating" or
"rustic wood-fired pizza".

Respond with only a JSON object in this exact shape:
{"category": "ambiance|food|other", "tags": ["...", "...", "...", "...", "..."]}`

// ImageClassifier downloads each persisted image, submits it to the
// classification model, and attaches the resulting category and tags.
type ImageClassifier struct {
	ai         anthropic.Client
	google     google.Client
	store      store.Store
	photoPacer *resilience.Pacer
	llmPacer   *resilience.Pacer
	retry      resilience.RetryConfig
	model      string
	imageDelay time.Duration
}

// NewImageClassifier wires an ImageClassifier from its dependencies.
func NewImageClassifier(ai anthropic.Client, gc google.Client, st store.Store, photoPacer, llmPacer *resilience.Pacer, retry resilience.RetryConfig, modelID string, imageDelay time.Duration) *ImageClassifier {
	return &ImageClassifier{
		ai:         ai,
		google:     gc,
		store:      st,
		photoPacer: photoPacer,
		llmPacer:   llmPacer,
		retry:      retry,
		model:      modelID,
		imageDelay: imageDelay,
	}
}

// TagImages classifies every stored image for a restaurant. A failure on one
// image is logged and skipped; the rest of the set still runs. The returned
// error is reserved for failures that prevent the stage entirely.
func (c *ImageClassifier) TagImages(ctx context.Context, restaurantID string) (tagged, failed int, err error) {
	images, err := c.store.ListImages(ctx, restaurantID)
	if err != nil {
		return 0, 0, eris.Wrap(err, "enrich: list images")
	}

	for i, img := range images {
		if i > 0 && c.imageDelay > 0 {
			timer := time.NewTimer(c.imageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return tagged, failed, eris.Wrap(ctx.Err(), "enrich: image classification canceled")
			case <-timer.C:
			}
		}

		if err := c.classifyOne(ctx, img); err != nil {
			failed++
			zap.L().Warn("image classification failed",
				zap.String("restaurant_id", restaurantID),
				zap.String("image_id", img.ID),
				zap.Error(err),
			)
			continue
		}
		tagged++
	}

	return tagged, failed, nil
}

func (c *ImageClassifier) classifyOne(ctx context.Context, img model.Image) error {
	fetchCfg := c.retry
	fetchCfg.Op = "google: photo media"
	data, err := resilience.DoVal(ctx, fetchCfg, func(ctx context.Context) ([]byte, error) {
		if err := c.photoPacer.Wait(ctx); err != nil {
			return nil, err
		}
		return c.google.PhotoMedia(ctx, img.SourceRef)
	})
	if err != nil {
		return err
	}

	mediaType := http.DetectContentType(data)
	req := anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: 512,
		System:    anthropic.BuildCachedSystemBlocks(imageSystemPrompt),
		Messages: []anthropic.Message{
			{
				Role:    "user",
				Content: "Classify this restaurant photo.",
				Image: &anthropic.ImageAttachment{
					MediaType: mediaType,
					Data:      base64.StdEncoding.EncodeToString(data),
				},
			},
		},
	}

	classifyCfg := c.retry
	classifyCfg.Op = "anthropic: classify image"
	resp, err := resilience.DoVal(ctx, classifyCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := c.llmPacer.Wait(ctx); err != nil {
			return nil, err
		}
		return c.ai.CreateMessage(ctx, req)
	})
	if err != nil {
		return err
	}
	resp.Usage.LogCost(c.model, "image_classify")

	result, err := ParseImageClassification(extractText(resp))
	if err != nil {
		return err
	}

	// Food images contribute cuisine vocabulary; everything else describes
	// the space.
	tagTypeName := model.TagTypeAmbiance
	if result.Category == CategoryFood {
		tagTypeName = model.TagTypeCuisine
	}
	tagType, err := c.store.GetOrCreateTagType(ctx, tagTypeName)
	if err != nil {
		return eris.Wrap(err, "enrich: tag type")
	}

	for _, value := range result.Tags {
		tag, err := c.store.GetOrCreateTag(ctx, value, tagType.ID)
		if err != nil {
			return eris.Wrapf(err, "enrich: tag %q", value)
		}
		if err := c.store.TagImage(ctx, img.ID, tag.ID); err != nil {
			return eris.Wrapf(err, "enrich: attach tag %q", value)
		}
	}

	if err := c.store.SetImageCategory(ctx, img.ID, result.Category); err != nil {
		return eris.Wrap(err, "enrich: set image category")
	}

	zap.L().Debug("image classified",
		zap.String("image_id", img.ID),
		zap.String("category", result.Category),
		zap.Strings("tags", result.Tags),
	)
	return nil
}
