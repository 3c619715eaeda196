// Package pipeline orchestrates the full ingestion run: discovery, detail
// fetch, dedup, persistence, and the enrichment stages, processing each
// candidate sequentially with per-candidate failure isolation.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tastevine/ingest-cli/internal/discovery"
	"github.com/tastevine/ingest-cli/internal/enrich"
	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/normalize"
)

// Pipeline runs the end-to-end ingestion flow.
type Pipeline struct {
	discoverer *discovery.Discoverer
	fetcher    *DetailFetcher
	dedup      *DuplicateChecker
	persister  *Persister
	images     *enrich.ImageClassifier
	reviews    *enrich.ReviewTagger
	scorer     *enrich.ScoreAnalyzer

	// progressEvery logs a progress line after every N candidates. Zero
	// disables progress logging.
	progressEvery int
}

// New assembles a Pipeline from its stage components.
func New(
	discoverer *discovery.Discoverer,
	fetcher *DetailFetcher,
	dedup *DuplicateChecker,
	persister *Persister,
	images *enrich.ImageClassifier,
	reviews *enrich.ReviewTagger,
	scorer *enrich.ScoreAnalyzer,
	progressEvery int,
) *Pipeline {
	return &Pipeline{
		discoverer:    discoverer,
		fetcher:       fetcher,
		dedup:         dedup,
		persister:     persister,
		images:        images,
		reviews:       reviews,
		scorer:        scorer,
		progressEvery: progressEvery,
	}
}

// Run discovers candidates around the seed locations and processes each one
// to completion before starting the next. One candidate's failure never
// stops the run; the summary records every outcome. Run returns an error
// only when discovery itself fails or the context is canceled.
func (p *Pipeline) Run(ctx context.Context, locations []model.SearchLocation, target int) (*model.RunSummary, error) {
	candidates, err := p.discoverer.Discover(ctx, locations, target)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: discovery")
	}

	summary := &model.RunSummary{Discovered: len(candidates)}
	for i, cand := range candidates {
		if ctx.Err() != nil {
			return summary, eris.Wrap(ctx.Err(), "pipeline: run canceled")
		}

		summary.Record(p.processOne(ctx, cand))

		if p.progressEvery > 0 && (i+1)%p.progressEvery == 0 {
			zap.L().Info("pipeline progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(candidates)),
				zap.Int("succeeded", summary.Succeeded),
				zap.Int("skipped", summary.Skipped),
				zap.Int("failed", summary.Failed),
			)
		}
	}

	zap.L().Info("pipeline complete",
		zap.Int("discovered", summary.Discovered),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// processOne advances a single candidate through every stage. Failures
// terminate that candidate only; enrichment stages tolerate per-asset
// failures internally and only fail the candidate on store errors.
func (p *Pipeline) processOne(ctx context.Context, cand model.Candidate) model.CandidateResult {
	log := zap.L().With(
		zap.String("place_id", cand.PlaceID),
		zap.String("name", cand.Name),
	)

	detail, err := p.fetcher.Fetch(ctx, cand)
	if err != nil {
		return fail(cand, log, model.StageDiscovered, err)
	}

	reason, err := p.dedup.Check(ctx, detail)
	if err != nil {
		return fail(cand, log, model.StageDetailsFetched, err)
	}
	if reason != "" {
		log.Info("candidate skipped", zap.String("reason", reason))
		return model.CandidateResult{
			Candidate:  cand,
			Stage:      model.StageSkipped,
			Outcome:    model.OutcomeSkipped,
			SkipReason: reason,
		}
	}

	rest, err := p.persister.Persist(ctx, detail)
	if err != nil {
		return fail(cand, log, model.StageDetailsFetched, err)
	}

	if _, _, err := p.images.TagImages(ctx, rest.ID); err != nil {
		return fail(cand, log, model.StagePersisted, err)
	}
	if _, _, err := p.reviews.TagReviews(ctx, rest.ID); err != nil {
		return fail(cand, log, model.StageImagesTagged, err)
	}
	if err := p.scorer.Score(ctx, rest); err != nil {
		return fail(cand, log, model.StageReviewsTagged, err)
	}

	log.Info("candidate complete", zap.String("restaurant_id", rest.ID))
	return model.CandidateResult{
		Candidate: cand,
		Stage:     model.StageComplete,
		Outcome:   model.OutcomeSucceeded,
		Cuisines:  normalize.Cuisines(detail.Types),
	}
}

// fail records a terminal failure, keeping the last stage the candidate
// reached so the report shows where the pipeline stopped.
func fail(cand model.Candidate, log *zap.Logger, reached model.Stage, err error) model.CandidateResult {
	log.Warn("candidate failed", zap.String("stage", string(reached)), zap.Error(err))
	return model.CandidateResult{
		Candidate: cand,
		Stage:     reached,
		Outcome:   model.OutcomeFailed,
		Error:     err.Error(),
	}
}
