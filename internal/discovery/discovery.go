// Package discovery finds candidate venues by running paginated text
// searches around seed locations and deduplicating the results.
package discovery

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/resilience"
	"github.com/tastevine/ingest-cli/pkg/google"
)

// defaultMaxPages bounds pagination per seed location to keep API costs
// predictable even when the target is never reached.
const defaultMaxPages = 5

// Discoverer runs geo-bounded candidate discovery.
type Discoverer struct {
	google google.Client
	pacer  *resilience.Pacer
	retry  resilience.RetryConfig

	// query is the text query sent for every location (e.g. "restaurant").
	query string

	// pageDelay is the wait between pages of the same query, on top of the
	// pacer. Search providers need it before a page token becomes valid.
	pageDelay time.Duration

	// maxPages caps pages fetched per seed location.
	maxPages int
}

// New creates a Discoverer. maxPages <= 0 selects the default page cap.
func New(g google.Client, pacer *resilience.Pacer, retry resilience.RetryConfig, query string, pageDelay time.Duration, maxPages int) *Discoverer {
	if query == "" {
		query = "restaurant"
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Discoverer{
		google:    g,
		pacer:     pacer,
		retry:     retry,
		query:     query,
		pageDelay: pageDelay,
		maxPages:  maxPages,
	}
}

// Discover searches each seed location in order, accumulating candidates
// deduplicated by place ID across overlapping regions, and stops the moment
// the global unique count reaches target. The result preserves discovery
// order and is truncated to target.
func (d *Discoverer) Discover(ctx context.Context, locations []model.SearchLocation, target int) ([]model.Candidate, error) {
	if target <= 0 {
		return nil, eris.New("discovery: target must be positive")
	}

	log := zap.L().With(zap.Int("target", target))
	seen := make(map[string]bool)
	var candidates []model.Candidate

	for _, loc := range locations {
		if len(candidates) >= target {
			break
		}
		found, err := d.searchLocation(ctx, loc, target, seen, &candidates)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			// One saturated or failing region must not end discovery.
			log.Warn("discovery: location search failed",
				zap.String("location", loc.Name),
				zap.Error(err),
			)
			continue
		}
		log.Info("discovery: location searched",
			zap.String("location", loc.Name),
			zap.Int("new_candidates", found),
			zap.Int("total", len(candidates)),
		)
	}

	if len(candidates) > target {
		candidates = candidates[:target]
	}
	log.Info("discovery: complete", zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// searchLocation pages through one location's results, appending unseen
// candidates. Returns the number of new candidates added.
func (d *Discoverer) searchLocation(ctx context.Context, loc model.SearchLocation, target int, seen map[string]bool, candidates *[]model.Candidate) (int, error) {
	var (
		pageToken string
		added     int
	)

	retryCfg := d.retry
	retryCfg.Op = "google: search " + loc.Name

	for page := 0; page < d.maxPages; page++ {
		if page > 0 {
			// Page tokens need settle time beyond the per-request spacing.
			timer := time.NewTimer(d.pageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return added, ctx.Err()
			case <-timer.C:
			}
		}

		req := google.SearchTextRequest{
			TextQuery: d.query,
			LocationBias: &google.LocationBias{
				Circle: &google.Circle{
					Center: google.LatLng{Latitude: loc.Latitude, Longitude: loc.Longitude},
					Radius: loc.RadiusMeters,
				},
			},
			PageToken: pageToken,
		}

		resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*google.SearchTextResponse, error) {
			if err := d.pacer.Wait(ctx); err != nil {
				return nil, err
			}
			return d.google.SearchText(ctx, req)
		})
		if err != nil {
			return added, err
		}

		for _, place := range resp.Places {
			if place.ID == "" || seen[place.ID] {
				continue
			}
			seen[place.ID] = true
			*candidates = append(*candidates, model.Candidate{
				PlaceID: place.ID,
				Name:    place.DisplayName.Text,
			})
			added++
			if len(*candidates) >= target {
				return added, nil
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return added, nil
}
