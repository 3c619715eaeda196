package pipeline

import (
	"context"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/resilience"
	"github.com/tastevine/ingest-cli/pkg/google"
)

// DetailFetcher resolves a discovered candidate into its full place detail.
type DetailFetcher struct {
	google google.Client
	pacer  *resilience.Pacer
	retry  resilience.RetryConfig
}

// NewDetailFetcher creates a DetailFetcher.
func NewDetailFetcher(g google.Client, pacer *resilience.Pacer, retry resilience.RetryConfig) *DetailFetcher {
	return &DetailFetcher{google: g, pacer: pacer, retry: retry}
}

// Fetch retrieves the full detail record for a candidate.
func (f *DetailFetcher) Fetch(ctx context.Context, cand model.Candidate) (*model.PlaceDetail, error) {
	cfg := f.retry
	cfg.Op = "google: place details"

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*google.PlaceDetailsResponse, error) {
		if err := f.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		return f.google.PlaceDetails(ctx, cand.PlaceID)
	})
	if err != nil {
		return nil, err
	}

	detail := &model.PlaceDetail{
		PlaceID:    resp.ID,
		Name:       resp.DisplayName.Text,
		Address:    resp.FormattedAddress,
		Latitude:   resp.Location.Latitude,
		Longitude:  resp.Location.Longitude,
		Rating:     resp.Rating,
		PriceLevel: resp.PriceLevel,
		Phone:      resp.NationalPhoneNumber,
		MapsURL:    resp.GoogleMapsURI,
		Types:      resp.Types,
	}
	for _, photo := range resp.Photos {
		detail.PhotoRefs = append(detail.PhotoRefs, photo.Name)
	}
	for _, rev := range resp.Reviews {
		detail.Reviews = append(detail.Reviews, model.ReviewSnippet{
			SourceRef: rev.Name,
			Text:      rev.Text.Text,
			Rating:    rev.Rating,
			Author:    rev.AuthorAttribution.DisplayName,
		})
	}
	return detail, nil
}
