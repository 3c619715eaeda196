package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tastevine/ingest-cli/internal/discovery"
	"github.com/tastevine/ingest-cli/internal/enrich"
	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/pipeline"
	"github.com/tastevine/ingest-cli/internal/report"
	"github.com/tastevine/ingest-cli/internal/resilience"
	anthropicpkg "github.com/tastevine/ingest-cli/pkg/anthropic"
	googlepkg "github.com/tastevine/ingest-cli/pkg/google"
)

var (
	ingestLat       float64
	ingestLng       float64
	ingestRadius    float64
	ingestTarget    int
	ingestLocations string
	ingestReport    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the full discovery and enrichment pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		locations, err := seedLocations()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		googleClient := googlepkg.NewClient(cfg.Google.Key, googlepkg.WithBaseURL(cfg.Google.BaseURL))
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

		// One pacer per upstream so a burst against one never starves the
		// other.
		googlePacer := resilience.NewPacer(cfg.Ingest.RequestInterval)
		llmPacer := resilience.NewPacer(cfg.Ingest.RequestInterval)
		retry := resilience.RetryConfig{
			MaxAttempts:    cfg.Ingest.MaxAttempts,
			InitialBackoff: cfg.Ingest.RetryBackoff,
			ShouldRetry:    resilience.RetryAll,
		}

		target := ingestTarget
		if target <= 0 {
			target = cfg.Ingest.TargetCount
		}

		p := pipeline.New(
			discovery.New(googleClient, googlePacer, retry, cfg.Ingest.Query, cfg.Ingest.PageDelay, cfg.Ingest.MaxPages),
			pipeline.NewDetailFetcher(googleClient, googlePacer, retry),
			pipeline.NewDuplicateChecker(st, cfg.Ingest.DedupDegrees),
			pipeline.NewPersister(st, cfg.Ingest.MaxImages, cfg.Ingest.MaxReviews),
			enrich.NewImageClassifier(anthropicClient, googleClient, st, googlePacer, llmPacer, retry, cfg.Anthropic.ClassifyModel, cfg.Ingest.ImageDelay),
			enrich.NewReviewTagger(anthropicClient, st, llmPacer, retry, cfg.Anthropic.ClassifyModel),
			enrich.NewScoreAnalyzer(anthropicClient, st, llmPacer, retry, cfg.Anthropic.ScoreModel),
			cfg.Ingest.ProgressEvery,
		)

		summary, err := p.Run(ctx, locations, target)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if ingestReport != "" {
			if err := report.WriteRunReport(ingestReport, summary); err != nil {
				return err
			}
			zap.L().Info("run report written", zap.String("path", ingestReport))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

// seedLocations builds the discovery seed list, either from a YAML file or
// from the single point given by flags.
func seedLocations() ([]model.SearchLocation, error) {
	if ingestLocations != "" {
		return discovery.LoadLocations(ingestLocations)
	}
	if ingestLat == 0 && ingestLng == 0 {
		return nil, eris.New("either --locations or --lat/--lng is required")
	}
	radius := ingestRadius
	if radius <= 0 {
		radius = 5000
	}
	return []model.SearchLocation{
		{Name: "cli", Latitude: ingestLat, Longitude: ingestLng, RadiusMeters: radius},
	}, nil
}

func init() {
	ingestCmd.Flags().Float64Var(&ingestLat, "lat", 0, "seed latitude")
	ingestCmd.Flags().Float64Var(&ingestLng, "lng", 0, "seed longitude")
	ingestCmd.Flags().Float64Var(&ingestRadius, "radius", 5000, "search radius in meters")
	ingestCmd.Flags().IntVar(&ingestTarget, "target", 0, "number of restaurants to ingest (default from config)")
	ingestCmd.Flags().StringVar(&ingestLocations, "locations", "", "YAML file of seed locations")
	ingestCmd.Flags().StringVar(&ingestReport, "report", "", "write an XLSX run report to this path")
	rootCmd.AddCommand(ingestCmd)
}
