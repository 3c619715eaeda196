package model

// Stage names for the per-candidate state machine. A result's Stage is the
// last stage the candidate reached; on failure it shows where the pipeline
// stopped.
type Stage string

const (
	StageDiscovered     Stage = "discovered"
	StageDetailsFetched Stage = "details_fetched"
	StageSkipped        Stage = "skipped"
	StagePersisted      Stage = "persisted"
	StageImagesTagged   Stage = "images_tagged"
	StageReviewsTagged  Stage = "reviews_tagged"
	StageComplete       Stage = "complete"
)

// Outcome classifies how a candidate left the pipeline.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// CandidateResult records the terminal state of one candidate.
type CandidateResult struct {
	Candidate  Candidate `json:"candidate"`
	Stage      Stage     `json:"stage"`
	Outcome    Outcome   `json:"outcome"`
	Cuisines   []string  `json:"cuisines,omitempty"`
	SkipReason string    `json:"skip_reason,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// RunSummary aggregates per-candidate outcomes for a whole run.
type RunSummary struct {
	Discovered int               `json:"discovered"`
	Succeeded  int               `json:"succeeded"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Results    []CandidateResult `json:"results"`
}

// Record tallies a result into the summary counters.
func (s *RunSummary) Record(r CandidateResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}
