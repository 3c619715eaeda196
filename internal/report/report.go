// Package report writes a spreadsheet summary of an ingestion run for
// review outside the terminal.
package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/internal/normalize"
)

// WriteRunReport writes a two-sheet workbook: per-candidate outcomes and
// run totals.
func WriteRunReport(path string, summary *model.RunSummary) error {
	f := xlsx.NewFile()

	outcomes, err := f.AddSheet("Candidates")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	header := outcomes.AddRow()
	for _, col := range []string{"Place ID", "Name", "Stage", "Outcome", "Cuisines", "Skip Reason", "Error"} {
		header.AddCell().SetString(col)
	}
	for _, r := range summary.Results {
		row := outcomes.AddRow()
		row.AddCell().SetString(r.Candidate.PlaceID)
		row.AddCell().SetString(r.Candidate.Name)
		row.AddCell().SetString(string(r.Stage))
		row.AddCell().SetString(string(r.Outcome))
		row.AddCell().SetString(cuisineList(r.Cuisines))
		row.AddCell().SetString(r.SkipReason)
		row.AddCell().SetString(r.Error)
	}

	totals, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	for _, line := range [][2]string{
		{"Discovered", strconv.Itoa(summary.Discovered)},
		{"Succeeded", strconv.Itoa(summary.Succeeded)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Failed", strconv.Itoa(summary.Failed)},
	} {
		row := totals.AddRow()
		row.AddCell().SetString(line[0])
		row.AddCell().SetString(line[1])
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}
	return nil
}

// cuisineList renders stored lower-case cuisine values for the sheet,
// e.g. ["middle eastern", "thai"] → "Middle Eastern, Thai".
func cuisineList(values []string) string {
	display := make([]string, len(values))
	for i, v := range values {
		display[i] = normalize.DisplayName(v)
	}
	return strings.Join(display, ", ")
}
