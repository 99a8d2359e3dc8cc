package ranking

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/spigell/hr-selection/internal/scoring"
)

// Report groups ranked rows by posting.
type Report map[string][]map[string]string

// BuildReport flattens rankings into printable rows keyed by "title (id)".
func BuildReport(rankings []PostingRanking) Report {
	report := make(Report)
	for _, pr := range rankings {
		key := fmt.Sprintf("%s (%d)", pr.Posting.Title, pr.Posting.ID)
		report[key] = make([]map[string]string, 0, len(pr.Ranked))
		for i, r := range pr.Ranked {
			row := map[string]string{
				"rank":           fmt.Sprintf("%d", i+1),
				"applicant":      r.Application.ApplicantName,
				"score":          r.Label,
				"classification": r.Classification.String(),
				"selected":       fmt.Sprintf("%t", r.Application.Selected),
				"invited":        fmt.Sprintf("%t", r.Application.InvitationSent),
			}
			for _, d := range Detail(r) {
				row[strings.ToLower(d.Name)] = d.Label
			}
			report[key] = append(report[key], row)
		}
	}
	return report
}

// DumpToTmpFile writes the report as indented JSON and returns the file name.
func (r Report) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ranking_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// DimensionLabel is a rendered per-dimension score.
type DimensionLabel struct {
	Name  string
	Label string
}

// Detail renders the four dimension scores of r. Missing ones show "-".
func Detail(r Ranked) []DimensionLabel {
	dims := r.Record.Dimensions()
	labels := make([]DimensionLabel, 0, len(dims))
	for _, d := range dims {
		label := "-"
		if d.Score != nil {
			label = scoring.Label(*d.Score, true)
		}
		labels = append(labels, DimensionLabel{Name: d.Name, Label: label})
	}
	return labels
}

var classColors = map[scoring.Classification]*color.Color{
	scoring.Strong:          color.New(color.FgGreen, color.Bold),
	scoring.Good:            color.New(color.FgBlue),
	scoring.Fair:            color.New(color.FgYellow),
	scoring.Weak:            color.New(color.FgHiBlack),
	scoring.PendingAnalysis: color.New(color.FgMagenta, color.Italic),
}

// Print writes a colored table of one posting ranking to w.
func Print(w io.Writer, pr PostingRanking) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "%s  (threshold %s, max candidates %d)\n",
		pr.Posting.Title, scoring.Label(pr.Posting.Threshold, true), pr.Posting.MaxCandidates)

	if len(pr.Ranked) == 0 {
		fmt.Fprintln(w, "  no applications yet")
		return
	}

	for i, r := range pr.Ranked {
		marks := make([]string, 0, 2)
		if r.Application.Selected {
			marks = append(marks, "selected")
		}
		if r.Application.InvitationSent {
			marks = append(marks, "invited")
		}

		c, ok := classColors[r.Classification]
		if !ok {
			c = color.New(color.Reset)
		}

		fmt.Fprintf(w, "  %2d. %-24s ", i+1, r.Application.ApplicantName)
		c.Fprintf(w, "%-16s %-10s", r.Label, r.Classification)
		if len(marks) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(marks, ", "))
		}
		fmt.Fprintln(w)

		details := make([]string, 0, 4)
		for _, d := range Detail(r) {
			details = append(details, fmt.Sprintf("%s %s", d.Name, d.Label))
		}
		fmt.Fprintf(w, "      %s\n", strings.Join(details, " | "))
	}
}
