// Package ai describes the optional AI assistance of the console: a short
// written brief about the top candidates of a posting.
package ai

import (
	"context"
	"strconv"
	"strings"

	"github.com/spigell/hr-selection/internal/ranking"
)

// Candidate is one shortlisted applicant as shown to the model.
type Candidate struct {
	Rank           int               `json:"rank"`
	Name           string            `json:"name"`
	Score          string            `json:"score"`
	Classification string            `json:"classification"`
	Dimensions     map[string]string `json:"dimensions"`
	Selected       bool              `json:"selected"`
	Invited        bool              `json:"invited"`
}

// Shortlist is the input of a brief.
type Shortlist struct {
	PostingID     int         `json:"postingId"`
	PostingTitle  string      `json:"postingTitle"`
	Summary       string      `json:"summary,omitempty"`
	Threshold     float64     `json:"threshold"`
	MaxCandidates int         `json:"maxCandidates"`
	Candidates    []Candidate `json:"candidates"`
}

// Brief is the model's answer.
type Brief struct {
	Summary  string
	TopPick  string
	Concerns []string
	Raw      string
}

type Briefer interface {
	Brief(ctx context.Context, shortlist *Shortlist) (*Brief, error)
}

// NewShortlist takes the top n ranked candidates of a posting. Pending
// candidates are left out since they have nothing to compare yet.
func NewShortlist(pr ranking.PostingRanking, n int) *Shortlist {
	s := &Shortlist{Candidates: make([]Candidate, 0)}
	if pr.Posting != nil {
		s.PostingID = pr.Posting.ID
		s.PostingTitle = pr.Posting.Title
		s.Summary = strings.TrimSpace(pr.Posting.Summary)
		s.Threshold = pr.Posting.Threshold
		s.MaxCandidates = pr.Posting.MaxCandidates
	}

	for i, r := range pr.Top(n) {
		if !r.Scored {
			break
		}

		dims := make(map[string]string)
		for _, d := range ranking.Detail(r) {
			dims[strings.ToLower(d.Name)] = d.Label
		}

		s.Candidates = append(s.Candidates, Candidate{
			Rank:           i + 1,
			Name:           candidateName(r),
			Score:          r.Label,
			Classification: r.Classification.String(),
			Dimensions:     dims,
			Selected:       r.Application.Selected,
			Invited:        r.Application.InvitationSent,
		})
	}

	return s
}

func candidateName(r ranking.Ranked) string {
	if name := strings.TrimSpace(r.Application.ApplicantName); name != "" {
		return name
	}
	return "application #" + strconv.Itoa(r.Application.ID)
}
