package recruit

import (
	"context"
)

const (
	ApplicationsPath       = "/api/applications"
	SelectedCandidatesPath = "/api/selected-candidates"
)

// Application is a resume submitted for a posting. MatchScore is the serialized
// score record and stays opaque until scoring parses it.
type Application struct {
	ID             int    `json:"id"`
	PostingID      int    `json:"jobId"`
	PostingTitle   string `json:"jobTitle"`
	ApplicantName  string `json:"applicantName"`
	ResumeFile     string `json:"resumeFile"`
	AppliedAt      string `json:"appliedAt"`
	ExtractedData  string `json:"extractedData,omitempty"`
	MatchScore     string `json:"matchScore,omitempty"`
	Selected       bool   `json:"selected"`
	InvitationSent bool   `json:"invitationSent"`
}

// SelectedCandidate is an entry of the selected candidates view.
type SelectedCandidate struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	PostingTitle   string `json:"jobTitle"`
	MatchScore     string `json:"matchScore,omitempty"`
	SelectedAt     string `json:"selectedAt"`
	InvitationSent bool   `json:"invitationSent"`
}

func (c *Client) getApplications(ctx context.Context) ([]*Application, error) {
	var applications []*Application
	if err := c.getItems(ctx, ApplicationsPath, &applications); err != nil {
		return nil, err
	}
	return applications, nil
}

func (c *Client) getSelectedCandidates(ctx context.Context) ([]*SelectedCandidate, error) {
	var candidates []*SelectedCandidate
	if err := c.getItems(ctx, SelectedCandidatesPath, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// CountSelection returns how many applications are selected and how many of
// them already got an invitation.
func CountSelection(applications []*Application) (selected, invited int) {
	for _, a := range applications {
		if a.Selected {
			selected++
		}
		if a.InvitationSent {
			invited++
		}
	}
	return selected, invited
}

// PendingExtraction returns the applications whose resume was not parsed yet.
func PendingExtraction(applications []*Application) []*Application {
	pending := make([]*Application, 0)
	for _, a := range applications {
		if a.ExtractedData == "" {
			pending = append(pending, a)
		}
	}
	return pending
}
