package recruit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	ExtractPath   = "/api/extract-pdf-data"
	SummarizePath = "/api/summarize-job"
	MatchPath     = "/api/compute-matches"
	SelectPath    = "/api/select-candidates"
	InvitePath    = "/api/send-invitations"
)

// ExtractResumeData parses every uploaded resume that has no extracted data yet.
func (c *Client) ExtractResumeData(ctx context.Context) error {
	return c.postAction(ctx, ExtractPath)
}

// AnalyzeResumes checks the extraction outcome. Resumes whose files are missing
// on the service stay unparsed; that is reported, not treated as a failure.
func (c *Client) AnalyzeResumes(ctx context.Context) error {
	applications, err := c.getApplications(ctx)
	if err != nil {
		return fmt.Errorf("get applications: %w", err)
	}

	pending := PendingExtraction(applications)
	if len(pending) > 0 {
		ids := make([]int, 0, len(pending))
		for _, a := range pending {
			ids = append(ids, a.ID)
		}
		c.logger.Info("applications without extracted resume data",
			zap.Ints("application_ids", ids),
			zap.Int("analyzed", len(applications)-len(pending)),
		)
	}

	return nil
}

// SummarizePostings generates summaries for postings that have none.
func (c *Client) SummarizePostings(ctx context.Context) error {
	return c.postAction(ctx, SummarizePath)
}

// ComputeMatchScores scores every analyzed application against its posting.
func (c *Client) ComputeMatchScores(ctx context.Context) error {
	return c.postAction(ctx, MatchPath)
}

// SelectCandidates replaces the current selection with the best matches per posting.
func (c *Client) SelectCandidates(ctx context.Context) error {
	return c.postAction(ctx, SelectPath)
}

// SendInvitations invites selected candidates that were not invited yet.
func (c *Client) SendInvitations(ctx context.Context) error {
	return c.postAction(ctx, InvitePath)
}
