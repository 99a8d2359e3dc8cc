// Package pipeline runs the AI selection stages of the recruitment service in a
// fixed order and exposes their progress.
package pipeline

import (
	"context"
)

// Status is the progress of a single stage.
type Status int

const (
	StatusPending Status = iota
	StatusProcessing
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Role tells the orchestrator what a stage does, so it can schedule the
// follow-up refreshes without relying on stage positions.
type Role int

const (
	RoleExtract Role = iota
	RoleAnalyze
	RoleSummarize
	RoleMatch
	RoleSelect
	RoleInvite
)

func (r Role) String() string {
	switch r {
	case RoleExtract:
		return "extract"
	case RoleAnalyze:
		return "analyze"
	case RoleSummarize:
		return "summarize"
	case RoleMatch:
		return "match"
	case RoleSelect:
		return "select"
	case RoleInvite:
		return "invite"
	default:
		return "unknown"
	}
}

// refreshesSelected reports whether the selected candidates view changes after the stage.
func (r Role) refreshesSelected() bool {
	return r == RoleSelect || r == RoleInvite
}

// Operation invokes the remote work of a stage and blocks until it resolves.
type Operation func(ctx context.Context) error

// Stage is one step of the selection pipeline.
type Stage struct {
	Title       string
	Description string
	Role        Role
	Operation   Operation
}

// Backend is the remote service performing the AI work.
type Backend interface {
	ExtractResumeData(ctx context.Context) error
	AnalyzeResumes(ctx context.Context) error
	SummarizePostings(ctx context.Context) error
	ComputeMatchScores(ctx context.Context) error
	SelectCandidates(ctx context.Context) error
	SendInvitations(ctx context.Context) error
}

// DefaultStages returns the six stages of the AI selection pipeline in order.
func DefaultStages(b Backend) []Stage {
	return []Stage{
		{
			Title:       "Extracting Data",
			Description: "Parsing PDF resumes using document processing",
			Role:        RoleExtract,
			Operation:   b.ExtractResumeData,
		},
		{
			Title:       "Analyzing Resumes",
			Description: "Extracting key skills, experience and qualifications",
			Role:        RoleAnalyze,
			Operation:   b.AnalyzeResumes,
		},
		{
			Title:       "Processing Jobs",
			Description: "Generating job requirement summaries",
			Role:        RoleSummarize,
			Operation:   b.SummarizePostings,
		},
		{
			Title:       "Computing Match",
			Description: "Scoring candidate and job compatibility",
			Role:        RoleMatch,
			Operation:   b.ComputeMatchScores,
		},
		{
			Title:       "Selecting Top",
			Description: "Selecting the best matched candidates",
			Role:        RoleSelect,
			Operation:   b.SelectCandidates,
		},
		{
			Title:       "Sending Invites",
			Description: "Dispatching interview invitations",
			Role:        RoleInvite,
			Operation:   b.SendInvitations,
		},
	}
}
