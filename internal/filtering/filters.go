package filtering

import (
	"fmt"
	"strings"

	"github.com/spigell/hr-selection/internal/ranking"
	"github.com/spigell/hr-selection/internal/scoring"
)

type invitedFilter struct {
	enabled bool
}

// NewHideInvited drops candidates that already got an invitation.
func NewHideInvited(enabled bool) Filter {
	return &invitedFilter{enabled: enabled}
}

func (f *invitedFilter) Name() string { return "hide_invited" }

func (f *invitedFilter) IsEnabled() bool { return f.enabled }

func (f *invitedFilter) Apply(ranked []ranking.Ranked) ([]ranking.Ranked, []int) {
	return keep(ranked, func(r ranking.Ranked) bool {
		return r.Application.InvitationSent
	})
}

type classificationFilter struct {
	min scoring.Classification
}

// NewMinClassification keeps candidates classified at least as minClass. Pending
// candidates are dropped. PendingAnalysis as minClass disables the filter.
func NewMinClassification(minClass scoring.Classification) Filter {
	return &classificationFilter{min: minClass}
}

func (f *classificationFilter) Name() string { return "min_classification" }

func (f *classificationFilter) IsEnabled() bool { return f.min != scoring.PendingAnalysis }

func (f *classificationFilter) Apply(ranked []ranking.Ranked) ([]ranking.Ranked, []int) {
	return keep(ranked, func(r ranking.Ranked) bool {
		return r.Classification == scoring.PendingAnalysis || r.Classification > f.min
	})
}

// ParseClassification accepts the String form of a classification. An empty
// string yields PendingAnalysis.
func ParseClassification(s string) (scoring.Classification, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return scoring.PendingAnalysis, nil
	}

	for _, c := range []scoring.Classification{scoring.Strong, scoring.Good, scoring.Fair, scoring.Weak} {
		if c.String() == s {
			return c, nil
		}
	}

	return scoring.PendingAnalysis, fmt.Errorf("unknown classification %q (want strong, good, fair or weak)", s)
}

type applicantsFilter struct {
	names map[string]struct{}
}

// NewExcludedApplicants drops candidates by applicant name, case insensitive.
func NewExcludedApplicants(names []string) Filter {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			set[name] = struct{}{}
		}
	}
	return &applicantsFilter{names: set}
}

func (f *applicantsFilter) Name() string { return "excluded_applicants" }

func (f *applicantsFilter) IsEnabled() bool { return len(f.names) > 0 }

func (f *applicantsFilter) Apply(ranked []ranking.Ranked) ([]ranking.Ranked, []int) {
	return keep(ranked, func(r ranking.Ranked) bool {
		_, ok := f.names[strings.ToLower(strings.TrimSpace(r.Application.ApplicantName))]
		return ok
	})
}
