// Package filtering narrows a ranked shortlist with a sequence of steps.
package filtering

import (
	"go.uber.org/zap"

	"github.com/spigell/hr-selection/internal/ranking"
)

// Filter is a single step applied to ranked candidates. Apply must keep the
// order of the entries it keeps.
type Filter interface {
	Name() string
	IsEnabled() bool
	Apply(ranked []ranking.Ranked) (kept []ranking.Ranked, dropped []int)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run applies the enabled steps in order and returns a filtered copy of pr.
func Run(pr ranking.PostingRanking, steps []Filter, logger *zap.Logger) ranking.PostingRanking {
	if logger == nil {
		logger = zap.NewNop()
	}

	title := ""
	if pr.Posting != nil {
		title = pr.Posting.Title
	}

	ranked := append([]ranking.Ranked(nil), pr.Ranked...)
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		initial := len(ranked)
		next, dropped := step.Apply(ranked)
		ranked = next

		info := Step{Initial: initial, Dropped: len(dropped), Left: len(ranked)}
		logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.String("posting", title),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
			zap.Ints("excluded_applications", dropped),
		)
	}

	return ranking.PostingRanking{Posting: pr.Posting, Ranked: ranked}
}

// RunAll filters every posting ranking with the same steps.
func RunAll(rankings []ranking.PostingRanking, steps []Filter, logger *zap.Logger) []ranking.PostingRanking {
	result := make([]ranking.PostingRanking, 0, len(rankings))
	for _, pr := range rankings {
		result = append(result, Run(pr, steps, logger))
	}
	return result
}

func keep(ranked []ranking.Ranked, drop func(ranking.Ranked) bool) ([]ranking.Ranked, []int) {
	kept := make([]ranking.Ranked, 0, len(ranked))
	dropped := make([]int, 0)
	for _, r := range ranked {
		if drop(r) {
			dropped = append(dropped, r.Application.ID)
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
