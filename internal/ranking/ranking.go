// Package ranking orders the applications of a posting by their average match score.
package ranking

import (
	"sort"

	"github.com/spigell/hr-selection/internal/recruit"
	"github.com/spigell/hr-selection/internal/scoring"
)

// Ranked is an application with its derived score. It is recomputed from the
// current score record every time and never cached.
type Ranked struct {
	Application    *recruit.Application
	Record         scoring.Record
	Average        float64
	Scored         bool
	Classification scoring.Classification
	Label          string
}

// PostingRanking is the ranked shortlist of one posting.
type PostingRanking struct {
	Posting *recruit.Posting
	Ranked  []Ranked
}

// Evaluate derives the score of a single application against a posting threshold.
func Evaluate(app *recruit.Application, threshold float64) Ranked {
	record := scoring.Parse(app.MatchScore)
	avg, ok := scoring.Average(record)

	return Ranked{
		Application:    app,
		Record:         record,
		Average:        avg,
		Scored:         ok,
		Classification: scoring.ClassifyRecord(record, threshold),
		Label:          scoring.Label(avg, ok),
	}
}

// Rank orders apps by average score, highest first. Pending applications go
// last. Equal averages keep their input order.
func Rank(apps []*recruit.Application, posting *recruit.Posting) []Ranked {
	var threshold float64
	if posting != nil {
		threshold = posting.Threshold
	}

	ranked := make([]Ranked, 0, len(apps))
	for _, app := range apps {
		if app == nil {
			continue
		}
		ranked = append(ranked, Evaluate(app, threshold))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	return ranked
}

// less puts scored entries before pending ones and higher averages first.
func less(a, b Ranked) bool {
	if a.Scored != b.Scored {
		return a.Scored
	}
	if !a.Scored {
		return false
	}
	return a.Average > b.Average
}

// ForPosting returns the applications submitted for postingID, in input order.
func ForPosting(apps []*recruit.Application, postingID int) []*recruit.Application {
	result := make([]*recruit.Application, 0)
	for _, app := range apps {
		if app != nil && app.PostingID == postingID {
			result = append(result, app)
		}
	}
	return result
}

// RankAll ranks the applications of every posting, keeping posting order.
func RankAll(postings []*recruit.Posting, apps []*recruit.Application) []PostingRanking {
	rankings := make([]PostingRanking, 0, len(postings))
	for _, posting := range postings {
		rankings = append(rankings, PostingRanking{
			Posting: posting,
			Ranked:  Rank(ForPosting(apps, posting.ID), posting),
		})
	}
	return rankings
}

// Top returns at most n leading entries. n <= 0 returns everything.
func (p PostingRanking) Top(n int) []Ranked {
	if n <= 0 || n >= len(p.Ranked) {
		return p.Ranked
	}
	return p.Ranked[:n]
}

// Counts returns how many entries fall into each classification.
func (p PostingRanking) Counts() map[scoring.Classification]int {
	counts := make(map[scoring.Classification]int)
	for _, r := range p.Ranked {
		counts[r.Classification]++
	}
	return counts
}
