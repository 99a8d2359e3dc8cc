// Package board holds the read views of the recruitment service: postings,
// applications and selected candidates. Each view is replaced wholesale by the
// latest successful fetch.
package board

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hr-selection/internal/recruit"
)

// Source fetches the views from the recruitment service.
type Source interface {
	GetPostings(ctx context.Context) ([]*recruit.Posting, error)
	GetApplications(ctx context.Context) ([]*recruit.Application, error)
	GetSelectedCandidates(ctx context.Context) ([]*recruit.SelectedCandidate, error)
}

type Board struct {
	source Source
	logger *zap.Logger

	mu           sync.RWMutex
	postings     []*recruit.Posting
	applications []*recruit.Application
	selected     []*recruit.SelectedCandidate
}

func New(source Source, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Board{
		source: source,
		logger: logger,
	}
}

// Load fetches all three views concurrently. Views that succeed are stored
// even if another one fails.
func (b *Board) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return b.RefreshPostings(ctx) })
	g.Go(func() error { return b.RefreshApplications(ctx) })
	g.Go(func() error { return b.RefreshSelected(ctx) })

	return g.Wait()
}

func (b *Board) RefreshPostings(ctx context.Context) error {
	postings, err := b.source.GetPostings(ctx)
	if err != nil {
		return fmt.Errorf("refresh postings: %w", err)
	}

	b.mu.Lock()
	b.postings = postings
	b.mu.Unlock()

	b.logger.Debug("postings refreshed", zap.Int("count", len(postings)))
	return nil
}

func (b *Board) RefreshApplications(ctx context.Context) error {
	applications, err := b.source.GetApplications(ctx)
	if err != nil {
		return fmt.Errorf("refresh applications: %w", err)
	}

	b.mu.Lock()
	b.applications = applications
	b.mu.Unlock()

	b.logger.Debug("applications refreshed", zap.Int("count", len(applications)))
	return nil
}

func (b *Board) RefreshSelected(ctx context.Context) error {
	selected, err := b.source.GetSelectedCandidates(ctx)
	if err != nil {
		return fmt.Errorf("refresh selected candidates: %w", err)
	}

	b.mu.Lock()
	b.selected = selected
	b.mu.Unlock()

	b.logger.Debug("selected candidates refreshed", zap.Int("count", len(selected)))
	return nil
}

// Postings returns the last received postings.
func (b *Board) Postings() []*recruit.Posting {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*recruit.Posting(nil), b.postings...)
}

// Applications returns the last received applications.
func (b *Board) Applications() []*recruit.Application {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*recruit.Application(nil), b.applications...)
}

// Selected returns the last received selected candidates.
func (b *Board) Selected() []*recruit.SelectedCandidate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*recruit.SelectedCandidate(nil), b.selected...)
}

// Counters returns how many applications are selected and invited.
func (b *Board) Counters() (selected, invited int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return recruit.CountSelection(b.applications)
}
