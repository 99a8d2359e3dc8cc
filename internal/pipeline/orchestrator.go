package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hr-selection/internal/logger"
	"github.com/spigell/hr-selection/internal/utils"
)

const (
	defaultTickInterval   = time.Second
	defaultRefreshTimeout = 30 * time.Second
)

// Refresher updates the read views that change while a run progresses.
type Refresher interface {
	RefreshSelected(ctx context.Context) error
	RefreshApplications(ctx context.Context) error
	Counters() (selected, invited int)
}

// Hooks are notified with fresh snapshots. They may be called from the run
// goroutine and from the ticker goroutine at the same time.
type Hooks struct {
	// OnChange fires on every stage transition and after view refreshes.
	OnChange func(Snapshot)
	// OnTick fires once per tick interval while a run is active.
	OnTick func(Snapshot)
}

// Config tunes run pacing.
type Config struct {
	// StagePause delays marking a stage completed. Zero disables it.
	StagePause time.Duration
	// TickInterval defaults to one second.
	TickInterval time.Duration
	// RefreshTimeout bounds each view refresh between stages. Defaults to 30s.
	RefreshTimeout time.Duration
}

// Deps holds collaborators of the orchestrator. Only Stages is required.
type Deps struct {
	Stages    []Stage
	Refresher Refresher
	Logger    *zap.Logger
	Clock     clock.Clock
	Hooks     Hooks
}

// Orchestrator runs its stages sequentially and owns their statuses.
// At most one run is active at a time.
type Orchestrator struct {
	mu          sync.Mutex
	stages      []Stage
	statuses    []Status
	active      bool
	runID       string
	startedAt   time.Time
	lastFailure *Failure

	pause          time.Duration
	tickInterval   time.Duration
	refreshTimeout time.Duration
	refresher    Refresher
	clock        clock.Clock
	logger       *zap.Logger
	hooks        Hooks
}

// New validates the stages and builds an idle orchestrator.
func New(cfg *Config, deps *Deps) (*Orchestrator, error) {
	if deps == nil || len(deps.Stages) == 0 {
		return nil, errors.New("at least one stage is required")
	}

	for i, stage := range deps.Stages {
		if stage.Operation == nil {
			return nil, fmt.Errorf("stage %d (%s) has no operation", i+1, stage.Title)
		}
	}

	if cfg == nil {
		cfg = &Config{}
	}

	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}

	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}

	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	stages := make([]Stage, len(deps.Stages))
	copy(stages, deps.Stages)

	return &Orchestrator{
		stages:         stages,
		statuses:       make([]Status, len(stages)),
		pause:          cfg.StagePause,
		tickInterval:   tick,
		refreshTimeout: refreshTimeout,
		refresher:      deps.Refresher,
		clock:          clk,
		logger:         logger.WithFields(deps.Logger),
		hooks:          deps.Hooks,
	}, nil
}

// Run executes one full run and blocks until it ends.
//
// It returns ErrAlreadyRunning without touching any state when a run is
// active, and *StageFailedError when a stage operation fails. A failed run
// resets every stage to pending; the failure stays visible in Snapshot.
func (o *Orchestrator) Run(ctx context.Context) error {
	runID, err := o.begin()
	if err != nil {
		o.logger.Warn("pipeline run rejected", zap.Error(err))
		return err
	}

	runLog := logger.WithFields(o.logger, logger.RunFields(runID)...)
	runLog.Info("pipeline run started", zap.Int("stages", len(o.stages)))

	stopTicker := o.startTicker()
	defer stopTicker()

	o.notifyChange()

	for i, stage := range o.stages {
		stageLog := logger.WithFields(runLog, logger.StageFields(i, stage.Title, stage.Role.String())...)

		o.setStatus(i, StatusProcessing)
		stageLog.Info("stage started")

		if err := o.execute(ctx, stage); err != nil {
			failure := &StageFailedError{Index: i, Title: stage.Title, Err: err}
			stopTicker()
			elapsed := o.abort(failure)
			stageLog.Error("stage failed, run aborted",
				zap.Error(err),
				zap.String("elapsed", FormatElapsed(elapsed)),
			)
			return failure
		}

		o.setStatus(i, StatusCompleted)
		stageLog.Info("stage completed")

		if stage.Role.refreshesSelected() && o.refresher != nil {
			o.refresh(ctx, stageLog, "selected_candidates", o.refresher.RefreshSelected)
		}
	}

	if o.refresher != nil {
		o.refresh(ctx, runLog, "applications", o.refresher.RefreshApplications)
	}

	stopTicker()
	elapsed := o.complete()

	snap := o.Snapshot()
	runLog.Info("pipeline run completed",
		zap.String("elapsed", FormatElapsed(elapsed)),
		zap.Int("selected", snap.SelectedCount),
		zap.Int("invited", snap.InvitationsSent),
	)

	return nil
}

// Active reports whether a run is in progress.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Snapshot returns a copy of the current run state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	snap := Snapshot{
		RunID:  o.runID,
		Active: o.active,
		Stages: make([]StageState, len(o.stages)),
	}
	for i, stage := range o.stages {
		snap.Stages[i] = StageState{
			ID:          i + 1,
			Title:       stage.Title,
			Description: stage.Description,
			Status:      o.statuses[i],
		}
	}
	if o.active {
		snap.ElapsedSeconds = o.elapsedLocked()
	}
	if o.lastFailure != nil {
		failure := *o.lastFailure
		snap.LastFailure = &failure
	}
	o.mu.Unlock()

	if o.refresher != nil {
		snap.SelectedCount, snap.InvitationsSent = o.refresher.Counters()
	}

	return snap
}

func (o *Orchestrator) begin() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active {
		return "", ErrAlreadyRunning
	}

	o.active = true
	o.runID = uuid.NewString()
	o.startedAt = o.clock.Now()
	o.lastFailure = nil
	for i := range o.statuses {
		o.statuses[i] = StatusPending
	}

	return o.runID, nil
}

// execute runs the stage operation, turning a panic into an error so the run
// always ends through abort.
func (o *Orchestrator) execute(ctx context.Context, stage Stage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage operation panicked: %v", r)
		}
	}()

	if err := stage.Operation(ctx); err != nil {
		return err
	}

	return utils.WaitFor(ctx, o.clock, o.pause)
}

func (o *Orchestrator) setStatus(i int, status Status) {
	o.mu.Lock()
	o.statuses[i] = status
	o.mu.Unlock()

	o.notifyChange()
}

func (o *Orchestrator) abort(failure *StageFailedError) int {
	o.mu.Lock()
	elapsed := o.elapsedLocked()
	o.active = false
	for i := range o.statuses {
		o.statuses[i] = StatusPending
	}
	o.lastFailure = &Failure{
		StageIndex: failure.Index,
		StageTitle: failure.Title,
		Message:    failure.Err.Error(),
	}
	o.mu.Unlock()

	o.notifyChange()
	return elapsed
}

func (o *Orchestrator) complete() int {
	o.mu.Lock()
	elapsed := o.elapsedLocked()
	o.active = false
	o.mu.Unlock()

	o.notifyChange()
	return elapsed
}

func (o *Orchestrator) elapsedLocked() int {
	return int(o.clock.Since(o.startedAt) / time.Second)
}

// refresh is best effort: a failed or slow refresh never fails the run and
// never holds it longer than refreshTimeout.
func (o *Orchestrator) refresh(ctx context.Context, log *zap.Logger, view string, fn func(context.Context) error) {
	ctx, cancel := o.clock.WithTimeout(ctx, o.refreshTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		log.Warn("view refresh failed", zap.String("view", view), zap.Error(err))
		return
	}

	log.Debug("view refreshed", zap.String("view", view))
	o.notifyChange()
}

// startTicker starts the run-scoped progress ticker. The returned stop func
// is idempotent and waits for the ticker goroutine to exit.
func (o *Orchestrator) startTicker() func() {
	ticker := o.clock.Ticker(o.tickInterval)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if o.hooks.OnTick != nil {
					o.hooks.OnTick(o.Snapshot())
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			wg.Wait()
		})
	}
}

func (o *Orchestrator) notifyChange() {
	if o.hooks.OnChange != nil {
		o.hooks.OnChange(o.Snapshot())
	}
}
