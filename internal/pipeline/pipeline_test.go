package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	failOn string
	block  map[string]chan struct{}
}

func (f *fakeBackend) call(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	ch := f.block[name]
	f.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if name == f.failOn {
		return errors.New("service returned 500")
	}
	return nil
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ExtractResumeData(ctx context.Context) error  { return f.call(ctx, "extract") }
func (f *fakeBackend) AnalyzeResumes(ctx context.Context) error     { return f.call(ctx, "analyze") }
func (f *fakeBackend) SummarizePostings(ctx context.Context) error  { return f.call(ctx, "summarize") }
func (f *fakeBackend) ComputeMatchScores(ctx context.Context) error { return f.call(ctx, "match") }
func (f *fakeBackend) SelectCandidates(ctx context.Context) error   { return f.call(ctx, "select") }
func (f *fakeBackend) SendInvitations(ctx context.Context) error    { return f.call(ctx, "invite") }

type fakeRefresher struct {
	mu       sync.Mutex
	calls    []string
	fail     error
	selected int
	invited  int
}

func (f *fakeRefresher) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.fail
}

func (f *fakeRefresher) RefreshSelected(context.Context) error     { return f.record("selected") }
func (f *fakeRefresher) RefreshApplications(context.Context) error { return f.record("applications") }

func (f *fakeRefresher) Counters() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected, f.invited
}

func (f *fakeRefresher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func statuses(s Snapshot) []Status {
	out := make([]Status, 0, len(s.Stages))
	for _, st := range s.Stages {
		out = append(out, st.Status)
	}
	return out
}

func allStatus(n int, status Status) []Status {
	out := make([]Status, n)
	for i := range out {
		out[i] = status
	}
	return out
}

func newOrchestrator(t *testing.T, backend *fakeBackend, refresher Refresher, clk clock.Clock, hooks Hooks, log *zap.Logger) *Orchestrator {
	t.Helper()

	o, err := New(nil, &Deps{
		Stages:    DefaultStages(backend),
		Refresher: refresher,
		Clock:     clk,
		Hooks:     hooks,
		Logger:    log,
	})
	require.NoError(t, err)
	return o
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages(&fakeBackend{})
	require.Len(t, stages, 6)

	titles := []string{"Extracting Data", "Analyzing Resumes", "Processing Jobs", "Computing Match", "Selecting Top", "Sending Invites"}
	roles := []Role{RoleExtract, RoleAnalyze, RoleSummarize, RoleMatch, RoleSelect, RoleInvite}
	for i, stage := range stages {
		assert.Equal(t, titles[i], stage.Title)
		assert.Equal(t, roles[i], stage.Role)
		assert.NotEmpty(t, stage.Description)
		assert.NotNil(t, stage.Operation)
	}
}

func TestNewValidatesStages(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	_, err = New(nil, &Deps{})
	require.Error(t, err)

	_, err = New(nil, &Deps{Stages: []Stage{{Title: "broken"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestRunSucceeds(t *testing.T) {
	backend := &fakeBackend{}
	refresher := &fakeRefresher{selected: 3, invited: 2}

	var mu sync.Mutex
	var seen []Snapshot
	hooks := Hooks{OnChange: func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}}

	o := newOrchestrator(t, backend, refresher, clock.NewMock(), hooks, nil)

	initial := o.Snapshot()
	assert.False(t, initial.Active)
	assert.Equal(t, allStatus(6, StatusPending), statuses(initial))

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, []string{"extract", "analyze", "summarize", "match", "select", "invite"}, backend.Calls())
	assert.Equal(t, []string{"selected", "selected", "applications"}, refresher.Calls())

	final := o.Snapshot()
	assert.False(t, final.Active)
	assert.Equal(t, "", final.Timer())
	assert.Equal(t, allStatus(6, StatusCompleted), statuses(final))
	assert.Equal(t, 6, final.Completed())
	assert.Nil(t, final.LastFailure)
	assert.NotEmpty(t, final.RunID)
	assert.Equal(t, 3, final.SelectedCount)
	assert.Equal(t, 2, final.InvitationsSent)

	mu.Lock()
	defer mu.Unlock()
	for _, s := range seen {
		processing := 0
		for _, st := range s.Stages {
			if st.Status == StatusProcessing {
				processing++
			}
		}
		assert.LessOrEqual(t, processing, 1)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{block: map[string]chan struct{}{"summarize": release}}

	core, logs := observer.New(zapcore.WarnLevel)
	o := newOrchestrator(t, backend, nil, clock.NewMock(), Hooks{}, zap.New(core))

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		cur := o.Snapshot().Current()
		return cur != nil && cur.ID == 3
	}, time.Second, time.Millisecond)

	before := o.Snapshot()
	err := o.Run(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRunning)

	after := o.Snapshot()
	assert.Equal(t, statuses(before), statuses(after))
	assert.Equal(t, before.RunID, after.RunID)
	assert.True(t, after.Active)
	assert.Equal(t, 1, logs.FilterMessage("pipeline run rejected").Len())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"extract", "analyze", "summarize", "match", "select", "invite"}, backend.Calls())
}

func TestRunFailureResetsStages(t *testing.T) {
	backend := &fakeBackend{failOn: "summarize"}
	refresher := &fakeRefresher{}

	core, logs := observer.New(zapcore.InfoLevel)
	o := newOrchestrator(t, backend, refresher, clock.NewMock(), Hooks{}, zap.New(core))

	err := o.Run(context.Background())
	require.Error(t, err)

	var stageErr *StageFailedError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, 2, stageErr.Index)
	assert.Equal(t, "Processing Jobs", stageErr.Title)
	assert.Contains(t, err.Error(), "stage 3 (Processing Jobs) failed")

	assert.Equal(t, []string{"extract", "analyze", "summarize"}, backend.Calls())
	assert.Empty(t, refresher.Calls())

	snap := o.Snapshot()
	assert.False(t, snap.Active)
	assert.Equal(t, allStatus(6, StatusPending), statuses(snap))
	require.NotNil(t, snap.LastFailure)
	assert.Equal(t, 2, snap.LastFailure.StageIndex)
	assert.Equal(t, "Processing Jobs", snap.LastFailure.StageTitle)
	assert.Equal(t, "service returned 500", snap.LastFailure.Message)

	entries := logs.FilterMessage("stage failed, run aborted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Processing Jobs", entries[0].ContextMap()["stage"])

	// A new run clears the previous failure.
	backend.failOn = ""
	require.NoError(t, o.Run(context.Background()))
	assert.Nil(t, o.Snapshot().LastFailure)
}

func TestRunSwallowsRefreshFailures(t *testing.T) {
	refresher := &fakeRefresher{fail: errors.New("timeout")}

	core, logs := observer.New(zapcore.WarnLevel)
	o := newOrchestrator(t, &fakeBackend{}, refresher, clock.NewMock(), Hooks{}, zap.New(core))

	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, allStatus(6, StatusCompleted), statuses(o.Snapshot()))
	assert.Equal(t, 3, logs.FilterMessage("view refresh failed").Len())
}

func TestRunRecoversPanickingStage(t *testing.T) {
	o, err := New(nil, &Deps{
		Stages: []Stage{
			{Title: "ok", Operation: func(context.Context) error { return nil }},
			{Title: "boom", Operation: func(context.Context) error { panic("nil map") }},
		},
		Clock: clock.NewMock(),
	})
	require.NoError(t, err)

	err = o.Run(context.Background())

	var stageErr *StageFailedError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, 1, stageErr.Index)
	assert.Contains(t, err.Error(), "panicked")
	assert.False(t, o.Active())
}

func TestTimerAndTicker(t *testing.T) {
	mock := clock.NewMock()
	release := make(chan struct{})
	backend := &fakeBackend{block: map[string]chan struct{}{"extract": release}}

	ticks := make(chan Snapshot, 128)
	hooks := Hooks{OnTick: func(s Snapshot) {
		select {
		case ticks <- s:
		default:
		}
	}}

	o := newOrchestrator(t, backend, nil, mock, hooks, nil)

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	require.Eventually(t, func() bool { return o.Snapshot().Current() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, "0:00", o.Snapshot().Timer())

	mock.Add(61 * time.Second)
	assert.Equal(t, "1:01", o.Snapshot().Timer())

	select {
	case s := <-ticks:
		assert.True(t, s.Active)
	case <-time.After(time.Second):
		t.Fatal("expected a tick while the run is active")
	}

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "", o.Snapshot().Timer())

	// The ticker is stopped with the run.
	for len(ticks) > 0 {
		<-ticks
	}
	mock.Add(5 * time.Second)
	assert.Empty(t, ticks)
}

func TestStagePause(t *testing.T) {
	mock := clock.NewMock()
	o, err := New(&Config{StagePause: 2 * time.Second}, &Deps{
		Stages: []Stage{{Title: "only", Operation: func(context.Context) error { return nil }}},
		Clock:  mock,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		select {
		case err := <-done:
			require.NoError(t, err)
			return true
		default:
			mock.Add(time.Second)
			return false
		}
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, allStatus(1, StatusCompleted), statuses(o.Snapshot()))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{61, "1:01"},
		{600, "10:00"},
		{-3, "0:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.seconds))
	}
}

func TestStatusAndRoleStrings(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "processing", StatusProcessing.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "select", RoleSelect.String())
	assert.Equal(t, "unknown", Role(42).String())
}

type slowRefresher struct {
	fakeRefresher
}

func (s *slowRefresher) RefreshSelected(ctx context.Context) error {
	s.record("selected")
	<-ctx.Done()
	return ctx.Err()
}

func TestRunBoundsSlowRefreshes(t *testing.T) {
	mock := clock.NewMock()
	refresher := &slowRefresher{}
	core, logs := observer.New(zapcore.WarnLevel)

	o, err := New(&Config{RefreshTimeout: 5 * time.Second}, &Deps{
		Stages:    DefaultStages(&fakeBackend{}),
		Refresher: refresher,
		Clock:     mock,
		Logger:    zap.New(core),
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		select {
		case err := <-done:
			require.NoError(t, err)
			return true
		default:
			mock.Add(time.Second)
			return false
		}
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, allStatus(6, StatusCompleted), statuses(o.Snapshot()))
	assert.Equal(t, []string{"selected", "selected", "applications"}, refresher.Calls())

	entries := logs.FilterMessage("view refresh failed").All()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "selected_candidates", entry.ContextMap()["view"])
		assert.Contains(t, entry.ContextMap()["error"], context.DeadlineExceeded.Error())
	}
}
