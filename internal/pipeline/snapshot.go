package pipeline

import "fmt"

// StageState is the visible state of one stage. ID is its 1-based position.
type StageState struct {
	ID          int
	Title       string
	Description string
	Status      Status
}

// Snapshot is a point-in-time copy of the orchestrator state.
type Snapshot struct {
	RunID           string
	Active          bool
	ElapsedSeconds  int
	Stages          []StageState
	SelectedCount   int
	InvitationsSent int
	LastFailure     *Failure
}

// Timer renders the elapsed time as m:ss while a run is active and "" otherwise.
func (s Snapshot) Timer() string {
	if !s.Active {
		return ""
	}
	return FormatElapsed(s.ElapsedSeconds)
}

// Current returns the stage being processed, or nil.
func (s Snapshot) Current() *StageState {
	for i := range s.Stages {
		if s.Stages[i].Status == StatusProcessing {
			return &s.Stages[i]
		}
	}
	return nil
}

// Completed counts completed stages.
func (s Snapshot) Completed() int {
	n := 0
	for _, st := range s.Stages {
		if st.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// FormatElapsed renders seconds as minutes:seconds with zero padded seconds.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
