package pipeline

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Run while another run is active.
var ErrAlreadyRunning = errors.New("pipeline run already in progress")

// StageFailedError reports the stage whose remote operation failed.
// Index is zero based.
type StageFailedError struct {
	Index int
	Title string
	Err   error
}

func (e *StageFailedError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Index+1, e.Title, e.Err)
}

func (e *StageFailedError) Unwrap() error {
	return e.Err
}

// Failure describes the last failed run for display.
type Failure struct {
	StageIndex int
	StageTitle string
	Message    string
}
