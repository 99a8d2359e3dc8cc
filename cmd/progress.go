package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/spigell/hr-selection/internal/pipeline"
)

var statusColors = map[pipeline.Status]*color.Color{
	pipeline.StatusPending:    color.New(color.FgHiBlack),
	pipeline.StatusProcessing: color.New(color.FgYellow, color.Bold),
	pipeline.StatusCompleted:  color.New(color.FgGreen),
}

// progress prints a line whenever a stage changes status, and the running
// timer on ticks.
type progress struct {
	mu        sync.Mutex
	w         io.Writer
	last      []pipeline.Status
	tickEvery int
	ticks     int
}

func newProgress(w io.Writer, tickEvery int) *progress {
	if tickEvery <= 0 {
		tickEvery = 1
	}
	return &progress{w: w, tickEvery: tickEvery}
}

func (p *progress) hooks() pipeline.Hooks {
	return pipeline.Hooks{OnChange: p.onChange, OnTick: p.onTick}
}

func (p *progress) onChange(s pipeline.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.last) != len(s.Stages) {
		p.last = make([]pipeline.Status, len(s.Stages))
	}

	for i, st := range s.Stages {
		if p.last[i] == st.Status {
			continue
		}
		p.last[i] = st.Status

		if st.Status == pipeline.StatusPending {
			continue
		}

		fmt.Fprintf(p.w, "[%d/%d] %-18s %s  %s\n",
			st.ID, len(s.Stages), st.Title,
			statusColors[st.Status].Sprint(st.Status.String()),
			s.Timer(),
		)
	}
}

func (p *progress) onTick(s pipeline.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ticks++
	if p.ticks%p.tickEvery != 0 {
		return
	}

	current := s.Current()
	if current == nil {
		return
	}

	fmt.Fprintf(p.w, "      %s %s  %s\n", s.Timer(), current.Title, current.Description)
}
