package events

import (
	"time"

	"github.com/hanpama/gqlforge/internal/phase"
)

// RunStart is emitted before the scheduler visits its first phase.
// Context carries the run ID.
type RunStart struct {
	Tasks []string
}

// RunFinish is emitted after the last phase settled.
type RunFinish struct {
	Failures int
	Duration time.Duration
}

// PhaseStart is emitted before the tasks waiting on Phase are stepped.
type PhaseStart struct {
	Phase phase.Phase
	Tasks []string
}

// PhaseFinish is emitted once every step of Phase settled.
type PhaseFinish struct {
	Phase    phase.Phase
	Failures int
	Duration time.Duration
}

// TaskStep is emitted after one task was stepped at Phase.
type TaskStep struct {
	Task     string
	Phase    phase.Phase
	Next     phase.Phase
	Err      error
	Duration time.Duration
}
