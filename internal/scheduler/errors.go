package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/gqlforge/internal/phase"
)

var (
	// ErrBackwardPhase is returned when a task requests a phase that does not
	// come after the one it was stepped at.
	ErrBackwardPhase = errors.New("requested phase does not advance")
	// ErrWrongPhase is wrapped by PhaseError.
	ErrWrongPhase    = errors.New("operation not available in this phase")
	// ErrDuplicateTask is returned by Add for a name already registered.
	ErrDuplicateTask = errors.New("duplicate task name")
)

// PhaseError reports a phase-scoped TaskContext operation called at the wrong
// time.
type PhaseError struct {
	Op      string
	Allowed phase.Phase
	Current phase.Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s is only available during %s, called during %s", e.Op, e.Allowed, e.Current)
}

func (e *PhaseError) Unwrap() error { return ErrWrongPhase }

// PanicError is a recovered panic raised inside a step.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Failure records the phase at which a task failed and why.
type Failure struct {
	Task  string
	Phase phase.Phase
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("task %s failed during %s: %v", f.Task, f.Phase, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// RunError is returned by Run when at least one task failed.
type RunError struct {
	Failures []Failure
}

func (e *RunError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d tasks failed:\n", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("- " + f.Error() + "\n")
	}
	return b.String()
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
