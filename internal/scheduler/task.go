package scheduler

import (
	"context"

	"github.com/hanpama/gqlforge/internal/phase"
)

// Task is one plugin instance bound to one output target. The scheduler calls
// Step once for every phase the task asked to be resumed at.
type Task interface {
	Name() string
	Step(ctx context.Context, tc *TaskContext) (Result, error)
}

// Result is what a step hands back to the scheduler.
type Result struct {
	// Done retires the task.
	Done bool
	// Next is the phase the task wants to resume at. The zero value means no
	// explicit request, in which case the task advances by exactly one phase.
	Next phase.Phase
}

// Next advances the task to the phase following the current one.
func Next() Result { return Result{} }

// Until resumes the task at p, skipping the phases in between.
func Until(p phase.Phase) Result { return Result{Next: p} }

// Finish completes the task.
func Finish() Result { return Result{Done: true} }

// StepFunc adapts a function to the Task interface.
type StepFunc func(ctx context.Context, tc *TaskContext) (Result, error)

type funcTask struct {
	name string
	fn   StepFunc
}

// NewTask returns a Task named name that runs fn on every step.
func NewTask(name string, fn StepFunc) Task { return &funcTask{name: name, fn: fn} }

func (t *funcTask) Name() string { return t.name }

func (t *funcTask) Step(ctx context.Context, tc *TaskContext) (Result, error) {
	return t.fn(ctx, tc)
}
