// Package scheduler drives plugin tasks through the phase lifecycle. Every
// phase is a barrier: all tasks waiting on a phase are stepped concurrently
// and the scheduler moves on only after every step settled. A task that fails
// is retired without affecting its siblings and the run reports every failure
// at the end.
package scheduler

import (
	"context"
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"time"

	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/events"
	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/phase"
	"github.com/hanpama/gqlforge/internal/runid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type entry struct {
	task     Task
	binding  Binding
	config   map[string]any
	resumeOn phase.Phase
	release  []func() error
	logger   *zap.Logger

	// outcome of the last step, written only by the goroutine stepping it
	res Result
	err error
	dur time.Duration
}

// Scheduler owns the phase clock of one run.
type Scheduler struct {
	opts    *Options
	entries []*entry
	byName  map[string]*entry
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Filesystem == nil {
		o.Filesystem = fsys.New(nil)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Scheduler{opts: o, byName: make(map[string]*entry)}
}

// Add registers t bound to b. The task starts waiting on Setup.
func (s *Scheduler) Add(t Task, b Binding) error {
	name := t.Name()
	if _, dup := s.byName[name]; dup {
		return fmt.Errorf("%w %q", ErrDuplicateTask, name)
	}
	config := maps.Clone(b.TargetConfig)
	if config == nil {
		config = make(map[string]any, len(b.PluginConfig))
	}
	maps.Copy(config, b.PluginConfig)

	e := &entry{
		task:     t,
		binding:  b,
		config:   config,
		resumeOn: phase.Setup,
		logger:   s.opts.Logger.With(zap.String("task", name)),
	}
	s.entries = append(s.entries, e)
	s.byName[name] = e
	return nil
}

// State returns the phase the named task waits on, or its terminal phase.
func (s *Scheduler) State(name string) (phase.Phase, bool) {
	e, ok := s.byName[name]
	if !ok {
		return 0, false
	}
	return e.resumeOn, true
}

// Run visits every phase once, in order. It returns a *RunError listing every
// failed task, or nil.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, ok := runid.FromContext(ctx); !ok {
		ctx, _ = runid.NewContext(ctx)
	}
	id, _ := runid.FromContext(ctx)
	logger := s.opts.Logger.With(zap.String("run", id))
	start := time.Now()

	eventbus.Emit(ctx, s.opts.Bus, events.RunStart{Tasks: s.names(s.entries)})
	logger.Debug("run started", zap.Int("tasks", len(s.entries)))

	var failures []Failure
	for _, p := range phase.Sequence {
		waiting := s.waitingOn(p)
		if len(waiting) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			for _, e := range waiting {
				failures = append(failures, s.fail(e, p, err))
			}
			continue
		}

		phaseStart := time.Now()
		eventbus.Emit(ctx, s.opts.Bus, events.PhaseStart{Phase: p, Tasks: s.names(waiting)})
		logger.Debug("phase started", zap.Stringer("phase", p), zap.Int("tasks", len(waiting)))

		s.stepAll(ctx, p, waiting)

		before := len(failures)
		for _, e := range waiting {
			failures = append(failures, s.advance(ctx, e, p)...)
		}

		eventbus.Emit(ctx, s.opts.Bus, events.PhaseFinish{
			Phase:    p,
			Failures: len(failures) - before,
			Duration: time.Since(phaseStart),
		})
	}

	eventbus.Emit(ctx, s.opts.Bus, events.RunFinish{Failures: len(failures), Duration: time.Since(start)})
	logger.Debug("run finished", zap.Int("failures", len(failures)), zap.Duration("duration", time.Since(start)))

	if len(failures) > 0 {
		return &RunError{Failures: failures}
	}
	return nil
}

func (s *Scheduler) waitingOn(p phase.Phase) []*entry {
	var out []*entry
	for _, e := range s.entries {
		if e.resumeOn == p {
			out = append(out, e)
		}
	}
	return out
}

func (s *Scheduler) names(es []*entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.task.Name()
	}
	return out
}

// stepAll is the barrier of phase p.
func (s *Scheduler) stepAll(ctx context.Context, p phase.Phase, waiting []*entry) {
	var g errgroup.Group
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}
	for _, e := range waiting {
		g.Go(func() error {
			s.step(ctx, e, p)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) step(ctx context.Context, e *entry, p phase.Phase) {
	tc := &TaskContext{
		ctx:    ctx,
		entry:  e,
		phase:  p,
		fs:     s.opts.Filesystem,
		logger: e.logger.With(zap.Stringer("phase", p)),
		bus:    s.opts.Bus,
	}
	e.res, e.err = Result{}, nil
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		e.dur = time.Since(start)
	}()
	e.res, e.err = e.task.Step(ctx, tc)
}

// transition computes where a task stepped at p goes next. An explicit
// request always wins; without one the task advances by exactly one phase.
func transition(p phase.Phase, res Result, err error) (phase.Phase, error) {
	switch {
	case err != nil:
		return phase.Failed, err
	case res.Done:
		return phase.Done, nil
	case res.Next == phase.Setup:
		return p.Next(), nil
	case !res.Next.Valid() || res.Next == phase.Failed || !p.Before(res.Next):
		return phase.Failed, fmt.Errorf("%w: %s requested while in %s", ErrBackwardPhase, res.Next, p)
	}
	return res.Next, nil
}

func (s *Scheduler) advance(ctx context.Context, e *entry, p phase.Phase) []Failure {
	next, err := transition(p, e.res, e.err)
	eventbus.Emit(ctx, s.opts.Bus, events.TaskStep{
		Task:     e.task.Name(),
		Phase:    p,
		Next:     next,
		Err:      err,
		Duration: e.dur,
	})
	if err != nil {
		return []Failure{s.fail(e, p, err)}
	}

	e.resumeOn = next
	e.logger.Debug("task stepped", zap.Stringer("phase", p), zap.Stringer("next", next), zap.Duration("duration", e.dur))
	if next != phase.Done {
		return nil
	}
	if err := s.release(e); err != nil {
		e.resumeOn = phase.Failed
		e.logger.Warn("task release failed", zap.Error(err))
		return []Failure{{Task: e.task.Name(), Phase: phase.Cleanup, Err: err}}
	}
	return nil
}

func (s *Scheduler) fail(e *entry, p phase.Phase, err error) Failure {
	e.resumeOn = phase.Failed
	e.logger.Warn("task failed", zap.Stringer("phase", p), zap.Error(err))
	if rerr := s.release(e); rerr != nil {
		e.logger.Warn("task release failed", zap.Error(rerr))
	}
	return Failure{Task: e.task.Name(), Phase: p, Err: err}
}

// release runs the task's release functions in reverse order. All of them run
// even when one fails; the first error is returned.
func (s *Scheduler) release(e *entry) error {
	var first error
	for _, fn := range slices.Backward(e.release) {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	e.release = nil
	return first
}
