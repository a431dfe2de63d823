package scheduler

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/hanpama/gqlforge/internal/phase"
)

// ErrStopped is returned from Yield when the task was released while the
// body was suspended.
var ErrStopped = errors.New("coroutine stopped")

// CoroutineFunc is the body of a coroutine task. It runs on its own goroutine
// and hands control back to the scheduler with Yield or YieldUntil. Returning
// nil completes the task; returning an error fails it at the current phase.
type CoroutineFunc func(ctx context.Context, y *Yielder) error

type yieldMsg struct {
	next phase.Phase
	done bool
	err  error
}

type coroutine struct {
	name string
	body CoroutineFunc

	start  sync.Once
	resume chan *TaskContext
	yield  chan yieldMsg
	quit   chan struct{}
	stop   sync.Once
}

// Coroutine returns a Task running body as a suspendable computation. The
// body only advances while the scheduler steps the task, so it never
// overlaps with the barrier of another phase.
func Coroutine(name string, body CoroutineFunc) Task {
	return &coroutine{
		name:   name,
		body:   body,
		resume: make(chan *TaskContext),
		yield:  make(chan yieldMsg),
		quit:   make(chan struct{}),
	}
}

func (c *coroutine) Name() string { return c.name }

func (c *coroutine) Step(ctx context.Context, tc *TaskContext) (Result, error) {
	c.start.Do(func() {
		tc.Defer(func() error {
			c.stop.Do(func() { close(c.quit) })
			return nil
		})
		go c.run(ctx)
	})

	select {
	case c.resume <- tc:
	case <-c.quit:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case m := <-c.yield:
		switch {
		case m.err != nil:
			return Result{}, m.err
		case m.done:
			return Finish(), nil
		}
		return Until(m.next), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (c *coroutine) run(ctx context.Context) {
	var tc *TaskContext
	select {
	case tc = <-c.resume:
	case <-c.quit:
		return
	case <-ctx.Done():
		return
	}

	y := &Yielder{c: c, ctx: ctx, tc: tc}
	msg := yieldMsg{done: true}
	func() {
		defer func() {
			if r := recover(); r != nil {
				msg.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		msg.err = c.body(ctx, y)
	}()

	select {
	case c.yield <- msg:
	case <-c.quit:
	case <-ctx.Done():
	}
}

// Yielder suspends a coroutine body at phase boundaries.
type Yielder struct {
	c   *coroutine
	ctx context.Context
	tc  *TaskContext
}

// Task returns the context of the step the body currently runs in.
func (y *Yielder) Task() *TaskContext { return y.tc }

// Phase is shorthand for Task().Phase().
func (y *Yielder) Phase() phase.Phase { return y.tc.Phase() }

// Yield suspends until the next phase.
func (y *Yielder) Yield() error { return y.YieldUntil(phase.Setup) }

// YieldUntil suspends until the scheduler reaches p. Passing Setup behaves
// like Yield.
func (y *Yielder) YieldUntil(p phase.Phase) error {
	select {
	case y.c.yield <- yieldMsg{next: p}:
	case <-y.c.quit:
		return ErrStopped
	case <-y.ctx.Done():
		return y.ctx.Err()
	}
	select {
	case tc := <-y.c.resume:
		y.tc = tc
		return nil
	case <-y.c.quit:
		return ErrStopped
	case <-y.ctx.Done():
		return y.ctx.Err()
	}
}
