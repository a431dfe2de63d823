package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hanpama/gqlforge/internal/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoroutineYieldsAtPhaseBoundaries(t *testing.T) {
	var visited []phase.Phase
	task := Coroutine("co", func(_ context.Context, y *Yielder) error {
		visited = append(visited, y.Phase())
		if err := y.YieldUntil(phase.LoadInput); err != nil {
			return err
		}
		visited = append(visited, y.Phase())
		if err := y.Yield(); err != nil {
			return err
		}
		visited = append(visited, y.Phase())
		if err := y.YieldUntil(phase.Cleanup); err != nil {
			return err
		}
		visited = append(visited, y.Phase())
		return nil
	})

	s := New()
	require.NoError(t, s.Add(task, Binding{}))
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []phase.Phase{phase.Setup, phase.LoadInput, phase.Generate, phase.Cleanup}, visited)
	state, _ := s.State("co")
	assert.Equal(t, phase.Done, state)
}

func TestCoroutineErrorFailsCurrentPhase(t *testing.T) {
	task := Coroutine("co", func(_ context.Context, y *Yielder) error {
		if err := y.YieldUntil(phase.Generate); err != nil {
			return err
		}
		return errors.New("generation failed")
	})

	s := New()
	require.NoError(t, s.Add(task, Binding{}))
	err := s.Run(context.Background())

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	require.Len(t, runErr.Failures, 1)
	assert.Equal(t, phase.Generate, runErr.Failures[0].Phase)
	assert.EqualError(t, runErr.Failures[0].Err, "generation failed")
}

func TestCoroutineIsStoppedWhenReleased(t *testing.T) {
	stopped := make(chan error, 1)
	task := Coroutine("co", func(_ context.Context, y *Yielder) error {
		// Yielding from Cleanup retires the task with the body suspended.
		for {
			if err := y.Yield(); err != nil {
				stopped <- err
				return err
			}
		}
	})

	s := New()
	require.NoError(t, s.Add(task, Binding{}))
	require.NoError(t, s.Run(context.Background()))

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("coroutine body was not stopped")
	}
}

func TestCoroutinePanicIsRecovered(t *testing.T) {
	task := Coroutine("co", func(context.Context, *Yielder) error {
		panic("inside body")
	})

	s := New()
	require.NoError(t, s.Add(task, Binding{}))
	err := s.Run(context.Background())

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "inside body", panicErr.Value)
}
