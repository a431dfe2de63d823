package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/events"
	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/phase"
	"go.uber.org/zap"
)

// Binding ties a task to its output target.
type Binding struct {
	// Dir is the base directory relative patterns are resolved against.
	Dir string
	// Input is the glob enumerated during LoadInput. It may be empty for
	// plugins that do not read inputs.
	Input string
	// Output is the output path, or an output pattern with one wildcard.
	Output string
	// TargetConfig is the configuration of the output target.
	TargetConfig map[string]any
	// PluginConfig is the raw configuration of the plugin. Its keys win over
	// TargetConfig.
	PluginConfig map[string]any
}

// Validator checks a merged plugin configuration.
type Validator interface {
	Validate(config map[string]any) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(config map[string]any) error

func (f ValidatorFunc) Validate(config map[string]any) error { return f(config) }

// Decode returns a Validator that decodes the merged configuration into dst
// by its json tags. When dst has a Validate() error method it is called after
// decoding.
func Decode(dst any) Validator {
	return ValidatorFunc(func(config map[string]any) error {
		raw, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
		if v, ok := dst.(interface{ Validate() error }); ok {
			return v.Validate()
		}
		return nil
	})
}

// TaskContext is handed to a task for the duration of one step. Operations
// tied to a phase fail with a *PhaseError outside of it.
type TaskContext struct {
	ctx    context.Context
	entry  *entry
	phase  phase.Phase
	fs     *fsys.Filesystem
	logger *zap.Logger
	bus    *eventbus.Bus
}

func (tc *TaskContext) Name() string         { return tc.entry.task.Name() }
func (tc *TaskContext) Phase() phase.Phase   { return tc.phase }
func (tc *TaskContext) Binding() Binding     { return tc.entry.binding }
func (tc *TaskContext) Logger() *zap.Logger  { return tc.logger }
func (tc *TaskContext) Bus() *eventbus.Bus   { return tc.bus }
func (tc *TaskContext) Fs() *fsys.Filesystem { return tc.fs }

func (tc *TaskContext) guard(op string, allowed phase.Phase) error {
	if tc.phase != allowed {
		return &PhaseError{Op: op, Allowed: allowed, Current: tc.phase}
	}
	return nil
}

// Config returns a copy of the plugin configuration merged over the target
// configuration.
func (tc *TaskContext) Config() map[string]any {
	return maps.Clone(tc.entry.config)
}

// ValidateConfig runs v against the merged configuration.
func (tc *TaskContext) ValidateConfig(v Validator) error {
	if err := tc.guard("ValidateConfig", phase.ValidateConfig); err != nil {
		return err
	}
	if err := v.Validate(tc.Config()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadInput returns the lazily enumerated input files of the binding.
func (tc *TaskContext) LoadInput() (iter.Seq2[string, error], error) {
	if err := tc.guard("LoadInput", phase.LoadInput); err != nil {
		return nil, err
	}
	b := tc.entry.binding
	if b.Input == "" {
		return nil, errors.New("no input pattern configured")
	}
	return tc.fs.Enumerate(b.Dir, b.Input), nil
}

// ReadFile reads one input file.
func (tc *TaskContext) ReadFile(path string) ([]byte, error) {
	if err := tc.guard("ReadFile", phase.LoadInput); err != nil {
		return nil, err
	}
	return tc.fs.ReadFile(path)
}

// ResolveOutput templates the binding's output pattern against input.
func (tc *TaskContext) ResolveOutput(input string) (string, error) {
	b := tc.entry.binding
	out, err := fsys.CompileOutputPath(input, fsys.Abs(b.Dir, b.Input), fsys.Abs(b.Dir, b.Output))
	if err != nil {
		return "", err
	}
	return out, nil
}

// OutputStreams opens one writer per distinct output path resolved from
// inputs. The writers are closed when the task is released.
func (tc *TaskContext) OutputStreams(inputs ...string) (map[string]io.Writer, error) {
	if err := tc.guard("OutputStreams", phase.Emit); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(inputs))
	for _, in := range inputs {
		p, err := tc.ResolveOutput(in)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	opened, err := tc.fs.OpenOutputs(paths...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]io.Writer, len(opened))
	for p, w := range opened {
		tc.hold(p, w)
		out[p] = w
	}
	return out, nil
}

// Output opens the writer for the binding's output path, which must not be a
// pattern. The writer is closed when the task is released.
func (tc *TaskContext) Output() (io.Writer, error) {
	if err := tc.guard("Output", phase.Emit); err != nil {
		return nil, err
	}
	b := tc.entry.binding
	if fsys.IsWildcardPath(b.Output) {
		return nil, fmt.Errorf("output %q is a pattern, use OutputStreams", b.Output)
	}
	p := fsys.Abs(b.Dir, b.Output)
	w, err := tc.fs.OpenOutput(p)
	if err != nil {
		return nil, err
	}
	tc.hold(p, w)
	return w, nil
}

func (tc *TaskContext) hold(path string, w io.Closer) {
	tc.logger.Debug("output opened", zap.String("path", path))
	eventbus.Emit(tc.ctx, tc.bus, events.OutputOpened{Task: tc.Name(), Path: path})
	tc.Defer(func() error {
		if err := w.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		return nil
	})
}

// Defer registers fn to run when the task is released. Release functions run
// in reverse registration order.
func (tc *TaskContext) Defer(fn func() error) {
	tc.entry.release = append(tc.entry.release, fn)
}
