// Package plugin holds what the built-in generators share: the factory
// signature the loader registry stores and a phase-driven task for generators
// that read a GraphQL schema.
package plugin

import (
	"context"
	"fmt"
	"io"

	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/events"
	"github.com/hanpama/gqlforge/internal/language"
	"github.com/hanpama/gqlforge/internal/phase"
	"github.com/hanpama/gqlforge/internal/scheduler"
	"github.com/hanpama/gqlforge/internal/schemactx"
)

// Factory creates the task of one plugin bound to one output target.
type Factory func(name string) scheduler.Task

// Generator is implemented by plugins turning a schema into one output file.
type Generator interface {
	// Config returns the validator decoding the merged configuration.
	Config() scheduler.Validator
	// Generate builds the output model from the loaded schema.
	Generate(ctx context.Context, sc *schemactx.Context, logger *zap.Logger) error
	// Emit writes the output model.
	Emit(w io.Writer) error
}

// SchemaTask drives a Generator through the phases.
func SchemaTask(name string, g Generator) scheduler.Task {
	return &schemaTask{name: name, gen: g}
}

type schemaTask struct {
	name string
	gen  Generator
	sc   *schemactx.Context
}

func (t *schemaTask) Name() string { return t.name }

func (t *schemaTask) Step(ctx context.Context, tc *scheduler.TaskContext) (scheduler.Result, error) {
	switch tc.Phase() {
	case phase.Setup:
		return scheduler.Next(), nil
	case phase.ValidateConfig:
		return scheduler.Next(), tc.ValidateConfig(t.gen.Config())
	case phase.LoadInput:
		sc, err := LoadSchema(ctx, tc)
		if err != nil {
			return scheduler.Result{}, err
		}
		t.sc = sc
		return scheduler.Next(), nil
	case phase.Generate:
		return scheduler.Next(), t.gen.Generate(ctx, t.sc, tc.Logger())
	case phase.Emit:
		w, err := tc.Output()
		if err != nil {
			return scheduler.Result{}, err
		}
		if err := t.gen.Emit(w); err != nil {
			return scheduler.Result{}, fmt.Errorf("emit: %w", err)
		}
		return scheduler.Next(), nil
	}
	t.sc = nil
	return scheduler.Finish(), nil
}

// LoadSchema reads every input of the task and loads them as one schema.
func LoadSchema(ctx context.Context, tc *scheduler.TaskContext) (*schemactx.Context, error) {
	inputs, err := tc.LoadInput()
	if err != nil {
		return nil, err
	}
	var sources []*ast.Source
	for path, err := range inputs {
		if err != nil {
			return nil, err
		}
		data, err := tc.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		sources = append(sources, language.NewSource(path, string(data)))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no schema file matches %q", tc.Binding().Input)
	}

	sc, err := schemactx.Load(sources...)
	if err != nil {
		return nil, err
	}
	types := len(sc.Document().Definitions)
	tc.Logger().Debug("schema loaded", zap.Int("sources", len(sources)), zap.Int("types", types))
	eventbus.Emit(ctx, tc.Bus(), events.SchemaLoaded{Task: tc.Name(), Sources: len(sources), Types: types})
	return sc, nil
}
