// Package codegen turns a configuration file into scheduler tasks, one per
// plugin of every output target, and runs them.
package codegen

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hanpama/gqlforge/internal/config"
	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/loader"
	"github.com/hanpama/gqlforge/internal/plugin"
	"github.com/hanpama/gqlforge/internal/plugins/exportdir"
	"github.com/hanpama/gqlforge/internal/plugins/gomodel"
	"github.com/hanpama/gqlforge/internal/plugins/protofile"
	"github.com/hanpama/gqlforge/internal/plugins/sdl"
	"github.com/hanpama/gqlforge/internal/scheduler"
)

// Builtins returns a registry holding the plugins shipped with gqlforge as
// the default export of their module.
func Builtins() *loader.Registry[plugin.Factory] {
	r := loader.NewRegistry[plugin.Factory]()
	for module, f := range map[string]plugin.Factory{
		sdl.Module:       sdl.New,
		protofile.Module: protofile.New,
		gomodel.Module:   gomodel.New,
		exportdir.Module: exportdir.New,
	} {
		if err := r.Register(module, loader.DefaultExport, f); err != nil {
			panic(err)
		}
	}
	return r
}

// Generator runs the targets of a configuration file.
type Generator struct {
	registry    *loader.Registry[plugin.Factory]
	fs          *fsys.Filesystem
	logger      *zap.Logger
	bus         *eventbus.Bus
	concurrency int
}

type Option func(*Generator)

func WithFilesystem(fs *fsys.Filesystem) Option { return func(g *Generator) { g.fs = fs } }
func WithLogger(l *zap.Logger) Option           { return func(g *Generator) { g.logger = l } }
func WithBus(b *eventbus.Bus) Option            { return func(g *Generator) { g.bus = b } }

// WithConcurrency overrides the concurrency of the configuration file.
func WithConcurrency(n int) Option { return func(g *Generator) { g.concurrency = n } }

// New creates a Generator resolving plugins against registry.
func New(registry *loader.Registry[plugin.Factory], opts ...Option) *Generator {
	g := &Generator{registry: registry, logger: zap.NewNop(), bus: eventbus.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TaskName names the task of plugin use writing output.
func TaskName(output, use string) string { return output + ":" + use }

// Scheduler resolves every plugin of cfg and returns a scheduler holding
// their tasks. Unknown plugins fail before anything runs.
func (g *Generator) Scheduler(cfg *config.File) (*scheduler.Scheduler, error) {
	concurrency := cfg.Concurrency
	if g.concurrency > 0 {
		concurrency = g.concurrency
	}
	opts := []scheduler.Option{
		scheduler.WithLogger(g.logger),
		scheduler.WithBus(g.bus),
		scheduler.WithConcurrency(concurrency),
	}
	if g.fs != nil {
		opts = append(opts, scheduler.WithFilesystem(g.fs))
	}
	s := scheduler.New(opts...)

	for _, t := range cfg.Targets {
		for _, p := range t.Plugins {
			factory, err := g.registry.Resolve(p.Use)
			if err != nil {
				return nil, fmt.Errorf("generate %q: %w", t.Output, err)
			}
			targetConfig, pluginConfig := cfg.Merged(t, p)
			b := scheduler.Binding{
				Dir:          t.Dir,
				Input:        t.Input,
				Output:       t.Output,
				TargetConfig: targetConfig,
				PluginConfig: pluginConfig,
			}
			if err := s.Add(factory(TaskName(t.Output, p.Use)), b); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Run generates every target of cfg. Failed tasks are reported together in
// a *scheduler.RunError.
func (g *Generator) Run(ctx context.Context, cfg *config.File) error {
	s, err := g.Scheduler(cfg)
	if err != nil {
		return err
	}
	g.logger.Info("generating", zap.String("config", cfg.Path), zap.Int("targets", len(cfg.Targets)))
	return s.Run(ctx)
}
