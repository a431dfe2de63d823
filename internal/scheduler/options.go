package scheduler

import (
	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/fsys"
	"go.uber.org/zap"
)

// Options configures a Scheduler.
//
// Defaults:
// - Filesystem:  the operating system filesystem
// - Logger:      no-op
// - Bus:         the global event bus at construction time
// - Concurrency: unlimited (every task of a phase steps at once)
type Options struct {
	Filesystem  *fsys.Filesystem
	Logger      *zap.Logger
	Bus         *eventbus.Bus
	Concurrency int
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Logger: zap.NewNop(),
		Bus:    eventbus.Default(),
	}
}

func WithFilesystem(fs *fsys.Filesystem) Option { return func(o *Options) { o.Filesystem = fs } }
func WithLogger(l *zap.Logger) Option           { return func(o *Options) { o.Logger = l } }
func WithBus(b *eventbus.Bus) Option            { return func(o *Options) { o.Bus = b } }

// WithConcurrency caps how many steps of one phase run at the same time.
// Zero or less means no cap.
func WithConcurrency(n int) Option { return func(o *Options) { o.Concurrency = n } }
