package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hanpama/gqlforge/internal/codegen"
	"github.com/hanpama/gqlforge/internal/config"
	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/logging"
	"github.com/hanpama/gqlforge/internal/otel"
)

func newRootCmd(fs afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:   "gqlforge",
		Short: "GraphQL code generation driven by gqlforge.hcl",
		Long: `gqlforge reads the generate blocks of gqlforge.hcl and runs every
configured plugin against its inputs. Plugins advance through the phases
Setup, ValidateConfig, LoadInput, Generate, Emit and Cleanup together; a
failing plugin does not stop the others.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd(fs), newPluginsCmd(), newVersionCmd())
	return root
}

type generateFlags struct {
	config       string
	dir          string
	concurrency  int
	verbose      bool
	dev          bool
	otelEndpoint string
	otelService  string
}

func (f *generateFlags) register(fl *pflag.FlagSet) {
	fl.StringVarP(&f.config, "config", "c", "", "configuration file (default: "+config.FileName+" found from --dir upwards)")
	fl.StringVar(&f.dir, "dir", ".", "directory to look up the configuration from")
	fl.IntVar(&f.concurrency, "concurrency", 0, "maximum plugins stepped at once per phase (default: configuration value, then unlimited)")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fl.BoolVar(&f.dev, "dev", false, "human readable console logs")
	fl.StringVar(&f.otelEndpoint, "otel-endpoint", "", "OTLP/gRPC collector endpoint, tracing is off when empty")
	fl.StringVar(&f.otelService, "otel-service", "gqlforge", "OpenTelemetry service name")
}

func newGenerateCmd(fs afero.Fs) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Run every generate block of the configuration",
		Example: "gqlforge generate -c api/gqlforge.hcl --concurrency 4",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, fs, &flags)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func runGenerate(cmd *cobra.Command, fs afero.Fs, flags *generateFlags) error {
	ctx := cmd.Context()
	logger, err := logging.New(logging.Options{Verbose: flags.verbose, Development: flags.dev})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	ctx = logging.WithLogger(ctx, logger)

	bus := eventbus.New()
	eventbus.Use(bus)
	shutdown, err := otel.Setup(ctx, bus, flags.otelEndpoint, flags.otelService)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	path := flags.config
	if path == "" {
		if path, err = config.Find(fs, flags.dir); err != nil {
			return err
		}
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(flags.dir, path)
	}
	cfg, err := config.Load(fs, path)
	if err != nil {
		return err
	}

	g := codegen.New(codegen.Builtins(),
		codegen.WithFilesystem(fsys.New(fs)),
		codegen.WithLogger(logger),
		codegen.WithBus(bus),
		codegen.WithConcurrency(flags.concurrency),
	)
	if err := g.Run(ctx, cfg); err != nil {
		return err
	}
	logger.Info("generation finished", zap.Int("targets", len(cfg.Targets)))
	return nil
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the built-in plugins",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, m := range codegen.Builtins().Modules() {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gqlforge %s\n", version)
		},
	}
}
