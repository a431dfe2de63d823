package codegen

import (
	"context"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/tools/txtar"

	"github.com/hanpama/gqlforge/internal/config"
	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/loader"
	"github.com/hanpama/gqlforge/internal/scheduler"
)

const workDir = "/work"

// TestFixtures runs every testdata/*.txtar archive. Plain files are written
// under /work, "want/<path>" must equal the generated file, every line of
// "contains/<path>" must appear in it and "failures" lists the expected
// "<task> <phase>" failures.
func TestFixtures(t *testing.T) {
	archives, err := filepath.Glob("testdata/*.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, archives)

	for _, file := range archives {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			require.NoError(t, err)

			mem := afero.NewMemMapFs()
			want := make(map[string]string)
			contains := make(map[string]string)
			var wantFailures []string
			for _, f := range ar.Files {
				switch {
				case strings.HasPrefix(f.Name, "want/"):
					want[strings.TrimPrefix(f.Name, "want/")] = string(f.Data)
				case strings.HasPrefix(f.Name, "contains/"):
					contains[strings.TrimPrefix(f.Name, "contains/")] = string(f.Data)
				case f.Name == "failures":
					wantFailures = strings.Fields(strings.ReplaceAll(string(f.Data), " ", "@"))
				default:
					require.NoError(t, afero.WriteFile(mem, path.Join(workDir, f.Name), f.Data, 0o644))
				}
			}

			cfg, err := config.Load(mem, path.Join(workDir, config.FileName))
			require.NoError(t, err)
			g := New(Builtins(), WithFilesystem(fsys.New(mem)), WithBus(eventbus.New()))
			err = g.Run(context.Background(), cfg)

			if len(wantFailures) == 0 {
				require.NoError(t, err)
			} else {
				var runErr *scheduler.RunError
				require.ErrorAs(t, err, &runErr)
				var got []string
				for _, f := range runErr.Failures {
					got = append(got, f.Task+"@"+f.Phase.String())
				}
				slices.Sort(got)
				if diff := cmp.Diff(wantFailures, got); diff != "" {
					t.Errorf("failures mismatch (-want +got):\n%s", diff)
				}
			}

			for name, data := range want {
				out, err := afero.ReadFile(mem, path.Join(workDir, name))
				require.NoError(t, err, name)
				if diff := cmp.Diff(data, string(out)); diff != "" {
					t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
				}
			}
			for name, data := range contains {
				out, err := afero.ReadFile(mem, path.Join(workDir, name))
				require.NoError(t, err, name)
				for _, line := range strings.Split(strings.TrimSpace(data), "\n") {
					assert.Contains(t, string(out), line, name)
				}
			}
		})
	}
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{
		"gqlforge/exportdir",
		"gqlforge/gomodel",
		"gqlforge/proto",
		"gqlforge/sdl",
	}, Builtins().Modules())
}

func TestUnknownPluginFailsBeforeRunning(t *testing.T) {
	cfg, err := config.Parse([]byte(`
generate "out.graphql" {
  plugin "gqlforge/sdl" {}
  plugin "acme/missing" {}
}`), "/gqlforge.hcl", nil)
	require.NoError(t, err)

	_, err = New(Builtins()).Scheduler(cfg)
	assert.ErrorIs(t, err, loader.ErrUnknownModule)
	assert.ErrorContains(t, err, `generate "out.graphql"`)
}

func TestDuplicatePluginOnTarget(t *testing.T) {
	cfg, err := config.Parse([]byte(`
generate "out.graphql" {
  plugin "gqlforge/sdl" {}
  plugin "gqlforge/sdl" {}
}`), "/gqlforge.hcl", nil)
	require.NoError(t, err)

	_, err = New(Builtins()).Scheduler(cfg)
	assert.ErrorIs(t, err, scheduler.ErrDuplicateTask)
}

func TestRunLogsConfig(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/work/a.ts", []byte("export const a = 1;\n"), 0o644))

	cfg, err := config.Parse([]byte(`
generate "index.ts" {
  input = "*.ts"
  plugin "gqlforge/exportdir" {
    config = { export_type = "reexport", import_template = "a" }
  }
}`), "/work/gqlforge.hcl", nil)
	require.NoError(t, err)

	g := New(Builtins(), WithFilesystem(fsys.New(mem)), WithLogger(zap.New(core)), WithBus(eventbus.New()), WithConcurrency(1))
	require.NoError(t, g.Run(context.Background(), cfg))

	entries := logs.FilterMessage("generating").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/work/gqlforge.hcl", entries[0].ContextMap()["config"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["targets"])

	out, err := afero.ReadFile(mem, "/work/index.ts")
	require.NoError(t, err)
	assert.Contains(t, string(out), "export { a } from './a';")
}
