package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
dir         = "src"
concurrency = 4
config      = { header = "generated", home = env.HOME }

generate "gen/schema.graphql" {
  input  = "schema/**/*.graphql"
  config = { header = "target" }

  plugin "gqlforge/sdl" {
    config = { strip_descriptions = true, sort = ["a", "b"] }
  }
  plugin "gqlforge/proto#default" {}
}

generate "gen/index.ts" {
  dir   = "/abs"
  input = "*.ts"
  plugin "gqlforge/exportdir" {}
}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample), "/work/gqlforge.hcl", map[string]string{"HOME": "/home/me"})
	require.NoError(t, err)

	assert.Equal(t, "/work/src", f.Dir)
	assert.Equal(t, 4, f.Concurrency)
	assert.Equal(t, map[string]any{"header": "generated", "home": "/home/me"}, f.Config)

	require.Len(t, f.Targets, 2)
	gen := f.Targets[0]
	assert.Equal(t, "gen/schema.graphql", gen.Output)
	assert.Equal(t, "schema/**/*.graphql", gen.Input)
	assert.Equal(t, "/work/src", gen.Dir)
	require.Len(t, gen.Plugins, 2)
	assert.Equal(t, "gqlforge/sdl", gen.Plugins[0].Use)
	want := map[string]any{"strip_descriptions": true, "sort": []any{"a", "b"}}
	if diff := cmp.Diff(want, gen.Plugins[0].Config); diff != "" {
		t.Errorf("plugin config mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, gen.Plugins[1].Config)

	assert.Equal(t, "/abs", f.Targets[1].Dir)
}

func TestMergedConfig(t *testing.T) {
	f, err := Parse([]byte(sample), "/work/gqlforge.hcl", map[string]string{"HOME": "/home/me"})
	require.NoError(t, err)

	target, plugin := f.Merged(f.Targets[0], f.Targets[0].Plugins[0])
	assert.Equal(t, map[string]any{"header": "target", "home": "/home/me"}, target)
	assert.Equal(t, true, plugin["strip_descriptions"])

	target, plugin = f.Merged(f.Targets[1], f.Targets[1].Plugins[0])
	assert.Equal(t, "generated", target["header"])
	assert.Empty(t, plugin)
}

func TestParseNumbersBecomeFloats(t *testing.T) {
	f, err := Parse([]byte(`
generate "out" {
  plugin "p" {
    config = { limit = 3 }
  }
}`), "/gqlforge.hcl", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.Targets[0].Plugins[0].Config["limit"])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `generate "x" {`},
		{"unknown attribute", `colour = "red"`},
		{"missing plugin", `generate "x" {}`},
		{"config not an object", `config = "flat"`},
		{"unknown env", `config = { a = env.NOPE }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "/gqlforge.hcl", map[string]string{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "/gqlforge.hcl")
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/gqlforge.hcl", []byte("generate \"a\" {\n  plugin \"p\" {}\n}\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/repo/pkg/deep", 0o755))

	p, err := Find(fs, "/repo/pkg/deep")
	require.NoError(t, err)
	assert.Equal(t, "/repo/gqlforge.hcl", p)

	f, err := Load(fs, p)
	require.NoError(t, err)
	assert.Equal(t, "/repo", f.Dir)
	require.Len(t, f.Targets, 1)

	_, err = Find(afero.NewMemMapFs(), "/elsewhere")
	assert.ErrorIs(t, err, ErrNotFound)
}
