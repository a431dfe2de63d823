package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, fs afero.Fs, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(context.Background(), fs, args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, afero.NewMemMapFs(), "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "gqlforge dev\n", out)
}

func TestPlugins(t *testing.T) {
	code, out, _ := run(t, afero.NewMemMapFs(), "plugins")
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"gqlforge/exportdir", "gqlforge/gomodel", "gqlforge/proto", "gqlforge/sdl"},
		strings.Fields(out))
}

func TestGenerate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/gqlforge.hcl", []byte(`
generate "gen/schema.graphql" {
  input = "*.graphql"
  plugin "gqlforge/sdl" {}
}
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/schema.graphql", []byte(`type Query { hello: String }`), 0o644))
	require.NoError(t, fs.MkdirAll("/work/sub", 0o755))

	code, _, stderr := run(t, fs, "generate", "--dir", "/work/sub", "--concurrency", "2")
	require.Equal(t, 0, code, stderr)

	out, err := afero.ReadFile(fs, "/work/gen/schema.graphql")
	require.NoError(t, err)
	assert.Contains(t, string(out), "type Query")
}

func TestGenerateReportsFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/custom.hcl", []byte(`
generate "schema.graphql" {
  input = "*.graphql"
  plugin "gqlforge/sdl" {}
}
`), 0o644))

	code, _, stderr := run(t, fs, "generate", "-c", "custom.hcl", "--dir", "/work")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "task schema.graphql:gqlforge/sdl failed during LoadInput: ")
	assert.Contains(t, stderr, "no schema file matches")
}

func TestGenerateWithoutConfig(t *testing.T) {
	code, _, stderr := run(t, afero.NewMemMapFs(), "generate", "--dir", "/nowhere")
	assert.Equal(t, 1, code)
	assert.Equal(t, "gqlforge: gqlforge.hcl not found\n", stderr)
}

func TestGenerateRejectsArguments(t *testing.T) {
	code, _, stderr := run(t, afero.NewMemMapFs(), "generate", "extra")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")
}
