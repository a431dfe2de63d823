package sdl

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/phase"
	"github.com/hanpama/gqlforge/internal/scheduler"
)

const (
	petSDL = `
"A pet."
type Pet {
	"The name."
	name: String!
}
`
	querySDL = `
type Query {
	pets(
		"How many."
		first: Int
	): [Pet!]!
}

extend type Pet {
	"Age in years."
	age: Int
}

"Kinds."
enum Kind {
	"Barks."
	DOG
	CAT
}
`
)

func generate(t *testing.T, config map[string]any) (string, error) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/src/pet.graphql", []byte(petSDL), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/src/query.graphql", []byte(querySDL), 0o644))

	s := scheduler.New(scheduler.WithFilesystem(fsys.New(mem)))
	require.NoError(t, s.Add(New("sdl"), scheduler.Binding{
		Dir:          "/src",
		Input:        "*.graphql",
		Output:       "out/schema.graphql",
		PluginConfig: config,
	}))
	if err := s.Run(context.Background()); err != nil {
		return "", err
	}
	out, err := afero.ReadFile(mem, "/src/out/schema.graphql")
	require.NoError(t, err)
	return string(out), nil
}

func TestMergesSources(t *testing.T) {
	out, err := generate(t, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "type Pet")
	assert.Contains(t, out, "extend type Pet")
	assert.Contains(t, out, "type Query")
	assert.Contains(t, out, "The name.")
	assert.Contains(t, out, "Barks.")
	assert.NotContains(t, out, "scalar String")
}

func TestStripDescriptions(t *testing.T) {
	out, err := generate(t, map[string]any{"strip_descriptions": true})
	require.NoError(t, err)

	for _, desc := range []string{"A pet.", "The name.", "How many.", "Age in years.", "Kinds.", "Barks."} {
		assert.NotContains(t, out, desc)
	}
	assert.Contains(t, out, "age: Int")
	assert.Contains(t, out, "DOG")
}

func TestSortAndHeader(t *testing.T) {
	out, err := generate(t, map[string]any{"sort": true, "header": "Code generated by gqlforge.\nDO NOT EDIT."})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Code generated by gqlforge.\n# DO NOT EDIT.\n\n"))
	kind, pet, query := strings.Index(out, "enum Kind"), strings.Index(out, "type Pet"), strings.Index(out, "type Query")
	require.True(t, kind >= 0 && pet >= 0 && query >= 0)
	assert.Less(t, kind, pet)
	assert.Less(t, pet, query)
}

func TestInvalidConfigFailsValidation(t *testing.T) {
	_, err := generate(t, map[string]any{"sort": "yes"})

	var runErr *scheduler.RunError
	require.ErrorAs(t, err, &runErr)
	require.Len(t, runErr.Failures, 1)
	assert.Equal(t, phase.ValidateConfig, runErr.Failures[0].Phase)
}

func TestNoInputs(t *testing.T) {
	s := scheduler.New(scheduler.WithFilesystem(fsys.New(afero.NewMemMapFs())))
	require.NoError(t, s.Add(New("sdl"), scheduler.Binding{Dir: "/src", Input: "*.graphql", Output: "out.graphql"}))
	err := s.Run(context.Background())

	var runErr *scheduler.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, phase.LoadInput, runErr.Failures[0].Phase)
	assert.ErrorContains(t, err, "no schema file matches")
}
