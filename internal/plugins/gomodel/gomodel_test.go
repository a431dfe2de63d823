package gomodel

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/phase"
	"github.com/hanpama/gqlforge/internal/scheduler"
)

const schemaSDL = `
scalar Time

"Something with an id."
interface Node { id: ID! }

type Pet implements Node {
	id: ID!
	"The name."
	name: String!
	ownerId: ID
	kind: Kind
	tags: [String!]!
	born: Time
	friends: [Node]
}

enum Kind { DOG CAT IN_PROGRESS }

union SearchResult = Pet

input PetFilter { kind: Kind, limit: Int }

type Query {
	pet(id: ID!): Pet
	search(filter: PetFilter, type: String): [SearchResult!]!
}

type Subscription { petAdded: Pet! }
`

func generate(t *testing.T, config map[string]any) (string, error) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/src/schema.graphql", []byte(schemaSDL), 0o644))

	s := scheduler.New(scheduler.WithFilesystem(fsys.New(mem)))
	require.NoError(t, s.Add(New("gomodel"), scheduler.Binding{
		Dir:          "/src",
		Input:        "*.graphql",
		Output:       "model/models_gen.go",
		PluginConfig: config,
	}))
	if err := s.Run(context.Background()); err != nil {
		return "", err
	}
	out, err := afero.ReadFile(mem, "/src/model/models_gen.go")
	require.NoError(t, err)
	return string(out), nil
}

func TestGenerateModels(t *testing.T) {
	out, err := generate(t, map[string]any{
		"package": "model",
		"scalars": map[string]any{"Time": "time.Time"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "// Code generated by gqlforge. DO NOT EDIT.\n")
	assert.Contains(t, out, "package model\n")
	assert.Regexp(t, `import\s+(\(\s*)?"context"`, out)
	assert.Contains(t, out, `"time"`)

	assert.Regexp(t, `type Kind string`, out)
	assert.Regexp(t, `KindInProgress\s+Kind = "IN_PROGRESS"`, out)
	assert.Contains(t, out, "func (e Kind) IsValid() bool")

	assert.Contains(t, out, "// Something with an id.\ntype Node interface {\n\tisNode()\n}")
	assert.Contains(t, out, "type SearchResult interface {\n\tisSearchResult()\n}")
	assert.Contains(t, out, "func (Pet) isNode() {}")
	assert.Contains(t, out, "func (Pet) isSearchResult() {}")

	assert.Regexp(t, `ID\s+string\s+`+"`json:\"id\"`", out)
	assert.Regexp(t, `OwnerID\s+\*string\s+`+"`json:\"ownerId,omitempty\"`", out)
	assert.Regexp(t, `Kind\s+\*Kind\s+`, out)
	assert.Regexp(t, `Tags\s+\[\]string\s+`, out)
	assert.Regexp(t, `Born\s+\*time\.Time\s+`, out)
	assert.Regexp(t, `Friends\s+\[\]Node\s+`, out)
	assert.Regexp(t, `Limit\s+\*int32\s+`, out)
	assert.Contains(t, out, "\t// The name.\n")

	assert.NotContains(t, out, "type Query struct")
	assert.Contains(t, out, "type QueryResolver interface {")
	assert.Contains(t, out, "Pet(ctx context.Context, id string) (*Pet, error)")
	assert.Contains(t, out, "Search(ctx context.Context, filter *PetFilter, type_ *string) ([]SearchResult, error)")
	assert.Contains(t, out, "PetAdded(ctx context.Context) (<-chan Pet, error)")
}

func TestUnmappedCustomScalarIsString(t *testing.T) {
	out, err := generate(t, map[string]any{"package": "model", "header": "custom header"})
	require.NoError(t, err)

	assert.Contains(t, out, "// custom header\n")
	assert.Regexp(t, `Born\s+\*string\s+`, out)
	assert.NotContains(t, out, `"time"`)
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{"missing package", nil},
		{"bad package", map[string]any{"package": "my-model"}},
		{"bad scalar", map[string]any{"package": "model", "scalars": map[string]any{"Time": "time.2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generate(t, tt.config)

			var runErr *scheduler.RunError
			require.ErrorAs(t, err, &runErr)
			require.Len(t, runErr.Failures, 1)
			assert.Equal(t, phase.ValidateConfig, runErr.Failures[0].Phase)
		})
	}
}

func TestGoName(t *testing.T) {
	tests := map[string]string{
		"id":          "ID",
		"ownerId":     "OwnerID",
		"name":        "Name",
		"in_progress": "InProgress",
		"URL":         "URL",
		"homepageUrl": "HomepageURL",
		"Pet":         "Pet",
	}
	for in, want := range tests {
		assert.Equal(t, want, goName(in), in)
	}
}

func TestSplitGoType(t *testing.T) {
	imp, expr, err := splitGoType("github.com/google/uuid.UUID")
	require.NoError(t, err)
	assert.Equal(t, "github.com/google/uuid", imp)
	assert.Equal(t, "uuid.UUID", expr)

	imp, expr, err = splitGoType("int64")
	require.NoError(t, err)
	assert.Empty(t, imp)
	assert.Equal(t, "int64", expr)

	_, _, err = splitGoType("")
	assert.Error(t, err)
}
