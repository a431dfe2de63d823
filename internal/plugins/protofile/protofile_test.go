package protofile

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

const schema = `
scalar Time

"A pet."
interface Node { id: ID! }

type Pet implements Node {
	id: ID!
	"The name."
	name: String!
	age: Int
	tags: [String!]!
	kind: Kind
	born: Time
	weight: Float
}

type Toy implements Node { id: ID! }

union Thing = Pet | Toy

enum Kind { DOG CAT }

input PetFilter { kind: Kind, nameLike: String }

type Query { node(id: ID!): Node }
`

func generate(t *testing.T, config map[string]any) (string, error) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/src/schema.graphql", []byte(schema), 0o644))

	s := scheduler.New(scheduler.WithFilesystem(fsys.New(mem)))
	require.NoError(t, s.Add(New("proto"), scheduler.Binding{
		Dir:          "/src",
		Input:        "schema.graphql",
		Output:       "gen/pets.proto",
		PluginConfig: config,
	}))
	if err := s.Run(context.Background()); err != nil {
		return "", err
	}
	out, err := afero.ReadFile(mem, "/src/gen/pets.proto")
	require.NoError(t, err)
	return string(out), nil
}

func TestRender(t *testing.T) {
	out, err := generate(t, map[string]any{
		"package":    "pets.v1",
		"go_package": "example.com/pets/v1;petsv1",
		"scalars":    map[string]any{"Time": "int64"},
		"header":     "Code generated by gqlforge. DO NOT EDIT.",
	})
	require.NoError(t, err)

	for _, want := range []string{
		"// Code generated by gqlforge. DO NOT EDIT.",
		`syntax = "proto3";`,
		"package pets.v1;",
		`option go_package = "example.com/pets/v1;petsv1";`,
		"message Pet {",
		"message Toy {",
		"message Node {",
		"message Thing {",
		"message PetFilter {",
		"enum Kind {",
		"KIND_UNSPECIFIED = 0;",
		"KIND_DOG = ",
		"string name = ",
		"optional int32 age = ",
		"repeated string tags = ",
		"optional Kind kind = ",
		"optional int64 born = ",
		"optional double weight = ",
		"optional string name_like = ",
		"oneof value {",
		"// The name.",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "message Query")
}

func TestPackageIsRequired(t *testing.T) {
	_, err := generate(t, map[string]any{})

	var runErr *scheduler.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, phase.ValidateConfig, runErr.Failures[0].Phase)
	assert.ErrorContains(t, err, "package is required")
}

func TestUnknownScalarMapping(t *testing.T) {
	_, err := generate(t, map[string]any{"package": "pets", "scalars": map[string]any{"Time": "timestamp"}})
	assert.ErrorContains(t, err, `unknown proto type "timestamp"`)
}

func TestHashNumbers(t *testing.T) {
	names := []string{"id", "name", "age", "tags", "kind", "born", "weight"}
	first, err := hashNumbers(names)
	require.NoError(t, err)
	again, err := hashNumbers([]string{"weight", "born", "kind", "tags", "age", "name", "id"})
	require.NoError(t, err)

	seen := make(map[int]bool)
	for i, n := range first {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, maxNumber)
		assert.False(t, n >= reservedStart && n <= reservedEnd)
		assert.False(t, seen[n], "number %d assigned twice", n)
		seen[n] = true
		assert.Equal(t, n, again[len(names)-1-i], "number of %s depends on order", names[i])
	}
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "name_like", snakeCase("nameLike"))
	assert.Equal(t, "pet_filter", snakeCase("PetFilter"))
	assert.Equal(t, "PET_FILTER_UNSPECIFIED", string(nameEnumValue("PetFilter", "unspecified")))
}
