package loader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want Identifier
	}{
		{"gqlforge/sdl", Identifier{Module: "gqlforge/sdl", Export: "default", Default: true}},
		{"gqlforge/sdl#", Identifier{Module: "gqlforge/sdl", Export: "default", Default: true}},
		{"gqlforge/sdl#default", Identifier{Module: "gqlforge/sdl", Export: "default", Default: true}},
		{"gqlforge/sdl#[Schema]", Identifier{Module: "gqlforge/sdl", Export: "Schema", Default: true}},
		{"gqlforge/sdl#plugin", Identifier{Module: "gqlforge/sdl", Export: "plugin"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIdentifier(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseIdentifier mismatch (-want +got):\n%s", diff)
			}
		})
	}

	_, err := ParseIdentifier("#plugin")
	require.ErrorIs(t, err, ErrEmptyModule)
}

func TestIdentifierString(t *testing.T) {
	for _, s := range []string{"a/b", "a/b#[Name]", "a/b#named"} {
		id, err := ParseIdentifier(s)
		require.NoError(t, err)
		assert.Equal(t, s, id.String())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry[string]()
	require.NoError(t, r.Register("gqlforge/sdl", DefaultExport, "sdl"))
	require.NoError(t, r.Register("gqlforge/sdl", "strict", "sdl-strict"))
	require.ErrorIs(t, r.Register("gqlforge/sdl", "strict", "again"), ErrDuplicateEntry)

	for identifier, want := range map[string]string{
		"gqlforge/sdl":          "sdl",
		"gqlforge/sdl#default":  "sdl",
		"gqlforge/sdl#[Schema]": "sdl",
		"gqlforge/sdl#strict":   "sdl-strict",
	} {
		got, err := r.Resolve(identifier)
		require.NoError(t, err, identifier)
		assert.Equal(t, want, got, identifier)
	}

	_, err := r.Resolve("gqlforge/proto")
	require.ErrorIs(t, err, ErrUnknownModule)
	_, err = r.Resolve("gqlforge/sdl#loose")
	require.ErrorIs(t, err, ErrUnknownExport)

	assert.Equal(t, []string{"gqlforge/sdl", "gqlforge/sdl#strict"}, r.Modules())
}
