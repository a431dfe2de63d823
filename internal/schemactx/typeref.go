package schemactx

import "github.com/vektah/gqlparser/v2/ast"

// TypeRef is a resolved type reference: a named type wrapped in any number of
// list and non-null modifiers.
type TypeRef struct {
	Name    string
	NonNull bool
	Elem    *TypeRef
}

// ResolveType converts a parsed type reference.
func ResolveType(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	ref := &TypeRef{NonNull: t.NonNull}
	if t.Elem != nil {
		ref.Elem = ResolveType(t.Elem)
		return ref
	}
	ref.Name = t.NamedType
	return ref
}

func (r *TypeRef) IsList() bool { return r.Elem != nil }

func (r *TypeRef) Nullable() bool { return !r.NonNull }

// Named returns the innermost named type.
func (r *TypeRef) Named() string {
	for r.Elem != nil {
		r = r.Elem
	}
	return r.Name
}

func (r *TypeRef) String() string {
	s := r.Name
	if r.Elem != nil {
		s = "[" + r.Elem.String() + "]"
	}
	if r.NonNull {
		s += "!"
	}
	return s
}
