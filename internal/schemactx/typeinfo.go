package schemactx

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

type roots struct {
	query, mutation, subscription string
}

func rootsOf(doc *ast.SchemaDocument) roots {
	var r roots
	for _, list := range []ast.SchemaDefinitionList{doc.Schema, doc.SchemaExtension} {
		for _, s := range list {
			for _, op := range s.OperationTypes {
				switch op.Operation {
				case ast.Query:
					r.query = op.Type
				case ast.Mutation:
					r.mutation = op.Type
				case ast.Subscription:
					r.subscription = op.Type
				}
			}
		}
	}
	// Undeclared operations fall back to their conventional type name.
	if r.query == "" {
		r.query = "Query"
	}
	if r.mutation == "" {
		r.mutation = "Mutation"
	}
	if r.subscription == "" {
		r.subscription = "Subscription"
	}
	return r
}

// TypeInfo is the index of types, fields and enum values collected while
// traversing a schema document. During traversal it also tracks the node
// being visited, its ancestors and the enclosing parent type.
type TypeInfo struct {
	roots roots

	definitions map[ast.DefinitionKind]map[string][]*ast.Definition
	fields      map[string]map[string]*ast.FieldDefinition
	qualified   map[string]*ast.FieldDefinition
	enumValues  map[string][]*ast.EnumValueDefinition
	interfaces  map[string][]string

	current    *Node
	parents    []*Node
	parentType *ast.Definition
}

func newTypeInfo(doc *ast.SchemaDocument) *TypeInfo {
	ti := &TypeInfo{
		roots:       rootsOf(doc),
		definitions: make(map[ast.DefinitionKind]map[string][]*ast.Definition),
		fields:      make(map[string]map[string]*ast.FieldDefinition),
		qualified:   make(map[string]*ast.FieldDefinition),
		enumValues:  make(map[string][]*ast.EnumValueDefinition),
		interfaces:  make(map[string][]string),
	}
	for _, k := range []ast.DefinitionKind{ast.Scalar, ast.Object, ast.Interface, ast.Union, ast.Enum, ast.InputObject} {
		ti.definitions[k] = make(map[string][]*ast.Definition)
	}
	return ti
}

func (ti *TypeInfo) enter(n *Node) error {
	switch n.Kind {
	case FieldDefinition:
		return ti.enterField(n.Field)
	case EnumValueDefinition:
		return ti.enterEnumValue(n.EnumValue)
	}
	if n.Kind.payload() != payloadDefinition {
		return nil
	}

	def := n.Definition
	byName := ti.definitions[def.Kind]
	if byName == nil {
		return fmt.Errorf("%w: %s has kind %q", ErrUnknownType, def.Name, def.Kind)
	}
	byName[def.Name] = append(byName[def.Name], def)

	switch def.Kind {
	case ast.Enum:
		if _, ok := ti.enumValues[def.Name]; !ok {
			ti.enumValues[def.Name] = []*ast.EnumValueDefinition{}
		}
	case ast.Object, ast.Interface, ast.InputObject:
		if _, ok := ti.fields[def.Name]; !ok {
			ti.fields[def.Name] = make(map[string]*ast.FieldDefinition)
		}
		for _, iface := range def.Interfaces {
			if !slices.Contains(ti.interfaces[def.Name], iface) {
				ti.interfaces[def.Name] = append(ti.interfaces[def.Name], iface)
			}
		}
		ti.parentType = def
	}
	return nil
}

func (ti *TypeInfo) enterField(f *ast.FieldDefinition) error {
	parent := ti.parentNode()
	if parent == nil || !parent.Kind.TypeDefining() {
		return fmt.Errorf("%w: %s", ErrFieldWithoutParent, f.Name)
	}
	typ := parent.Definition.Name
	q := typ + "." + f.Name
	if _, dup := ti.qualified[q]; dup {
		return &DuplicateFieldError{Type: typ, Field: f.Name, Position: f.Position}
	}
	ti.fields[typ][f.Name] = f
	ti.qualified[q] = f
	return nil
}

func (ti *TypeInfo) enterEnumValue(v *ast.EnumValueDefinition) error {
	parent := ti.parentNode()
	if parent == nil || parent.Kind.payload() != payloadDefinition || parent.Definition.Kind != ast.Enum {
		return fmt.Errorf("%w: value %s has no enclosing enum", ErrUnknownEnum, v.Name)
	}
	name := parent.Definition.Name
	values, ok := ti.enumValues[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEnum, name)
	}
	ti.enumValues[name] = append(values, v)
	return nil
}

func (ti *TypeInfo) leave(n *Node) {
	if n.Kind.TypeDefining() {
		ti.parentType = nil
	}
}

// retract undoes what enter recorded for n so that a replacement node can be
// entered in its place.
func (ti *TypeInfo) retract(n *Node) {
	switch n.Kind {
	case FieldDefinition:
		if parent := ti.parentNode(); parent != nil && parent.Kind.TypeDefining() {
			typ := parent.Definition.Name
			if ti.qualified[typ+"."+n.Field.Name] == n.Field {
				delete(ti.qualified, typ+"."+n.Field.Name)
				delete(ti.fields[typ], n.Field.Name)
			}
		}
	case EnumValueDefinition:
		if parent := ti.parentNode(); parent != nil && parent.Kind.payload() == payloadDefinition {
			name := parent.Definition.Name
			ti.enumValues[name] = slices.DeleteFunc(ti.enumValues[name], func(v *ast.EnumValueDefinition) bool {
				return v == n.EnumValue
			})
		}
	default:
		if n.Kind.payload() == payloadDefinition {
			def := n.Definition
			byName := ti.definitions[def.Kind]
			byName[def.Name] = slices.DeleteFunc(byName[def.Name], func(d *ast.Definition) bool { return d == def })
			if len(byName[def.Name]) == 0 {
				delete(byName, def.Name)
				if len(ti.fields[def.Name]) == 0 {
					delete(ti.fields, def.Name)
				}
				if len(ti.enumValues[def.Name]) == 0 {
					delete(ti.enumValues, def.Name)
				}
			}
			ti.interfaces[def.Name] = nil
			for _, d := range byName[def.Name] {
				for _, iface := range d.Interfaces {
					if !slices.Contains(ti.interfaces[def.Name], iface) {
						ti.interfaces[def.Name] = append(ti.interfaces[def.Name], iface)
					}
				}
			}
		}
	}
	ti.leave(n)
}

func (ti *TypeInfo) push(n *Node) { ti.parents = append(ti.parents, n) }

func (ti *TypeInfo) pop() { ti.parents = ti.parents[:len(ti.parents)-1] }

// parentNode returns the innermost ancestor of the node being visited.
func (ti *TypeInfo) parentNode() *Node {
	for i := len(ti.parents) - 1; i >= 0; i-- {
		if ti.parents[i] != ti.current {
			return ti.parents[i]
		}
	}
	return nil
}

func (ti *TypeInfo) finish() {
	ti.current = nil
	ti.parents = nil
	ti.parentType = nil
}

// Node returns the node being visited, or nil outside of a traversal.
func (ti *TypeInfo) Node() *Node { return ti.current }

// Parent returns the innermost ancestor of the node being visited.
func (ti *TypeInfo) Parent() *Node { return ti.parentNode() }

// ParentType returns the object, interface or input object whose fields are
// being visited.
func (ti *TypeInfo) ParentType() *ast.Definition { return ti.parentType }

// Fields returns the fields declared on typeName across its definition and
// extensions, keyed by field name.
func (ti *TypeInfo) Fields(typeName string) (map[string]*ast.FieldDefinition, error) {
	fields, ok := ti.fields[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return maps.Clone(fields), nil
}

// OrderedFields returns the fields of typeName in declaration order,
// definition first and then each extension.
func (ti *TypeInfo) OrderedFields(typeName string) []*ast.FieldDefinition {
	var out []*ast.FieldDefinition
	for _, def := range ti.Definitions(typeName) {
		for _, f := range def.Fields {
			if ti.qualified[typeName+"."+f.Name] == f {
				out = append(out, f)
			}
		}
	}
	return out
}

// Field looks up a field by its qualified name, "Type.field".
func (ti *TypeInfo) Field(qualified string) (*ast.FieldDefinition, bool) {
	f, ok := ti.qualified[qualified]
	return f, ok
}

// EnumValues returns the values of enum name in declaration order.
func (ti *TypeInfo) EnumValues(name string) ([]*ast.EnumValueDefinition, error) {
	values, ok := ti.enumValues[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnum, name)
	}
	return slices.Clone(values), nil
}

func (ti *TypeInfo) is(kind ast.DefinitionKind, name string) bool {
	_, ok := ti.definitions[kind][name]
	return ok
}

func (ti *TypeInfo) IsObjectType(name string) bool      { return ti.is(ast.Object, name) }
func (ti *TypeInfo) IsInterfaceType(name string) bool   { return ti.is(ast.Interface, name) }
func (ti *TypeInfo) IsUnionType(name string) bool       { return ti.is(ast.Union, name) }
func (ti *TypeInfo) IsEnumType(name string) bool        { return ti.is(ast.Enum, name) }
func (ti *TypeInfo) IsInputObjectType(name string) bool { return ti.is(ast.InputObject, name) }
func (ti *TypeInfo) IsScalarType(name string) bool      { return ti.is(ast.Scalar, name) }

func (ti *TypeInfo) IsQueryType(name string) bool {
	return name != "" && name == ti.roots.query
}

func (ti *TypeInfo) IsMutationType(name string) bool {
	return name != "" && name == ti.roots.mutation
}

func (ti *TypeInfo) IsSubscriptionType(name string) bool {
	return name != "" && name == ti.roots.subscription
}

// IsRootType reports whether name is any of the operation root types.
func (ti *TypeInfo) IsRootType(name string) bool {
	return ti.IsQueryType(name) || ti.IsMutationType(name) || ti.IsSubscriptionType(name)
}

// Interfaces returns the interfaces implemented by name, in the order they
// were first declared.
func (ti *TypeInfo) Interfaces(name string) []string {
	return slices.Clone(ti.interfaces[name])
}

// Implementations returns the object and interface types implementing iface.
func (ti *TypeInfo) Implementations(iface string) []string {
	var out []string
	for name, list := range ti.interfaces {
		if slices.Contains(list, iface) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Description joins the descriptions of every fragment of name. The second
// result is false when no fragment carries one.
func (ti *TypeInfo) Description(name string) (string, bool) {
	var parts []string
	for _, def := range ti.Definitions(name) {
		if def.Description != "" {
			parts = append(parts, def.Description)
		}
	}
	desc := strings.TrimSpace(strings.Join(parts, "\n"))
	return desc, desc != ""
}

// Definitions returns the definition and extensions of name in traversal
// order.
func (ti *TypeInfo) Definitions(name string) []*ast.Definition {
	var out []*ast.Definition
	for _, k := range []ast.DefinitionKind{ast.Scalar, ast.Object, ast.Interface, ast.Union, ast.Enum, ast.InputObject} {
		out = append(out, ti.definitions[k][name]...)
	}
	return out
}

// TypeNames returns the sorted names of every type of the given kind.
func (ti *TypeInfo) TypeNames(kind ast.DefinitionKind) []string {
	return slices.Sorted(maps.Keys(ti.definitions[kind]))
}

// UnionMembers returns the member types of union name, deduplicated in
// declaration order.
func (ti *TypeInfo) UnionMembers(name string) []string {
	var out []string
	for _, def := range ti.definitions[ast.Union][name] {
		for _, t := range def.Types {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}
