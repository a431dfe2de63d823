package schemactx

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// Kind identifies the AST node kinds the traversal visits.
type Kind int

const (
	SchemaDefinition Kind = iota
	SchemaExtension
	DirectiveDefinition
	ScalarTypeDefinition
	ScalarTypeExtension
	ObjectTypeDefinition
	ObjectTypeExtension
	InterfaceTypeDefinition
	InterfaceTypeExtension
	UnionTypeDefinition
	UnionTypeExtension
	EnumTypeDefinition
	EnumTypeExtension
	InputObjectTypeDefinition
	InputObjectTypeExtension
	FieldDefinition
	ArgumentDefinition
	EnumValueDefinition
	TypeReference
	NamedType
	Directive
)

var kindNames = [...]string{
	SchemaDefinition:          "SchemaDefinition",
	SchemaExtension:           "SchemaExtension",
	DirectiveDefinition:       "DirectiveDefinition",
	ScalarTypeDefinition:      "ScalarTypeDefinition",
	ScalarTypeExtension:       "ScalarTypeExtension",
	ObjectTypeDefinition:      "ObjectTypeDefinition",
	ObjectTypeExtension:       "ObjectTypeExtension",
	InterfaceTypeDefinition:   "InterfaceTypeDefinition",
	InterfaceTypeExtension:    "InterfaceTypeExtension",
	UnionTypeDefinition:       "UnionTypeDefinition",
	UnionTypeExtension:        "UnionTypeExtension",
	EnumTypeDefinition:        "EnumTypeDefinition",
	EnumTypeExtension:         "EnumTypeExtension",
	InputObjectTypeDefinition: "InputObjectTypeDefinition",
	InputObjectTypeExtension:  "InputObjectTypeExtension",
	FieldDefinition:           "FieldDefinition",
	ArgumentDefinition:        "ArgumentDefinition",
	EnumValueDefinition:       "EnumValueDefinition",
	TypeReference:             "TypeReference",
	NamedType:                 "NamedType",
	Directive:                 "Directive",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// TypeDefining reports whether nodes of kind k become the parent type of the
// fields below them.
func (k Kind) TypeDefining() bool {
	switch k {
	case ObjectTypeDefinition, ObjectTypeExtension,
		InterfaceTypeDefinition, InterfaceTypeExtension,
		InputObjectTypeDefinition, InputObjectTypeExtension:
		return true
	}
	return false
}

// Extension reports whether k is the extension form of a type or schema.
func (k Kind) Extension() bool {
	switch k {
	case SchemaExtension, ScalarTypeExtension, ObjectTypeExtension, InterfaceTypeExtension,
		UnionTypeExtension, EnumTypeExtension, InputObjectTypeExtension:
		return true
	}
	return false
}

type payload int

const (
	payloadSchema payload = iota
	payloadDirectiveDefinition
	payloadDefinition
	payloadField
	payloadArgument
	payloadEnumValue
	payloadType
	payloadNamedType
	payloadDirective
)

func (k Kind) payload() payload {
	switch k {
	case SchemaDefinition, SchemaExtension:
		return payloadSchema
	case DirectiveDefinition:
		return payloadDirectiveDefinition
	case FieldDefinition:
		return payloadField
	case ArgumentDefinition:
		return payloadArgument
	case EnumValueDefinition:
		return payloadEnumValue
	case TypeReference:
		return payloadType
	case NamedType:
		return payloadNamedType
	case Directive:
		return payloadDirective
	}
	return payloadDefinition
}

// Node is one visited AST node. Exactly the field matching Kind is set.
type Node struct {
	Kind Kind

	Schema              *ast.SchemaDefinition
	DirectiveDefinition *ast.DirectiveDefinition
	Definition          *ast.Definition
	Field               *ast.FieldDefinition
	Argument            *ast.ArgumentDefinition
	EnumValue           *ast.EnumValueDefinition
	Type                *ast.Type
	TypeName            string
	Directive           *ast.Directive
}

// Name returns the name the node declares or references.
func (n *Node) Name() string {
	switch n.Kind.payload() {
	case payloadDirectiveDefinition:
		return n.DirectiveDefinition.Name
	case payloadDefinition:
		return n.Definition.Name
	case payloadField:
		return n.Field.Name
	case payloadArgument:
		return n.Argument.Name
	case payloadEnumValue:
		return n.EnumValue.Name
	case payloadType:
		return n.Type.Name()
	case payloadNamedType:
		return n.TypeName
	case payloadDirective:
		return n.Directive.Name
	}
	return ""
}

func (n *Node) String() string { return n.Kind.String() + " " + n.Name() }

func (n *Node) valid() bool {
	switch n.Kind.payload() {
	case payloadSchema:
		return n.Schema != nil
	case payloadDirectiveDefinition:
		return n.DirectiveDefinition != nil
	case payloadDefinition:
		return n.Definition != nil
	case payloadField:
		return n.Field != nil
	case payloadArgument:
		return n.Argument != nil
	case payloadEnumValue:
		return n.EnumValue != nil
	case payloadType:
		return n.Type != nil
	case payloadNamedType:
		return n.TypeName != ""
	case payloadDirective:
		return n.Directive != nil
	}
	return false
}

// DefinitionNode wraps a type definition or, when extension is set, a type
// extension.
func DefinitionNode(def *ast.Definition, extension bool) *Node {
	return &Node{Kind: definitionKind(def.Kind, extension), Definition: def}
}

func FieldNode(f *ast.FieldDefinition) *Node { return &Node{Kind: FieldDefinition, Field: f} }

func ArgumentNode(a *ast.ArgumentDefinition) *Node {
	return &Node{Kind: ArgumentDefinition, Argument: a}
}

func EnumValueNode(v *ast.EnumValueDefinition) *Node {
	return &Node{Kind: EnumValueDefinition, EnumValue: v}
}

func definitionKind(k ast.DefinitionKind, extension bool) Kind {
	var def, ext Kind
	switch k {
	case ast.Scalar:
		def, ext = ScalarTypeDefinition, ScalarTypeExtension
	case ast.Object:
		def, ext = ObjectTypeDefinition, ObjectTypeExtension
	case ast.Interface:
		def, ext = InterfaceTypeDefinition, InterfaceTypeExtension
	case ast.Union:
		def, ext = UnionTypeDefinition, UnionTypeExtension
	case ast.Enum:
		def, ext = EnumTypeDefinition, EnumTypeExtension
	case ast.InputObject:
		def, ext = InputObjectTypeDefinition, InputObjectTypeExtension
	}
	if extension {
		return ext
	}
	return def
}
