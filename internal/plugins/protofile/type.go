package protofile

import (
	"fmt"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/hanpama/gqlforge/internal/schemactx"
)

type resolvedType struct {
	isRepeated bool
	isOptional bool
	fieldType  *protobuilder.FieldType
}

// resolveType flattens nested lists into one repeated field; proto has no
// lists of lists.
func (b *builder) resolveType(ref *schemactx.TypeRef) (resolvedType, error) {
	if ref.IsList() {
		elem, err := b.resolveType(ref.Elem)
		if err != nil {
			return resolvedType{}, err
		}
		return resolvedType{isRepeated: true, fieldType: elem.fieldType}, nil
	}
	ft, err := b.mapNamedType(ref.Name)
	if err != nil {
		return resolvedType{}, err
	}
	return resolvedType{isOptional: ref.Nullable(), fieldType: ft}, nil
}

func (b *builder) mapNamedType(typeName string) (*protobuilder.FieldType, error) {
	if kind, ok := b.scalarMapping[typeName]; ok {
		return protobuilder.FieldTypeScalar(scalars[kind]), nil
	}
	if mb, ok := b.messages[typeName]; ok {
		return protobuilder.FieldTypeMessage(mb), nil
	}
	if eb, ok := b.enums[typeName]; ok {
		return protobuilder.FieldTypeEnum(eb), nil
	}
	if b.info.IsScalarType(typeName) {
		return protobuilder.FieldTypeScalar(protoreflect.StringKind), nil
	}
	return nil, fmt.Errorf("type %s has no proto representation", typeName)
}

var builtinScalars = map[string]string{
	"ID":      "string",
	"String":  "string",
	"Int":     "int32",
	"Float":   "double",
	"Boolean": "bool",
}

var scalars = map[string]protoreflect.Kind{
	protoreflect.BoolKind.String():     protoreflect.BoolKind,
	protoreflect.Int32Kind.String():    protoreflect.Int32Kind,
	protoreflect.Sint32Kind.String():   protoreflect.Sint32Kind,
	protoreflect.Uint32Kind.String():   protoreflect.Uint32Kind,
	protoreflect.Int64Kind.String():    protoreflect.Int64Kind,
	protoreflect.Sint64Kind.String():   protoreflect.Sint64Kind,
	protoreflect.Uint64Kind.String():   protoreflect.Uint64Kind,
	protoreflect.Sfixed32Kind.String(): protoreflect.Sfixed32Kind,
	protoreflect.Fixed32Kind.String():  protoreflect.Fixed32Kind,
	protoreflect.FloatKind.String():    protoreflect.FloatKind,
	protoreflect.Sfixed64Kind.String(): protoreflect.Sfixed64Kind,
	protoreflect.Fixed64Kind.String():  protoreflect.Fixed64Kind,
	protoreflect.DoubleKind.String():   protoreflect.DoubleKind,
	protoreflect.StringKind.String():   protoreflect.StringKind,
	protoreflect.BytesKind.String():    protoreflect.BytesKind,
}
