package protofile

import (
	"maps"
	"strings"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"github.com/vektah/gqlparser/v2/ast"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/hanpama/gqlforge/internal/schemactx"
)

type builder struct {
	info          *schemactx.TypeInfo
	file          *protobuilder.FileBuilder
	scalarMapping map[string]string
	messages      map[string]*protobuilder.MessageBuilder
	enums         map[string]*protobuilder.EnumBuilder
}

func build(info *schemactx.TypeInfo, opts *Options) (protoreflect.FileDescriptor, error) {
	fb := protobuilder.NewFile(strings.ReplaceAll(opts.Package, ".", "/") + "/schema.proto")
	fb.SetPackageName(protoreflect.FullName(opts.Package))
	fb.SetSyntax(protoreflect.Proto3)
	if opts.GoPackage != "" {
		goPackage := opts.GoPackage
		fb.SetOptions(&descriptorpb.FileOptions{GoPackage: &goPackage})
	}

	b := &builder{
		info:          info,
		file:          fb,
		scalarMapping: maps.Clone(builtinScalars),
		messages:      make(map[string]*protobuilder.MessageBuilder),
		enums:         make(map[string]*protobuilder.EnumBuilder),
	}
	maps.Copy(b.scalarMapping, opts.Scalars)

	// Pass 1: declare every message and enum so fields can refer to them.
	for _, kind := range []ast.DefinitionKind{ast.Object, ast.Interface, ast.Union, ast.InputObject} {
		for _, name := range info.TypeNames(kind) {
			if kind == ast.Object && info.IsRootType(name) {
				continue
			}
			b.addMessage(name)
		}
	}
	for _, name := range info.TypeNames(ast.Enum) {
		if err := b.addEnum(name); err != nil {
			return nil, err
		}
	}

	// Pass 2: fields and oneofs.
	for _, name := range info.TypeNames(ast.Object) {
		if info.IsRootType(name) {
			continue
		}
		if err := b.addFields(name); err != nil {
			return nil, err
		}
	}
	for _, name := range info.TypeNames(ast.InputObject) {
		if err := b.addFields(name); err != nil {
			return nil, err
		}
	}
	for _, name := range info.TypeNames(ast.Interface) {
		if err := b.addOneof(name, info.Implementations(name)); err != nil {
			return nil, err
		}
	}
	for _, name := range info.TypeNames(ast.Union) {
		if err := b.addOneof(name, info.UnionMembers(name)); err != nil {
			return nil, err
		}
	}

	return fb.Build()
}

func (b *builder) addMessage(name string) {
	mb := protobuilder.NewMessage(nameMessage(name))
	desc, _ := b.info.Description(name)
	mb.SetComments(comment(desc))
	b.messages[name] = mb
	b.file.AddMessage(mb)
}

func (b *builder) addEnum(name string) error {
	eb := protobuilder.NewEnum(nameMessage(name))
	desc, _ := b.info.Description(name)
	eb.SetComments(comment(desc))
	b.enums[name] = eb

	// proto3 enums open with <ENUM>_UNSPECIFIED = 0.
	zero := protobuilder.NewEnumValue(nameEnumValue(name, "UNSPECIFIED"))
	zero.SetNumber(0)
	eb.AddValue(zero)

	values, err := b.info.EnumValues(name)
	if err != nil {
		return err
	}
	evbs := make([]*protobuilder.EnumValueBuilder, 0, len(values))
	for _, v := range values {
		if strings.EqualFold(v.Name, "UNSPECIFIED") {
			continue
		}
		evb := protobuilder.NewEnumValue(nameEnumValue(name, v.Name))
		evb.SetComments(comment(v.Description))
		eb.AddValue(evb)
		evbs = append(evbs, evb)
	}
	if err := numberEnumValues(evbs); err != nil {
		return err
	}
	b.file.AddEnum(eb)
	return nil
}

func (b *builder) addFields(typeName string) error {
	mb := b.messages[typeName]
	fields := b.info.OrderedFields(typeName)
	fbs := make([]*protobuilder.FieldBuilder, 0, len(fields))
	for _, field := range fields {
		rt, err := b.resolveType(schemactx.ResolveType(field.Type))
		if err != nil {
			return err
		}
		fb := protobuilder.NewField(nameField(field.Name), rt.fieldType)
		fb.SetComments(comment(field.Description))
		if rt.isOptional {
			fb.SetOptional()
		}
		if rt.isRepeated {
			fb.SetRepeated()
		}
		mb.AddField(fb)
		fbs = append(fbs, fb)
	}
	return numberFields(fbs)
}

// addOneof gives an abstract type a single oneof over its concrete types.
func (b *builder) addOneof(typeName string, members []string) error {
	mb := b.messages[typeName]
	ob := protobuilder.NewOneof("value")
	fbs := make([]*protobuilder.FieldBuilder, 0, len(members))
	for _, member := range members {
		target, ok := b.messages[member]
		if !ok || !b.info.IsObjectType(member) {
			continue
		}
		fb := protobuilder.NewField(nameField(member), protobuilder.FieldTypeMessage(target))
		ob.AddChoice(fb)
		fbs = append(fbs, fb)
	}
	if len(fbs) == 0 {
		return nil
	}
	mb.AddOneOf(ob)
	return numberFields(fbs)
}
