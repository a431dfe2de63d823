package gomodel

import (
	"fmt"
	"go/token"
	"path"
	"slices"
	"strings"
	"unicode"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlforge/internal/schemactx"
)

type fileModel struct {
	Header     string
	Package    string
	Imports    []string
	Enums      []*enumModel
	Interfaces []*interfaceModel
	Structs    []*structModel
	Resolvers  []*resolverModel
}

type enumModel struct {
	Name   string
	Doc    string
	Values []*enumValueModel
}

type enumValueModel struct {
	Const string
	Value string
	Doc   string
}

type interfaceModel struct {
	Name   string
	Doc    string
	Marker string
}

type structModel struct {
	Name    string
	Doc     string
	Fields  []*fieldModel
	Markers []string
}

type fieldModel struct {
	Name string
	Type string
	Tag  string
	Doc  string
}

type resolverModel struct {
	Name    string
	Doc     string
	Methods []*methodModel
}

type methodModel struct {
	Name   string
	Params string
	Result string
	Doc    string
}

var builtinScalars = map[string]string{
	"ID":      "string",
	"String":  "string",
	"Int":     "int32",
	"Float":   "float64",
	"Boolean": "bool",
}

type modelBuilder struct {
	info    *schemactx.TypeInfo
	scalars map[string]string
	imports map[string]bool
}

func buildModel(info *schemactx.TypeInfo, opts *Options) (*fileModel, error) {
	b := &modelBuilder{info: info, scalars: opts.Scalars, imports: make(map[string]bool)}
	m := &fileModel{Header: opts.Header, Package: opts.Package}
	if m.Header == "" {
		m.Header = defaultHeader
	}

	for _, name := range info.TypeNames(ast.Enum) {
		e, err := b.enum(name)
		if err != nil {
			return nil, err
		}
		m.Enums = append(m.Enums, e)
	}

	markers := make(map[string][]string)
	for _, kind := range []ast.DefinitionKind{ast.Interface, ast.Union} {
		for _, name := range info.TypeNames(kind) {
			iface := &interfaceModel{Name: goName(name), Doc: b.doc(name), Marker: "is" + goName(name)}
			m.Interfaces = append(m.Interfaces, iface)
			members := info.Implementations(name)
			if kind == ast.Union {
				members = info.UnionMembers(name)
			}
			for _, member := range members {
				markers[member] = append(markers[member], iface.Marker)
			}
		}
	}

	for _, kind := range []ast.DefinitionKind{ast.Object, ast.InputObject} {
		for _, name := range info.TypeNames(kind) {
			if kind == ast.Object && info.IsRootType(name) {
				continue
			}
			s, err := b.structType(name)
			if err != nil {
				return nil, err
			}
			s.Markers = markers[name]
			slices.Sort(s.Markers)
			m.Structs = append(m.Structs, s)
		}
	}

	for _, root := range b.roots() {
		r, err := b.resolver(root)
		if err != nil {
			return nil, err
		}
		m.Resolvers = append(m.Resolvers, r)
	}

	for imp := range b.imports {
		m.Imports = append(m.Imports, imp)
	}
	slices.Sort(m.Imports)
	return m, nil
}

func (b *modelBuilder) doc(typeName string) string {
	desc, _ := b.info.Description(typeName)
	return desc
}

func (b *modelBuilder) enum(name string) (*enumModel, error) {
	values, err := b.info.EnumValues(name)
	if err != nil {
		return nil, err
	}
	e := &enumModel{Name: goName(name), Doc: b.doc(name)}
	for _, v := range values {
		e.Values = append(e.Values, &enumValueModel{
			Const: e.Name + goName(strings.ToLower(v.Name)),
			Value: v.Name,
			Doc:   v.Description,
		})
	}
	return e, nil
}

func (b *modelBuilder) structType(name string) (*structModel, error) {
	s := &structModel{Name: goName(name), Doc: b.doc(name)}
	for _, f := range b.info.OrderedFields(name) {
		ref := schemactx.ResolveType(f.Type)
		typ, err := b.goType(ref)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		tag := f.Name
		if ref.Nullable() {
			tag += ",omitempty"
		}
		s.Fields = append(s.Fields, &fieldModel{
			Name: goName(f.Name),
			Type: typ,
			Tag:  fmt.Sprintf("`json:%q`", tag),
			Doc:  f.Description,
		})
	}
	return s, nil
}

func (b *modelBuilder) roots() []string {
	var out []string
	for _, name := range b.info.TypeNames(ast.Object) {
		if b.info.IsQueryType(name) {
			out = append(out, name)
		}
	}
	for _, name := range b.info.TypeNames(ast.Object) {
		if b.info.IsMutationType(name) {
			out = append(out, name)
		}
	}
	for _, name := range b.info.TypeNames(ast.Object) {
		if b.info.IsSubscriptionType(name) {
			out = append(out, name)
		}
	}
	return out
}

func (b *modelBuilder) resolver(root string) (*resolverModel, error) {
	b.imports["context"] = true
	r := &resolverModel{Name: goName(root) + "Resolver", Doc: b.doc(root)}
	if r.Doc == "" {
		r.Doc = fmt.Sprintf("%s resolves the fields of %s.", r.Name, root)
	}
	for _, f := range b.info.OrderedFields(root) {
		params := []string{"ctx context.Context"}
		for _, arg := range f.Arguments {
			typ, err := b.goType(schemactx.ResolveType(arg.Type))
			if err != nil {
				return nil, fmt.Errorf("%s.%s(%s): %w", root, f.Name, arg.Name, err)
			}
			params = append(params, paramName(arg.Name)+" "+typ)
		}
		result, err := b.goType(schemactx.ResolveType(f.Type))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", root, f.Name, err)
		}
		if b.info.IsSubscriptionType(root) {
			result = "<-chan " + result
		}
		r.Methods = append(r.Methods, &methodModel{
			Name:   goName(f.Name),
			Params: strings.Join(params, ", "),
			Result: result,
			Doc:    f.Description,
		})
	}
	return r, nil
}

func (b *modelBuilder) goType(ref *schemactx.TypeRef) (string, error) {
	if ref.IsList() {
		elem, err := b.goType(ref.Elem)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	}
	typ, pointable, err := b.named(ref.Name)
	if err != nil {
		return "", err
	}
	if ref.Nullable() && pointable {
		return "*" + typ, nil
	}
	return typ, nil
}

func (b *modelBuilder) named(name string) (typ string, pointable bool, err error) {
	if mapped, ok := b.scalars[name]; ok {
		imp, expr, err := splitGoType(mapped)
		if err != nil {
			return "", false, err
		}
		if imp != "" {
			b.imports[imp] = true
		}
		return expr, true, nil
	}
	if builtin, ok := builtinScalars[name]; ok {
		return builtin, true, nil
	}
	switch {
	case b.info.IsScalarType(name):
		return "string", true, nil
	case b.info.IsEnumType(name), b.info.IsObjectType(name), b.info.IsInputObjectType(name):
		return goName(name), true, nil
	case b.info.IsInterfaceType(name), b.info.IsUnionType(name):
		return goName(name), false, nil
	}
	return "", false, fmt.Errorf("%w: %s", schemactx.ErrUnknownType, name)
}

// splitGoType splits "import/path.Type" into the import path and the
// qualified type expression.
func splitGoType(s string) (importPath, expr string, err error) {
	if s == "" {
		return "", "", fmt.Errorf("empty Go type")
	}
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return "", s, nil
	}
	importPath, name := s[:i], s[i+1:]
	pkg := path.Base(importPath)
	if !token.IsIdentifier(name) || !token.IsIdentifier(pkg) {
		return "", "", fmt.Errorf("invalid Go type %q", s)
	}
	return importPath, pkg + "." + name, nil
}

var initialisms = map[string]bool{
	"api": true, "html": true, "http": true, "id": true, "ip": true, "json": true,
	"sql": true, "uri": true, "url": true, "uuid": true, "xml": true,
}

// goName exports a GraphQL name, keeping common initialisms upper case.
func goName(s string) string {
	var sb strings.Builder
	for _, w := range words(s) {
		if initialisms[strings.ToLower(w)] {
			sb.WriteString(strings.ToUpper(w))
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	return sb.String()
}

// words splits camelCase, PascalCase and snake_case names. Runs of upper case
// letters stay together.
func words(s string) []string {
	var out []string
	var cur []rune
	prevUpper := false
	for _, r := range s {
		switch {
		case r == '_':
			if len(cur) > 0 {
				out = append(out, string(cur))
			}
			cur, prevUpper = nil, false
			continue
		case unicode.IsUpper(r) && !prevUpper && len(cur) > 0:
			out = append(out, string(cur))
			cur = nil
		}
		cur = append(cur, r)
		prevUpper = unicode.IsUpper(r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func paramName(s string) string {
	if token.IsKeyword(s) || s == "ctx" {
		return s + "_"
	}
	return s
}
