// Package sdl prints the merged schema back as a single SDL document.
package sdl

import (
	"cmp"
	"context"
	"io"
	"slices"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/hanpama/gqlforge/internal/language"
	"github.com/hanpama/gqlforge/internal/plugin"
	"github.com/hanpama/gqlforge/internal/scheduler"
	"github.com/hanpama/gqlforge/internal/schemactx"
)

const Module = "gqlforge/sdl"

type Options struct {
	Header            string `json:"header"`
	StripDescriptions bool   `json:"strip_descriptions"`
	Sort              bool   `json:"sort"`
	Indent            string `json:"indent"`
}

type generator struct {
	opts Options
	doc  *ast.SchemaDocument
}

func New(name string) scheduler.Task {
	return plugin.SchemaTask(name, &generator{})
}

func (g *generator) Config() scheduler.Validator { return scheduler.Decode(&g.opts) }

func (g *generator) Generate(_ context.Context, sc *schemactx.Context, logger *zap.Logger) error {
	v := schemactx.Visitor{}
	if g.opts.StripDescriptions {
		v = stripDescriptions()
	}
	info, err := sc.VisitSchema(v)
	if err != nil {
		return err
	}
	g.doc = sc.Document()
	if g.opts.Sort {
		byName := func(a, b *ast.Definition) int { return cmp.Compare(a.Name, b.Name) }
		slices.SortStableFunc(g.doc.Definitions, byName)
		slices.SortStableFunc(g.doc.Extensions, byName)
		slices.SortStableFunc(g.doc.Directives, func(a, b *ast.DirectiveDefinition) int {
			return cmp.Compare(a.Name, b.Name)
		})
	}
	logger.Debug("schema merged",
		zap.Int("objects", len(info.TypeNames(ast.Object))),
		zap.Int("definitions", len(g.doc.Definitions)),
		zap.Int("extensions", len(g.doc.Extensions)))
	return nil
}

func (g *generator) Emit(w io.Writer) error {
	var sb strings.Builder
	if g.opts.Header != "" {
		for _, line := range strings.Split(g.opts.Header, "\n") {
			sb.WriteString("# " + line + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(language.Format(g.doc, language.FormatOptions{Indent: g.opts.Indent}))
	_, err := io.WriteString(w, sb.String())
	return err
}

// stripDescriptions replaces every described node with an undescribed copy.
func stripDescriptions() schemactx.Visitor {
	definition := func(n *schemactx.Node, _ *schemactx.TypeInfo) (*schemactx.Node, error) {
		if n.Definition.Description == "" {
			return nil, nil
		}
		def := *n.Definition
		def.Description = ""
		return schemactx.DefinitionNode(&def, n.Kind.Extension()), nil
	}

	enter := map[schemactx.Kind]schemactx.VisitFunc{
		schemactx.SchemaDefinition: func(n *schemactx.Node, _ *schemactx.TypeInfo) (*schemactx.Node, error) {
			if n.Schema.Description == "" {
				return nil, nil
			}
			s := *n.Schema
			s.Description = ""
			return &schemactx.Node{Kind: n.Kind, Schema: &s}, nil
		},
		schemactx.DirectiveDefinition: func(n *schemactx.Node, _ *schemactx.TypeInfo) (*schemactx.Node, error) {
			if n.DirectiveDefinition.Description == "" {
				return nil, nil
			}
			d := *n.DirectiveDefinition
			d.Description = ""
			return &schemactx.Node{Kind: n.Kind, DirectiveDefinition: &d}, nil
		},
		schemactx.FieldDefinition: func(n *schemactx.Node, _ *schemactx.TypeInfo) (*schemactx.Node, error) {
			if n.Field.Description == "" {
				return nil, nil
			}
			f := *n.Field
			f.Description = ""
			return schemactx.FieldNode(&f), nil
		},
		schemactx.ArgumentDefinition: func(n *schemactx.Node, _ *schemactx.TypeInfo) (*schemactx.Node, error) {
			if n.Argument.Description == "" {
				return nil, nil
			}
			a := *n.Argument
			a.Description = ""
			return schemactx.ArgumentNode(&a), nil
		},
		schemactx.EnumValueDefinition: func(n *schemactx.Node, _ *schemactx.TypeInfo) (*schemactx.Node, error) {
			if n.EnumValue.Description == "" {
				return nil, nil
			}
			v := *n.EnumValue
			v.Description = ""
			return schemactx.EnumValueNode(&v), nil
		},
	}
	for _, k := range []schemactx.Kind{
		schemactx.ScalarTypeDefinition, schemactx.ScalarTypeExtension,
		schemactx.ObjectTypeDefinition, schemactx.ObjectTypeExtension,
		schemactx.InterfaceTypeDefinition, schemactx.InterfaceTypeExtension,
		schemactx.UnionTypeDefinition, schemactx.UnionTypeExtension,
		schemactx.EnumTypeDefinition, schemactx.EnumTypeExtension,
		schemactx.InputObjectTypeDefinition, schemactx.InputObjectTypeExtension,
	} {
		enter[k] = definition
	}
	return schemactx.Visitor{Enter: enter}
}
