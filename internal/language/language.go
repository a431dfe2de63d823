// Package language parses and prints GraphQL schema documents.
package language

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

func NewSource(name, input string) *Source {
	return &ast.Source{Name: name, Input: input}
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	return ParseSource(NewSource(name, source))
}

func ParseSource(src *Source) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(src)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type FormatOptions struct {
	Indent             string
	WithoutDescription bool
	WithComments       bool
}

// Format prints doc back to SDL. Built-in definitions are omitted.
func Format(doc *SchemaDocument, opts FormatOptions) string {
	var fopts []formatter.FormatterOption
	if opts.Indent != "" {
		fopts = append(fopts, formatter.WithIndent(opts.Indent))
	}
	if opts.WithoutDescription {
		fopts = append(fopts, formatter.WithoutDescription())
	}
	if opts.WithComments {
		fopts = append(fopts, formatter.WithComments())
	}
	var sb strings.Builder
	formatter.NewFormatter(&sb, fopts...).FormatSchemaDocument(doc)
	return sb.String()
}
