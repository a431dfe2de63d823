// Package schemactx indexes a GraphQL schema document for code generators.
//
// A Context owns one parsed document. VisitSchema walks it in document order,
// invoking visitor callbacks per node kind and collecting a TypeInfo: the
// fields of every object, interface and input type across definitions and
// extensions, enum values, implemented interfaces, descriptions and the
// operation root types.
package schemactx

import (
	"sync"

	"github.com/hanpama/gqlforge/internal/language"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

type Context struct {
	mu     sync.Mutex
	doc    *ast.SchemaDocument
	schema *ast.Schema
	info   *TypeInfo
}

// New wraps an already parsed document. The document is not validated.
func New(doc *ast.SchemaDocument) *Context {
	return &Context{doc: doc}
}

// Load parses and validates sources as one schema. Every source is parsed
// even when an earlier one fails, and all problems are returned together as
// a *SchemaError.
func Load(sources ...*ast.Source) (*Context, error) {
	doc := &ast.SchemaDocument{}
	var errs []error
	for _, src := range sources {
		d, err := language.ParseSource(src)
		if err != nil {
			errs = append(errs, flatten(err)...)
			continue
		}
		doc.Merge(d)
	}
	if len(errs) > 0 {
		return nil, &SchemaError{Errors: errs}
	}

	// Validation merges extensions into their definitions, so it runs on a
	// separate parse of the sources.
	schema, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, &SchemaError{Errors: flatten(err)}
	}
	return &Context{doc: doc, schema: schema}, nil
}

// Document returns the document as last rewritten by VisitSchema.
func (c *Context) Document() *ast.SchemaDocument {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// Schema returns the validated schema, or nil for contexts built with New.
func (c *Context) Schema() *ast.Schema { return c.schema }

// VisitSchema traverses the document with v and returns the collected type
// information. Traversals of the same Context are serialized.
func (c *Context) VisitSchema(v Visitor) (*TypeInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := newTypeInfo(c.doc)
	w := &walker{v: v, info: info}
	if err := w.document(c.doc); err != nil {
		return nil, err
	}
	info.finish()
	c.info = info
	return info, nil
}

// TypeInfo returns the result of the last successful traversal.
func (c *Context) TypeInfo() (*TypeInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info == nil {
		return nil, ErrTraversalNotStarted
	}
	return c.info, nil
}
