// Package gomodel generates Go types for a schema: structs for objects and
// input objects, string enums, marker interfaces for interfaces and unions,
// and resolver interfaces for the operation root types.
package gomodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"io"

	"go.uber.org/zap"

	"github.com/hanpama/gqlforge/internal/plugin"
	"github.com/hanpama/gqlforge/internal/scheduler"
	"github.com/hanpama/gqlforge/internal/schemactx"
)

const Module = "gqlforge/gomodel"

const defaultHeader = "Code generated by gqlforge. DO NOT EDIT."

type Options struct {
	Header  string `json:"header"`
	Package string `json:"package"`
	// Scalars maps custom scalars to Go types. A type from another package
	// is written with its import path, "time.Time" or
	// "github.com/google/uuid.UUID".
	Scalars map[string]string `json:"scalars"`
}

func (o *Options) Validate() error {
	if o.Package == "" {
		return errors.New("package is required")
	}
	if !token.IsIdentifier(o.Package) {
		return fmt.Errorf("package %q is not a valid Go identifier", o.Package)
	}
	for gql, goType := range o.Scalars {
		if _, _, err := splitGoType(goType); err != nil {
			return fmt.Errorf("scalar %s: %w", gql, err)
		}
	}
	return nil
}

type generator struct {
	opts Options
	src  []byte
}

func New(name string) scheduler.Task {
	return plugin.SchemaTask(name, &generator{})
}

func (g *generator) Config() scheduler.Validator { return scheduler.Decode(&g.opts) }

func (g *generator) Generate(_ context.Context, sc *schemactx.Context, logger *zap.Logger) error {
	info, err := sc.VisitSchema(schemactx.Visitor{})
	if err != nil {
		return err
	}
	m, err := buildModel(info, &g.opts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, m); err != nil {
		return fmt.Errorf("render models: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format models: %w", err)
	}
	g.src = src
	logger.Debug("models generated",
		zap.Int("structs", len(m.Structs)),
		zap.Int("enums", len(m.Enums)),
		zap.Int("resolvers", len(m.Resolvers)))
	return nil
}

func (g *generator) Emit(w io.Writer) error {
	_, err := w.Write(g.src)
	return err
}
