// Package protofile renders the types of a schema as a proto3 file: objects,
// interfaces, unions and input objects become messages, enums become enums.
package protofile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jhump/protoreflect/v2/protoprint"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/hanpama/gqlforge/internal/plugin"
	"github.com/hanpama/gqlforge/internal/scheduler"
	"github.com/hanpama/gqlforge/internal/schemactx"
)

const Module = "gqlforge/proto"

type Options struct {
	Header    string `json:"header"`
	Package   string `json:"package"`
	GoPackage string `json:"go_package"`
	// Scalars maps custom scalars to proto scalar types, "int64" or "bytes"
	// for instance. Unmapped custom scalars are strings.
	Scalars map[string]string `json:"scalars"`
}

func (o *Options) Validate() error {
	if o.Package == "" {
		return errors.New("package is required")
	}
	if !protoreflect.FullName(o.Package).IsValid() {
		return fmt.Errorf("package %q is not a valid proto package name", o.Package)
	}
	for gql, kind := range o.Scalars {
		if _, ok := scalars[kind]; !ok {
			return fmt.Errorf("scalar %s: unknown proto type %q", gql, kind)
		}
	}
	return nil
}

type generator struct {
	opts Options
	fd   protoreflect.FileDescriptor
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
	fd, err := build(info, &g.opts)
	if err != nil {
		return fmt.Errorf("build proto file: %w", err)
	}
	g.fd = fd
	logger.Debug("proto file built",
		zap.Int("messages", fd.Messages().Len()),
		zap.Int("enums", fd.Enums().Len()))
	return nil
}

func (g *generator) Emit(w io.Writer) error {
	if g.opts.Header != "" {
		var sb strings.Builder
		for _, line := range strings.Split(g.opts.Header, "\n") {
			sb.WriteString("// " + line + "\n")
		}
		sb.WriteString("\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	pp := protoprint.Printer{}
	return pp.PrintProtoFile(g.fd, w)
}
