package schemactx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

var (
	ErrFieldWithoutParent  = errors.New("field definition outside of a type")
	ErrUnknownEnum         = errors.New("unknown enum")
	ErrUnknownType         = errors.New("unknown type")
	ErrInvalidReplacement  = errors.New("invalid replacement node")
	ErrTraversalNotStarted = errors.New("schema has not been traversed")
)

// SkipChildren may be returned from an enter callback to leave the node's
// children unvisited. The node's leave callback still runs.
var SkipChildren = errors.New("skip children")

// DuplicateFieldError reports a field declared twice on the same type, across
// all definitions and extensions of that type.
type DuplicateFieldError struct {
	Type     string
	Field    string
	Position *ast.Position
}

func (e *DuplicateFieldError) Error() string {
	if e.Position != nil && e.Position.Src != nil {
		return fmt.Sprintf("%s:%d: duplicate field %s.%s", e.Position.Src.Name, e.Position.Line, e.Type, e.Field)
	}
	return fmt.Sprintf("duplicate field %s.%s", e.Type, e.Field)
}

// SchemaError aggregates every problem found while loading schema sources.
type SchemaError struct {
	Errors []error
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n\n")
}

func (e *SchemaError) Unwrap() []error { return e.Errors }

func flatten(err error) []error {
	switch err := err.(type) {
	case nil:
		return nil
	case gqlerror.List:
		out := make([]error, 0, len(err))
		for _, e := range err {
			out = append(out, e)
		}
		return out
	case *SchemaError:
		return err.Errors
	}
	return []error{err}
}
