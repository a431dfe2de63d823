package schemactx

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// VisitFunc is called when the traversal enters a node. Returning a non-nil
// node other than n replaces n in the document; the replacement must carry
// the same payload as n. Returning SkipChildren leaves the children unvisited.
type VisitFunc func(n *Node, info *TypeInfo) (*Node, error)

// LeaveFunc is called when the traversal leaves a node.
type LeaveFunc func(n *Node, info *TypeInfo) error

// Visitor holds the callbacks of a traversal, keyed by node kind.
type Visitor struct {
	Enter map[Kind]VisitFunc
	Leave map[Kind]LeaveFunc
}

type walker struct {
	v    Visitor
	info *TypeInfo
}

// walk visits n and its children. set writes a replacement back into the
// owning document.
func (w *walker) walk(n *Node, set func(*Node)) error {
	w.info.current = n
	if err := w.info.enter(n); err != nil {
		return err
	}

	skip := false
	if fn := w.v.Enter[n.Kind]; fn != nil {
		repl, err := fn(n, w.info)
		switch {
		case errors.Is(err, SkipChildren):
			skip = true
		case err != nil:
			return err
		}
		if repl != nil && repl != n {
			if repl.Kind.payload() != n.Kind.payload() || !repl.valid() {
				return fmt.Errorf("%w: %s replaced by %s", ErrInvalidReplacement, n.Kind, repl.Kind)
			}
			w.info.retract(n)
			w.info.current = repl
			if err := w.info.enter(repl); err != nil {
				return err
			}
			set(repl)
			n = repl
		}
	}

	w.info.push(n)
	if !skip {
		if err := w.children(n); err != nil {
			return err
		}
	}
	w.info.current = n
	if fn := w.v.Leave[n.Kind]; fn != nil {
		if err := fn(n, w.info); err != nil {
			return err
		}
	}
	w.info.leave(n)
	w.info.pop()
	return nil
}

func (w *walker) document(doc *ast.SchemaDocument) error {
	for i, s := range doc.Schema {
		if err := w.walk(&Node{Kind: SchemaDefinition, Schema: s}, func(r *Node) { doc.Schema[i] = r.Schema }); err != nil {
			return err
		}
	}
	for i, s := range doc.SchemaExtension {
		if err := w.walk(&Node{Kind: SchemaExtension, Schema: s}, func(r *Node) { doc.SchemaExtension[i] = r.Schema }); err != nil {
			return err
		}
	}
	for i, d := range doc.Directives {
		n := &Node{Kind: DirectiveDefinition, DirectiveDefinition: d}
		if err := w.walk(n, func(r *Node) { doc.Directives[i] = r.DirectiveDefinition }); err != nil {
			return err
		}
	}
	for i, d := range doc.Definitions {
		if err := w.walk(DefinitionNode(d, false), func(r *Node) { doc.Definitions[i] = r.Definition }); err != nil {
			return err
		}
	}
	for i, d := range doc.Extensions {
		if err := w.walk(DefinitionNode(d, true), func(r *Node) { doc.Extensions[i] = r.Definition }); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) children(n *Node) error {
	switch n.Kind.payload() {
	case payloadSchema:
		if err := w.directives(n.Schema.Directives); err != nil {
			return err
		}
		for _, op := range n.Schema.OperationTypes {
			if err := w.walk(&Node{Kind: NamedType, TypeName: op.Type}, func(r *Node) { op.Type = r.TypeName }); err != nil {
				return err
			}
		}
	case payloadDirectiveDefinition:
		return w.arguments(n.DirectiveDefinition.Arguments)
	case payloadDefinition:
		return w.definition(n.Definition)
	case payloadField:
		f := n.Field
		if err := w.arguments(f.Arguments); err != nil {
			return err
		}
		if err := w.typeRef(f.Type, func(t *ast.Type) { f.Type = t }); err != nil {
			return err
		}
		return w.directives(f.Directives)
	case payloadArgument:
		a := n.Argument
		if err := w.typeRef(a.Type, func(t *ast.Type) { a.Type = t }); err != nil {
			return err
		}
		return w.directives(a.Directives)
	case payloadEnumValue:
		return w.directives(n.EnumValue.Directives)
	case payloadType:
		t := n.Type
		for t.Elem != nil {
			t = t.Elem
		}
		return w.walk(&Node{Kind: NamedType, TypeName: t.NamedType}, func(r *Node) { t.NamedType = r.TypeName })
	}
	return nil
}

func (w *walker) definition(def *ast.Definition) error {
	if err := w.directives(def.Directives); err != nil {
		return err
	}
	for i, iface := range def.Interfaces {
		if err := w.walk(&Node{Kind: NamedType, TypeName: iface}, func(r *Node) { def.Interfaces[i] = r.TypeName }); err != nil {
			return err
		}
	}
	for i, f := range def.Fields {
		if err := w.walk(FieldNode(f), func(r *Node) { def.Fields[i] = r.Field }); err != nil {
			return err
		}
	}
	for i, t := range def.Types {
		if err := w.walk(&Node{Kind: NamedType, TypeName: t}, func(r *Node) { def.Types[i] = r.TypeName }); err != nil {
			return err
		}
	}
	for i, v := range def.EnumValues {
		if err := w.walk(EnumValueNode(v), func(r *Node) { def.EnumValues[i] = r.EnumValue }); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) arguments(args ast.ArgumentDefinitionList) error {
	for i, a := range args {
		if err := w.walk(ArgumentNode(a), func(r *Node) { args[i] = r.Argument }); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) directives(list ast.DirectiveList) error {
	for i, d := range list {
		if err := w.walk(&Node{Kind: Directive, Directive: d}, func(r *Node) { list[i] = r.Directive }); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) typeRef(t *ast.Type, set func(*ast.Type)) error {
	if t == nil {
		return nil
	}
	return w.walk(&Node{Kind: TypeReference, Type: t}, func(r *Node) { set(r.Type) })
}
