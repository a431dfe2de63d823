package language

import "github.com/vektah/gqlparser/v2/ast"

type (
	Source         = ast.Source
	SchemaDocument = ast.SchemaDocument
)
