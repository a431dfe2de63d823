package protofile

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

func nameMessage(graphQLName string) protoreflect.Name {
	return protoreflect.Name(capitalize(graphQLName))
}

func nameField(graphQLName string) protoreflect.Name {
	return protoreflect.Name(snakeCase(graphQLName))
}

func enumPrefix(graphQLEnumName string) string {
	return strings.ToUpper(snakeCase(graphQLEnumName))
}

func nameEnumValue(graphQLEnumName, graphQLEnumValueName string) protoreflect.Name {
	return protoreflect.Name(enumPrefix(graphQLEnumName) + "_" + strings.ToUpper(graphQLEnumValueName))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// snakeCase converts a string from CamelCase or PascalCase to snake_case.
func snakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
