package protofile

import (
	"strings"

	"github.com/jhump/protoreflect/v2/protobuilder"
)

// comment turns a GraphQL description into a leading proto comment.
func comment(desc string) protobuilder.Comments {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return protobuilder.Comments{}
	}
	var sb strings.Builder
	for _, line := range strings.Split(desc, "\n") {
		sb.WriteString(" " + strings.TrimRight(line, " \t") + "\n")
	}
	return protobuilder.Comments{LeadingComment: sb.String()}
}
