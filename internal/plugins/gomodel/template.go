package gomodel

import (
	"strings"
	"text/template"
)

var fileTemplate = template.Must(template.New("models").Funcs(template.FuncMap{
	"comment": comment,
}).Parse(`{{comment "" .Header}}

package {{.Package}}
{{if .Imports}}
import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{end}}
{{- range .Enums}}
{{comment "" .Doc}}type {{.Name}} string
{{$e := .}}
const (
{{- range .Values}}
{{comment "\t" .Doc}}	{{.Const}} {{$e.Name}} = "{{.Value}}"
{{- end}}
)

func (e {{.Name}}) IsValid() bool {
	switch e {
	case {{range $i, $v := .Values}}{{if $i}}, {{end}}{{$v.Const}}{{end}}:
		return true
	}
	return false
}
{{end}}
{{- range .Interfaces}}
{{comment "" .Doc}}type {{.Name}} interface {
	{{.Marker}}()
}
{{end}}
{{- range .Structs}}
{{comment "" .Doc}}type {{.Name}} struct {
{{- range .Fields}}
{{comment "\t" .Doc}}	{{.Name}} {{.Type}} {{.Tag}}
{{- end}}
}
{{$s := .}}{{range .Markers}}
func ({{$s.Name}}) {{.}}() {}
{{end}}
{{- end}}
{{- range .Resolvers}}
{{comment "" .Doc}}type {{.Name}} interface {
{{- range .Methods}}
{{comment "\t" .Doc}}	{{.Name}}({{.Params}}) ({{.Result}}, error)
{{- end}}
}
{{end}}`))

// comment renders doc as // lines prefixed with indent, ending in a newline.
func comment(indent, doc string) string {
	if doc == "" {
		return ""
	}
	var sb strings.Builder
	for _, line := range strings.Split(doc, "\n") {
		sb.WriteString(indent)
		sb.WriteString("//")
		if line != "" {
			sb.WriteString(" ")
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
