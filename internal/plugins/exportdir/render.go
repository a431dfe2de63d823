package exportdir

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/template"
)

type importDecl struct {
	Path    string
	Name    string
	Default bool
}

type barrel struct {
	Header        []string
	Entries       []*entry
	Imports       []importDecl
	ClassName     string
	DefaultExport bool
	Params        []Parameter
	Args          string
}

var reExportTemplate = template.Must(template.New("reexport").Parse(`{{range .Header}}// {{.}}
{{end}}
{{range .Entries}}
{{- if .Default}}export { default as {{.ExportName}} } from '{{.ImportPath}}';
{{else if eq .ImportName .ExportName}}export { {{.ExportName}} } from '{{.ImportPath}}';
{{else}}export { {{.ImportName}} as {{.ExportName}} } from '{{.ImportPath}}';
{{end}}
{{- end}}`))

var singletonTemplate = template.Must(template.New("singleton").Parse(`{{range .Header}}// {{.}}
{{end}}
{{range .Imports}}
{{- if .Default}}import {{.Name}} from '{{.Path}}';
{{else}}import { {{.Name}} } from '{{.Path}}';
{{end}}
{{- end}}
{{- if .Imports}}
{{end -}}
export {{if .DefaultExport}}default {{end}}class {{with .ClassName}}{{.}} {{end}}{
{{- range .Entries}}
	private _{{.ExportName}}: {{.ImportName}} | null = null;
{{- end}}
{{- range .Params}}
	private readonly {{.Name}}: {{.Type}};
{{- end}}
{{- if .Params}}

	public constructor({{range $i, $p := .Params}}{{if $i}}, {{end}}{{$p.Name}}: {{$p.Type}}{{end}}) {
{{- range .Params}}
		this.{{.Name}} = {{.Name}};
{{- end}}
	}
{{- end}}
{{- $args := .Args}}
{{- range .Entries}}

	public get {{.ExportName}}(): {{.ImportName}} {
		if (this._{{.ExportName}} == null) {
			this._{{.ExportName}} = new {{.ImportName}}({{$args}});
		}
		return this._{{.ExportName}};
	}
{{- end}}
}
`))

func render(w io.Writer, opts *Options, entries []*entry) error {
	b := &barrel{
		Header:        strings.Split(strings.TrimSpace(opts.HeaderComment), "\n"),
		Entries:       entries,
		ClassName:     opts.ClassName,
		DefaultExport: opts.DefaultExport,
		Params:        slices.Clone(opts.ConstructorParameters),
	}
	if opts.ExportType == ReExport {
		return execTemplate(reExportTemplate, w, b)
	}

	for _, id := range opts.imports {
		b.Imports = append(b.Imports, importDecl{Path: id.Module, Name: id.Export, Default: id.Default})
	}
	for _, e := range entries {
		b.Imports = append(b.Imports, importDecl{Path: e.ImportPath, Name: e.ImportName, Default: e.Default})
	}
	slices.SortFunc(b.Imports, func(x, y importDecl) int {
		return cmp.Or(strings.Compare(x.Path, y.Path), strings.Compare(x.Name, y.Name))
	})

	b.Entries = slices.Clone(entries)
	slices.SortFunc(b.Entries, func(x, y *entry) int { return strings.Compare(x.ExportName, y.ExportName) })
	slices.SortFunc(b.Params, func(x, y Parameter) int { return strings.Compare(x.Name, y.Name) })

	args := make([]string, len(opts.ConstructorParameters))
	for i, p := range opts.ConstructorParameters {
		args[i] = "this." + p.Name
	}
	b.Args = strings.Join(args, ", ")
	return execTemplate(singletonTemplate, w, b)
}

func execTemplate(t *template.Template, w io.Writer, b *barrel) error {
	if err := t.Execute(w, b); err != nil {
		return fmt.Errorf("render %s barrel: %w", t.Name(), err)
	}
	return nil
}
