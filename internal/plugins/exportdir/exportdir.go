// Package exportdir writes a TypeScript barrel file for the enumerated input
// files, either re-exporting every module or exposing them through lazily
// constructed getters of a singleton class.
package exportdir

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/hanpama/gqlforge/internal/fsys"
	"github.com/hanpama/gqlforge/internal/loader"
	"github.com/hanpama/gqlforge/internal/phase"
	"github.com/hanpama/gqlforge/internal/scheduler"
)

const Module = "gqlforge/exportdir"

const defaultHeader = "Code generated by gqlforge. DO NOT EDIT."

const defaultImportTemplate = "{{.FileName}}"

// ExportType selects the shape of the barrel file.
type ExportType string

const (
	ReExport  ExportType = "reexport"
	Singleton ExportType = "singleton"
)

type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Options struct {
	ExportType     ExportType `json:"export_type"`
	ImportPrefix   string     `json:"import_prefix"`
	ImportTemplate string     `json:"import_template"`
	ExportTemplate string     `json:"export_template"`
	HeaderComment  string     `json:"header_comment"`

	// Singleton only.
	ClassName             string      `json:"class_name"`
	DefaultExport         bool        `json:"default_export"`
	AdditionalImports     []string    `json:"additional_imports"`
	ConstructorParameters []Parameter `json:"constructor_parameters"`

	importTmpl *template.Template
	exportTmpl *template.Template
	imports    []loader.Identifier
}

func (o *Options) Validate() error {
	switch o.ExportType {
	case "":
		return errors.New("missing export_type option in config")
	case ReExport:
	case Singleton:
		if o.ClassName == "" && !o.DefaultExport {
			return errors.New("singleton export needs class_name or default_export")
		}
	default:
		return fmt.Errorf("unknown export_type %q", o.ExportType)
	}
	if o.ImportTemplate == "" {
		o.ImportTemplate = defaultImportTemplate
	}
	if o.HeaderComment == "" {
		o.HeaderComment = defaultHeader
	}

	var err error
	if o.importTmpl, err = template.New("import").Option("missingkey=error").Parse(o.ImportTemplate); err != nil {
		return fmt.Errorf("import_template: %w", err)
	}
	if o.ExportTemplate != "" {
		if o.exportTmpl, err = template.New("export").Option("missingkey=error").Parse(o.ExportTemplate); err != nil {
			return fmt.Errorf("export_template: %w", err)
		}
	}
	o.imports = o.imports[:0]
	for _, s := range o.AdditionalImports {
		id, err := loader.ParseIdentifier(s)
		if err != nil {
			return fmt.Errorf("additional_imports: %w", err)
		}
		if id.Export == loader.DefaultExport {
			return fmt.Errorf("additional import %q needs a binding name", s)
		}
		o.imports = append(o.imports, id)
	}
	for _, p := range o.ConstructorParameters {
		if p.Name == "" || p.Type == "" {
			return errors.New("constructor parameters need a name and a type")
		}
	}
	return nil
}

// Variables are available to the import and export templates.
type Variables struct {
	// DirectoryName is the directory of the input relative to the target
	// directory.
	DirectoryName string
	// FileExtension includes the leading dot.
	FileExtension string
	FileName      string
}

// New returns the task. It skips Generate: the barrel is assembled while the
// inputs are enumerated and written during Emit.
func New(name string) scheduler.Task {
	return scheduler.Coroutine(name, func(ctx context.Context, y *scheduler.Yielder) error {
		var opts Options
		if err := y.Yield(); err != nil {
			return err
		}
		if err := y.Task().ValidateConfig(scheduler.Decode(&opts)); err != nil {
			return err
		}

		if err := y.Yield(); err != nil {
			return err
		}
		entries, err := collect(y.Task(), &opts)
		if err != nil {
			return err
		}
		y.Task().Logger().Debug("modules collected", zap.Int("modules", len(entries)))

		if err := y.YieldUntil(phase.Emit); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := render(&buf, &opts, entries); err != nil {
			return err
		}
		w, err := y.Task().Output()
		if err != nil {
			return err
		}
		_, err = w.Write(buf.Bytes())
		return err
	})
}

// entry is one module of the barrel.
type entry struct {
	ImportPath string
	ImportName string
	ExportName string
	Default    bool
}

func collect(tc *scheduler.TaskContext, opts *Options) ([]*entry, error) {
	inputs, err := tc.LoadInput()
	if err != nil {
		return nil, err
	}
	b := tc.Binding()
	output := filepath.Clean(fsys.Abs(b.Dir, b.Output))

	byPath := make(map[string]*entry)
	for p, err := range inputs {
		if err != nil {
			return nil, err
		}
		if filepath.Clean(p) == output {
			continue
		}
		rel, err := filepath.Rel(b.Dir, p)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		ext := path.Ext(rel)
		vars := Variables{
			DirectoryName: path.Dir(rel),
			FileExtension: ext,
			FileName:      strings.TrimSuffix(path.Base(rel), ext),
		}

		e := &entry{ImportPath: importPath(opts.ImportPrefix, path.Join(vars.DirectoryName, vars.FileName))}
		if e.ImportName, err = execute(opts.importTmpl, vars); err != nil {
			return nil, err
		}
		e.ExportName = e.ImportName
		if opts.exportTmpl != nil {
			if e.ExportName, err = execute(opts.exportTmpl, vars); err != nil {
				return nil, err
			}
		}
		if e.ImportName == loader.DefaultExport {
			e.Default = true
			e.ImportName = e.ExportName
		}
		if e.ExportName == loader.DefaultExport {
			return nil, fmt.Errorf("%s: export name cannot be %q, set export_template", rel, loader.DefaultExport)
		}
		byPath[e.ImportPath] = e
	}

	out := make([]*entry, 0, len(byPath))
	for _, e := range byPath {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *entry) int { return strings.Compare(a.ImportPath, b.ImportPath) })
	return out, nil
}

func execute(t *template.Template, vars Variables) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("%s template: %w", t.Name(), err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// importPath joins prefix and p, keeping a leading "./" that path.Join would
// drop.
func importPath(prefix, p string) string {
	joined := path.Join(prefix, p)
	if (prefix == "" || strings.HasPrefix(prefix, "./")) && !strings.HasPrefix(joined, ".") {
		return "./" + joined
	}
	return joined
}
