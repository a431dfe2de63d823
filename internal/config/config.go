// Package config loads gqlforge.hcl, the file describing which plugins
// generate which outputs.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// FileName is the configuration file looked up by Find.
const FileName = "gqlforge.hcl"

var ErrNotFound = errors.New(FileName + " not found")

// File is a loaded configuration.
type File struct {
	// Path of the configuration file.
	Path string
	// Dir is the absolute base directory of every target.
	Dir         string
	Concurrency int
	// Config applies to every plugin of every target.
	Config  map[string]any
	Targets []*Target
}

// Target is one generate block: an output produced by a list of plugins.
type Target struct {
	Output  string
	Input   string
	Dir     string
	Config  map[string]any
	Plugins []*Plugin
}

type Plugin struct {
	// Use is the loader identifier of the plugin, "module#export".
	Use    string
	Config map[string]any
}

// Merged returns the configuration p runs with: global, then target, then
// plugin keys, later ones winning.
func (f *File) Merged(t *Target, p *Plugin) (target, plugin map[string]any) {
	target = merge(f.Config, t.Config)
	return target, maps.Clone(p.Config)
}

func merge(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

// Error reports diagnostics produced while parsing or evaluating a file.
type Error struct {
	Path  string
	Diags hcl.Diagnostics
}

func (e *Error) Error() string { return fmt.Sprintf("config %s: %s", e.Path, e.Diags.Error()) }

func (e *Error) Unwrap() error { return e.Diags }

type fileRoot struct {
	Dir         string           `hcl:"dir,optional"`
	Concurrency int              `hcl:"concurrency,optional"`
	Config      hcl.Expression   `hcl:"config,optional"`
	Generate    []*generateBlock `hcl:"generate,block"`
}

type generateBlock struct {
	Output  string         `hcl:"output,label"`
	Input   string         `hcl:"input,optional"`
	Dir     string         `hcl:"dir,optional"`
	Config  hcl.Expression `hcl:"config,optional"`
	Plugins []*pluginBlock `hcl:"plugin,block"`
}

type pluginBlock struct {
	Use    string         `hcl:"use,label"`
	Config hcl.Expression `hcl:"config,optional"`
}

// Find walks up from dir looking for FileName and returns its path.
func Find(fs afero.Fs, dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		p := filepath.Join(dir, FileName)
		if ok, err := afero.Exists(fs, p); err != nil {
			return "", err
		} else if ok {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load reads and decodes the file at path. Expressions can refer to the
// process environment as env.NAME.
func Load(fs afero.Fs, path string) (*File, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, path, environ())
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Parse decodes src as the configuration file at path.
func Parse(src []byte, path string, env map[string]string) (*File, error) {
	hf, diags := hclparse.NewParser().ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, &Error{Path: path, Diags: diags}
	}

	ectx := evalContext(env)
	var root fileRoot
	if diags := gohcl.DecodeBody(hf.Body, ectx, &root); diags.HasErrors() {
		return nil, &Error{Path: path, Diags: diags}
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	f := &File{
		Path:        path,
		Dir:         resolveDir(base, root.Dir),
		Concurrency: root.Concurrency,
	}
	if f.Config, diags = evalConfig(root.Config, ectx); diags.HasErrors() {
		return nil, &Error{Path: path, Diags: diags}
	}

	for _, g := range root.Generate {
		t := &Target{
			Output: g.Output,
			Input:  g.Input,
			Dir:    resolveDir(f.Dir, g.Dir),
		}
		if t.Config, diags = evalConfig(g.Config, ectx); diags.HasErrors() {
			return nil, &Error{Path: path, Diags: diags}
		}
		if len(g.Plugins) == 0 {
			return nil, fmt.Errorf("config %s: generate %q has no plugin", path, g.Output)
		}
		for _, pb := range g.Plugins {
			p := &Plugin{Use: pb.Use}
			if p.Config, diags = evalConfig(pb.Config, ectx); diags.HasErrors() {
				return nil, &Error{Path: path, Diags: diags}
			}
			t.Plugins = append(t.Plugins, p)
		}
		f.Targets = append(f.Targets, t)
	}
	return f, nil
}

func resolveDir(base, dir string) string {
	if dir == "" {
		return base
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// isExprDefined reports whether an optional attribute was present in the
// source. Omitted attributes decode to zero-width expressions.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

func evalConfig(expr hcl.Expression, ectx *hcl.EvalContext) (map[string]any, hcl.Diagnostics) {
	if !isExprDefined(expr) {
		return nil, nil
	}
	val, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid config",
			Detail:   fmt.Sprintf("config must be an object, got %s", val.Type().FriendlyName()),
			Subject:  expr.Range().Ptr(),
		}}
	}
	native, err := ctyToNative(val)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid config",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		}}
	}
	m, _ := native.(map[string]any)
	return m, nil
}
