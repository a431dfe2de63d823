// Package loader resolves plugin identifiers of the form "<module>#<export>"
// against a registry of in-process plugin factories.
package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultExport is the export name used for default imports.
const DefaultExport = "default"

var (
	ErrEmptyModule    = errors.New("plugin identifier has no module path")
	ErrUnknownModule  = errors.New("unknown plugin module")
	ErrUnknownExport  = errors.New("module has no such export")
	ErrDuplicateEntry = errors.New("plugin already registered")
)

// Identifier is a parsed plugin reference.
type Identifier struct {
	Module string
	// Export is the export name with default-import markers removed.
	Export string
	// Default is set when the identifier denotes the module's default export:
	// an empty export, "default", or a name wrapped in brackets.
	Default bool
}

// ParseIdentifier splits s into module path and export name.
func ParseIdentifier(s string) (Identifier, error) {
	module, export, _ := strings.Cut(strings.TrimSpace(s), "#")
	if module == "" {
		return Identifier{}, fmt.Errorf("%w: %q", ErrEmptyModule, s)
	}
	id := Identifier{Module: module, Export: export}
	switch {
	case export == "" || export == DefaultExport:
		id.Default = true
		id.Export = DefaultExport
	case len(export) >= 2 && export[0] == '[' && export[len(export)-1] == ']':
		id.Default = true
		id.Export = export[1 : len(export)-1]
	}
	return id, nil
}

func (id Identifier) String() string {
	switch {
	case id.Default && id.Export != DefaultExport && id.Export != "":
		return id.Module + "#[" + id.Export + "]"
	case id.Default:
		return id.Module
	}
	return id.Module + "#" + id.Export
}

// Registry maps module paths and export names to values of type T.
type Registry[T any] struct {
	mu      sync.RWMutex
	modules map[string]map[string]T
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{modules: make(map[string]map[string]T)}
}

// Register binds v to module#export. Use DefaultExport for the module's
// default export.
func (r *Registry[T]) Register(module, export string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exports, ok := r.modules[module]
	if !ok {
		exports = make(map[string]T)
		r.modules[module] = exports
	}
	if _, dup := exports[export]; dup {
		return fmt.Errorf("%w: %s#%s", ErrDuplicateEntry, module, export)
	}
	exports[export] = v
	return nil
}

// Resolve parses identifier and returns the registered value. A bracketed
// default import resolves to the default export; the bracketed name is only
// the local binding.
func (r *Registry[T]) Resolve(identifier string) (T, error) {
	var zero T
	id, err := ParseIdentifier(identifier)
	if err != nil {
		return zero, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exports, ok := r.modules[id.Module]
	if !ok {
		return zero, fmt.Errorf("%w %q", ErrUnknownModule, id.Module)
	}
	export := id.Export
	if id.Default {
		export = DefaultExport
	}
	v, ok := exports[export]
	if !ok {
		return zero, fmt.Errorf("%w: %s#%s", ErrUnknownExport, id.Module, export)
	}
	return v, nil
}

// Modules lists the registered identifiers in sorted order.
func (r *Registry[T]) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for module, exports := range r.modules {
		for export := range exports {
			out = append(out, Identifier{Module: module, Export: export, Default: export == DefaultExport}.String())
		}
	}
	sort.Strings(out)
	return out
}
