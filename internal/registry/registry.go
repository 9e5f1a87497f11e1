package registry

import (
	"slices"
	"strings"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/config"
)

// Well-known category tags. Sub-categories are separated by a slash, so a
// "memory/rom" module also provides "memory".
const (
	CategoryMemory     = "memory"
	CategoryROM        = "memory/rom"
	CategoryRAM        = "memory/ram"
	CategoryCore       = "core"
	CategoryPeripheral = "peripheral"
	CategorySystem     = "system"
)

// Purposes decide which build folder receives a module's sources.
const (
	PurposeHardware   = "hardware"
	PurposeSimulation = "simulation"
	PurposeFPGA       = "fpga"
)

var purposeDirs = map[string]string{
	PurposeHardware:   "hardware/src",
	PurposeSimulation: "hardware/simulation/src",
	PurposeFPGA:       "hardware/fpga/src",
}

// Purposes returns every purpose, hardware first.
func Purposes() []string {
	return []string{PurposeHardware, PurposeSimulation, PurposeFPGA}
}

// PurposeDir returns the slash-separated build folder of purpose, relative
// to the output directory.
func PurposeDir(purpose string) (string, bool) {
	dir, ok := purposeDirs[purpose]
	return dir, ok
}

// Module is an immutable hardware IP module.
type Module struct {
	Name       string
	Root       string
	Category   string
	Submodules []string
	Headers    []string
	Instance   string
	Ports      string
	Purpose    string
	Sources    []string
	Source     string
}

// Provides reports whether the module's category is, or is nested under, category.
func (m *Module) Provides(category string) bool {
	return m.Category == category || strings.HasPrefix(m.Category, category+"/")
}

// Registry maps module names to modules, remembering declaration order.
type Registry struct {
	modules map[string]*Module
	order   []string
}

// New creates and initializes an empty Registry.
func New() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// FromModel builds a registry from the loaded module definitions.
func FromModel(defs []*config.ModuleDef) (*Registry, error) {
	r := New()
	for _, d := range defs {
		m := &Module{
			Name:       d.Name,
			Root:       d.Root,
			Category:   d.Category,
			Submodules: append([]string(nil), d.Submodules...),
			Headers:    append([]string(nil), d.Headers...),
			Instance:   d.Instance,
			Ports:      d.Ports,
			Purpose:    d.Purpose,
			Sources:    append([]string(nil), d.Sources...),
			Source:     d.Source,
		}
		if err := r.Add(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a module. Names are unique; a second declaration is a
// configuration error rather than a silent override. An empty purpose
// becomes hardware.
func (r *Registry) Add(m *Module) error {
	if m.Name == "" {
		return builderr.New(builderr.ErrMalformedDeclaration, "registry", "module without a name").WithPath(m.Source)
	}
	if prev, ok := r.modules[m.Name]; ok {
		return builderr.New(builderr.ErrMalformedDeclaration, "registry",
			"declared twice, first in %s", prev.Source).WithModule(m.Name).WithPath(m.Source)
	}
	if m.Purpose == "" {
		m.Purpose = PurposeHardware
	}
	if _, ok := purposeDirs[m.Purpose]; !ok {
		return builderr.New(builderr.ErrMalformedDeclaration, "registry",
			"unknown purpose %q, want one of %v", m.Purpose, Purposes()).WithModule(m.Name).WithPath(m.Source)
	}
	r.modules[m.Name] = m
	r.order = append(r.order, m.Name)
	return nil
}

// Lookup returns the module with the given name.
func (r *Registry) Lookup(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Provides answers "does module name provide category".
func (r *Registry) Provides(name, category string) bool {
	m, ok := r.modules[name]
	return ok && m.Provides(category)
}

// SubModules returns the declared sub-module list of name, in declaration order.
func (r *Registry) SubModules(name string) ([]string, error) {
	m, ok := r.modules[name]
	if !ok {
		return nil, builderr.New(builderr.ErrUnknownModule, "registry", "").WithModule(name)
	}
	return slices.Clone(m.Submodules), nil
}

// Names returns every registered module name in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.order)
}

// Select returns the modules among names that provide category, preserving
// the order of names. Unknown names are ignored.
func (r *Registry) Select(names []string, category string) []*Module {
	var out []*Module
	for _, n := range names {
		if m, ok := r.modules[n]; ok && m.Provides(category) {
			out = append(out, m)
		}
	}
	return out
}
