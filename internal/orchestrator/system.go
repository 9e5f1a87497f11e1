package orchestrator

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/compose"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/memlayout"
	"github.com/specialistvlad/socgrid/internal/registry"
	"github.com/specialistvlad/socgrid/internal/resolver"
)

// buildSystem resolves the module set, orders its memories and composes the
// system description from the core template and the peripheral fragments.
func (o *Orchestrator) buildSystem(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	set, err := resolver.Resolve(ctx, o.reg, o.sys.Name, o.sys.Claimed)
	if err != nil {
		return err
	}
	mems := memlayout.Plan(o.reg, set.Names())
	logger.Debug("Module set resolved.", "modules", set.Names(), "memories", memlayout.Names(mems))

	template, err := os.ReadFile(o.sys.Template)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return builderr.New(builderr.ErrMissingTemplate, "compose", "").WithModule(o.sys.Name).WithPath(o.sys.Template)
		}
		return builderr.New(builderr.ErrMissingTemplate, "compose", "%w", err).WithModule(o.sys.Name).WithPath(o.sys.Template)
	}

	memories := make([]compose.Memory, 0, len(mems))
	for _, m := range mems {
		inst, err := readFragment(m, m.Instance)
		if err != nil {
			return err
		}
		memories = append(memories, compose.Memory{Name: m.Name, Instance: inst})
	}

	fragments := make([]compose.Fragment, 0, len(o.sys.Peripherals))
	for _, p := range o.sys.Peripherals {
		frag, err := o.peripheralFragment(p.Name, p.Module)
		if err != nil {
			return err
		}
		fragments = append(fragments, frag)
	}

	out, err := compose.Compose(template, memories, fragments)
	if err != nil {
		return err
	}
	if err := o.pub.Publish(o.systemPath(), out); err != nil {
		return err
	}
	logger.Info("Published system description.", "path", o.systemPath(), "peripherals", len(fragments), "memories", len(memories))
	return nil
}

func (o *Orchestrator) peripheralFragment(name, module string) (compose.Fragment, error) {
	m, ok := o.reg.Lookup(module)
	if !ok {
		return compose.Fragment{}, builderr.New(builderr.ErrMissingModule, "compose",
			"peripheral %q", name).WithModule(module)
	}
	frag := compose.Fragment{Name: name, Module: m.Name}
	for _, h := range m.Headers {
		src, err := readFragment(m, h)
		if err != nil {
			return compose.Fragment{}, err
		}
		frag.Headers = append(frag.Headers, compose.Header{ID: filepath.Base(h), Source: src})
	}
	var err error
	if frag.Instance, err = readFragment(m, m.Instance); err != nil {
		return compose.Fragment{}, err
	}
	if frag.Ports, err = readFragment(m, m.Ports); err != nil {
		return compose.Fragment{}, err
	}
	return frag, nil
}

// readFragment reads a file relative to the module root. An empty name
// means the module does not provide that fragment.
func readFragment(m *registry.Module, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Root, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", builderr.New(builderr.ErrMalformedDeclaration, "compose", "%w", err).WithModule(m.Name).WithPath(path)
	}
	return string(data), nil
}
