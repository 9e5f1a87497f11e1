// Package resolver computes the transitive, de-duplicated set of modules a
// system needs, honouring modules the system has already claimed.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
)

const stage = "resolve"

// Source answers what sub-modules a module declares. *registry.Registry
// satisfies it.
type Source interface {
	SubModules(name string) ([]string, error)
}

// frame is one module being expanded on the current path.
type frame struct {
	name string
	subs []string
	next int
}

// Resolve returns the requested module followed by every unique transitive
// sub-module, in depth-first declaration order.
//
// A sub-module named in claimed is never pulled in, which lets a system
// override a default dependency by claiming it first. A module reached again
// after it was fully expanded is skipped silently; a module reached while it
// is still on the expansion path fails with ErrCycleDetected.
func Resolve(ctx context.Context, src Source, requested string, claimed []string) (*Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving module set.", "module", requested, "claimed", claimed)

	claims := NewSet(claimed...)
	result := NewSet(requested)
	onPath := map[string]bool{requested: true}

	subs, err := subModules(src, requested, "")
	if err != nil {
		return nil, err
	}
	stack := []*frame{{name: requested, subs: subs}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.subs) {
			stack = stack[:len(stack)-1]
			delete(onPath, top.name)
			continue
		}
		sub := top.subs[top.next]
		top.next++

		switch {
		case claims.Has(sub):
			logger.Debug("Sub-module already claimed, skipping.", "module", sub, "parent", top.name)
			continue
		case onPath[sub]:
			return nil, builderr.New(builderr.ErrCycleDetected, stage,
				"%s", cyclePath(stack, sub)).WithModule(sub)
		case result.Has(sub):
			continue
		}

		subSubs, err := subModules(src, sub, top.name)
		if err != nil {
			return nil, err
		}
		result.Add(sub)
		onPath[sub] = true
		stack = append(stack, &frame{name: sub, subs: subSubs})
	}

	logger.Debug("Module set resolved.", "module", requested, "count", result.Len(), "modules", result.Names())
	return result, nil
}

func subModules(src Source, name, parent string) ([]string, error) {
	subs, err := src.SubModules(name)
	if err == nil {
		return subs, nil
	}
	if errors.Is(err, builderr.ErrUnknownModule) {
		e := builderr.New(builderr.ErrUnknownModule, stage, "").WithModule(name)
		if parent != "" {
			e.Err = errors.New("required by " + parent)
		}
		return nil, e
	}
	return nil, err
}

// cyclePath renders the expansion path from the first occurrence of name.
func cyclePath(stack []*frame, name string) string {
	var path []string
	started := false
	for _, f := range stack {
		if f.name == name {
			started = true
		}
		if started {
			path = append(path, f.name)
		}
	}
	path = append(path, name)
	return strings.Join(path, " -> ")
}
