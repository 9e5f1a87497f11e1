// Package memlayout orders a system's on-chip memory modules. Address map
// generation and reset-vector wiring assume ROM occupies the low addresses,
// so every ROM precedes every RAM.
package memlayout

import (
	"slices"

	"github.com/specialistvlad/socgrid/internal/registry"
)

// rank places ROM first, RAM second and any other memory last.
func rank(m *registry.Module) int {
	switch {
	case m.Provides(registry.CategoryROM):
		return 0
	case m.Provides(registry.CategoryRAM):
		return 1
	default:
		return 2
	}
}

// Order returns the memory modules with ROM before RAM, keeping the input
// order within each group. An empty input yields an empty, non-nil result.
func Order(memories []*registry.Module) []*registry.Module {
	out := slices.Clone(memories)
	if out == nil {
		out = []*registry.Module{}
	}
	slices.SortStableFunc(out, func(a, b *registry.Module) int {
		return rank(a) - rank(b)
	})
	return out
}

// Plan selects the memory modules from a resolved module list and orders them.
func Plan(reg *registry.Registry, resolved []string) []*registry.Module {
	return Order(reg.Select(resolved, registry.CategoryMemory))
}

// Names returns the module names of an ordered memory list.
func Names(memories []*registry.Module) []string {
	names := make([]string, len(memories))
	for i, m := range memories {
		names[i] = m.Name
	}
	return names
}
