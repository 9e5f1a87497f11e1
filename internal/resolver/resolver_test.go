package resolver

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSource is a Source backed by a plain map.
type mapSource map[string][]string

func (m mapSource) SubModules(name string) ([]string, error) {
	subs, ok := m[name]
	if !ok {
		return nil, builderr.New(builderr.ErrUnknownModule, "test", "").WithModule(name)
	}
	return subs, nil
}

func TestResolve_SystemScenario(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg, err := registry.FromModel([]*config.ModuleDef{
		{Name: "SYS", Submodules: []string{"ROM", "RAM", "UART"}},
		{Name: "ROM", Category: registry.CategoryROM},
		{Name: "RAM", Category: registry.CategoryRAM},
		{Name: "UART", Category: registry.CategoryPeripheral},
	})
	require.NoError(t, err)

	// --- Act ---
	set, err := Resolve(context.Background(), reg, "SYS", nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"SYS", "ROM", "RAM", "UART"}, set.Names())
}

func TestResolve_TransitiveDepthFirst(t *testing.T) {
	t.Parallel()

	src := mapSource{
		"soc":   {"cpu", "uart", "timer"},
		"cpu":   {"reg", "mux"},
		"uart":  {"reg", "fifo"},
		"timer": {"reg"},
		"reg":   {},
		"mux":   {},
		"fifo":  {"ram"},
		"ram":   {},
	}

	set, err := Resolve(context.Background(), src, "soc", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"soc", "cpu", "reg", "mux", "uart", "fifo", "ram", "timer"}, set.Names())
}

func TestResolve_ClaimedModulesAreNotPulledIn(t *testing.T) {
	t.Parallel()

	src := mapSource{
		"soc":  {"cpu", "uart"},
		"cpu":  {"cache", "reg"},
		"uart": {"reg"},
		"reg":  {},
		// "cache" is unknown to the registry but claimed by the host, so it
		// must never be looked up.
	}

	set, err := Resolve(context.Background(), src, "soc", []string{"soc", "cache"})
	require.NoError(t, err)
	assert.Equal(t, []string{"soc", "cpu", "reg", "uart"}, set.Names())
}

func TestResolve_SelfReferenceShortCircuitedByClaim(t *testing.T) {
	t.Parallel()

	src := mapSource{"soc": {"soc", "uart"}, "uart": {}}

	set, err := Resolve(context.Background(), src, "soc", []string{"soc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"soc", "uart"}, set.Names())
}

func TestResolve_CycleDetected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  mapSource
		want string
	}{
		{
			name: "two module cycle",
			src:  mapSource{"A": {"B"}, "B": {"A"}},
			want: "A -> B -> A",
		},
		{
			name: "unclaimed self reference",
			src:  mapSource{"A": {"A"}},
			want: "A -> A",
		},
		{
			name: "cycle below the root",
			src:  mapSource{"top": {"A"}, "A": {"B"}, "B": {"C"}, "C": {"A"}},
			want: "A -> B -> C -> A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := "A"
			if _, ok := tt.src["top"]; ok {
				root = "top"
			}
			_, err := Resolve(context.Background(), tt.src, root, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, builderr.ErrCycleDetected)
			assert.ErrorIs(t, err, builderr.ErrResolution)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolve_DiamondIsNotACycle(t *testing.T) {
	t.Parallel()

	src := mapSource{"top": {"L", "R"}, "L": {"base"}, "R": {"base"}, "base": {}}

	set, err := Resolve(context.Background(), src, "top", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "L", "base", "R"}, set.Names())
}

func TestResolve_UnknownModule(t *testing.T) {
	t.Parallel()

	_, err := Resolve(context.Background(), mapSource{"soc": {"ghost"}}, "soc", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, builderr.ErrUnknownModule)
	assert.Contains(t, err.Error(), `module "ghost"`)
	assert.Contains(t, err.Error(), "required by soc")

	_, err = Resolve(context.Background(), mapSource{}, "nothing", nil)
	assert.ErrorIs(t, err, builderr.ErrUnknownModule)
}

// randomAcyclicSource builds a registry where module i only depends on
// modules with a larger index.
func randomAcyclicSource(rng *rand.Rand, n int) mapSource {
	src := make(mapSource, n)
	for i := range n {
		var subs []string
		for j := i + 1; j < n; j++ {
			if rng.Intn(3) == 0 {
				subs = append(subs, fmt.Sprintf("m%d", j))
			}
		}
		// Repeat a declaration now and then; later duplicates must be dropped.
		if len(subs) > 0 && rng.Intn(2) == 0 {
			subs = append(subs, subs[0])
		}
		src[fmt.Sprintf("m%d", i)] = subs
	}
	return src
}

func TestResolve_Properties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for iter := range 50 {
		src := randomAcyclicSource(rng, 12)
		var claimed []string
		for i := 1; i < 12; i++ {
			if rng.Intn(4) == 0 {
				claimed = append(claimed, fmt.Sprintf("m%d", i))
			}
		}

		first, err := Resolve(context.Background(), src, "m0", claimed)
		require.NoError(t, err, "iteration %d", iter)
		second, err := Resolve(context.Background(), src, "m0", claimed)
		require.NoError(t, err, "iteration %d", iter)

		names := first.Names()
		assert.Equal(t, names, second.Names(), "resolution must be deterministic")

		seen := make(map[string]bool)
		for _, n := range names {
			assert.False(t, seen[n], "duplicate %s in iteration %d", n, iter)
			seen[n] = true
		}
		for _, c := range claimed {
			assert.NotContains(t, names[1:], c, "claimed module pulled in during iteration %d", iter)
		}
	}
}

func TestSet_FirstInsertionWins(t *testing.T) {
	t.Parallel()

	s := NewSet("a", "b")
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("c"))
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())
	assert.True(t, s.Has("b"))
	assert.Equal(t, 3, s.Len())
}
