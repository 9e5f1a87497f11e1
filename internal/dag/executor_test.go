package dag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures the order in which tasks finished.
type recorder struct {
	mu       sync.Mutex
	started  []string
	finished map[string]Status
}

func newRecorder() *recorder {
	return &recorder{finished: make(map[string]Status)}
}

func (r *recorder) TaskStarted(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
}

func (r *recorder) TaskFinished(_ context.Context, id string, status Status, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[id] = status
}

func (r *recorder) run(id string) RunFunc {
	return func(context.Context) error {
		r.TaskStarted(context.Background(), id+".body")
		return nil
	}
}

func TestExecutor_RespectsDependencies(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var mu sync.Mutex
	var order []string
	record := func(id string) RunFunc {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, id)
			return nil
		}
	}
	g := New()
	g.AddNode("bin", record("bin"))
	g.AddNode("hex", record("hex"))
	g.AddNode("lanes", record("lanes"))
	require.NoError(t, g.AddEdge("bin", "hex"))
	require.NoError(t, g.AddEdge("hex", "lanes"))

	// --- Act ---
	report, err := NewExecutor(g, 4).Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"bin", "hex", "lanes"}, order)
	for _, id := range report.Order {
		assert.Equal(t, Done, report.Status[id], id)
	}
}

func TestExecutor_IndependentTasksRunConcurrently(t *testing.T) {
	t.Parallel()

	const n = 4
	var running, peak atomic.Int32
	barrier := make(chan struct{})
	var arrived sync.WaitGroup
	arrived.Add(n)

	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id, func(ctx context.Context) error {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			arrived.Done()
			select {
			case <-barrier:
			case <-time.After(5 * time.Second):
				return errors.New("timed out waiting for siblings")
			}
			running.Add(-1)
			return nil
		})
	}

	go func() {
		arrived.Wait()
		close(barrier)
	}()

	_, err := NewExecutor(g, n).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(n), peak.Load())
}

func TestExecutor_FailureSkipsDependents(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	boom := errors.New("make: *** [build] Error 2")

	g := New()
	g.AddNode("sw.boot", func(context.Context) error { return boom })
	g.AddNode("hex.boot", rec.run("hex.boot"))
	g.AddNode("lanes.boot", rec.run("lanes.boot"))
	g.AddNode("system", rec.run("system"))
	require.NoError(t, g.AddEdge("sw.boot", "hex.boot"))
	require.NoError(t, g.AddEdge("hex.boot", "lanes.boot"))

	report, err := NewExecutor(g, 1, WithObserver(rec)).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "task sw.boot failed")
	assert.Equal(t, Failed, report.Status["sw.boot"])
	assert.Equal(t, Skipped, report.Status["hex.boot"])
	assert.Equal(t, Skipped, report.Status["lanes.boot"])
	assert.ErrorContains(t, report.Errors["lanes.boot"], `upstream failure of "hex.boot"`)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.NotContains(t, rec.started, "hex.boot.body")
	assert.Equal(t, Failed, rec.finished["sw.boot"])
	assert.Equal(t, Skipped, rec.finished["hex.boot"])
}

func TestExecutor_PanicBecomesError(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("bad", func(context.Context) error { panic("index out of range") })

	_, err := NewExecutor(g, 1).Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "task panicked: index out of range")
}

func TestExecutor_RejectsCycles(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))

	_, err := NewExecutor(g, 2).Run(context.Background())
	assert.ErrorContains(t, err, "cycle detected")
}

func TestExecutor_EmptyGraph(t *testing.T) {
	t.Parallel()

	report, err := NewExecutor(New(), 0).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Order)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "unknown", Status(42).String())
}
