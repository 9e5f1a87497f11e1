package dag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/socgrid/internal/ctxlog"
)

// Observer is told when tasks start and finish. Implementations must be
// safe for concurrent use.
type Observer interface {
	TaskStarted(ctx context.Context, id string)
	TaskFinished(ctx context.Context, id string, status Status, err error)
}

// Executor runs a graph with a bounded pool of workers.
type Executor struct {
	graph      *Graph
	numWorkers int
	observer   Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver registers an observer for task lifecycle events.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// NewExecutor creates an executor. A non-positive worker count means one.
func NewExecutor(g *Graph, workers int, opts ...Option) *Executor {
	if workers < 1 {
		workers = 1
	}
	e := &Executor{graph: g, numWorkers: workers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report is the per-task outcome of a run, in graph insertion order.
type Report struct {
	Order  []string
	Status map[string]Status
	Errors map[string]error
}

// run holds the mutable state of a single execution.
type run struct {
	tasks    map[string]*taskState
	ready    chan *taskState
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	firstErr error
	failOnce sync.Once
	observer Observer
}

type taskState struct {
	n        *node
	depCount atomic.Int32
	state    atomic.Int32
	err      error
	// finishOnce guards the single wg.Done per task.
	finishOnce sync.Once
}

// Run executes the graph and returns the first task failure, wrapped with
// the failing task's ID. It respects cancellation of ctx.
func (e *Executor) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	if err := e.graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating task graph: %w", err)
	}

	e.graph.mutex.RLock()
	order := append([]string(nil), e.graph.order...)
	r := &run{
		tasks:    make(map[string]*taskState, len(order)),
		ready:    make(chan *taskState, len(order)),
		observer: e.observer,
	}
	for _, id := range order {
		ts := &taskState{n: e.graph.nodes[id]}
		ts.depCount.Store(int32(len(ts.n.deps)))
		r.tasks[id] = ts
	}
	e.graph.mutex.RUnlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.cancel = cancel

	r.wg.Add(len(order))
	rootCount := 0
	for _, id := range order {
		if ts := r.tasks[id]; ts.depCount.Load() == 0 {
			r.ready <- ts
			rootCount++
		}
	}
	logger.Debug("Found root tasks.", "count", rootCount, "total", len(order))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	var workers sync.WaitGroup
	for i := range e.numWorkers {
		workers.Add(1)
		go func() {
			defer workers.Done()
			r.worker(runCtx, i)
		}()
	}

	r.wg.Wait()
	close(r.ready)
	workers.Wait()

	report := &Report{Order: order, Status: make(map[string]Status), Errors: make(map[string]error)}
	for _, id := range order {
		ts := r.tasks[id]
		report.Status[id] = Status(ts.state.Load())
		if ts.err != nil {
			report.Errors[id] = ts.err
		}
	}
	if r.firstErr != nil {
		return report, r.firstErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// worker is the core processing loop for a single concurrent worker.
func (r *run) worker(ctx context.Context, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "worker", workerID)

	for ts := range r.ready {
		taskCtx := ctxlog.With(ctx, "worker", workerID, "task", ts.n.id)
		taskLogger := ctxlog.FromContext(taskCtx)

		if ctx.Err() != nil {
			taskLogger.Warn("Run cancelled, skipping task.")
			r.finish(taskCtx, ts, Skipped, ctx.Err())
			r.skipDependents(taskCtx, ts)
			continue
		}

		ts.state.Store(int32(Running))
		if r.observer != nil {
			r.observer.TaskStarted(taskCtx, ts.n.id)
		}
		taskLogger.Debug("Worker picked up task.")

		if err := execute(taskCtx, ts.n); err != nil {
			taskLogger.Error("Task failed.", "error", err)
			r.failOnce.Do(func() {
				r.firstErr = fmt.Errorf("task %s failed: %w", ts.n.id, err)
			})
			r.cancel()
			r.finish(taskCtx, ts, Failed, err)
			r.skipDependents(taskCtx, ts)
			continue
		}

		taskLogger.Debug("Task succeeded.")
		for _, dependent := range ts.n.dependents {
			dts := r.tasks[dependent.id]
			if dts.depCount.Add(-1) == 0 {
				taskLogger.Debug("Unlocking dependent task.", "dependent", dependent.id)
				r.ready <- dts
			}
		}
		r.finish(taskCtx, ts, Done, nil)
	}
	logger.Debug("Worker finished.", "worker", workerID)
}

// execute runs a task, converting a panic into an error.
func execute(ctx context.Context, n *node) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	if n.run == nil {
		return nil
	}
	return n.run(ctx)
}

func (r *run) finish(ctx context.Context, ts *taskState, status Status, err error) {
	ts.finishOnce.Do(func() {
		ts.err = err
		ts.state.Store(int32(status))
		if r.observer != nil {
			r.observer.TaskFinished(ctx, ts.n.id, status, err)
		}
		r.wg.Done()
	})
}

// skipDependents recursively marks all downstream tasks as skipped.
func (r *run) skipDependents(ctx context.Context, ts *taskState) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range ts.n.dependents {
		dts := r.tasks[dependent.id]
		if Status(dts.state.Load()) != Pending {
			continue
		}
		logger.Warn("Skipping dependent task due to upstream failure.", "dependent", dependent.id, "dependency", ts.n.id)
		r.finish(ctx, dts, Skipped, fmt.Errorf("skipped due to upstream failure of %q", ts.n.id))
		r.skipDependents(ctx, dts)
	}
}
