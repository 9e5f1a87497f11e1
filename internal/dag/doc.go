// Package dag holds the build task graph and runs it.
//
// A Graph is a set of named tasks with "runs after" edges. Graph construction
// rejects self edges and DetectCycles rejects cycles before anything runs.
// The Executor feeds tasks whose dependencies have all succeeded to a fixed
// pool of workers. When a task fails, the run context is cancelled and every
// transitive dependent is marked skipped; tasks that already completed keep
// their results.
package dag
