package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/dag"
	"github.com/specialistvlad/socgrid/internal/fsutil"
	"github.com/specialistvlad/socgrid/internal/registry"
	"golang.org/x/sync/semaphore"
)

// Options tune how an Orchestrator executes.
type Options struct {
	// Workers bounds the number of tasks running at once.
	Workers int
	// Jobs bounds the number of delegated sub-builds running at once.
	Jobs int
	// Runner executes delegated sub-builds. Defaults to an ExecRunner
	// writing to Out.
	Runner Runner
	// Observer is told about every task start and finish.
	Observer dag.Observer
	// Out receives the output of informational targets.
	Out io.Writer
}

// Orchestrator builds the targets of one system.
type Orchestrator struct {
	sys      *config.System
	reg      *registry.Registry
	build    config.Build
	runner   Runner
	observer dag.Observer
	out      io.Writer
	workers  int
	jobs     *semaphore.Weighted
	pub      *fsutil.Publisher
}

// New creates an orchestrator for sys, resolving modules against reg.
func New(sys *config.System, reg *registry.Registry, build config.Build, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Runner == nil {
		opts.Runner = &ExecRunner{Stdout: opts.Out, Stderr: opts.Out}
	}
	return &Orchestrator{
		sys:      sys,
		reg:      reg,
		build:    build,
		runner:   opts.Runner,
		observer: opts.Observer,
		out:      opts.Out,
		workers:  opts.Workers,
		jobs:     semaphore.NewWeighted(int64(opts.Jobs)),
		pub:      fsutil.NewPublisher(),
	}
}

// BuildDir returns the directory generated artifacts are published to.
func (o *Orchestrator) BuildDir() string {
	return o.sys.OutputDir
}

// Run builds the given targets, or DefaultTarget when none are given. Clean
// targets run to completion before any build target starts. The first
// failing task aborts the run; artifacts already published by unrelated
// tasks are left in place.
func (o *Orchestrator) Run(ctx context.Context, targets ...string) error {
	ctx = ctxlog.With(ctx, "system", o.sys.Name)
	logger := ctxlog.FromContext(ctx)
	if len(targets) == 0 {
		targets = []string{DefaultTarget}
	}

	p, err := o.plan(targets)
	if err != nil {
		return err
	}
	for _, t := range p.informational {
		if t == TargetPrintBuildDir {
			fmt.Fprintln(o.out, o.BuildDir())
		}
	}

	for _, phase := range []struct {
		name  string
		graph *dag.Graph
	}{
		{"clean", p.clean},
		{"build", p.build},
	} {
		if phase.graph == nil || phase.graph.Len() == 0 {
			continue
		}
		logger.Info("Starting phase.", "phase", phase.name, "tasks", phase.graph.Len())
		var opts []dag.Option
		if o.observer != nil {
			opts = append(opts, dag.WithObserver(o.observer))
		}
		report, err := dag.NewExecutor(phase.graph, o.workers, opts...).Run(ctx)
		if err != nil {
			return fmt.Errorf("%s failed: %w", phase.name, err)
		}
		logger.Info("Phase finished.", "phase", phase.name, "tasks", len(report.Order))
	}
	return nil
}

// Paths of generated artifacts.

func (o *Orchestrator) systemPath() string {
	return filepath.Join(o.sys.OutputDir, o.sys.Name+".v")
}

func (o *Orchestrator) binaryPath(sw *config.Software) string {
	return filepath.Join(o.sys.OutputDir, sw.BinaryName())
}

func (o *Orchestrator) hexPath(sw *config.Software) string {
	return filepath.Join(o.sys.OutputDir, sw.Role+".hex")
}

func (o *Orchestrator) lanePath(sw *config.Software, lane int) string {
	return filepath.Join(o.sys.OutputDir, sw.Role+"_"+strconv.Itoa(lane)+".hex")
}

// imageRoles returns the software that feeds a memory image.
func (o *Orchestrator) imageRoles() []*config.Software {
	var out []*config.Software
	for _, sw := range o.sys.Software {
		if sw.Image {
			out = append(out, sw)
		}
	}
	return out
}
