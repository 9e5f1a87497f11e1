package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/dag"
)

// invocation returns the sub-build command for sw. Without an explicit
// command make runs inside the role's directory, and the build parameters
// are passed as make variables as well as through the environment.
func (o *Orchestrator) invocation(sw *config.Software, command []string, makeGoal ...string) Invocation {
	vars := o.build.MakeVars()
	inv := Invocation{Role: sw.Role, Dir: sw.Dir, Env: vars}
	if len(command) > 0 {
		inv.Args = slices.Clone(command)
		return inv
	}
	inv.Args = append([]string{"make"}, makeGoal...)
	inv.Args = append(inv.Args, vars...)
	return inv
}

// delegate runs one sub-build while holding a job slot.
func (o *Orchestrator) delegate(ctx context.Context, inv Invocation) error {
	if err := o.jobs.Acquire(ctx, 1); err != nil {
		return err
	}
	defer o.jobs.Release(1)

	if err := o.runner.Run(ctx, inv); err != nil {
		return builderr.New(builderr.ErrSubBuildFailed, "sw", "%s: %w", inv.Role, err).WithPath(inv.Dir)
	}
	return nil
}

func (o *Orchestrator) buildSoftware(sw *config.Software) dag.RunFunc {
	return func(ctx context.Context) error {
		ctx = ctxlog.With(ctx, "role", sw.Role)
		logger := ctxlog.FromContext(ctx)
		inv := o.invocation(sw, sw.Command)
		logger.Info("Building software.", "dir", sw.Dir)

		if err := o.delegate(ctx, inv); err != nil {
			return err
		}
		for _, name := range sw.Outputs {
			path := filepath.Join(sw.Dir, name)
			if _, err := os.Stat(path); err != nil {
				return builderr.New(builderr.ErrSubBuildFailed, "sw",
					"%s: expected output was not produced: %w", sw.Role, err).WithPath(path)
			}
		}
		logger.Debug("Software built.", "outputs", sw.Outputs)
		return nil
	}
}

func (o *Orchestrator) cleanSoftware(sw *config.Software) dag.RunFunc {
	return func(ctx context.Context) error {
		ctx = ctxlog.With(ctx, "role", sw.Role)
		ctxlog.FromContext(ctx).Info("Cleaning software.", "dir", sw.Dir)
		return o.delegate(ctx, o.invocation(sw, sw.Clean, "clean"))
	}
}

// cleanHardware removes the artifacts the orchestrator generates and nothing
// else: the copies of module sources go, the originals and the software
// trees stay.
func (o *Orchestrator) cleanHardware(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	paths := []string{o.systemPath()}
	for _, sw := range o.imageRoles() {
		paths = append(paths, o.binaryPath(sw), o.hexPath(sw))
		for i := range o.sys.Lanes {
			paths = append(paths, o.lanePath(sw, i))
		}
	}
	for _, p := range paths {
		if err := o.pub.Remove(p); err != nil {
			return err
		}
	}
	sources, err := o.removeCollectedSources()
	if err != nil {
		return err
	}
	logger.Info("Removed generated hardware artifacts.", "dir", o.sys.OutputDir, "count", len(paths), "sources", sources)
	return nil
}
