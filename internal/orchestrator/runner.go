package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/specialistvlad/socgrid/internal/ctxlog"
)

// Invocation is one delegated sub-build.
type Invocation struct {
	Role string
	Dir  string
	Args []string
	// Env holds the build parameters as NAME=value pairs. They are added to
	// the inherited environment.
	Env []string
}

func (inv Invocation) String() string {
	return strings.Join(inv.Args, " ")
}

// Runner executes delegated sub-builds. The orchestrator treats them as
// opaque: it only cares whether they succeed.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner runs sub-builds as child processes.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	if len(inv.Args) == 0 {
		return fmt.Errorf("empty command for %s", inv.Role)
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting sub-build.", "role", inv.Role, "dir", inv.Dir, "command", inv.String())

	cmd := exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", inv, err)
	}
	return nil
}
