package app

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/dag"
	"github.com/specialistvlad/socgrid/internal/notify"
	"github.com/specialistvlad/socgrid/internal/orchestrator"
)

const notifyDialTimeout = 5 * time.Second

// Run builds the configured targets.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "targets", a.config.Targets)

	var observer dag.Observer
	if a.config.NotifyURL != "" {
		sink, err := a.dialNotifier(ctx)
		if err != nil {
			// Notifications are best effort; the build goes on without them.
			a.logger.Warn("Build notifications disabled.", "url", a.config.NotifyURL, "error", err)
		} else {
			defer sink.Close()
			observer = notify.NewObserver(a.model.System.Name, sink)
		}
	}

	orch := orchestrator.New(a.model.System, a.registry, a.config.Build, orchestrator.Options{
		Workers:  a.config.WorkerCount,
		Jobs:     a.config.Jobs,
		Runner:   a.runner,
		Observer: observer,
		Out:      a.outW,
	})

	a.logger.Info("🚀 Starting build...", "system", a.model.System.Name, "targets", a.config.Targets)
	if err := orch.Run(ctx, a.config.Targets...); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Build finished.")

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) dialNotifier(ctx context.Context) (*notify.SocketIO, error) {
	ctx, cancel := context.WithTimeout(ctx, notifyDialTimeout)
	defer cancel()
	return notify.DialSocketIO(ctx, a.config.NotifyURL, notify.SocketIOOptions{})
}
