package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/orchestrator"
	"github.com/specialistvlad/socgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	model    *config.Model
	registry *registry.Registry
	runner   orchestrator.Runner
}

// Option customises an App.
type Option func(*App)

// WithRunner replaces the process runner used for delegated sub-builds.
func WithRunner(r orchestrator.Runner) Option {
	return func(a *App) { a.runner = r }
}

// NewApp is the constructor for the main application. It loads the module
// manifests and the system file and builds the module registry.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Merge all configuration paths into a single collection for the loader.
	var configPaths []string
	if cfg.SystemPath != "" {
		configPaths = append(configPaths, cfg.SystemPath)
	}
	if cfg.ModulesPath != "" {
		configPaths = append(configPaths, cfg.ModulesPath)
	}

	model, err := loader.Load(ctx, cfg.Build, configPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg, err := registry.FromModel(model.Modules)
	if err != nil {
		return nil, fmt.Errorf("failed to build module registry: %w", err)
	}
	logger.Debug("Module registry populated.", "count", reg.Len())

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		model:    model,
		registry: reg,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// System returns the loaded system declaration.
func (a *App) System() *config.System {
	return a.model.System
}
