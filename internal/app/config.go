package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/orchestrator"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SystemPath  string // system .hcl file or directory
	ModulesPath string // module manifests
	Targets     []string

	LogFormat   string
	LogLevel    string
	WorkerCount int
	Jobs        int
	NotifyURL   string

	Build config.Build
}

// NewConfig validates cfg and returns a copy with defaults applied.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SystemPath == "" {
		return nil, errors.New("SystemPath is a required configuration field and cannot be empty")
	}
	for _, t := range cfg.Targets {
		if !orchestrator.IsTarget(t) {
			return nil, fmt.Errorf("unknown target %q, valid targets are %v", t, orchestrator.Targets())
		}
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = []string{orchestrator.DefaultTarget}
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.Jobs < 1 {
		return nil, fmt.Errorf("jobs must be positive, got %d", cfg.Jobs)
	}
	if err := cfg.Build.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build parameters: %w", err)
	}
	return &cfg, nil
}
