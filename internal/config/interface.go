package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads module manifests and system files from the given paths,
	// evaluates them against the build parameters and translates them into
	// the format-agnostic model.
	Load(ctx context.Context, build Build, paths ...string) (*Model, error)
}
