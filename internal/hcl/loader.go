package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/fsutil"
)

const stage = "load"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from paths. It is agnostic to the
// origin of the paths: any file may declare modules, and exactly one file
// must declare the system.
func (l *Loader) Load(ctx context.Context, build config.Build, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext(build)
	model := &config.Model{}

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, builderr.New(builderr.ErrMalformedDeclaration, stage, "").WithPath(file).Wrap(diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, builderr.New(builderr.ErrMalformedDeclaration, stage, "").WithPath(file).Wrap(diags)
		}

		dir := filepath.Dir(file)
		for _, mb := range root.Modules {
			model.Modules = append(model.Modules, translateModule(mb, file, dir))
		}
		for _, sb := range root.Systems {
			if model.System != nil {
				return nil, builderr.New(builderr.ErrMalformedDeclaration, stage,
					"system %q already declared in %s", model.System.Name, model.System.Source).WithPath(file)
			}
			sys, err := translateSystem(sb, file, dir)
			if err != nil {
				return nil, err
			}
			model.System = sys
		}
		logger.Debug("Loaded HCL file.", "file", file, "modules", len(root.Modules), "systems", len(root.Systems))
	}

	if model.System == nil {
		return nil, builderr.New(builderr.ErrMalformedDeclaration, stage, "no system block found in %v", paths)
	}

	logger.Debug("HCL loading complete.", "modules", len(model.Modules), "system", model.System.Name)
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat, de-duplicated
// list of all .hcl files found. Paths are made absolute so that every
// directory derived from a file stays valid whatever the working directory
// of a sub-build is.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, p := range paths {
		path, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("error resolving path %s: %w", p, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("error walking %s: %w", path, err)
		}
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
