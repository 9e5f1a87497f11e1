package orchestrator

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/fsutil"
	"github.com/specialistvlad/socgrid/internal/registry"
	"github.com/specialistvlad/socgrid/internal/resolver"
)

// sourcesList records, one per line and relative to the output directory,
// every source file the sources task left in the build tree.
const sourcesList = "sources.list"

func (o *Orchestrator) sourcesListPath() string {
	return filepath.Join(o.sys.OutputDir, sourcesList)
}

func (o *Orchestrator) purposePath(purpose string) string {
	dir, _ := registry.PurposeDir(purpose)
	return filepath.Join(o.sys.OutputDir, filepath.FromSlash(dir))
}

// sourceFile is one file to copy and its path below the purpose folder.
type sourceFile struct {
	from string
	rel  string
}

// collectSources copies the sources of every resolved module into the build
// folder of its purpose. Copies under the simulation and fpga folders that
// also exist under hardware/src are dropped afterwards, so each file is
// compiled from one place only.
func (o *Orchestrator) collectSources(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	set, err := resolver.Resolve(ctx, o.reg, o.sys.Name, o.sys.Claimed)
	if err != nil {
		return err
	}
	// Files left by a previous run may belong to modules that are no longer
	// part of the system.
	if _, err := o.removeCollectedSources(); err != nil {
		return err
	}

	providers := make(map[string]string)
	var written []string
	for _, name := range set.Names() {
		m, ok := o.reg.Lookup(name)
		if !ok {
			return builderr.New(builderr.ErrUnknownModule, "sources", "").WithModule(name)
		}
		for _, entry := range m.Sources {
			files, err := moduleSources(m, entry)
			if err != nil {
				return err
			}
			for _, f := range files {
				dest := filepath.Join(o.purposePath(m.Purpose), filepath.FromSlash(f.rel))
				if filepath.Clean(f.from) == dest {
					continue
				}
				data, err := os.ReadFile(f.from)
				if err != nil {
					return builderr.New(builderr.ErrMalformedDeclaration, "sources", "%w", err).WithModule(m.Name).WithPath(f.from)
				}
				if prev, ok := providers[dest]; ok {
					logger.Warn("Source provided by two modules, keeping the first.", "path", dest, "module", m.Name, "kept", prev)
					continue
				}
				if err := o.pub.Publish(dest, data); err != nil {
					return err
				}
				providers[dest] = m.Name
				written = append(written, dest)
			}
		}
	}

	pruned, err := o.pruneDuplicateSources(ctx)
	if err != nil {
		return err
	}
	var list bytes.Buffer
	kept := 0
	for _, path := range written {
		if _, dropped := pruned[path]; dropped {
			continue
		}
		rel, err := filepath.Rel(o.sys.OutputDir, path)
		if err != nil {
			return err
		}
		list.WriteString(filepath.ToSlash(rel) + "\n")
		kept++
	}
	if err := o.pub.Publish(o.sourcesListPath(), list.Bytes()); err != nil {
		return err
	}
	logger.Info("Collected module sources.", "modules", set.Len(), "files", kept, "pruned", len(pruned))
	return nil
}

// moduleSources expands one sources entry of m. A directory contributes every
// file below it, keeping the layout; a file lands at the top of the folder.
func moduleSources(m *registry.Module, entry string) ([]sourceFile, error) {
	path := entry
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Root, entry)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, builderr.New(builderr.ErrMalformedDeclaration, "sources", "%w", err).WithModule(m.Name).WithPath(path)
	}
	if !info.IsDir() {
		return []sourceFile{{from: path, rel: filepath.Base(path)}}, nil
	}
	rels, err := fsutil.RelFiles(path)
	if err != nil {
		return nil, builderr.New(builderr.ErrMalformedDeclaration, "sources", "%w", err).WithModule(m.Name).WithPath(path)
	}
	files := make([]sourceFile, 0, len(rels))
	for _, rel := range rels {
		files = append(files, sourceFile{from: filepath.Join(path, filepath.FromSlash(rel)), rel: rel})
	}
	return files, nil
}

// pruneDuplicateSources removes files from every non-hardware purpose folder
// whose relative path also exists under hardware/src.
func (o *Orchestrator) pruneDuplicateSources(ctx context.Context) (map[string]struct{}, error) {
	logger := ctxlog.FromContext(ctx)
	hardware := o.purposePath(registry.PurposeHardware)
	pruned := make(map[string]struct{})
	for _, purpose := range registry.Purposes() {
		if purpose == registry.PurposeHardware {
			continue
		}
		dir := o.purposePath(purpose)
		common, err := fsutil.CommonFiles(hardware, dir)
		if err != nil {
			return nil, err
		}
		for _, rel := range common {
			path := filepath.Join(dir, filepath.FromSlash(rel))
			if err := o.pub.Remove(path); err != nil {
				return nil, err
			}
			pruned[path] = struct{}{}
			logger.Debug("Removed duplicate source.", "path", path)
		}
	}
	return pruned, nil
}

// removeCollectedSources deletes the files named by the sources list, the
// list itself and any purpose folder left empty. It returns how many files
// it removed.
func (o *Orchestrator) removeCollectedSources() (int, error) {
	f, err := os.Open(o.sourcesListPath())
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// Entries outside the build tree are rejected.
		rel := filepath.FromSlash(line)
		if !filepath.IsLocal(rel) {
			f.Close()
			return 0, builderr.New(builderr.ErrMalformedDeclaration, "sources",
				"entry %q leaves the build directory", line).WithPath(o.sourcesListPath())
		}
		paths = append(paths, filepath.Join(o.sys.OutputDir, rel))
	}
	f.Close()
	if err := sc.Err(); err != nil {
		return 0, err
	}

	for _, p := range paths {
		if err := o.pub.Remove(p); err != nil {
			return 0, err
		}
	}
	if err := o.pub.Remove(o.sourcesListPath()); err != nil {
		return 0, err
	}
	// Every purpose folder lives below hardware/.
	if err := fsutil.RemoveEmptyDirs(filepath.Join(o.sys.OutputDir, "hardware")); err != nil {
		return 0, err
	}
	return len(paths), nil
}
