package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
)

// Publisher writes generated artifacts. Writers of the same path are
// serialised while distinct paths proceed in parallel, and every write is
// published atomically so a reader never observes a partial file.
type Publisher struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPublisher creates a Publisher with no held paths.
func NewPublisher() *Publisher {
	return &Publisher{locks: make(map[string]*sync.Mutex)}
}

func (p *Publisher) lockFor(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	return l
}

// Publish atomically replaces path with data, creating parent directories.
func (p *Publisher) Publish(path string, data []byte) error {
	path = filepath.Clean(path)
	l := p.lockFor(path)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("publishing %s: %w", path, err)
	}
	return nil
}

// Remove deletes path under the same per-path guard as Publish. A missing
// file is not an error.
func (p *Publisher) Remove(path string) error {
	path = filepath.Clean(path)
	l := p.lockFor(path)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
