// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package universe

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/shoprag/universe/internal/index"
	unierr "github.com/shoprag/universe/pkg/errors"
)

// Registry owns the mapping from universe name to its open index handle.
// It is the only path by which an index is instantiated, guaranteeing at most
// one open handle per universe for the process lifetime. Mutating index calls
// are serialized inside each index, not here, so operations against different
// universes proceed in parallel.
type Registry struct {
	mu         sync.Mutex
	root       string
	dimensions int
	open       index.OpenFunc
	handles    map[string]index.Index
}

// NewRegistry creates a registry rooted at the data directory. Universe
// directories live directly underneath, one per name.
func NewRegistry(root string, dimensions int, open index.OpenFunc) *Registry {
	return &Registry{
		root:       root,
		dimensions: dimensions,
		open:       open,
		handles:    make(map[string]index.Index),
	}
}

// Dir returns the on-disk directory for a universe name.
func (r *Registry) Dir(name string) string {
	return filepath.Join(r.root, name)
}

// Exists reports whether the universe has ever been created, i.e. its
// directory is present. An empty-but-created universe still exists.
func (r *Registry) Exists(name string) bool {
	info, err := os.Stat(r.Dir(name))
	return err == nil && info.IsDir()
}

// Resolve returns the cached handle for name, opening (and creating on first
// use) the index when none is cached.
func (r *Registry) Resolve(name string) (index.Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, ok := r.handles[name]; ok {
		return x, nil
	}

	x, err := r.open(r.Dir(name), r.dimensions)
	if err != nil {
		return nil, err
	}
	r.handles[name] = x
	return x, nil
}

// Evict removes the cached handle so a subsequent Resolve re-creates a clean
// one. Called after a destroy; the handle itself is already closed.
func (r *Registry) Evict(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, name)
}

// List returns the names of all created universes, sorted.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, unierr.Wrapf(err, unierr.CodeIndexOpenFailure, "reading data root %s", r.root)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() && nameRE.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close releases every cached handle. Used at process shutdown.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, x := range r.handles {
		if err := x.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.handles, name)
	}
	if len(errs) > 0 {
		return unierr.Join(errs...)
	}
	return nil
}
