// Package index persists the gallery catalog as a single JSON document.
//
// There is no partial-update API: Load returns the whole catalog and Save
// replaces it wholesale via a temp-file rename, so a crashed write is never
// visible to a later Load. Cross-process exclusivity comes from a sidecar
// flock held for the store's lifetime; in-process writers are serialized by
// the service layer.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/memoriam-site/memoriam/internal/domain"
)

// ErrNotFound is returned by Load when no catalog file exists yet. Callers
// treat it as an empty catalog.
var ErrNotFound = errors.New("catalog file not found")

type Store struct {
	path string
	lock *flock.Flock
}

// Open prepares a store for the catalog file at path and acquires its
// exclusive lock. It fails if another process already holds the lock.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("catalog %s is locked by another process", path)
	}

	return &Store{path: path, lock: lock}, nil
}

// Close releases the catalog lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Load reads the whole catalog. Buckets missing from the file come back as
// empty slices so callers can index any valid category.
func (s *Store) Load() (domain.Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	catalog := domain.NewCatalog()
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for _, cat := range domain.Categories {
		if catalog[cat] == nil {
			catalog[cat] = []domain.Item{}
		}
	}
	return catalog, nil
}

// Save writes the whole catalog atomically: marshal, write to a temp file in
// the same directory, fsync, rename over the old file.
func (s *Store) Save(catalog domain.Catalog) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp catalog: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		cleanupTemp(tmp, tmpPath)
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanupTemp(tmp, tmpPath)
		return fmt.Errorf("failed to sync catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp catalog: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}

func cleanupTemp(f *os.File, path string) {
	_ = f.Close()
	_ = os.Remove(path)
}
