package rules

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/siteops/doc-validator-api/internal/utils"
)

// Store holds the current catalog and allows atomic replacement on reload.
// Runs snapshot the catalog once at start, so a swap never affects a run in
// flight.
type Store struct {
	mu      sync.RWMutex
	catalog *Catalog
}

func NewStore(catalog *Catalog) *Store {
	return &Store{catalog: catalog}
}

// Catalog returns the current catalog snapshot.
func (s *Store) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Replace swaps in a new catalog.
func (s *Store) Replace(catalog *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
}

// Watch reloads the catalog whenever a YAML file under dir changes. A reload
// that fails validation keeps the previous catalog in place. Blocks until ctx
// is cancelled.
func (s *Store) Watch(ctx context.Context, dir string, logger *utils.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	// Editors fire several events per save; debounce before reloading.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(250 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Catalog watcher error", "error", err)
		case <-pending:
			pending = nil
			catalog, err := LoadDir(dir)
			if err != nil {
				logger.Error("Catalog reload failed, keeping previous catalog", "error", err, "dir", dir)
				continue
			}
			for _, w := range catalog.Warnings {
				logger.Warn("Catalog warning", "warning", w)
			}
			s.Replace(catalog)
			logger.Info("Catalog reloaded", "checks", len(catalog.Checks), "dir", dir)
		}
	}
}
