// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/metrics"
	"github.com/tomtom215/skillmatch/internal/recommend"
)

// CatalogWatcher reloads the engine's index whenever the catalog snapshot
// file changes on disk.
//
// The watcher observes the snapshot's parent directory rather than the file
// itself, because atomic-rename deployments (write temp file, rename over
// snapshot) replace the inode and would silently detach a file-level watch.
// Events are debounced so a multi-step writer triggers one reload.
//
// A failed reload keeps the current index; the engine never serves a
// half-loaded catalog.
type CatalogWatcher struct {
	path     string
	debounce time.Duration
	engine   *recommend.Engine
	logger   zerolog.Logger
}

// NewCatalogWatcher creates a watcher for the snapshot at path.
func NewCatalogWatcher(path string, debounce time.Duration, engine *recommend.Engine, logger zerolog.Logger) *CatalogWatcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &CatalogWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		engine:   engine,
		logger:   logger.With().Str("component", "catalog-watcher").Logger(),
	}
}

// Serve implements suture.Service.
func (c *CatalogWatcher) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(c.path), err)
	}

	c.logger.Info().Str("path", c.path).Msg("watching catalog snapshot")

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if !c.relevant(event) {
				continue
			}
			if !pending {
				timer.Reset(c.debounce)
				pending = true
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			c.logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			pending = false
			c.reload(ctx)
		}
	}
}

// relevant filters events down to mutations of the snapshot file itself.
func (c *CatalogWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != c.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// reload parses the snapshot and swaps the engine's index. Parse and build
// failures are logged and counted, never fatal to the watcher.
func (c *CatalogWatcher) reload(ctx context.Context) {
	records, err := catalog.Load(c.path)
	if err != nil {
		metrics.RecordCatalogReload(err)
		c.logger.Error().Err(err).Msg("catalog reload skipped, snapshot invalid")
		return
	}

	if err := c.engine.Reload(ctx, records); err != nil {
		metrics.RecordCatalogReload(err)
		c.logger.Error().Err(err).Msg("catalog reload failed, keeping current index")
		return
	}

	metrics.RecordCatalogReload(nil)
	c.logger.Info().Int("records", len(records)).Msg("catalog reloaded from snapshot")
}

// String identifies the service in supervisor logs.
func (c *CatalogWatcher) String() string {
	return "catalog-watcher"
}
