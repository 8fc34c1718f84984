// Package catalog holds the process-wide gift catalog: a lookup from
// gift id to name, diamond cost and image URL, populated once at
// startup. The catalog is best-effort; when the upstream gift list is
// unavailable the relay keeps running with degraded gift metadata.
package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chesko21/tiktok-live-connector/internal/upstream"
)

// Entry is one immutable gift catalog record.
type Entry struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DiamondCost int     `json:"diamondCost"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

// Catalog maps gift ids to entries. Load populates it at most once;
// concurrent readers see either the empty or the fully-populated map,
// never a partial one.
type Catalog struct {
	connector upstream.Connector
	snapshot  SnapshotStore // optional
	logger    zerolog.Logger

	mu      sync.RWMutex
	entries map[int64]Entry
}

// New creates an empty catalog. snapshot may be nil for memory-only
// operation.
func New(connector upstream.Connector, snapshot SnapshotStore, logger zerolog.Logger) *Catalog {
	return &Catalog{
		connector: connector,
		snapshot:  snapshot,
		logger:    logger,
		entries:   make(map[int64]Entry),
	}
}

// Load fetches the gift list from the upstream source. On upstream
// failure it falls back to the last snapshot when a snapshot store is
// configured. A catalog that stays empty is not an error condition for
// the relay, only for gift metadata quality.
func (c *Catalog) Load(ctx context.Context) error {
	gifts, err := c.connector.FetchGifts(ctx)
	if err != nil {
		if c.snapshot != nil {
			if restored, restoreErr := c.snapshot.Restore(ctx); restoreErr == nil && len(restored) > 0 {
				c.populate(restored)
				c.logger.Info().Int("entries", len(restored)).Msg("gift catalog restored from snapshot")
				return nil
			}
		}
		return err
	}

	entries := make([]Entry, 0, len(gifts))
	for _, g := range gifts {
		entries = append(entries, Entry{
			ID:          g.ID,
			Name:        g.Name,
			DiamondCost: g.DiamondCost,
			ImageURL:    g.ImageURL,
		})
	}
	c.populate(entries)
	c.logger.Info().Int("entries", len(entries)).Msg("gift catalog loaded")

	if c.snapshot != nil {
		if err := c.snapshot.Save(ctx, entries); err != nil {
			c.logger.Warn().Err(err).Msg("failed to snapshot gift catalog")
		}
	}
	return nil
}

// Lookup returns the entry for a gift id. Callers supply their own
// fallbacks when the catalog has no entry.
func (c *Catalog) Lookup(id int64) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	return entry, ok
}

// Size returns the number of loaded entries.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Catalog) populate(entries []Entry) {
	// Build the full map before exposing it so readers never observe a
	// partially-filled catalog.
	m := make(map[int64]Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}

	c.mu.Lock()
	c.entries = m
	c.mu.Unlock()
}
