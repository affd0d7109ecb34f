package finder

import (
	"context"
	"fmt"
	"sync"

	"github.com/melkeydev/value-finder/types"
	"golang.org/x/sync/singleflight"
)

// ColumnLoader reads the column metadata of one database.
type ColumnLoader interface {
	LoadColumns(ctx context.Context) ([]types.ColumnMeta, error)
}

// Catalog caches column metadata per database for the duration of a run.
// Each database is loaded at most once, even under concurrent callers.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string][]types.ColumnMeta
	loads   singleflight.Group
}

func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[string][]types.ColumnMeta),
	}
}

// Load returns the cached columns of database, loading them through loader
// on first use. A failed load is not cached.
func (c *Catalog) Load(ctx context.Context, database string, loader ColumnLoader) ([]types.ColumnMeta, error) {
	if columns, ok := c.Get(database); ok {
		return columns, nil
	}

	v, err, _ := c.loads.Do(database, func() (any, error) {
		if columns, ok := c.Get(database); ok {
			return columns, nil
		}

		columns, err := loader.LoadColumns(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog for database %q: %w", database, err)
		}

		c.mu.Lock()
		c.entries[database] = columns
		c.mu.Unlock()
		return columns, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.ColumnMeta), nil
}

func (c *Catalog) Get(database string) ([]types.ColumnMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	columns, ok := c.entries[database]
	return columns, ok
}
