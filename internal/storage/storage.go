// Package storage defines the persistence interface for the tracker.
package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/deltatrack/dt/internal/storage/sqlite"
	"github.com/deltatrack/dt/internal/types"
)

// Store defines the interface for work item storage backends
type Store interface {
	// Work Items
	CreateItem(ctx context.Context, category string, item *types.WorkItem, actor string) error
	GetItem(ctx context.Context, id string) (*types.WorkItem, error)
	ListItems(ctx context.Context, filter types.ItemFilter) ([]*types.WorkItem, error)
	SetStatus(ctx context.Context, id string, status types.Status, actor string) error
	SetPriority(ctx context.Context, id string, priority int, actor string) error

	// Dependencies
	AddDependency(ctx context.Context, dep *types.Dependency, actor string) error
	RemoveDependency(ctx context.Context, itemID, dependsOnID, actor string) error
	ListDependencies(ctx context.Context) ([]*types.Dependency, error)

	// Backlog
	CreateBacklogItem(ctx context.Context, item *types.BacklogItem, actor string) error
	GetBacklogItem(ctx context.Context, id string) (*types.BacklogItem, error)
	ListBacklog(ctx context.Context, filter types.BacklogFilter) ([]*types.BacklogItem, error)
	ResolveBacklogItem(ctx context.Context, id string, status types.BacklogStatus, target, resolution, actor string) error

	// Events
	GetEvents(ctx context.Context, itemID string, limit int) ([]*types.Event, error)

	// Statistics
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	Close() error
}

// Config holds storage configuration
type Config struct {
	// Path to the SQLite database file, or ":memory:" for tests
	Path string
}

// DefaultConfig returns the default storage configuration
func DefaultConfig() *Config {
	return &Config{
		Path: filepath.Join(".deltatrack", "dt.db"),
	}
}

// NewStorage creates a storage backend for the given config
func NewStorage(ctx context.Context, cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	return sqlite.New(cfg.Path)
}
