// dt is a dependency-aware work item tracker for the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/config"
	"github.com/deltatrack/dt/internal/graph"
	"github.com/deltatrack/dt/internal/storage"
	"github.com/deltatrack/dt/internal/types"
)

var (
	cfg    *config.Config
	store  storage.Store
	actor  string
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "dt",
	Short: "Track work items, dependencies, and execution order",
	Long: `dt tracks work items through a spec/design/plan/implement lifecycle,
records dependencies between them, derives execution phases, and
analyzes priorities to surface inversions and bottlenecks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init creates the database; help-like commands don't need one
		switch cmd.Name() {
		case "init", "help", "completion", "version", "values":
			return nil
		}

		var err error
		cfg, err = config.Load(".")
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		if actor != "" {
			cfg.Actor = actor
		} else {
			actor = cfg.Actor
		}

		if _, statErr := os.Stat(cfg.DatabasePath); os.IsNotExist(statErr) {
			return fmt.Errorf("no tracker database at %s (run 'dt init' first)", cfg.DatabasePath)
		}

		store, err = storage.NewStorage(cmd.Context(), &storage.Config{Path: cfg.DatabasePath})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Actor recorded in audit events (overrides config)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// acquireWriteLock claims the advisory lock for a mutating command.
// The returned release func is safe to defer.
func acquireWriteLock() (func(), error) {
	lockPath, err := storage.AcquireLock(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	return func() { _ = storage.ReleaseLock(lockPath) }, nil
}

// loadGraph reads all items and edges and assembles the in-memory graph.
func loadGraph(ctx context.Context) ([]*types.WorkItem, *graph.Graph, error) {
	items, err := store.ListItems(ctx, types.ItemFilter{})
	if err != nil {
		return nil, nil, err
	}
	deps, err := store.ListDependencies(ctx)
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.Build(items, deps)
	if err != nil {
		return nil, nil, err
	}
	return items, g, nil
}
