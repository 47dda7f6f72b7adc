package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/storage"
	"github.com/deltatrack/dt/internal/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check tracker health",
	Long: `Run health checks against the tracker database.

This command checks for:
- Database accessibility and basic statistics
- Dependency cycles written by other tools
- Backlog duplicate references pointing at other duplicates
- Stale advisory lock files

Exit codes:
  0 - All checks passed
  1 - One or more checks failed`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running tracker health checks...\n\n")

		var failures []string

		fmt.Printf("%s Database access\n", cyan("→"))
		stats, err := store.GetStatistics(ctx)
		if err != nil {
			return fmt.Errorf("cannot query database: %w", err)
		}
		fmt.Printf("  %s %d items, %d edges, %d open backlog\n",
			green("✓"), stats.TotalItems, stats.TotalEdges, stats.OpenBacklog)

		fmt.Printf("%s Dependency graph\n", cyan("→"))
		_, g, err := loadGraph(ctx)
		if err != nil {
			failures = append(failures, fmt.Sprintf("graph build failed: %v", err))
			fmt.Printf("  %s Failed to build graph: %v\n", red("✗"), err)
		} else if cycles := g.DetectCycles(); len(cycles) > 0 {
			for _, cycle := range cycles {
				failures = append(failures, fmt.Sprintf("cycle: %s", joinCycle(cycle)))
				fmt.Printf("  %s Cycle: %s\n", red("✗"), joinCycle(cycle))
			}
		} else {
			fmt.Printf("  %s No cycles\n", green("✓"))
		}

		fmt.Printf("%s Status vocabulary\n", cyan("→"))
		items, err := store.ListItems(ctx, types.ItemFilter{})
		if err != nil {
			return err
		}
		badStatus := 0
		for _, item := range items {
			if !item.Status.IsValid() {
				failures = append(failures, fmt.Sprintf("%s has unrecognized status %q", item.ID, item.Status))
				fmt.Printf("  %s %s has unrecognized status %q\n", red("✗"), item.ID, item.Status)
				badStatus++
			}
		}
		if badStatus == 0 {
			fmt.Printf("  %s All statuses are recognized values\n", green("✓"))
		}

		fmt.Printf("%s Backlog duplicate links\n", cyan("→"))
		backlog, err := store.ListBacklog(ctx, types.BacklogFilter{})
		if err != nil {
			return err
		}
		byID := make(map[string]*types.BacklogItem, len(backlog))
		for _, item := range backlog {
			byID[item.ID] = item
		}
		chains := 0
		for _, item := range backlog {
			if item.DuplicateOf == "" {
				continue
			}
			target, ok := byID[item.DuplicateOf]
			if !ok {
				failures = append(failures, fmt.Sprintf("%s duplicates missing item %s", item.ID, item.DuplicateOf))
				fmt.Printf("  %s %s points at missing %s\n", red("✗"), item.ID, item.DuplicateOf)
				chains++
			} else if target.Status == types.BacklogDuplicate {
				failures = append(failures, fmt.Sprintf("%s duplicates a duplicate (%s)", item.ID, item.DuplicateOf))
				fmt.Printf("  %s %s -> %s is a chain\n", red("✗"), item.ID, item.DuplicateOf)
				chains++
			}
		}
		if chains == 0 {
			fmt.Printf("  %s All duplicate links point at canonical entries\n", green("✓"))
		}

		fmt.Printf("%s Advisory lock\n", cyan("→"))
		lockPath := filepath.Join(filepath.Dir(cfg.DatabasePath), ".lock")
		if data, err := os.ReadFile(lockPath); err == nil {
			var lock storage.AdvisoryLock
			if json.Unmarshal(data, &lock) == nil {
				fmt.Printf("  %s Lock held by PID %d on %s\n", yellow("⚠"), lock.PID, lock.Hostname)
			} else {
				failures = append(failures, "lock file is unreadable")
				fmt.Printf("  %s Lock file exists but cannot be parsed\n", red("✗"))
			}
		} else {
			fmt.Printf("  %s No lock held\n", green("✓"))
		}

		fmt.Println()
		if len(failures) > 0 {
			return fmt.Errorf("%d check(s) failed", len(failures))
		}
		fmt.Printf("%s All checks passed\n", green("✓"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
