package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/types"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Manage dependencies between work items",
}

var depsAddCmd = &cobra.Command{
	Use:   "add <id> <depends-on-id>",
	Short: "Record that one item depends on another",
	Long: `Record that the first item depends on the second. The edge is
validated against the current graph before anything is written; an
edge that would close a cycle is rejected with the full cycle path.

Example:
  dt deps add AUTH-002 AUTH-001`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := acquireWriteLock()
		if err != nil {
			return err
		}
		defer release()

		from, to := args[0], args[1]

		_, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}
		if err := g.AddDependency(from, to); err != nil {
			return err
		}

		dep := &types.Dependency{ItemID: from, DependsOnID: to}
		if err := store.AddDependency(cmd.Context(), dep, actor); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s now depends on %s\n", green("✓"), from, to)
		return nil
	},
}

var depsRemoveCmd = &cobra.Command{
	Use:   "remove <id> <depends-on-id>",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := acquireWriteLock()
		if err != nil {
			return err
		}
		defer release()

		if err := store.RemoveDependency(cmd.Context(), args[0], args[1], actor); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s no longer depends on %s\n", green("✓"), args[0], args[1])
		return nil
	},
}

var depsListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "Show one item's dependencies and dependents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		item, err := store.GetItem(cmd.Context(), id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s not found", id)
		}

		_, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("%s\n", yellow("Depends on:"))
		if deps := g.DirectDependencies(id); len(deps) > 0 {
			fmt.Printf("  %s\n", strings.Join(deps, ", "))
		} else {
			fmt.Printf("  %s\n", gray("Nothing"))
		}
		fmt.Printf("%s\n", yellow("Blocks:"))
		if dependents := g.DirectDependents(id); len(dependents) > 0 {
			fmt.Printf("  %s\n", strings.Join(dependents, ", "))
		} else {
			fmt.Printf("  %s\n", gray("Nothing"))
		}
		return nil
	},
}

var depsMatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show every item with its direct dependencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}
		report.Matrix(os.Stdout, g, items)
		return nil
	},
}

var depsCyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Check the dependency graph for cycles",
	Long: `Check the stored graph for cycles. Edges added through dt can never
form one; this guards databases written by other tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		cycles := g.DetectCycles()
		if len(cycles) == 0 {
			fmt.Printf("%s No cycles detected (%d items, %d edges)\n",
				green("✓"), len(g.Items()), g.EdgeCount())
			return nil
		}
		for _, cycle := range cycles {
			fmt.Printf("%s cycle: %s\n", red("✗"), joinCycle(cycle))
		}
		return fmt.Errorf("%d cycle(s) detected", len(cycles))
	},
}

func joinCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(cycle, " -> ") + " -> " + cycle[0]
}

func init() {
	depsCmd.AddCommand(depsAddCmd)
	depsCmd.AddCommand(depsRemoveCmd)
	depsCmd.AddCommand(depsListCmd)
	depsCmd.AddCommand(depsMatrixCmd)
	depsCmd.AddCommand(depsCyclesCmd)
	rootCmd.AddCommand(depsCmd)
}
