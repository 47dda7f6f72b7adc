package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/phases"
	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/types"
)

var phasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "Derive execution phases from the dependency graph",
	Long: `Partition work items into numbered phases: phase 1 holds items with
no dependencies, each later phase holds items whose dependencies all
appear in earlier phases. Items in the same phase can proceed in
parallel.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}

		result, err := phases.Derive(g)
		if err != nil {
			return err
		}

		byID := make(map[string]*types.WorkItem, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}
		report.Phases(os.Stdout, result, byID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(phasesCmd)
}
