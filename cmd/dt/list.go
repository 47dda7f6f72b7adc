package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/types"
)

var (
	listStatus     string
	listPriority   int
	listCategory   string
	listComplexity string
	listLimit      int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List work items",
	Long: `List work items, optionally filtered. The status filter matches
substrings, so --status in_progress matches every in-progress stage.

Example:
  dt list
  dt list --status in_progress
  dt list --category AUTH --priority 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := types.ItemFilter{
			StatusContains: listStatus,
			Limit:          listLimit,
		}
		if listPriority != 0 {
			filter.Priority = &listPriority
		}
		if listCategory != "" {
			filter.Category = &listCategory
		}
		if listComplexity != "" {
			c := types.Complexity(listComplexity)
			filter.Complexity = &c
		}

		items, err := store.ListItems(cmd.Context(), filter)
		if err != nil {
			return err
		}
		report.Items(os.Stdout, items)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Filter by status substring")
	listCmd.Flags().IntVarP(&listPriority, "priority", "p", 0, "Filter by exact priority")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by id category prefix")
	listCmd.Flags().StringVarP(&listComplexity, "complexity", "c", "", "Filter by complexity")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of items to show")
	rootCmd.AddCommand(listCmd)
}
