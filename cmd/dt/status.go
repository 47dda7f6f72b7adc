package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/types"
)

var statusListComplexity string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage work item lifecycle status",
}

var statusSetCmd = &cobra.Command{
	Use:   "set <id> <value>",
	Short: "Set a work item's lifecycle status",
	Long: `Set a work item's lifecycle status. Any recognized value can be set
regardless of the current one; stages may be skipped or revisited, and a
reconciled item can be reopened.

Example:
  dt status set AUTH-001 impl_in_progress`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := acquireWriteLock()
		if err != nil {
			return err
		}
		defer release()

		id, value := args[0], types.Status(args[1])

		item, err := store.GetItem(cmd.Context(), id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s not found", id)
		}

		if err := store.SetStatus(cmd.Context(), id, value, actor); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s: %s -> %s\n", green("✓"), id, item.Status, value)
		return nil
	},
}

var statusListCmd = &cobra.Command{
	Use:   "list <value>",
	Short: "List work items in a given status",
	Long: `List work items in a given status, optionally filtered by complexity.

Example:
  dt status list impl_in_progress
  dt status list defined --complexity hard`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := types.Status(args[0])
		if !status.IsValid() {
			return fmt.Errorf("unrecognized status %q (see 'dt status values')", args[0])
		}

		filter := types.ItemFilter{Status: &status}
		if statusListComplexity != "" {
			c := types.Complexity(statusListComplexity)
			if !c.IsValid() {
				return fmt.Errorf("unrecognized complexity %q (easy, medium, or hard)", statusListComplexity)
			}
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

var statusValuesCmd = &cobra.Command{
	Use:   "values",
	Short: "List the recognized statuses in lifecycle order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen).SprintFunc()
		for _, s := range types.AllStatuses() {
			if s.IsTerminal() {
				fmt.Printf("  %s %s\n", green(string(s)), "(terminal)")
			} else {
				fmt.Printf("  %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	statusListCmd.Flags().StringVarP(&statusListComplexity, "complexity", "c", "", "Filter by complexity")
	statusCmd.AddCommand(statusSetCmd)
	statusCmd.AddCommand(statusListCmd)
	statusCmd.AddCommand(statusValuesCmd)
	rootCmd.AddCommand(statusCmd)
}
