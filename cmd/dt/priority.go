package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/types"
)

var priorityListLevel int

var priorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Manage work item priorities",
}

var prioritySetCmd = &cobra.Command{
	Use:   "set <id> <1-5>",
	Short: "Set a work item's priority",
	Long: `Set a work item's priority: 1 critical, 2 high, 3 normal, 4 low,
5 backlog.

Example:
  dt priority set AUTH-001 1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := acquireWriteLock()
		if err != nil {
			return err
		}
		defer release()

		priority, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("priority must be a number between 1 and 5 (got %q)", args[1])
		}

		if err := store.SetPriority(cmd.Context(), args[0], priority, actor); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s priority set to P%d (%s)\n",
			green("✓"), args[0], priority, types.PriorityName(priority))
		return nil
	},
}

var priorityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List work items grouped by priority",
	Long: `List work items grouped by priority level, most urgent first.

Example:
  dt priority list
  dt priority list --level 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yellow := color.New(color.FgYellow).SprintFunc()

		levels := []int{1, 2, 3, 4, 5}
		if priorityListLevel != 0 {
			if !types.ValidPriority(priorityListLevel) {
				return fmt.Errorf("priority level must be between 1 and 5 (got %d)", priorityListLevel)
			}
			levels = []int{priorityListLevel}
		}

		for _, level := range levels {
			p := level
			items, err := store.ListItems(cmd.Context(), types.ItemFilter{Priority: &p})
			if err != nil {
				return err
			}
			if len(items) == 0 && priorityListLevel == 0 {
				continue
			}
			fmt.Printf("%s\n", yellow(fmt.Sprintf("P%d (%s):", level, types.PriorityName(level))))
			report.Items(os.Stdout, items)
		}
		return nil
	},
}

func init() {
	priorityListCmd.Flags().IntVarP(&priorityListLevel, "level", "l", 0, "Show only one priority level")
	priorityCmd.AddCommand(prioritySetCmd)
	priorityCmd.AddCommand(priorityListCmd)
	rootCmd.AddCommand(priorityCmd)
}
