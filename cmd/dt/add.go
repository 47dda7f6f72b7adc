package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/types"
)

var (
	addDescription string
	addPriority    int
	addComplexity  string
)

var addCmd = &cobra.Command{
	Use:   "add <category> <name>",
	Short: "Create a new work item",
	Long: `Create a new work item in the given category. The id is allocated
automatically (AUTH-001, AUTH-002, ...).

Example:
  dt add AUTH "Login flow" -p 2 -c hard
  dt add DB "Schema migration" --description "Move to versioned migrations"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := acquireWriteLock()
		if err != nil {
			return err
		}
		defer release()

		item := &types.WorkItem{
			Name:        args[1],
			Description: addDescription,
			Priority:    addPriority,
			Complexity:  types.Complexity(addComplexity),
		}
		if err := store.CreateItem(cmd.Context(), args[0], item, actor); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created %s: %s (P%d, %s)\n",
			green("✓"), item.ID, item.Name, item.Priority, item.Complexity)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Longer description")
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", 0, "Priority 1 (critical) to 5 (backlog), default 3")
	addCmd.Flags().StringVarP(&addComplexity, "complexity", "c", "", "Complexity: easy, medium, or hard (default medium)")
	rootCmd.AddCommand(addCmd)
}
