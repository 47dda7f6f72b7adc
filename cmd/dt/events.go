package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/report"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events <id>",
	Short: "Show the audit trail for a work item or backlog entry",
	Long: `Show the audit trail for an id, newest first. Every creation, status
change, priority change, and dependency change is recorded.

Example:
  dt events AUTH-001
  dt events BUG-003 --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := store.GetEvents(cmd.Context(), args[0], eventsLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return fmt.Errorf("no events for %s (unknown id?)", args[0])
		}
		report.Events(os.Stdout, events)
		return nil
	},
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 50, "Maximum number of events to show")
	rootCmd.AddCommand(eventsCmd)
}
