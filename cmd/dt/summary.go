package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/types"
)

var (
	summaryPriority int
	summaryStatus   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show aggregate statistics, or a filtered item listing",
	Long: `Without flags, show aggregate statistics over the tracker. With
--priority or --status, list the matching items instead; an empty
result prints a neutral message and exits zero.

Example:
  dt summary
  dt summary --priority 1
  dt summary --status in_progress`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if summaryPriority != 0 || summaryStatus != "" {
			filter := types.ItemFilter{StatusContains: summaryStatus}
			if summaryPriority != 0 {
				if !types.ValidPriority(summaryPriority) {
					return fmt.Errorf("priority must be between 1 and 5 (got %d)", summaryPriority)
				}
				filter.Priority = &summaryPriority
			}
			items, err := store.ListItems(cmd.Context(), filter)
			if err != nil {
				return err
			}
			report.Items(os.Stdout, items)
			return nil
		}

		stats, err := store.GetStatistics(cmd.Context())
		if err != nil {
			return err
		}
		report.Header(os.Stdout, "Tracker Summary")
		report.Summary(os.Stdout, stats)
		return nil
	},
}

func init() {
	summaryCmd.Flags().IntVarP(&summaryPriority, "priority", "p", 0, "List items at this priority")
	summaryCmd.Flags().StringVarP(&summaryStatus, "status", "s", "", "List items whose status contains this substring")
	rootCmd.AddCommand(summaryCmd)
}
