package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/recommend"
	"github.com/deltatrack/dt/internal/report"
)

var nextTopN int

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Recommend what to work on next",
	Long: `Rank non-reconciled items by priority, then by how many items they
block, then by complexity (quicker first), then by id. Blocked items
are listed too, marked as blocked.

Example:
  dt next
  dt next -n 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}

		topN := nextTopN
		if topN == 0 {
			topN = cfg.RecommendTopN
		}
		report.Recommendations(os.Stdout, recommend.Next(items, g, topN))
		return nil
	},
}

func init() {
	nextCmd.Flags().IntVarP(&nextTopN, "top", "n", 0, "Number of recommendations to show")
	rootCmd.AddCommand(nextCmd)
}
