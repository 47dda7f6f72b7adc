package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/analysis"
	"github.com/deltatrack/dt/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:       "analyze [inversions|bottlenecks|distribution]",
	Short:     "Analyze priorities and the dependency graph",
	ValidArgs: []string{"inversions", "bottlenecks", "distribution"},
	Long: `Run the priority analysis: inversions (urgent items blocked by less
urgent ones), bottlenecks (items blocking many others without matching
urgency), and the shape of the priority distribution. With no argument
all three run.

Findings are advisory; nothing is changed.`,
	Args: cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}

		aspect := ""
		if len(args) == 1 {
			aspect = args[0]
		}

		report.Header(os.Stdout, "Priority Analysis")
		if aspect == "" || aspect == "inversions" {
			report.Inversions(os.Stdout, analysis.DetectInversions(items, g))
			fmt.Println()
		}
		if aspect == "" || aspect == "bottlenecks" {
			report.Bottlenecks(os.Stdout, analysis.DetectBottlenecks(items, g))
			fmt.Println()
		}
		if aspect == "" || aspect == "distribution" {
			report.Distribution(os.Stdout, analysis.AnalyzeDistribution(items))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
