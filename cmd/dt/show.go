package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one work item in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := store.GetItem(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s not found", args[0])
		}

		_, g, err := loadGraph(cmd.Context())
		if err != nil {
			return err
		}

		report.Item(os.Stdout, item, g)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
