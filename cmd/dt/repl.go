package main

import (
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell",
	Long: `Start an interactive shell for browsing the tracker: listing items,
deriving phases, running analysis, and inspecting the backlog.

The shell is read-only; use the dt subcommands to make changes.
Type 'help' inside the shell for available commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := repl.New(&repl.Config{
			Store: store,
			TopN:  cfg.RecommendTopN,
		})
		if err != nil {
			return err
		}
		return r.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
