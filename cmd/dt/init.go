package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/config"
	"github.com/deltatrack/dt/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a tracker in the current directory",
	Long: `Initialize a tracker by creating a .deltatrack/ directory with a
database and a config file.

Example:
  cd ~/myproject
  dt init`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}

		cfg := config.DefaultConfig()
		if actor != "" {
			cfg.Actor = actor
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		if err := cfg.Save(cwd); err != nil {
			return err
		}

		// Opening the database creates it with the schema applied
		db, err := storage.NewStorage(cmd.Context(), &storage.Config{Path: cfg.DatabasePath})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		_ = db.Close()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized tracker\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(cfg.DatabasePath))
		fmt.Printf("  Config:   %s\n", cyan(config.Dir+"/"+config.FileName))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Println("  dt add CORE \"First work item\"")
		fmt.Println("  dt deps add <id> <depends-on-id>")
		fmt.Println("  dt next")
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
