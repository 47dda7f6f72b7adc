package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deltatrack/dt/internal/dedup"
	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/types"
)

var (
	backlogAddPriority int
	backlogAddNotes    string
	backlogAddRelated  []string
	backlogAddForce    bool
	backlogListType    string
	backlogListAll     bool
	backlogResolution  string
)

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Capture and resolve bugs, ideas, and questions",
	Long: `The backlog holds informally captured observations that are not yet
work items: bugs (BUG), ideas (IDEA), improvements (IMP), technical
debt (DEBT), and open questions (Q).`,
}

var backlogAddCmd = &cobra.Command{
	Use:   "add <type> <title>",
	Short: "Capture a new backlog entry",
	Long: `Capture a new backlog entry. Before writing, the title is compared
against existing unresolved entries; likely duplicates are listed and
the capture is aborted unless --force is given.

Example:
  dt backlog add bug "Clipboard returns wrong value when empty"
  dt backlog add idea "Batch import command" --related CORE-001`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := acquireWriteLock()
		if err != nil {
			return err
		}
		defer release()

		typ, err := types.ParseBacklogType(args[0])
		if err != nil {
			return err
		}
		title := args[1]

		existing, err := store.ListBacklog(cmd.Context(), types.BacklogFilter{})
		if err != nil {
			return err
		}

		matches := dedup.FindDuplicates(title, existing, cfg.DedupThreshold)
		if len(matches) > 0 && !backlogAddForce {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s Possible duplicates:\n", yellow("⚠"))
			for _, m := range matches {
				fmt.Printf("  %-10s %.2f  %s\n", m.ID, m.Score, m.Title)
			}
			return fmt.Errorf("not captured; re-run with --force to capture anyway")
		}

		item := &types.BacklogItem{
			Type:     typ,
			Title:    title,
			Priority: backlogAddPriority,
			Notes:    backlogAddNotes,
			Related:  backlogAddRelated,
		}
		if err := store.CreateBacklogItem(cmd.Context(), item, actor); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Captured %s: %s\n", green("✓"), item.ID, item.Title)
		return nil
	},
}

var backlogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backlog entries (open by default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := types.BacklogFilter{}
		if !backlogListAll {
			open := types.BacklogOpen
			filter.Status = &open
		}
		if backlogListType != "" {
			typ, err := types.ParseBacklogType(backlogListType)
			if err != nil {
				return err
			}
			filter.Type = &typ
		}

		items, err := store.ListBacklog(cmd.Context(), filter)
		if err != nil {
			return err
		}
		report.Backlog(os.Stdout, items)
		return nil
	},
}

var backlogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one backlog entry in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := store.GetBacklogItem(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("backlog item %s not found", args[0])
		}
		report.BacklogItem(os.Stdout, item)
		return nil
	},
}

var backlogFixCmd = &cobra.Command{
	Use:   "fix <id>",
	Short: "Mark a backlog entry as fixed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveBacklog(cmd, args[0], types.BacklogFixed, "")
	},
}

var backlogDismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Dismiss a backlog entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveBacklog(cmd, args[0], types.BacklogDismissed, "")
	},
}

var backlogPromoteCmd = &cobra.Command{
	Use:   "promote <id> <work-item-id>",
	Short: "Promote a backlog entry to an existing work item",
	Long: `Promote a backlog entry: mark it resolved and link it to the work
item that now carries it. Create the work item first with dt add.

Example:
  dt add CORE "Batch import command"
  dt backlog promote IDEA-003 CORE-014`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveBacklog(cmd, args[0], types.BacklogPromoted, args[1])
	},
}

var backlogDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id> <canonical-id>",
	Short: "Mark a backlog entry as a duplicate of another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveBacklog(cmd, args[0], types.BacklogDuplicate, args[1])
	},
}

func resolveBacklog(cmd *cobra.Command, id string, status types.BacklogStatus, target string) error {
	release, err := acquireWriteLock()
	if err != nil {
		return err
	}
	defer release()

	if err := store.ResolveBacklogItem(cmd.Context(), id, status, target, backlogResolution, actor); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	msg := string(status)
	if target != "" {
		msg = fmt.Sprintf("%s (%s)", status, target)
	}
	fmt.Printf("%s %s marked %s\n", green("✓"), id, msg)
	return nil
}

func init() {
	backlogAddCmd.Flags().IntVarP(&backlogAddPriority, "priority", "p", 0, "Priority 1-5, default 3")
	backlogAddCmd.Flags().StringVar(&backlogAddNotes, "notes", "", "Free-form notes")
	backlogAddCmd.Flags().StringSliceVar(&backlogAddRelated, "related", nil, "Related work item ids")
	backlogAddCmd.Flags().BoolVar(&backlogAddForce, "force", false, "Capture even if duplicates are suspected")

	backlogListCmd.Flags().StringVarP(&backlogListType, "type", "t", "", "Filter by type (bug, idea, imp, debt, q)")
	backlogListCmd.Flags().BoolVarP(&backlogListAll, "all", "a", false, "Include resolved entries")

	for _, c := range []*cobra.Command{backlogFixCmd, backlogDismissCmd, backlogPromoteCmd, backlogDuplicateCmd} {
		c.Flags().StringVarP(&backlogResolution, "resolution", "r", "", "Resolution note")
	}

	backlogCmd.AddCommand(backlogAddCmd)
	backlogCmd.AddCommand(backlogListCmd)
	backlogCmd.AddCommand(backlogShowCmd)
	backlogCmd.AddCommand(backlogFixCmd)
	backlogCmd.AddCommand(backlogDismissCmd)
	backlogCmd.AddCommand(backlogPromoteCmd)
	backlogCmd.AddCommand(backlogDuplicateCmd)
	rootCmd.AddCommand(backlogCmd)
}
