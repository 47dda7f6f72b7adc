// Package repl provides an interactive read-only shell over the tracker.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/deltatrack/dt/internal/analysis"
	"github.com/deltatrack/dt/internal/graph"
	"github.com/deltatrack/dt/internal/phases"
	"github.com/deltatrack/dt/internal/recommend"
	"github.com/deltatrack/dt/internal/report"
	"github.com/deltatrack/dt/internal/storage"
	"github.com/deltatrack/dt/internal/types"
)

// REPL represents the interactive shell
type REPL struct {
	store    storage.Store
	rl       *readline.Instance
	ctx      context.Context
	out      io.Writer
	topN     int
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Store storage.Store
	// TopN is the recommendation listing size for the next command
	TopN int
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = recommend.DefaultTopN
	}

	r := &REPL{
		store:    cfg.Store,
		out:      os.Stdout,
		topN:     topN,
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()

	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("dt> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.rl = rl
	r.out = rl.Stdout()

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
	}
}

func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]

	if handler, ok := r.commands[command]; ok {
		return handler(args)
	}

	return fmt.Errorf("unknown command %q, type 'help' for available commands", command)
}

func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["show"] = r.cmdShow
	r.commands["list"] = r.cmdList
	r.commands["phases"] = r.cmdPhases
	r.commands["next"] = r.cmdNext
	r.commands["analyze"] = r.cmdAnalyze
	r.commands["summary"] = r.cmdSummary
	r.commands["backlog"] = r.cmdBacklog
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
}

func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("deltatrack interactive shell"))
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'exit' to quit")
	fmt.Fprintln(r.out)
}

// loadGraph reads all items and edges and assembles the in-memory graph.
func (r *REPL) loadGraph() ([]*types.WorkItem, *graph.Graph, error) {
	items, err := r.store.ListItems(r.ctx, types.ItemFilter{})
	if err != nil {
		return nil, nil, err
	}
	deps, err := r.store.ListDependencies(r.ctx)
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.Build(items, deps)
	if err != nil {
		return nil, nil, err
	}
	return items, g, nil
}

func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"show <id>", "Show one work item with its dependencies"},
		{"list [status]", "List work items, optionally by status substring"},
		{"phases", "Show the derived execution phases"},
		{"next", "Show recommended next work"},
		{"analyze", "Run priority and bottleneck analysis"},
		{"summary", "Show aggregate statistics"},
		{"backlog", "List open backlog items"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the shell"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %s  %s\n", green(fmt.Sprintf("%-14s", cmd.name)), cmd.desc)
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *REPL) cmdShow(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <id>")
	}
	item, err := r.store.GetItem(r.ctx, args[0])
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s not found", args[0])
	}
	_, g, err := r.loadGraph()
	if err != nil {
		return err
	}
	report.Item(r.out, item, g)
	return nil
}

func (r *REPL) cmdList(args []string) error {
	filter := types.ItemFilter{}
	if len(args) > 0 {
		filter.StatusContains = args[0]
	}
	items, err := r.store.ListItems(r.ctx, filter)
	if err != nil {
		return err
	}
	report.Items(r.out, items)
	return nil
}

func (r *REPL) cmdPhases(args []string) error {
	items, g, err := r.loadGraph()
	if err != nil {
		return err
	}
	result, err := phases.Derive(g)
	if err != nil {
		return err
	}
	byID := make(map[string]*types.WorkItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	report.Phases(r.out, result, byID)
	return nil
}

func (r *REPL) cmdNext(args []string) error {
	items, g, err := r.loadGraph()
	if err != nil {
		return err
	}
	report.Recommendations(r.out, recommend.Next(items, g, r.topN))
	return nil
}

func (r *REPL) cmdAnalyze(args []string) error {
	items, g, err := r.loadGraph()
	if err != nil {
		return err
	}
	report.Inversions(r.out, analysis.DetectInversions(items, g))
	fmt.Fprintln(r.out)
	report.Bottlenecks(r.out, analysis.DetectBottlenecks(items, g))
	fmt.Fprintln(r.out)
	report.Distribution(r.out, analysis.AnalyzeDistribution(items))
	return nil
}

func (r *REPL) cmdSummary(args []string) error {
	stats, err := r.store.GetStatistics(r.ctx)
	if err != nil {
		return err
	}
	report.Summary(r.out, stats)
	return nil
}

func (r *REPL) cmdBacklog(args []string) error {
	open := types.BacklogOpen
	items, err := r.store.ListBacklog(r.ctx, types.BacklogFilter{Status: &open})
	if err != nil {
		return err
	}
	report.Backlog(r.out, items)
	return nil
}

func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s Goodbye!\n", green("✓"))
	r.rl.Close()
	return io.EOF
}
