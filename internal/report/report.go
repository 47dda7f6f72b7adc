// Package report renders tracker data for terminal output. The same
// renderers back both the CLI commands and the interactive shell.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/deltatrack/dt/internal/analysis"
	"github.com/deltatrack/dt/internal/graph"
	"github.com/deltatrack/dt/internal/phases"
	"github.com/deltatrack/dt/internal/recommend"
	"github.com/deltatrack/dt/internal/types"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// Header prints a section header.
func Header(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n\n", cyan("=== "+title+" ==="))
}

// priorityLabel colors a priority by urgency.
func priorityLabel(p int) string {
	label := fmt.Sprintf("P%d", p)
	switch {
	case p <= types.PriorityHigh:
		return red(label)
	case p == types.PriorityNormal:
		return yellow(label)
	default:
		return gray(label)
	}
}

func statusLabel(s types.Status) string {
	if s.IsTerminal() {
		return green(string(s))
	}
	if strings.Contains(string(s), "in_progress") {
		return yellow(string(s))
	}
	return string(s)
}

// Items prints a listing of work items, one per line.
func Items(w io.Writer, items []*types.WorkItem) {
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("No matching items"))
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  %-10s %s  %-18s %s %s\n",
			item.ID, priorityLabel(item.Priority), statusLabel(item.Status),
			item.Name, gray("("+string(item.Complexity)+")"))
	}
}

// Item prints one work item in detail, with its direct dependency
// neighborhood from the graph.
func Item(w io.Writer, item *types.WorkItem, g *graph.Graph) {
	fmt.Fprintf(w, "%s: %s\n", cyan(item.ID), item.Name)
	if item.Description != "" {
		fmt.Fprintf(w, "  %s\n", item.Description)
	}
	fmt.Fprintf(w, "  Priority:   %s (%s)\n", priorityLabel(item.Priority), types.PriorityName(item.Priority))
	fmt.Fprintf(w, "  Status:     %s\n", statusLabel(item.Status))
	fmt.Fprintf(w, "  Complexity: %s\n", item.Complexity)
	fmt.Fprintf(w, "  Created:    %s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Updated:    %s\n", item.UpdatedAt.Format("2006-01-02 15:04:05"))

	if deps := g.DirectDependencies(item.ID); len(deps) > 0 {
		fmt.Fprintf(w, "  Depends on: %s\n", strings.Join(deps, ", "))
	}
	if dependents := g.DirectDependents(item.ID); len(dependents) > 0 {
		fmt.Fprintf(w, "  Blocks:     %s\n", strings.Join(dependents, ", "))
	}
}

// Phases prints the phase derivation, one wave per line.
func Phases(w io.Writer, result []phases.Phase, items map[string]*types.WorkItem) {
	if len(result) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("No items to sequence"))
		return
	}
	for _, phase := range result {
		fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("Phase %d:", phase.Number)))
		for _, id := range phase.ItemIDs {
			name := ""
			if item, ok := items[id]; ok {
				name = item.Name
			}
			fmt.Fprintf(w, "  %-10s %s\n", id, name)
		}
	}
}

// Matrix prints each item with its direct dependencies, skipping items
// that have none.
func Matrix(w io.Writer, g *graph.Graph, items []*types.WorkItem) {
	printed := false
	for _, item := range items {
		deps := g.DirectDependencies(item.ID)
		if len(deps) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-10s -> %s\n", item.ID, strings.Join(deps, ", "))
		printed = true
	}
	if !printed {
		fmt.Fprintf(w, "  %s\n", gray("No dependencies recorded"))
	}
}

func severityLabel(s analysis.Severity) string {
	switch s {
	case analysis.SeverityCritical:
		return red(string(s))
	case analysis.SeverityWarning:
		return yellow(string(s))
	default:
		return gray(string(s))
	}
}

// Inversions prints detected priority inversions.
func Inversions(w io.Writer, inversions []analysis.Inversion) {
	fmt.Fprintf(w, "%s\n", yellow("Priority Inversions:"))
	if len(inversions) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("None detected"))
		return
	}
	for _, inv := range inversions {
		fmt.Fprintf(w, "  %s %s\n", severityLabel(inv.Severity), inv.String())
	}
}

// Bottlenecks prints detected dependency bottlenecks.
func Bottlenecks(w io.Writer, bottlenecks []analysis.Bottleneck) {
	fmt.Fprintf(w, "%s\n", yellow("Bottlenecks:"))
	if len(bottlenecks) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("None detected"))
		return
	}
	for _, b := range bottlenecks {
		fmt.Fprintf(w, "  %s %s blocks %d items at priority %d\n",
			severityLabel(b.Severity), b.ItemID, b.FanOut, b.Priority)
	}
}

// Distribution prints the priority histogram with any flags.
func Distribution(w io.Writer, dist analysis.DistributionReport) {
	fmt.Fprintf(w, "%s\n", yellow("Priority Distribution:"))
	if dist.Total == 0 {
		fmt.Fprintf(w, "  %s\n", gray("No active items"))
		return
	}
	for p := types.PriorityCritical; p <= types.PriorityBacklog; p++ {
		count := dist.Histogram[p]
		bar := strings.Repeat("#", count)
		fmt.Fprintf(w, "  P%d %-12s %3d  %s\n", p, "("+types.PriorityName(p)+")", count, bar)
	}
	for _, flag := range dist.Flags {
		fmt.Fprintf(w, "  %s %s\n", red("!"), flag)
	}
}

// Recommendations prints the ranked next-work listing.
func Recommendations(w io.Writer, recs []recommend.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("Nothing to recommend; all items are reconciled"))
		return
	}
	for i, rec := range recs {
		ready := green("ready")
		if !rec.Unblocked {
			ready = yellow("blocked")
		}
		fmt.Fprintf(w, "  %d. %-10s %s  %s  %s %s\n",
			i+1, rec.Item.ID, priorityLabel(rec.Item.Priority), ready,
			rec.Item.Name, gray(fmt.Sprintf("(blocks %d)", rec.FanOut)))
	}
}

// Summary prints aggregate statistics.
func Summary(w io.Writer, stats *types.Statistics) {
	fmt.Fprintf(w, "%s\n", yellow("Items:"))
	fmt.Fprintf(w, "  Total:      %d\n", stats.TotalItems)
	fmt.Fprintf(w, "  Reconciled: %s\n", green(fmt.Sprintf("%d", stats.TerminalItems)))
	fmt.Fprintf(w, "  Active:     %d\n", stats.TotalItems-stats.TerminalItems)

	if len(stats.ByStatus) > 0 {
		fmt.Fprintf(w, "\n%s\n", yellow("By Status:"))
		statuses := make([]string, 0, len(stats.ByStatus))
		for s := range stats.ByStatus {
			statuses = append(statuses, string(s))
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			fmt.Fprintf(w, "  %-18s %d\n", s, stats.ByStatus[types.Status(s)])
		}
	}

	fmt.Fprintf(w, "\n%s\n", yellow("Dependencies:"))
	fmt.Fprintf(w, "  Edges: %d\n", stats.TotalEdges)

	fmt.Fprintf(w, "\n%s\n", yellow("Backlog:"))
	fmt.Fprintf(w, "  Open:     %d\n", stats.OpenBacklog)
	fmt.Fprintf(w, "  Resolved: %d\n", stats.ResolvedBacklog)
}

// Backlog prints a backlog listing.
func Backlog(w io.Writer, items []*types.BacklogItem) {
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("No matching backlog items"))
		return
	}
	for _, item := range items {
		status := string(item.Status)
		switch item.Status {
		case types.BacklogOpen:
			status = yellow(status)
		case types.BacklogDuplicate:
			status = gray(fmt.Sprintf("%s of %s", status, item.DuplicateOf))
		case types.BacklogPromoted:
			status = green(fmt.Sprintf("%s to %s", status, item.PromotedTo))
		default:
			status = green(status)
		}
		fmt.Fprintf(w, "  %-10s %s  %-24s %s\n", item.ID, priorityLabel(item.Priority), status, item.Title)
	}
}

// BacklogItem prints one backlog entry in detail.
func BacklogItem(w io.Writer, item *types.BacklogItem) {
	fmt.Fprintf(w, "%s: %s\n", cyan(item.ID), item.Title)
	fmt.Fprintf(w, "  Type:     %s\n", item.Type)
	fmt.Fprintf(w, "  Priority: %s\n", priorityLabel(item.Priority))
	fmt.Fprintf(w, "  Status:   %s\n", item.Status)
	if item.DuplicateOf != "" {
		fmt.Fprintf(w, "  Duplicate of: %s\n", item.DuplicateOf)
	}
	if item.PromotedTo != "" {
		fmt.Fprintf(w, "  Promoted to:  %s\n", item.PromotedTo)
	}
	if item.Resolution != "" {
		fmt.Fprintf(w, "  Resolution:   %s\n", item.Resolution)
	}
	if len(item.Related) > 0 {
		fmt.Fprintf(w, "  Related:  %s\n", strings.Join(item.Related, ", "))
	}
	if item.Notes != "" {
		fmt.Fprintf(w, "  Notes:    %s\n", item.Notes)
	}
	fmt.Fprintf(w, "  Created:  %s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
	if item.ResolvedAt != nil {
		fmt.Fprintf(w, "  Resolved: %s\n", item.ResolvedAt.Format("2006-01-02 15:04:05"))
	}
}

// Events prints an audit trail, newest first.
func Events(w io.Writer, events []*types.Event) {
	if len(events) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("No events recorded"))
		return
	}
	for _, ev := range events {
		detail := ""
		switch {
		case ev.OldValue != nil && ev.NewValue != nil:
			detail = fmt.Sprintf("%s -> %s", *ev.OldValue, *ev.NewValue)
		case ev.NewValue != nil:
			detail = truncate(*ev.NewValue, 60)
		case ev.OldValue != nil:
			detail = truncate(*ev.OldValue, 60)
		}
		fmt.Fprintf(w, "  %s  %-20s %-12s %s\n",
			gray(ev.CreatedAt.Format("2006-01-02 15:04:05")),
			ev.EventType, ev.Actor, detail)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
