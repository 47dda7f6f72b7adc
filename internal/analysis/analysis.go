// Package analysis inspects the work item set and dependency graph for
// priority problems: inversions (urgent work blocked by non-urgent work),
// bottlenecks (low-priority items blocking many others), and degenerate
// priority distributions. All reports are pure functions of the snapshot
// they are given.
package analysis

import (
	"fmt"
	"sort"

	"github.com/deltatrack/dt/internal/graph"
	"github.com/deltatrack/dt/internal/types"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityNote     Severity = "note"
)

// Inversion is a dependency edge whose blocker is less urgent than the
// item it blocks.
type Inversion struct {
	ItemID            string   `json:"item_id"` // the dependent (more urgent)
	ItemPriority      int      `json:"item_priority"`
	DependsOnID       string   `json:"depends_on_id"` // the blocker (less urgent)
	DependsOnPriority int      `json:"depends_on_priority"`
	Gap               int      `json:"gap"` // blocker priority minus dependent priority, positive
	Severity          Severity `json:"severity"`
}

func (i Inversion) String() string {
	return fmt.Sprintf("%s (P%d) is blocked by %s (P%d), gap %d",
		i.ItemID, i.ItemPriority, i.DependsOnID, i.DependsOnPriority, i.Gap)
}

// Bottleneck is an item whose fan-out is high relative to its priority.
type Bottleneck struct {
	ItemID   string   `json:"item_id"`
	Priority int      `json:"priority"`
	FanOut   int      `json:"fan_out"`
	Severity Severity `json:"severity"`
}

// DistributionReport summarizes the priority histogram over non-terminal
// items and flags degenerate shapes.
type DistributionReport struct {
	Histogram map[int]int `json:"histogram"`
	Total     int         `json:"total"`
	Flags     []string    `json:"flags,omitempty"`
}

// DetectInversions reports every edge (from, to) where from is more
// urgent than the blocker to. Gap thresholds: >=3 critical, ==2 warning,
// ==1 note; gap <= 0 is not an inversion.
func DetectInversions(items []*types.WorkItem, g *graph.Graph) []Inversion {
	byID := indexItems(items)

	var findings []Inversion
	for _, id := range g.Items() {
		from, ok := byID[id]
		if !ok {
			continue
		}
		for _, depID := range g.DirectDependencies(id) {
			to, ok := byID[depID]
			if !ok {
				continue
			}
			// Numerically, urgent is low: a positive gap in blocker
			// priority minus dependent priority means the blocker is
			// less urgent than the work it blocks.
			gap := to.Priority - from.Priority
			if gap <= 0 {
				continue
			}
			findings = append(findings, Inversion{
				ItemID:            from.ID,
				ItemPriority:      from.Priority,
				DependsOnID:       to.ID,
				DependsOnPriority: to.Priority,
				Gap:               gap,
				Severity:          inversionSeverity(gap),
			})
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Gap != findings[j].Gap {
			return findings[i].Gap > findings[j].Gap
		}
		if findings[i].ItemID != findings[j].ItemID {
			return findings[i].ItemID < findings[j].ItemID
		}
		return findings[i].DependsOnID < findings[j].DependsOnID
	})
	return findings
}

func inversionSeverity(gap int) Severity {
	switch {
	case gap >= 3:
		return SeverityCritical
	case gap == 2:
		return SeverityWarning
	default:
		return SeverityNote
	}
}

// DetectBottlenecks flags items blocking many others relative to their
// priority: fanOut >= 5 at priority >= 4 is critical, fanOut >= 3 at
// priority >= 4 is a warning, fanOut >= 3 at priority 3 is a note.
func DetectBottlenecks(items []*types.WorkItem, g *graph.Graph) []Bottleneck {
	var findings []Bottleneck
	for _, item := range items {
		fanOut := g.FanOut(item.ID)
		sev, flagged := bottleneckSeverity(fanOut, item.Priority)
		if !flagged {
			continue
		}
		findings = append(findings, Bottleneck{
			ItemID:   item.ID,
			Priority: item.Priority,
			FanOut:   fanOut,
			Severity: sev,
		})
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].FanOut != findings[j].FanOut {
			return findings[i].FanOut > findings[j].FanOut
		}
		return findings[i].ItemID < findings[j].ItemID
	})
	return findings
}

func bottleneckSeverity(fanOut, priority int) (Severity, bool) {
	switch {
	case fanOut >= 5 && priority >= 4:
		return SeverityCritical, true
	case fanOut >= 3 && priority >= 4:
		return SeverityWarning, true
	case fanOut >= 3 && priority == 3:
		return SeverityNote, true
	}
	return "", false
}

// AnalyzeDistribution builds a priority histogram over items not yet in
// a terminal status and flags degenerate shapes: more than half the items
// at Critical, or every item at the same priority (zero differentiation).
func AnalyzeDistribution(items []*types.WorkItem) DistributionReport {
	report := DistributionReport{Histogram: make(map[int]int)}

	for _, item := range items {
		if item.Status.IsTerminal() {
			continue
		}
		report.Histogram[item.Priority]++
		report.Total++
	}

	if report.Total == 0 {
		return report
	}

	if critical := report.Histogram[types.PriorityCritical]; critical*2 > report.Total {
		report.Flags = append(report.Flags, fmt.Sprintf(
			"%d of %d active items are Critical; priority 1 has lost its meaning", critical, report.Total))
	}

	levelsUsed := 0
	for _, count := range report.Histogram {
		if count > 0 {
			levelsUsed++
		}
	}
	if levelsUsed == 1 && report.Total > 1 {
		report.Flags = append(report.Flags,
			"all active items share one priority level; no differentiation")
	}

	return report
}

func indexItems(items []*types.WorkItem) map[string]*types.WorkItem {
	byID := make(map[string]*types.WorkItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID
}
