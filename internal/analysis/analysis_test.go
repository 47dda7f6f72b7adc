package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltatrack/dt/internal/graph"
	"github.com/deltatrack/dt/internal/types"
)

func item(id string, priority int, status types.Status) *types.WorkItem {
	return &types.WorkItem{
		ID:         id,
		Name:       id,
		Complexity: types.ComplexityMedium,
		Priority:   priority,
		Status:     status,
	}
}

func graphOf(t *testing.T, items []*types.WorkItem, edges [][2]string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, it := range items {
		require.NoError(t, g.AddItem(it.ID))
	}
	for _, e := range edges {
		require.NoError(t, g.AddDependency(e[0], e[1]))
	}
	return g
}

func TestDetectInversionsSeverities(t *testing.T) {
	tests := []struct {
		fromPriority int
		toPriority   int
		wantGap      int
		wantSeverity Severity
		wantFinding  bool
	}{
		{1, 4, 3, SeverityCritical, true},
		{1, 5, 4, SeverityCritical, true},
		{2, 4, 2, SeverityWarning, true},
		{3, 4, 1, SeverityNote, true},
		{3, 3, 0, "", false},
		{4, 1, 0, "", false}, // urgent blocker, fine
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("p%d_blocked_by_p%d", tt.fromPriority, tt.toPriority), func(t *testing.T) {
			items := []*types.WorkItem{
				item("A-1", tt.fromPriority, types.StatusDefined),
				item("B-1", tt.toPriority, types.StatusDefined),
			}
			g := graphOf(t, items, [][2]string{{"A-1", "B-1"}})

			findings := DetectInversions(items, g)
			if !tt.wantFinding {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, "A-1", findings[0].ItemID)
			assert.Equal(t, "B-1", findings[0].DependsOnID)
			assert.Equal(t, tt.wantGap, findings[0].Gap)
			assert.Equal(t, tt.wantSeverity, findings[0].Severity)
		})
	}
}

func TestDetectInversionsCriticalBlockedByBacklog(t *testing.T) {
	// X at priority 1 depending on Y at priority 5: one critical, gap 4.
	items := []*types.WorkItem{
		item("X-1", 1, types.StatusDefined),
		item("Y-1", 5, types.StatusDefined),
	}
	g := graphOf(t, items, [][2]string{{"X-1", "Y-1"}})

	findings := DetectInversions(items, g)
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityCritical, findings[0].Severity)
	assert.Equal(t, 4, findings[0].Gap)
	assert.Contains(t, findings[0].String(), "X-1")
	assert.Contains(t, findings[0].String(), "Y-1")
}

func TestDetectInversionsOrderedByGap(t *testing.T) {
	items := []*types.WorkItem{
		item("A-1", 1, types.StatusDefined),
		item("B-1", 5, types.StatusDefined),
		item("C-1", 2, types.StatusDefined),
		item("D-1", 3, types.StatusDefined),
	}
	g := graphOf(t, items, [][2]string{{"A-1", "B-1"}, {"C-1", "D-1"}})

	findings := DetectInversions(items, g)
	require.Len(t, findings, 2)
	assert.Equal(t, 4, findings[0].Gap)
	assert.Equal(t, 1, findings[1].Gap)
}

func TestDetectBottlenecks(t *testing.T) {
	// Z has 6 direct dependents at priority 4: critical with fanOut 6.
	items := []*types.WorkItem{item("Z-1", 4, types.StatusDefined)}
	var edges [][2]string
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("W-%d", i)
		items = append(items, item(id, 3, types.StatusDefined))
		edges = append(edges, [2]string{id, "Z-1"})
	}
	g := graphOf(t, items, edges)

	findings := DetectBottlenecks(items, g)
	require.Len(t, findings, 1)
	assert.Equal(t, "Z-1", findings[0].ItemID)
	assert.Equal(t, 6, findings[0].FanOut)
	assert.Equal(t, SeverityCritical, findings[0].Severity)
}

func TestDetectBottleneckThresholds(t *testing.T) {
	tests := []struct {
		name         string
		fanOut       int
		priority     int
		wantSeverity Severity
		wantFlagged  bool
	}{
		{"high fanout low priority", 5, 4, SeverityCritical, true},
		{"moderate fanout low priority", 3, 5, SeverityWarning, true},
		{"moderate fanout normal priority", 4, 3, SeverityNote, true},
		{"moderate fanout urgent", 4, 2, "", false},
		{"low fanout", 2, 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sev, flagged := bottleneckSeverity(tt.fanOut, tt.priority)
			assert.Equal(t, tt.wantFlagged, flagged)
			if flagged {
				assert.Equal(t, tt.wantSeverity, sev)
			}
		})
	}
}

func TestAnalyzeDistribution(t *testing.T) {
	items := []*types.WorkItem{
		item("A-1", 1, types.StatusDefined),
		item("A-2", 1, types.StatusDefined),
		item("A-3", 1, types.StatusDefined),
		item("A-4", 3, types.StatusDefined),
		item("A-5", 2, types.StatusReconciled), // terminal, excluded
	}

	report := AnalyzeDistribution(items)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Histogram[1])
	assert.Equal(t, 1, report.Histogram[3])
	assert.Equal(t, 0, report.Histogram[2])
	require.Len(t, report.Flags, 1, "over half critical should be flagged")
}

func TestAnalyzeDistributionNoDifferentiation(t *testing.T) {
	items := []*types.WorkItem{
		item("B-1", 3, types.StatusDefined),
		item("B-2", 3, types.StatusSpecDone),
		item("B-3", 3, types.StatusDesignDone),
	}
	report := AnalyzeDistribution(items)
	require.Len(t, report.Flags, 1)
	assert.Contains(t, report.Flags[0], "no differentiation")
}

func TestAnalyzeDistributionEmpty(t *testing.T) {
	report := AnalyzeDistribution(nil)
	assert.Zero(t, report.Total)
	assert.Empty(t, report.Flags)
}

func TestReportsArePure(t *testing.T) {
	items := []*types.WorkItem{
		item("A-1", 1, types.StatusDefined),
		item("B-1", 5, types.StatusDefined),
	}
	g := graphOf(t, items, [][2]string{{"A-1", "B-1"}})

	first := DetectInversions(items, g)
	second := DetectInversions(items, g)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, items[0].Priority, "analysis must not mutate items")
}
