// Package recommend ranks actionable work items. Recommendation is
// deliberately looser than schedulability: an item whose dependencies are
// still open can be worth prioritizing even though it cannot be started
// yet. Callers needing the stricter guarantee use IsUnblocked.
package recommend

import (
	"sort"

	"github.com/deltatrack/dt/internal/graph"
	"github.com/deltatrack/dt/internal/types"
)

// DefaultTopN bounds the recommendation list when the caller does not ask
// for a specific count.
const DefaultTopN = 5

// Recommendation pairs an item with the graph-derived signals that
// ranked it.
type Recommendation struct {
	Item      *types.WorkItem `json:"item"`
	FanOut    int             `json:"fan_out"`
	Unblocked bool            `json:"unblocked"`
}

// Next returns the topN highest-ranked items not yet in a terminal
// status. Ranking key, in order: ascending priority value, descending
// fan-out (items that unblock more work rank higher), ascending
// complexity (prefer quick wins), then ascending id for determinism.
func Next(items []*types.WorkItem, g *graph.Graph, topN int) []Recommendation {
	if topN <= 0 {
		topN = DefaultTopN
	}

	byID := make(map[string]*types.WorkItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var candidates []Recommendation
	for _, item := range items {
		if item.Status.IsTerminal() {
			continue
		}
		candidates = append(candidates, Recommendation{
			Item:      item,
			FanOut:    g.FanOut(item.ID),
			Unblocked: isUnblocked(item.ID, byID, g),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Item.Priority != b.Item.Priority {
			return a.Item.Priority < b.Item.Priority
		}
		if a.FanOut != b.FanOut {
			return a.FanOut > b.FanOut
		}
		if a.Item.Complexity.Rank() != b.Item.Complexity.Rank() {
			return a.Item.Complexity.Rank() < b.Item.Complexity.Rank()
		}
		return a.Item.ID < b.Item.ID
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// IsUnblocked reports whether every dependency of id is in a terminal
// status. Dependencies missing from the item set count as blocking.
func IsUnblocked(id string, items []*types.WorkItem, g *graph.Graph) bool {
	byID := make(map[string]*types.WorkItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return isUnblocked(id, byID, g)
}

func isUnblocked(id string, byID map[string]*types.WorkItem, g *graph.Graph) bool {
	for _, depID := range g.DirectDependencies(id) {
		dep, ok := byID[depID]
		if !ok || !dep.Status.IsTerminal() {
			return false
		}
	}
	return true
}
