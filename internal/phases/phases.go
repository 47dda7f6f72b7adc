// Package phases derives ordered implementation phases from the
// dependency graph. Phase k contains the items whose dependencies all
// lie in phases < k, so each phase is safe to implement once every
// earlier phase is complete.
package phases

import (
	"fmt"
	"sort"

	"github.com/deltatrack/dt/internal/graph"
)

// Phase is one topological layer of the graph.
type Phase struct {
	Number  int      `json:"number"`
	ItemIDs []string `json:"item_ids"`
}

// Derive partitions the graph into phases using Kahn's algorithm.
// In-degree here counts unresolved dependencies; each round extracts the
// items with in-degree 0 as the next phase, in ascending id order for
// determinism. The ordering within a phase is cosmetic only.
//
// An item with no dependencies and no dependents lands in phase 1.
//
// A graph containing a cycle cannot be layered; that is a precondition
// violation the dependency graph should have caught earlier, so Derive
// fails loudly rather than silently dropping the remainder.
func Derive(g *graph.Graph) ([]Phase, error) {
	inDegree := make(map[string]int)
	for _, id := range g.Items() {
		inDegree[id] = len(g.DirectDependencies(id))
	}

	var phases []Phase
	remaining := len(inDegree)

	for remaining > 0 {
		var ready []string
		for id, deg := range inDegree {
			if deg == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			cycles := g.DetectCycles()
			return nil, fmt.Errorf("cannot derive phases: graph contains a cycle (%d of %d items unplaced, cycles: %v)",
				remaining, len(inDegree), cycles)
		}
		sort.Strings(ready)

		phases = append(phases, Phase{
			Number:  len(phases) + 1,
			ItemIDs: ready,
		})

		for _, id := range ready {
			delete(inDegree, id)
			remaining--
			for _, dependent := range g.DirectDependents(id) {
				if _, ok := inDegree[dependent]; ok {
					inDegree[dependent]--
				}
			}
		}
	}

	return phases, nil
}

// Of returns the phase number for each item after derivation.
func Of(phases []Phase) map[string]int {
	out := make(map[string]int)
	for _, p := range phases {
		for _, id := range p.ItemIDs {
			out[id] = p.Number
		}
	}
	return out
}
