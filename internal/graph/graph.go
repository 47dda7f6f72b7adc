// Package graph maintains the directed dependency graph over work item
// identifiers. An edge (from, to) means from depends on to: to must be
// addressed first. The graph is an in-memory snapshot built from the
// store; mutation helpers validate against it before anything is
// persisted, so an accepted edge can never introduce a cycle.
package graph

import (
	"sort"
	"strings"

	"github.com/deltatrack/dt/internal/types"
)

// Graph is a directed dependency graph keyed by work item id.
type Graph struct {
	items map[string]bool
	deps  map[string][]string // item -> items it depends on
	rdeps map[string][]string // item -> items that depend on it
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		items: make(map[string]bool),
		deps:  make(map[string][]string),
		rdeps: make(map[string][]string),
	}
}

// Build constructs a graph from a store snapshot.
// Edges referencing unknown items are rejected, not dropped: a snapshot
// that fails here is corrupted and the caller must surface it loudly.
func Build(items []*types.WorkItem, edges []*types.Dependency) (*Graph, error) {
	g := New()
	for _, item := range items {
		if err := g.AddItem(item.ID); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if !g.items[e.ItemID] {
			return nil, &UnknownItemError{ID: e.ItemID}
		}
		if !g.items[e.DependsOnID] {
			return nil, &UnknownItemError{ID: e.DependsOnID}
		}
		if e.ItemID == e.DependsOnID {
			return nil, &SelfDependencyError{ID: e.ItemID}
		}
		g.addEdge(e.ItemID, e.DependsOnID)
	}
	return g, nil
}

// AddItem registers an item id. Adding an existing id is a no-op.
// Malformed ids are rejected so the category invariant holds everywhere.
func (g *Graph) AddItem(id string) error {
	if _, err := types.CategoryOf(id); err != nil {
		return err
	}
	g.items[id] = true
	return nil
}

// HasItem reports whether the id is registered.
func (g *Graph) HasItem(id string) bool {
	return g.items[id]
}

// Items returns all registered ids in ascending order.
func (g *Graph) Items() []string {
	ids := make([]string, 0, len(g.items))
	for id := range g.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddDependency records that from depends on to. It fails with
// SelfDependencyError, UnknownItemError, or CycleError; on failure the
// graph is unchanged.
func (g *Graph) AddDependency(from, to string) error {
	if from == to {
		return &SelfDependencyError{ID: from}
	}
	if !g.items[from] {
		return &UnknownItemError{ID: from, Suggestions: g.closeMatches(from)}
	}
	if !g.items[to] {
		return &UnknownItemError{ID: to, Suggestions: g.closeMatches(to)}
	}
	if g.hasEdge(from, to) {
		return nil
	}
	// Probe for a cycle before committing the edge: from -> to closes a
	// loop exactly when to already transitively depends on from.
	if path := g.dependencyPath(to, from); path != nil {
		// path runs to -> ... -> from; prepending from and trimming the
		// final element yields the cycle in forward order.
		cycle := append([]string{from}, path[:len(path)-1]...)
		return &CycleError{Path: cycle}
	}
	g.addEdge(from, to)
	return nil
}

// RemoveDependency deletes the edge from -> to. Removing an absent edge
// is a no-op.
func (g *Graph) RemoveDependency(from, to string) {
	g.deps[from] = remove(g.deps[from], to)
	g.rdeps[to] = remove(g.rdeps[to], from)
}

// DirectDependencies returns the items id directly depends on, ascending.
func (g *Graph) DirectDependencies(id string) []string {
	return sorted(g.deps[id])
}

// DirectDependents returns the items that directly depend on id, ascending.
func (g *Graph) DirectDependents(id string) []string {
	return sorted(g.rdeps[id])
}

// FanOut returns the number of items directly depending on id.
func (g *Graph) FanOut(id string) int {
	return len(g.rdeps[id])
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, ds := range g.deps {
		n += len(ds)
	}
	return n
}

// DetectCycles returns every cycle currently present, each as the forward
// path of ids closing the loop. Used for bulk-import validation where
// edges are loaded in batch before checking. An empty result means the
// graph is acyclic.
//
// Uses DFS with coloring: white (unvisited), gray (on the active stack),
// black (done). A back-edge to a gray node identifies a cycle, which is
// reconstructed by walking the parent chain from the current node back to
// the back-edge target.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)
	var cycles [][]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, next := range g.DirectDependencies(node) {
			if color[next] == gray {
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				// Reverse to get forward order
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				// Drop the duplicated closing node
				cycles = append(cycles, cycle[:len(cycle)-1])
				continue
			}
			if color[next] == white {
				parent[next] = node
				dfs(next)
			}
		}
		color[node] = black
	}

	for _, id := range g.Items() {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// dependencyPath returns the id path from -> ... -> to following
// dependency edges, or nil if to is not transitively reachable.
func (g *Graph) dependencyPath(from, to string) []string {
	visited := map[string]bool{from: true}
	var walk func(cur string, path []string) []string
	walk = func(cur string, path []string) []string {
		if cur == to {
			return append(path, cur)
		}
		for _, next := range g.DirectDependencies(cur) {
			if visited[next] {
				continue
			}
			visited[next] = true
			if found := walk(next, append(path, cur)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(from, nil)
}

// closeMatches suggests existing ids near the unknown one: same category,
// or the same numeric suffix under a different category.
func (g *Graph) closeMatches(id string) []string {
	prefix := id
	if i := strings.IndexByte(id, '-'); i > 0 {
		prefix = id[:i+1]
	}
	var matches []string
	for _, existing := range g.Items() {
		if strings.HasPrefix(existing, prefix) || strings.EqualFold(existing, id) {
			matches = append(matches, existing)
		}
		if len(matches) == 3 {
			break
		}
	}
	return matches
}

func (g *Graph) hasEdge(from, to string) bool {
	for _, d := range g.deps[from] {
		if d == to {
			return true
		}
	}
	return false
}

func (g *Graph) addEdge(from, to string) {
	g.deps[from] = append(g.deps[from], to)
	g.rdeps[to] = append(g.rdeps[to], from)
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func sorted(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	sort.Strings(out)
	return out
}
