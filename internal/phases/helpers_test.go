package phases

import (
	"testing"

	"github.com/deltatrack/dt/internal/types"
)

func itemsOf(t *testing.T, ids ...string) []*types.WorkItem {
	t.Helper()
	items := make([]*types.WorkItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, &types.WorkItem{
			ID:         id,
			Name:       id,
			Complexity: types.ComplexityMedium,
			Priority:   types.DefaultPriority,
			Status:     types.StatusDefined,
		})
	}
	return items
}

// depsOf builds dependency records from flattened (item, dependsOn) pairs.
func depsOf(pairs ...string) []*types.Dependency {
	deps := make([]*types.Dependency, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		deps = append(deps, &types.Dependency{ItemID: pairs[i], DependsOnID: pairs[i+1]})
	}
	return deps
}
