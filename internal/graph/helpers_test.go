package graph

import "github.com/deltatrack/dt/internal/types"

func itemList(ids ...string) []*types.WorkItem {
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

func depList(edges [][2]string) []*types.Dependency {
	deps := make([]*types.Dependency, 0, len(edges))
	for _, e := range edges {
		deps = append(deps, &types.Dependency{ItemID: e[0], DependsOnID: e[1]})
	}
	return deps
}
