package graph

import (
	"fmt"
	"strings"
)

// SelfDependencyError is returned when an item is declared to depend on
// itself.
type SelfDependencyError struct {
	ID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("item %s cannot depend on itself", e.ID)
}

// UnknownItemError is returned when an edge references an id that is not
// in the graph. Suggestions holds close matches, when any exist.
type UnknownItemError struct {
	ID          string
	Suggestions []string
}

func (e *UnknownItemError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown item %s", e.ID)
	}
	return fmt.Sprintf("unknown item %s (did you mean %s?)", e.ID, strings.Join(e.Suggestions, ", "))
}

// CycleError is returned when an edge would close a dependency loop.
// Path is the full cycle in forward order, starting and implicitly ending
// at the first element.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	closed := append(append([]string{}, e.Path...), e.Path[0])
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(closed, " -> "))
}
