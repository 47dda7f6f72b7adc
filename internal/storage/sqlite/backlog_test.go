package sqlite

import (
	"context"
	"testing"

	"github.com/deltatrack/dt/internal/types"
)

func mustCreateBacklog(t *testing.T, store *Store, typ types.BacklogType, title string) *types.BacklogItem {
	t.Helper()
	item := &types.BacklogItem{Type: typ, Title: title}
	if err := store.CreateBacklogItem(context.Background(), item, "test-actor"); err != nil {
		t.Fatalf("Failed to create backlog item: %v", err)
	}
	return item
}

// TestCreateBacklogItemAllocatesTypedIDs verifies per-type counters
// produce BUG-001, IDEA-001, ... independently.
func TestCreateBacklogItemAllocatesTypedIDs(t *testing.T) {
	store := setupTestDB(t)

	bug := mustCreateBacklog(t, store, types.BacklogBug, "Clipboard paste fails")
	idea := mustCreateBacklog(t, store, types.BacklogIdea, "Dark mode")
	bug2 := mustCreateBacklog(t, store, types.BacklogBug, "Window resize flicker")

	if bug.ID != "BUG-001" {
		t.Errorf("Expected BUG-001, got %s", bug.ID)
	}
	if idea.ID != "IDEA-001" {
		t.Errorf("Expected IDEA-001 (independent counter), got %s", idea.ID)
	}
	if bug2.ID != "BUG-002" {
		t.Errorf("Expected BUG-002, got %s", bug2.ID)
	}
	if bug.Status != types.BacklogOpen {
		t.Errorf("Expected new item to be open, got %s", bug.Status)
	}
}

// TestBacklogRoundTrip verifies related ids and notes survive storage.
func TestBacklogRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	item := &types.BacklogItem{
		Type:     types.BacklogDebt,
		Title:    "Consolidate retry helpers",
		Priority: 2,
		Related:  []string{"CORE-001", "CORE-002"},
		Notes:    "Three copies of the same backoff loop",
	}
	if err := store.CreateBacklogItem(ctx, item, "test-actor"); err != nil {
		t.Fatalf("Failed to create backlog item: %v", err)
	}

	got, err := store.GetBacklogItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("Failed to get backlog item: %v", err)
	}
	if got == nil {
		t.Fatal("Expected backlog item, got nil")
	}
	if got.Priority != 2 || got.Notes != item.Notes {
		t.Errorf("Fields did not round-trip: %+v", got)
	}
	if len(got.Related) != 2 || got.Related[0] != "CORE-001" {
		t.Errorf("Related ids did not round-trip: %v", got.Related)
	}

	absent, err := store.GetBacklogItem(ctx, "BUG-999")
	if err != nil || absent != nil {
		t.Errorf("Expected nil, nil for absent item, got %v, %v", absent, err)
	}
}

// TestResolveBacklogItem verifies the open -> resolved transitions and
// that resolution is one-way.
func TestResolveBacklogItem(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	bug := mustCreateBacklog(t, store, types.BacklogBug, "Crash on empty input")

	if err := store.ResolveBacklogItem(ctx, bug.ID, types.BacklogFixed, "", "guard added", "test-actor"); err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}

	got, _ := store.GetBacklogItem(ctx, bug.ID)
	if got.Status != types.BacklogFixed {
		t.Errorf("Expected fixed, got %s", got.Status)
	}
	if got.Resolution != "guard added" {
		t.Errorf("Expected resolution note, got %q", got.Resolution)
	}
	if got.ResolvedAt == nil {
		t.Error("Expected resolved_at to be set")
	}

	// Already resolved
	err := store.ResolveBacklogItem(ctx, bug.ID, types.BacklogDismissed, "", "", "test-actor")
	if err == nil {
		t.Error("Expected error re-resolving, got nil")
	}

	// Resolution status must not be open
	other := mustCreateBacklog(t, store, types.BacklogBug, "Another")
	if err := store.ResolveBacklogItem(ctx, other.ID, types.BacklogOpen, "", "", "test-actor"); err == nil {
		t.Error("Expected error resolving to open, got nil")
	}
}

// TestResolveDuplicateRejectsChains verifies a duplicate must point at
// an existing item that is not itself a duplicate.
func TestResolveDuplicateRejectsChains(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	canonical := mustCreateBacklog(t, store, types.BacklogBug, "Paste drops trailing newline")
	dup := mustCreateBacklog(t, store, types.BacklogBug, "Trailing newline lost on paste")
	second := mustCreateBacklog(t, store, types.BacklogBug, "Newline missing after paste")

	// Target required and must exist
	if err := store.ResolveBacklogItem(ctx, dup.ID, types.BacklogDuplicate, "", "", "test-actor"); err == nil {
		t.Error("Expected error for missing target, got nil")
	}
	if err := store.ResolveBacklogItem(ctx, dup.ID, types.BacklogDuplicate, "BUG-999", "", "test-actor"); err == nil {
		t.Error("Expected error for unknown target, got nil")
	}
	if err := store.ResolveBacklogItem(ctx, dup.ID, types.BacklogDuplicate, dup.ID, "", "test-actor"); err == nil {
		t.Error("Expected error for self target, got nil")
	}

	if err := store.ResolveBacklogItem(ctx, dup.ID, types.BacklogDuplicate, canonical.ID, "", "test-actor"); err != nil {
		t.Fatalf("Failed to mark duplicate: %v", err)
	}
	got, _ := store.GetBacklogItem(ctx, dup.ID)
	if got.DuplicateOf != canonical.ID {
		t.Errorf("Expected duplicate_of %s, got %s", canonical.ID, got.DuplicateOf)
	}

	// Pointing at a duplicate would create a chain
	err := store.ResolveBacklogItem(ctx, second.ID, types.BacklogDuplicate, dup.ID, "", "test-actor")
	if err == nil {
		t.Error("Expected error for duplicate-of-duplicate, got nil")
	}

	// The canonical item is still resolvable
	if err := store.ResolveBacklogItem(ctx, second.ID, types.BacklogDuplicate, canonical.ID, "", "test-actor"); err != nil {
		t.Errorf("Expected direct link to canonical to succeed: %v", err)
	}
}

// TestResolvePromotedRequiresWorkItem verifies promotion links to an
// existing work item.
func TestResolvePromotedRequiresWorkItem(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	idea := mustCreateBacklog(t, store, types.BacklogIdea, "Batch import command")

	if err := store.ResolveBacklogItem(ctx, idea.ID, types.BacklogPromoted, "", "", "test-actor"); err == nil {
		t.Error("Expected error for missing work item target, got nil")
	}
	if err := store.ResolveBacklogItem(ctx, idea.ID, types.BacklogPromoted, "CORE-001", "", "test-actor"); err == nil {
		t.Error("Expected error for unknown work item, got nil")
	}

	work := mustCreate(t, store, "CORE", "Batch import command", 3)
	if err := store.ResolveBacklogItem(ctx, idea.ID, types.BacklogPromoted, work.ID, "", "test-actor"); err != nil {
		t.Fatalf("Failed to promote: %v", err)
	}

	got, _ := store.GetBacklogItem(ctx, idea.ID)
	if got.Status != types.BacklogPromoted || got.PromotedTo != work.ID {
		t.Errorf("Expected promoted to %s, got %+v", work.ID, got)
	}

	// Fixed/dismissed take no target
	other := mustCreateBacklog(t, store, types.BacklogQuestion, "Why two config files?")
	if err := store.ResolveBacklogItem(ctx, other.ID, types.BacklogDismissed, "CORE-001", "", "test-actor"); err == nil {
		t.Error("Expected error passing target to dismissed, got nil")
	}
}

// TestListBacklogFilters verifies type and status filters.
func TestListBacklogFilters(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	mustCreateBacklog(t, store, types.BacklogBug, "One")
	bug2 := mustCreateBacklog(t, store, types.BacklogBug, "Two")
	mustCreateBacklog(t, store, types.BacklogIdea, "Three")
	if err := store.ResolveBacklogItem(ctx, bug2.ID, types.BacklogDismissed, "", "", "test-actor"); err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}

	all, err := store.ListBacklog(ctx, types.BacklogFilter{})
	if err != nil {
		t.Fatalf("Failed to list backlog: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 items, got %d", len(all))
	}

	typ := types.BacklogBug
	bugs, _ := store.ListBacklog(ctx, types.BacklogFilter{Type: &typ})
	if len(bugs) != 2 {
		t.Errorf("Expected 2 bugs, got %d", len(bugs))
	}

	open := types.BacklogOpen
	openBugs, _ := store.ListBacklog(ctx, types.BacklogFilter{Type: &typ, Status: &open})
	if len(openBugs) != 1 || openBugs[0].ID != "BUG-001" {
		t.Errorf("Expected only BUG-001 open, got %v", openBugs)
	}

	stats, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("Failed to get statistics: %v", err)
	}
	if stats.OpenBacklog != 2 || stats.ResolvedBacklog != 1 {
		t.Errorf("Expected 2 open / 1 resolved, got %d / %d", stats.OpenBacklog, stats.ResolvedBacklog)
	}
}
