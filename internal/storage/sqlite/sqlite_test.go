package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deltatrack/dt/internal/types"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreate(t *testing.T, store *Store, category, name string, priority int) *types.WorkItem {
	t.Helper()
	item := &types.WorkItem{Name: name, Priority: priority}
	if err := store.CreateItem(context.Background(), category, item, "test-actor"); err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}
	return item
}

// TestCreateItemAllocatesSequentialIDs verifies per-category counters
// produce AUTH-001, AUTH-002, ... without gaps or collisions.
func TestCreateItemAllocatesSequentialIDs(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, store, "AUTH", "Login flow", 2)
	b := mustCreate(t, store, "AUTH", "Session refresh", 3)
	c := mustCreate(t, store, "DB", "Schema migration", 3)

	if a.ID != "AUTH-001" {
		t.Errorf("Expected AUTH-001, got %s", a.ID)
	}
	if b.ID != "AUTH-002" {
		t.Errorf("Expected AUTH-002, got %s", b.ID)
	}
	if c.ID != "DB-001" {
		t.Errorf("Expected DB-001 (independent counter), got %s", c.ID)
	}

	// Each creation records a created event
	events, err := store.GetEvents(ctx, a.ID, 10)
	if err != nil {
		t.Fatalf("Failed to get events: %v", err)
	}
	if len(events) != 1 || events[0].EventType != types.EventCreated {
		t.Errorf("Expected a single created event, got %v", events)
	}
}

// TestCreateItemDefaults verifies status, priority, and complexity
// defaults are applied when unset.
func TestCreateItemDefaults(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	item := &types.WorkItem{Name: "Defaults check"}
	if err := store.CreateItem(ctx, "CORE", item, "test-actor"); err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	got, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if got.Status != types.StatusDefined {
		t.Errorf("Expected status defined, got %s", got.Status)
	}
	if got.Priority != types.DefaultPriority {
		t.Errorf("Expected priority %d, got %d", types.DefaultPriority, got.Priority)
	}
	if got.Complexity != types.ComplexityMedium {
		t.Errorf("Expected complexity medium, got %s", got.Complexity)
	}
}

// TestCreateItemWithExplicitID verifies imports with pre-set ids advance
// the counter so later allocations do not collide.
func TestCreateItemWithExplicitID(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	item := &types.WorkItem{ID: "API-007", Name: "Imported item"}
	if err := store.CreateItem(ctx, "", item, "test-actor"); err != nil {
		t.Fatalf("Failed to create item with explicit id: %v", err)
	}

	next := mustCreate(t, store, "API", "Next allocation", 3)
	if next.ID != "API-008" {
		t.Errorf("Expected API-008 after importing API-007, got %s", next.ID)
	}

	// Duplicate explicit id is rejected
	dup := &types.WorkItem{ID: "API-007", Name: "Duplicate"}
	if err := store.CreateItem(ctx, "", dup, "test-actor"); err == nil {
		t.Error("Expected error creating duplicate id, got nil")
	}

	// Category mismatch is rejected
	bad := &types.WorkItem{ID: "API-009", Name: "Mismatch"}
	if err := store.CreateItem(ctx, "DB", bad, "test-actor"); err == nil {
		t.Error("Expected error for id/category mismatch, got nil")
	}
}

// TestGetItemAbsent verifies lookups of unknown ids return nil, nil.
func TestGetItemAbsent(t *testing.T) {
	store := setupTestDB(t)

	item, err := store.GetItem(context.Background(), "GHOST-001")
	if err != nil {
		t.Fatalf("Expected no error for absent item, got %v", err)
	}
	if item != nil {
		t.Errorf("Expected nil for absent item, got %+v", item)
	}
}

// TestSetStatusRecordsEvent verifies status updates persist and leave an
// audit event with old and new values.
func TestSetStatusRecordsEvent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	item := mustCreate(t, store, "CORE", "Status transitions", 3)

	// Any vocabulary value is reachable from any other; skipping ahead
	// from defined to impl_done is allowed.
	if err := store.SetStatus(ctx, item.ID, types.StatusImplDone, "test-actor"); err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}

	got, _ := store.GetItem(ctx, item.ID)
	if got.Status != types.StatusImplDone {
		t.Errorf("Expected impl_done, got %s", got.Status)
	}

	// Moving backward is also allowed
	if err := store.SetStatus(ctx, item.ID, types.StatusDefined, "test-actor"); err != nil {
		t.Fatalf("Failed to move status backward: %v", err)
	}

	events, err := store.GetEvents(ctx, item.ID, 10)
	if err != nil {
		t.Fatalf("Failed to get events: %v", err)
	}
	// Newest first: status_changed, status_changed, created
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].EventType != types.EventStatusChanged {
		t.Errorf("Expected status_changed event, got %s", events[0].EventType)
	}
	if events[0].OldValue == nil || *events[0].OldValue != string(types.StatusImplDone) {
		t.Errorf("Expected old_value impl_done, got %v", events[0].OldValue)
	}
	if events[0].NewValue == nil || *events[0].NewValue != string(types.StatusDefined) {
		t.Errorf("Expected new_value defined, got %v", events[0].NewValue)
	}
}

// TestSetStatusRejectsUnknownValue verifies the vocabulary is enforced
// and the error names the recognized values.
func TestSetStatusRejectsUnknownValue(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	item := mustCreate(t, store, "CORE", "Vocabulary check", 3)

	err := store.SetStatus(ctx, item.ID, types.Status("done"), "test-actor")
	if err == nil {
		t.Fatal("Expected error for unknown status, got nil")
	}
	if want := "reconciled"; !strings.Contains(err.Error(), want) {
		t.Errorf("Expected error to list recognized values, got: %v", err)
	}

	err = store.SetStatus(ctx, "GHOST-001", types.StatusDefined, "test-actor")
	if err == nil {
		t.Error("Expected error for unknown item, got nil")
	}

}

// TestSetStatusReopensReconciledItem verifies reconciled is not a lock:
// an item reconciled by mistake can be moved back to any earlier stage.
func TestSetStatusReopensReconciledItem(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	item := mustCreate(t, store, "CORE", "Reopen after reconcile", 3)

	if err := store.SetStatus(ctx, item.ID, types.StatusReconciled, "test-actor"); err != nil {
		t.Fatalf("Failed to reconcile: %v", err)
	}
	if err := store.SetStatus(ctx, item.ID, types.StatusImplInProgress, "test-actor"); err != nil {
		t.Fatalf("Failed to reopen reconciled item: %v", err)
	}

	got, _ := store.GetItem(ctx, item.ID)
	if got.Status != types.StatusImplInProgress {
		t.Errorf("Expected impl_in_progress after reopening, got %s", got.Status)
	}

	events, err := store.GetEvents(ctx, item.ID, 10)
	if err != nil {
		t.Fatalf("Failed to get events: %v", err)
	}
	if events[0].OldValue == nil || *events[0].OldValue != string(types.StatusReconciled) {
		t.Errorf("Expected old_value reconciled, got %v", events[0].OldValue)
	}
}

// TestSetPriority verifies bounds and event recording.
func TestSetPriority(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	item := mustCreate(t, store, "CORE", "Priority updates", 3)

	if err := store.SetPriority(ctx, item.ID, 1, "test-actor"); err != nil {
		t.Fatalf("Failed to set priority: %v", err)
	}
	got, _ := store.GetItem(ctx, item.ID)
	if got.Priority != 1 {
		t.Errorf("Expected priority 1, got %d", got.Priority)
	}

	for _, bad := range []int{0, 6, -1} {
		if err := store.SetPriority(ctx, item.ID, bad, "test-actor"); err == nil {
			t.Errorf("Expected error for priority %d, got nil", bad)
		}
	}
}

// TestDependencyRoundTrip verifies edges persist, are listed in
// deterministic order, and removal of an absent edge is a no-op.
func TestDependencyRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, store, "X", "Foundation", 3)
	b := mustCreate(t, store, "X", "Feature", 3)
	c := mustCreate(t, store, "X", "Polish", 3)

	for _, pair := range [][2]string{{c.ID, b.ID}, {b.ID, a.ID}} {
		dep := &types.Dependency{ItemID: pair[0], DependsOnID: pair[1]}
		if err := store.AddDependency(ctx, dep, "test-actor"); err != nil {
			t.Fatalf("Failed to add dependency: %v", err)
		}
	}

	deps, err := store.ListDependencies(ctx)
	if err != nil {
		t.Fatalf("Failed to list dependencies: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(deps))
	}
	// Ordered by item_id then depends_on_id
	if deps[0].ItemID != b.ID || deps[1].ItemID != c.ID {
		t.Errorf("Expected deterministic edge order, got %v then %v", deps[0], deps[1])
	}

	// Re-adding the same edge is idempotent and records no event
	before, _ := store.GetEvents(ctx, b.ID, 50)
	if err := store.AddDependency(ctx, &types.Dependency{ItemID: b.ID, DependsOnID: a.ID}, "test-actor"); err != nil {
		t.Fatalf("Expected idempotent add, got %v", err)
	}
	after, _ := store.GetEvents(ctx, b.ID, 50)
	if len(after) != len(before) {
		t.Errorf("Expected no event for no-op add, got %d events (was %d)", len(after), len(before))
	}

	if err := store.RemoveDependency(ctx, b.ID, a.ID, "test-actor"); err != nil {
		t.Fatalf("Failed to remove dependency: %v", err)
	}
	// Removing again is a no-op and records no event
	if err := store.RemoveDependency(ctx, b.ID, a.ID, "test-actor"); err != nil {
		t.Fatalf("Expected no-op removal, got %v", err)
	}

	deps, _ = store.ListDependencies(ctx)
	if len(deps) != 1 {
		t.Errorf("Expected 1 edge after removal, got %d", len(deps))
	}

	// Self-dependency and unknown endpoints are rejected
	if err := store.AddDependency(ctx, &types.Dependency{ItemID: a.ID, DependsOnID: a.ID}, "test-actor"); err == nil {
		t.Error("Expected error for self-dependency, got nil")
	}
	if err := store.AddDependency(ctx, &types.Dependency{ItemID: a.ID, DependsOnID: "GHOST-001"}, "test-actor"); err == nil {
		t.Error("Expected error for unknown endpoint, got nil")
	}
}

// TestListItemsFilters verifies filter combinations.
func TestListItemsFilters(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, store, "AUTH", "Login", 1)
	mustCreate(t, store, "AUTH", "Logout", 3)
	db := mustCreate(t, store, "DB", "Indexes", 3)
	if err := store.SetStatus(ctx, db.ID, types.StatusImplInProgress, "test-actor"); err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}

	category := "AUTH"
	items, err := store.ListItems(ctx, types.ItemFilter{Category: &category})
	if err != nil {
		t.Fatalf("Failed to list by category: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 AUTH items, got %d", len(items))
	}
	// Priority ascending, then id
	if items[0].Priority != 1 {
		t.Errorf("Expected priority 1 first, got %d", items[0].Priority)
	}

	items, err = store.ListItems(ctx, types.ItemFilter{StatusContains: "in_progress"})
	if err != nil {
		t.Fatalf("Failed to list by status substring: %v", err)
	}
	if len(items) != 1 || items[0].ID != db.ID {
		t.Errorf("Expected only %s in progress, got %v", db.ID, items)
	}

	priority := 1
	items, _ = store.ListItems(ctx, types.ItemFilter{Priority: &priority})
	if len(items) != 1 {
		t.Errorf("Expected 1 item at priority 1, got %d", len(items))
	}

	items, _ = store.ListItems(ctx, types.ItemFilter{Limit: 2})
	if len(items) != 2 {
		t.Errorf("Expected limit 2 to cap results, got %d", len(items))
	}
}

// TestGetStatistics verifies aggregate counts across items and edges.
func TestGetStatistics(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, store, "S", "One", 1)
	b := mustCreate(t, store, "S", "Two", 3)
	if err := store.SetStatus(ctx, a.ID, types.StatusReconciled, "test-actor"); err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}
	if err := store.AddDependency(ctx, &types.Dependency{ItemID: b.ID, DependsOnID: a.ID}, "test-actor"); err != nil {
		t.Fatalf("Failed to add dependency: %v", err)
	}

	stats, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("Failed to get statistics: %v", err)
	}
	if stats.TotalItems != 2 {
		t.Errorf("Expected 2 items, got %d", stats.TotalItems)
	}
	if stats.TerminalItems != 1 {
		t.Errorf("Expected 1 terminal item, got %d", stats.TerminalItems)
	}
	if stats.TotalEdges != 1 {
		t.Errorf("Expected 1 edge, got %d", stats.TotalEdges)
	}
	if stats.ByStatus[types.StatusReconciled] != 1 {
		t.Errorf("Expected 1 reconciled, got %d", stats.ByStatus[types.StatusReconciled])
	}
	if stats.ByPriority[3] != 1 {
		t.Errorf("Expected 1 item at priority 3, got %d", stats.ByPriority[3])
	}
}

// TestConfigRoundTrip verifies key/value config persistence.
func TestConfigRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	value, err := store.GetConfig(ctx, "missing")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value for missing key, got %q", value)
	}

	if err := store.SetConfig(ctx, "actor", "alice"); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if err := store.SetConfig(ctx, "actor", "bob"); err != nil {
		t.Fatalf("SetConfig upsert failed: %v", err)
	}

	value, _ = store.GetConfig(ctx, "actor")
	if value != "bob" {
		t.Errorf("Expected bob after upsert, got %q", value)
	}
}
