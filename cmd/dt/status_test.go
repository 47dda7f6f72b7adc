package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/deltatrack/dt/internal/config"
	"github.com/deltatrack/dt/internal/storage"
	"github.com/deltatrack/dt/internal/types"
)

func TestStatusSetCommand(t *testing.T) {
	ctx := context.Background()
	dbFile := filepath.Join(t.TempDir(), "dt.db")

	testStore, err := storage.NewStorage(ctx, &storage.Config{Path: dbFile})
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer testStore.Close()

	// Override the globals the command reads
	originalStore, originalCfg, originalActor := store, cfg, actor
	store = testStore
	cfg = &config.Config{DatabasePath: dbFile, Actor: "test-user"}
	actor = "test-user"
	defer func() { store, cfg, actor = originalStore, originalCfg, originalActor }()

	item := &types.WorkItem{Name: "Login endpoint"}
	if err := testStore.CreateItem(ctx, "AUTH", item, actor); err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}

	statusSetCmd.SetContext(ctx)

	if err := statusSetCmd.RunE(statusSetCmd, []string{item.ID, "reconciled"}); err != nil {
		t.Fatalf("status set failed: %v", err)
	}
	got, _ := testStore.GetItem(ctx, item.ID)
	if got.Status != types.StatusReconciled {
		t.Errorf("Expected reconciled, got %s", got.Status)
	}

	// Reconciled items can be reopened through the command
	if err := statusSetCmd.RunE(statusSetCmd, []string{item.ID, "impl_in_progress"}); err != nil {
		t.Fatalf("status set failed to reopen reconciled item: %v", err)
	}
	got, _ = testStore.GetItem(ctx, item.ID)
	if got.Status != types.StatusImplInProgress {
		t.Errorf("Expected impl_in_progress, got %s", got.Status)
	}

	// Out-of-vocabulary values and unknown ids fail
	if err := statusSetCmd.RunE(statusSetCmd, []string{item.ID, "done"}); err == nil {
		t.Error("Expected error for unrecognized status, got nil")
	}
	if err := statusSetCmd.RunE(statusSetCmd, []string{"GHOST-001", "defined"}); err == nil {
		t.Error("Expected error for unknown item, got nil")
	}
}
