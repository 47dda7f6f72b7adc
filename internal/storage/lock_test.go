package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dt.db")

	lockPath, err := AcquireLock(dbPath)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("Failed to read lock file: %v", err)
	}
	var lock AdvisoryLock
	if err := json.Unmarshal(data, &lock); err != nil {
		t.Fatalf("Lock file is not valid JSON: %v", err)
	}
	if lock.PID != os.Getpid() {
		t.Errorf("Expected PID %d, got %d", os.Getpid(), lock.PID)
	}
	if lock.Token == "" {
		t.Error("Expected a lock token")
	}

	// A second acquisition by a live process fails
	if _, err := AcquireLock(dbPath); err == nil {
		t.Error("Expected error acquiring a held lock, got nil")
	}

	if err := ReleaseLock(lockPath); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Expected lock file to be removed")
	}

	// Releasing again is a no-op
	if err := ReleaseLock(lockPath); err != nil {
		t.Errorf("Expected idempotent release, got %v", err)
	}
	if err := ReleaseLock(""); err != nil {
		t.Errorf("Expected empty path release to be a no-op, got %v", err)
	}
}

func TestStaleLockIsOverwritten(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dt.db")
	lockPath := filepath.Join(filepath.Dir(dbPath), ".lock")

	hostname, _ := os.Hostname()
	stale := AdvisoryLock{
		Token:     "stale",
		PID:       99999999, // beyond any plausible live pid
		Hostname:  hostname,
		StartedAt: time.Now().Add(-time.Hour),
	}
	data, _ := json.MarshalIndent(stale, "", "  ")
	if err := os.WriteFile(lockPath, data, 0o644); err != nil {
		t.Fatalf("Failed to plant stale lock: %v", err)
	}

	got, err := AcquireLock(dbPath)
	if err != nil {
		t.Fatalf("Expected stale lock to be overwritten, got %v", err)
	}
	defer func() { _ = ReleaseLock(got) }()

	data, _ = os.ReadFile(got)
	var lock AdvisoryLock
	if err := json.Unmarshal(data, &lock); err != nil {
		t.Fatalf("Failed to parse lock: %v", err)
	}
	if lock.PID != os.Getpid() {
		t.Errorf("Expected fresh lock for PID %d, got %d", os.Getpid(), lock.PID)
	}
}
