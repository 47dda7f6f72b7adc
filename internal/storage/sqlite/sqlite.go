// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/deltatrack/dt/internal/types"
)

// Store implements the storage.Store interface using SQLite
type Store struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*Store, error) {
	var connStr string
	if path == ":memory:" {
		// WAL does not apply to in-memory databases.
		connStr = "file::memory:?_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// In-memory databases are per-connection by default.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateItem creates a new work item. When item.ID is empty an id is
// allocated from the category's counter inside the same transaction, so
// concurrent invocations cannot collide. A pre-set id (import path) must
// belong to the given category and advances the counter past it.
func (s *Store) CreateItem(ctx context.Context, category string, item *types.WorkItem, actor string) error {
	if item.Priority == 0 {
		item.Priority = types.DefaultPriority
	}
	if item.Status == "" {
		item.Status = types.StatusDefined
	}
	if item.Complexity == "" {
		item.Complexity = types.ComplexityMedium
	}

	if item.ID != "" {
		cat, err := types.CategoryOf(item.ID)
		if err != nil {
			return err
		}
		if category != "" && cat != category {
			return fmt.Errorf("item id %s does not belong to category %s", item.ID, category)
		}
		category = cat
	}
	if category == "" {
		return fmt.Errorf("category is required")
	}
	if !types.ValidID(category + "-1") {
		return fmt.Errorf("invalid category %q (expected uppercase alphanumeric starting with a letter)", category)
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	// BEGIN IMMEDIATE acquires the write lock up front so counter
	// allocation is serialized across writers.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin immediate transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if item.ID == "" {
		var nextID int
		err = conn.QueryRowContext(ctx, `
			INSERT INTO item_counters (category, last_id) VALUES (?, 1)
			ON CONFLICT(category) DO UPDATE SET last_id = last_id + 1
			RETURNING last_id
		`, category).Scan(&nextID)
		if err != nil {
			return fmt.Errorf("failed to allocate id for category %s: %w", category, err)
		}
		item.ID = fmt.Sprintf("%s-%03d", category, nextID)
	} else {
		num := 0
		fmt.Sscanf(item.ID[strings.IndexByte(item.ID, '-')+1:], "%d", &num)
		_, err = conn.ExecContext(ctx, `
			INSERT INTO item_counters (category, last_id) VALUES (?, ?)
			ON CONFLICT(category) DO UPDATE SET last_id = MAX(last_id, excluded.last_id)
		`, category, num)
		if err != nil {
			return fmt.Errorf("failed to advance counter for category %s: %w", category, err)
		}
	}

	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO items (id, name, description, complexity, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Name, item.Description, item.Complexity, item.Priority, item.Status,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("item %s already exists", item.ID)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}

	itemData, _ := json.Marshal(item)
	newValue := string(itemData)
	_, err = conn.ExecContext(ctx, `
		INSERT INTO events (item_id, event_type, actor, new_value)
		VALUES (?, ?, ?, ?)
	`, item.ID, types.EventCreated, actor, newValue)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

// GetItem retrieves a work item by id. Returns nil with no error when the
// id is absent; absence is a query result, not a failure.
func (s *Store) GetItem(ctx context.Context, id string) (*types.WorkItem, error) {
	var item types.WorkItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, complexity, priority, status, created_at, updated_at
		FROM items WHERE id = ?
	`, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Complexity,
		&item.Priority, &item.Status, &item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// ListItems returns work items matching the filter, ordered by priority
// then id so listings are stable across invocations.
func (s *Store) ListItems(ctx context.Context, filter types.ItemFilter) ([]*types.WorkItem, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Status != nil {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.StatusContains != "" {
		whereClauses = append(whereClauses, "status LIKE ?")
		args = append(args, "%"+filter.StatusContains+"%")
	}
	if filter.Priority != nil {
		whereClauses = append(whereClauses, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.Complexity != nil {
		whereClauses = append(whereClauses, "complexity = ?")
		args = append(args, *filter.Complexity)
	}
	if filter.Category != nil {
		whereClauses = append(whereClauses, "id LIKE ?")
		args = append(args, *filter.Category+"-%")
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}
	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, description, complexity, priority, status, created_at, updated_at
		FROM items
		%s
		ORDER BY priority ASC, id ASC
		%s
	`, whereSQL, limitSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*types.WorkItem
	for rows.Next() {
		var item types.WorkItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Complexity,
			&item.Priority, &item.Status, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// SetStatus updates an item's status. Any vocabulary value is accepted
// regardless of the current value; transition legality is a workflow
// concern, not a store invariant.
func (s *Store) SetStatus(ctx context.Context, id string, status types.Status, actor string) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q (recognized: %s)", status, statusValues())
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s not found", id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	oldValue := string(item.Status)
	newValue := string(status)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (item_id, event_type, actor, old_value, new_value)
		VALUES (?, ?, ?, ?, ?)
	`, id, types.EventStatusChanged, actor, oldValue, newValue); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return tx.Commit()
}

// SetPriority updates an item's priority level (1-5).
func (s *Store) SetPriority(ctx context.Context, id string, priority int, actor string) error {
	if !types.ValidPriority(priority) {
		return fmt.Errorf("priority must be between 1 and 5 (got %d)", priority)
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s not found", id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET priority = ?, updated_at = ? WHERE id = ?
	`, priority, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update priority: %w", err)
	}

	oldValue := fmt.Sprintf("%d", item.Priority)
	newValue := fmt.Sprintf("%d", priority)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (item_id, event_type, actor, old_value, new_value)
		VALUES (?, ?, ?, ?, ?)
	`, id, types.EventPriorityChanged, actor, oldValue, newValue); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return tx.Commit()
}

// AddDependency persists a validated edge. Graph-level validation
// (self-loop, unknown id, cycle) happens before this is called; the
// store's own checks are a second line of defense for referential
// integrity only.
func (s *Store) AddDependency(ctx context.Context, dep *types.Dependency, actor string) error {
	if dep.ItemID == dep.DependsOnID {
		return fmt.Errorf("item %s cannot depend on itself", dep.ItemID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range []string{dep.ItemID, dep.DependsOnID} {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check item %s: %w", id, err)
		}
		if exists == 0 {
			return fmt.Errorf("item %s not found", id)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO dependencies (item_id, depends_on_id, created_at, created_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(item_id, depends_on_id) DO NOTHING
	`, dep.ItemID, dep.DependsOnID, time.Now(), actor)
	if err != nil {
		return fmt.Errorf("failed to insert dependency: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		newValue := dep.DependsOnID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (item_id, event_type, actor, new_value)
			VALUES (?, ?, ?, ?)
		`, dep.ItemID, types.EventDependencyAdded, actor, newValue); err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
	}

	return tx.Commit()
}

// RemoveDependency deletes an edge. Removing an absent edge is a no-op.
func (s *Store) RemoveDependency(ctx context.Context, itemID, dependsOnID, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM dependencies WHERE item_id = ? AND depends_on_id = ?
	`, itemID, dependsOnID)
	if err != nil {
		return fmt.Errorf("failed to remove dependency: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		oldValue := dependsOnID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (item_id, event_type, actor, old_value)
			VALUES (?, ?, ?, ?)
		`, itemID, types.EventDependencyRemoved, actor, oldValue); err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
	}

	return tx.Commit()
}

// ListDependencies returns every edge, ordered for determinism.
func (s *Store) ListDependencies(ctx context.Context) ([]*types.Dependency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, depends_on_id, created_at, created_by
		FROM dependencies
		ORDER BY item_id ASC, depends_on_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	defer rows.Close()

	var deps []*types.Dependency
	for rows.Next() {
		var dep types.Dependency
		if err := rows.Scan(&dep.ItemID, &dep.DependsOnID, &dep.CreatedAt, &dep.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps = append(deps, &dep)
	}
	return deps, rows.Err()
}

// GetEvents returns the audit trail for an item or backlog id, newest
// first.
func (s *Store) GetEvents(ctx context.Context, itemID string, limit int) ([]*types.Event, error) {
	limitSQL := ""
	if limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, item_id, event_type, actor, old_value, new_value, comment, created_at
		FROM events
		WHERE item_id = ?
		ORDER BY created_at DESC, id DESC
		%s
	`, limitSQL), itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*types.Event
	for rows.Next() {
		var ev types.Event
		var oldValue, newValue, comment sql.NullString
		if err := rows.Scan(&ev.ID, &ev.ItemID, &ev.EventType, &ev.Actor,
			&oldValue, &newValue, &comment, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if oldValue.Valid {
			ev.OldValue = &oldValue.String
		}
		if newValue.Valid {
			ev.NewValue = &newValue.String
		}
		if comment.Valid {
			ev.Comment = &comment.String
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// GetStatistics returns aggregate counts over items, edges, and backlog.
func (s *Store) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{
		ByStatus:   make(map[types.Status]int),
		ByPriority: make(map[int]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, priority FROM items`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status types.Status
		var priority int
		if err := rows.Scan(&status, &priority); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		stats.TotalItems++
		stats.ByStatus[status]++
		stats.ByPriority[priority]++
		if status.IsTerminal() {
			stats.TerminalItems++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dependencies`).Scan(&stats.TotalEdges); err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backlog WHERE status = 'open'`).Scan(&stats.OpenBacklog); err != nil {
		return nil, fmt.Errorf("failed to count open backlog: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backlog WHERE status != 'open'`).Scan(&stats.ResolvedBacklog); err != nil {
		return nil, fmt.Errorf("failed to count resolved backlog: %w", err)
	}

	return stats, nil
}

// GetConfig gets a configuration value from the config table
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig sets a configuration value in the config table
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func statusValues() string {
	values := make([]string, 0, 10)
	for _, s := range types.AllStatuses() {
		values = append(values, string(s))
	}
	return strings.Join(values, ", ")
}
