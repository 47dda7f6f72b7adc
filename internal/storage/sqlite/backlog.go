package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/deltatrack/dt/internal/types"
)

// CreateBacklogItem records a captured observation. When item.ID is empty
// an id is allocated from the type's counter (BUG-001, IDEA-002, ...).
func (s *Store) CreateBacklogItem(ctx context.Context, item *types.BacklogItem, actor string) error {
	if !item.Type.IsValid() {
		return fmt.Errorf("invalid backlog type %q", item.Type)
	}
	if item.Status == "" {
		item.Status = types.BacklogOpen
	}
	if item.Priority == 0 {
		item.Priority = types.DefaultPriority
	}
	item.CreatedAt = time.Now()

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
			INSERT INTO backlog_counters (type, last_id) VALUES (?, 1)
			ON CONFLICT(type) DO UPDATE SET last_id = last_id + 1
			RETURNING last_id
		`, item.Type).Scan(&nextID)
		if err != nil {
			return fmt.Errorf("failed to allocate backlog id: %w", err)
		}
		item.ID = fmt.Sprintf("%s-%03d", item.Type, nextID)
	}

	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	related, err := json.Marshal(item.Related)
	if err != nil {
		return fmt.Errorf("failed to marshal related ids: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO backlog (id, type, title, priority, related, notes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Type, item.Title, item.Priority, string(related), item.Notes,
		item.Status, item.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("backlog item %s already exists", item.ID)
		}
		return fmt.Errorf("failed to insert backlog item: %w", err)
	}

	newValue := item.Title
	_, err = conn.ExecContext(ctx, `
		INSERT INTO events (item_id, event_type, actor, new_value)
		VALUES (?, ?, ?, ?)
	`, item.ID, types.EventBacklogCreated, actor, newValue)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

// GetBacklogItem retrieves a backlog item by id, nil when absent.
func (s *Store) GetBacklogItem(ctx context.Context, id string) (*types.BacklogItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, title, priority, related, notes, status,
		       duplicate_of, promoted_to, resolution, created_at, resolved_at
		FROM backlog WHERE id = ?
	`, id)
	item, err := scanBacklogRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backlog item: %w", err)
	}
	return item, nil
}

// ListBacklog returns backlog items, optionally filtered by type and
// status, ordered by id.
func (s *Store) ListBacklog(ctx context.Context, filter types.BacklogFilter) ([]*types.BacklogItem, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Type != nil {
		whereClauses = append(whereClauses, "type = ?")
		args = append(args, *filter.Type)
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, *filter.Status)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, type, title, priority, related, notes, status,
		       duplicate_of, promoted_to, resolution, created_at, resolved_at
		FROM backlog
		%s
		ORDER BY id ASC
	`, whereSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlog: %w", err)
	}
	defer rows.Close()

	var items []*types.BacklogItem
	for rows.Next() {
		item, err := scanBacklogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backlog item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ResolveBacklogItem moves an open backlog item to a resolved status.
// Resolution is one-way: an already resolved item cannot be resolved
// again. Duplicate resolutions must point at an existing item that is
// not itself a duplicate, so duplicate_of references never chain.
func (s *Store) ResolveBacklogItem(ctx context.Context, id string, status types.BacklogStatus, target, resolution, actor string) error {
	if !status.IsValid() || status == types.BacklogOpen {
		return fmt.Errorf("invalid resolution status %q", status)
	}

	item, err := s.GetBacklogItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("backlog item %s not found", id)
	}
	if item.Status.IsResolved() {
		return fmt.Errorf("backlog item %s is already resolved (%s)", id, item.Status)
	}

	var duplicateOf, promotedTo sql.NullString
	switch status {
	case types.BacklogDuplicate:
		if target == "" {
			return fmt.Errorf("duplicate resolution requires a target backlog id")
		}
		if target == id {
			return fmt.Errorf("backlog item %s cannot be a duplicate of itself", id)
		}
		canonical, err := s.GetBacklogItem(ctx, target)
		if err != nil {
			return err
		}
		if canonical == nil {
			return fmt.Errorf("duplicate target %s not found", target)
		}
		if canonical.Status == types.BacklogDuplicate {
			return fmt.Errorf("duplicate target %s is itself a duplicate of %s; point at the canonical item", target, canonical.DuplicateOf)
		}
		duplicateOf = sql.NullString{String: target, Valid: true}
	case types.BacklogPromoted:
		if target == "" {
			return fmt.Errorf("promotion requires a work item id")
		}
		promoted, err := s.GetItem(ctx, target)
		if err != nil {
			return err
		}
		if promoted == nil {
			return fmt.Errorf("work item %s not found", target)
		}
		promotedTo = sql.NullString{String: target, Valid: true}
	default:
		if target != "" {
			return fmt.Errorf("resolution %s does not take a target", status)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE backlog
		SET status = ?, duplicate_of = ?, promoted_to = ?, resolution = ?, resolved_at = ?
		WHERE id = ?
	`, status, duplicateOf, promotedTo, resolution, now, id); err != nil {
		return fmt.Errorf("failed to resolve backlog item: %w", err)
	}

	oldValue := string(types.BacklogOpen)
	newValue := string(status)
	if target != "" {
		newValue = newValue + ":" + target
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (item_id, event_type, actor, old_value, new_value)
		VALUES (?, ?, ?, ?, ?)
	`, id, types.EventBacklogResolved, actor, oldValue, newValue); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBacklogRow(row rowScanner) (*types.BacklogItem, error) {
	var item types.BacklogItem
	var related string
	var duplicateOf, promotedTo sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(
		&item.ID, &item.Type, &item.Title, &item.Priority, &related, &item.Notes,
		&item.Status, &duplicateOf, &promotedTo, &item.Resolution,
		&item.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if related != "" && related != "null" {
		if err := json.Unmarshal([]byte(related), &item.Related); err != nil {
			return nil, fmt.Errorf("failed to parse related ids for %s: %w", item.ID, err)
		}
	}
	item.DuplicateOf = duplicateOf.String
	item.PromotedTo = promotedTo.String
	if resolvedAt.Valid {
		item.ResolvedAt = &resolvedAt.Time
	}
	return &item, nil
}
