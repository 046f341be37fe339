package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ActivateWorkItem enforces the single-active-item invariant: whatever
// item was active is flushed and returned to pending, and target
// becomes the new active item, all inside one transaction. Returns the
// item that was previously active (nil if none) and the newly active
// item.
func (s *Store) ActivateWorkItem(id int64, now time.Time) (previous *WorkItem, active *WorkItem, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin activate: %w", err)
	}
	defer tx.Rollback()

	var activeID sql.NullString
	if err := tx.QueryRow(`SELECT value FROM settings WHERE key = 'active_item_id'`).Scan(&activeID); err != nil {
		return nil, nil, fmt.Errorf("read active item: %w", err)
	}

	if activeID.Valid && activeID.String != "" {
		row := tx.QueryRow(`SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, activeID.String)
		prev, err := scanWorkItem(row)
		if err != nil && err != sql.ErrNoRows {
			return nil, nil, fmt.Errorf("read previously active item: %w", err)
		}
		if prev != nil && prev.StartedAt != nil {
			elapsed := int64(now.Sub(*prev.StartedAt).Seconds())
			if elapsed < 0 {
				elapsed = 0
			}
			prev.TimeSpent += elapsed
			prev.Status = StatusPending
			prev.StartedAt = nil
			if _, err := tx.Exec(
				`UPDATE work_items SET status = ?, started_at = NULL, time_spent = ? WHERE id = ?`,
				StatusPending, prev.TimeSpent, prev.ID,
			); err != nil {
				return nil, nil, fmt.Errorf("flush previous active item: %w", err)
			}
			previous = prev
		}
	}

	nowStr := now.UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`UPDATE work_items SET status = ?, started_at = ? WHERE id = ?`,
		StatusActive, nowStr, id,
	); err != nil {
		return nil, nil, fmt.Errorf("activate work item %d: %w", id, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO settings (key, value) VALUES ('active_item_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, id,
	); err != nil {
		return nil, nil, fmt.Errorf("record active item: %w", err)
	}

	row := tx.QueryRow(`SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id)
	active, err = scanWorkItem(row)
	if err != nil {
		return nil, nil, fmt.Errorf("read newly active item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit activate: %w", err)
	}
	return previous, active, nil
}

// DeactivateWorkItem flushes elapsed time on the unique active item and
// clears it, inside one transaction. Returns nil if no item was active.
func (s *Store) DeactivateWorkItem(now time.Time) (*WorkItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin deactivate: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+workItemColumns+` FROM work_items WHERE status = ? LIMIT 1`, StatusActive)
	active, err := scanWorkItem(row)
	if err == sql.ErrNoRows {
		return nil, tx.Commit()
	}
	if err != nil {
		return nil, fmt.Errorf("read active item: %w", err)
	}

	elapsed := int64(0)
	if active.StartedAt != nil {
		elapsed = int64(now.Sub(*active.StartedAt).Seconds())
		if elapsed < 0 {
			elapsed = 0
		}
	}
	active.TimeSpent += elapsed
	active.Status = StatusPending
	active.StartedAt = nil

	if _, err := tx.Exec(
		`UPDATE work_items SET status = ?, started_at = NULL, time_spent = ? WHERE id = ?`,
		StatusPending, active.TimeSpent, active.ID,
	); err != nil {
		return nil, fmt.Errorf("flush active item: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO settings (key, value) VALUES ('active_item_id', '')
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	); err != nil {
		return nil, fmt.Errorf("clear active item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit deactivate: %w", err)
	}
	return active, nil
}
