package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WorkItemFilter narrows ListWorkItems, mirroring the teacher's
// dynamic WHERE-clause-building idiom for time entries.
type WorkItemFilter struct {
	Status  *string
	IsHabit *bool
	IsToday *bool
	Project *string
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row scanner) (*WorkItem, error) {
	w := &WorkItem{}
	var isHabit, isToday int
	var createdAt string
	var startedAt, completedAt, lastCompleted sql.NullString
	var dependsOn sql.NullInt64
	var recurrenceDays string

	err := row.Scan(
		&w.ID, &w.Description, &w.Project, &w.Priority, &w.Energy,
		&isHabit, &isToday, &w.Status, &w.DueDate, &createdAt,
		&startedAt, &completedAt, &w.TimeSpent, &dependsOn, &w.HabitType,
		&w.Recurrence.Type, &w.Recurrence.Interval, &recurrenceDays,
		&w.Streak, &lastCompleted, &w.DailyTarget, &w.DailyCompleted,
	)
	if err != nil {
		return nil, err
	}

	w.IsHabit = isHabit == 1
	w.IsToday = isToday == 1
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if startedAt.Valid {
		t, _ := time.Parse(time.RFC3339, startedAt.String)
		w.StartedAt = &t
	}
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		w.CompletedAt = &t
	}
	if dependsOn.Valid {
		w.DependsOn = &dependsOn.Int64
	}
	if lastCompleted.Valid {
		w.LastCompleted = &lastCompleted.String
	}
	w.Recurrence.DaysOfWeek = parseDaysOfWeek(recurrenceDays)
	return w, nil
}

func parseDaysOfWeek(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			days = append(days, n)
		}
	}
	return days
}

func formatDaysOfWeek(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

const workItemColumns = `id, description, project, priority, energy, is_habit, is_today,
	status, due_date, created_at, started_at, completed_at, time_spent, depends_on,
	habit_type, recurrence_type, recurrence_interval, recurrence_days, streak,
	last_completed, daily_target, daily_completed`

func (s *Store) CreateWorkItem(w WorkItem) (*WorkItem, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	if w.Status == "" {
		w.Status = StatusPending
	}
	if w.Recurrence.Type == "" {
		w.Recurrence.Type = RecurrenceNone
	}
	if w.DailyTarget == 0 {
		w.DailyTarget = 1
	}

	res, err := s.db.Exec(
		`INSERT INTO work_items (description, project, priority, energy, is_habit, is_today,
			status, due_date, created_at, depends_on, habit_type,
			recurrence_type, recurrence_interval, recurrence_days, streak,
			daily_target, daily_completed)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Description, w.Project, w.Priority, w.Energy, boolToInt(w.IsHabit),
		w.Status, w.DueDate, now, w.DependsOn, w.HabitType,
		w.Recurrence.Type, w.Recurrence.Interval, formatDaysOfWeek(w.Recurrence.DaysOfWeek),
		w.Streak, w.DailyTarget, w.DailyCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert work item: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetWorkItem(id)
}

func (s *Store) GetWorkItem(id int64) (*WorkItem, error) {
	row := s.db.QueryRow(`SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id)
	w, err := scanWorkItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("work item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get work item %d: %w", id, err)
	}
	return w, nil
}

func (s *Store) ListWorkItems(f WorkItemFilter) ([]WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE 1=1`
	var args []any

	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, *f.Status)
	}
	if f.IsHabit != nil {
		query += ` AND is_habit = ?`
		args = append(args, boolToInt(*f.IsHabit))
	}
	if f.IsToday != nil {
		query += ` AND is_today = ?`
		args = append(args, boolToInt(*f.IsToday))
	}
	if f.Project != nil {
		query += ` AND project = ?`
		args = append(args, *f.Project)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

// ListPendingNonHabits returns every pending, non-habit work item —
// the Planner's raw material for urgency scoring.
func (s *Store) ListPendingNonHabits() ([]WorkItem, error) {
	rows, err := s.db.Query(`SELECT `+workItemColumns+` FROM work_items
		WHERE status = ? AND is_habit = 0 ORDER BY id`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending non-habits: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

// ListTodayHabits returns habits due exactly on effectiveDate — derived
// purely from due_date, never a stored is_today flag (per the design
// note resolving how today's habits are materialized).
func (s *Store) ListTodayHabits(effectiveDate string) ([]WorkItem, error) {
	rows, err := s.db.Query(`SELECT `+workItemColumns+` FROM work_items
		WHERE is_habit = 1 AND due_date = ? ORDER BY id`, effectiveDate)
	if err != nil {
		return nil, fmt.Errorf("list today habits: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

// ListOverdueHabits returns habits whose due_date has passed effectiveDate
// without being completed — the Planner's purge-pass candidates.
func (s *Store) ListOverdueHabits(effectiveDate string) ([]WorkItem, error) {
	rows, err := s.db.Query(`SELECT `+workItemColumns+` FROM work_items
		WHERE is_habit = 1 AND due_date != '' AND due_date < ? AND status != ?
		ORDER BY id`, effectiveDate, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list overdue habits: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

// ListHabitsMissedOn returns habits whose due occurrence falls on or
// before date and is not yet completed — the finalize-penalty pass's
// missed-habit candidates.
func (s *Store) ListHabitsMissedOn(date string) ([]WorkItem, error) {
	rows, err := s.db.Query(`SELECT `+workItemColumns+` FROM work_items
		WHERE is_habit = 1 AND due_date != '' AND due_date <= ? AND status != ?
		ORDER BY id`, date, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list missed habits: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

func (s *Store) ListChosenToday() ([]WorkItem, error) {
	isToday := true
	return s.ListWorkItems(WorkItemFilter{IsToday: &isToday})
}

// ClearIsToday resets is_today on every non-habit item, the first step
// of a Roll.
func (s *Store) ClearIsToday() error {
	_, err := s.db.Exec(`UPDATE work_items SET is_today = 0 WHERE is_habit = 0`)
	return err
}

// SetIsToday marks the given item ids as chosen for today.
func (s *Store) SetIsToday(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, id := range ids {
		if _, err := tx.Exec(`UPDATE work_items SET is_today = 1 WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateWorkItem replaces every mutable field of the row identified by
// w.ID. Callers read-modify-write via GetWorkItem/UpdateWorkItem.
func (s *Store) UpdateWorkItem(w WorkItem) error {
	if w.DependsOn != nil {
		cyclic, err := s.WouldCreateCycle(w.ID, *w.DependsOn)
		if err != nil {
			return err
		}
		if cyclic {
			return fmt.Errorf("work item %d: %w", w.ID, ErrDependencyCycle)
		}
	}

	var startedAt, completedAt any
	if w.StartedAt != nil {
		startedAt = w.StartedAt.UTC().Format(time.RFC3339)
	}
	if w.CompletedAt != nil {
		completedAt = w.CompletedAt.UTC().Format(time.RFC3339)
	}

	res, err := s.db.Exec(
		`UPDATE work_items SET description = ?, project = ?, priority = ?, energy = ?,
			is_habit = ?, is_today = ?, status = ?, due_date = ?, started_at = ?,
			completed_at = ?, time_spent = ?, depends_on = ?, habit_type = ?,
			recurrence_type = ?, recurrence_interval = ?, recurrence_days = ?,
			streak = ?, last_completed = ?, daily_target = ?, daily_completed = ?
		 WHERE id = ?`,
		w.Description, w.Project, w.Priority, w.Energy, boolToInt(w.IsHabit),
		boolToInt(w.IsToday), w.Status, w.DueDate, startedAt, completedAt,
		w.TimeSpent, w.DependsOn, w.HabitType, w.Recurrence.Type,
		w.Recurrence.Interval, formatDaysOfWeek(w.Recurrence.DaysOfWeek),
		w.Streak, w.LastCompleted, w.DailyTarget, w.DailyCompleted, w.ID,
	)
	if err != nil {
		return fmt.Errorf("update work item %d: %w", w.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("work item %d: %w", w.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteWorkItem(id int64) error {
	res, err := s.db.Exec(`DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete work item %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("work item %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetActiveWorkItem returns the unique status=active item, or nil if
// none is active.
func (s *Store) GetActiveWorkItem() (*WorkItem, error) {
	row := s.db.QueryRow(`SELECT `+workItemColumns+` FROM work_items WHERE status = ? LIMIT 1`, StatusActive)
	w, err := scanWorkItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active work item: %w", err)
	}
	return w, nil
}

// DependencyReady reports whether w's dependency (if any) is either
// absent, already completed, or itself chosen for today — the same-day
// exception that makes dependency chains usable within one day.
func (s *Store) DependencyReady(w *WorkItem) (bool, error) {
	if w.DependsOn == nil {
		return true, nil
	}
	dep, err := s.GetWorkItem(*w.DependsOn)
	if err != nil {
		return false, err
	}
	return dep.Status == StatusCompleted || dep.IsToday, nil
}

// WouldCreateCycle walks the depends_on chain from candidateDependsOn
// back toward itemID; a cycle exists if itemID is reached. Used at
// create/update time per the design note recommending cycle rejection
// at edge creation.
func (s *Store) WouldCreateCycle(itemID, candidateDependsOn int64) (bool, error) {
	current := candidateDependsOn
	for {
		if current == itemID {
			return true, nil
		}
		item, err := s.GetWorkItem(current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if item.DependsOn == nil {
			return false, nil
		}
		current = *item.DependsOn
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
