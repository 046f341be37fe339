package store

import (
	"database/sql"
	"fmt"
)

const dayLedgerColumns = `date, points_earned, points_penalty, daily_total, tasks_completed,
	tasks_planned, habits_completed, habits_total, completion_rate, penalty_streak, details`

func scanDayLedger(row scanner) (*DayLedger, error) {
	l := &DayLedger{}
	err := row.Scan(
		&l.Date, &l.PointsEarned, &l.PointsPenalty, &l.DailyTotal, &l.TasksCompleted,
		&l.TasksPlanned, &l.HabitsCompleted, &l.HabitsTotal, &l.CompletionRate,
		&l.PenaltyStreak, &l.Details,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetDayLedger returns the ledger row for date, or a freshly zeroed one
// (not yet persisted) if none exists — DayLedgers are created lazily on
// the first scoring event of a date.
func (s *Store) GetDayLedger(date string) (*DayLedger, error) {
	row := s.db.QueryRow(`SELECT `+dayLedgerColumns+` FROM day_ledgers WHERE date = ?`, date)
	l, err := scanDayLedger(row)
	if err == sql.ErrNoRows {
		return &DayLedger{Date: date, Details: "{}"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day ledger %s: %w", date, err)
	}
	return l, nil
}

// UpsertDayLedger creates or overwrites the row for l.Date.
func (s *Store) UpsertDayLedger(l DayLedger) error {
	if l.Details == "" {
		l.Details = "{}"
	}
	_, err := s.db.Exec(
		`INSERT INTO day_ledgers (date, points_earned, points_penalty, daily_total,
			tasks_completed, tasks_planned, habits_completed, habits_total,
			completion_rate, penalty_streak, details)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
			points_earned = excluded.points_earned,
			points_penalty = excluded.points_penalty,
			daily_total = excluded.daily_total,
			tasks_completed = excluded.tasks_completed,
			tasks_planned = excluded.tasks_planned,
			habits_completed = excluded.habits_completed,
			habits_total = excluded.habits_total,
			completion_rate = excluded.completion_rate,
			penalty_streak = excluded.penalty_streak,
			details = excluded.details`,
		l.Date, l.PointsEarned, l.PointsPenalty, l.DailyTotal, l.TasksCompleted,
		l.TasksPlanned, l.HabitsCompleted, l.HabitsTotal, l.CompletionRate,
		l.PenaltyStreak, l.Details,
	)
	if err != nil {
		return fmt.Errorf("upsert day ledger %s: %w", l.Date, err)
	}
	return nil
}

// ListDayLedgers returns ledgers in [from, to) date order, ascending —
// used by Scoring.history and by the projection algorithm's trailing
// window.
func (s *Store) ListDayLedgers(from, to string) ([]DayLedger, error) {
	rows, err := s.db.Query(`SELECT `+dayLedgerColumns+` FROM day_ledgers
		WHERE date >= ? AND date < ? ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list day ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []DayLedger
	for rows.Next() {
		l, err := scanDayLedger(rows)
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, *l)
	}
	return ledgers, rows.Err()
}

// DayLedgerExists reports whether date has a persisted row, as opposed
// to the zeroed stand-in GetDayLedger returns for a missing one —
// needed by the penalty-streak reset window, which must distinguish
// "no day recorded" from "a day recorded with zero penalty".
func (s *Store) DayLedgerExists(date string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM day_ledgers WHERE date = ?`, date).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check day ledger %s: %w", date, err)
	}
	return count > 0, nil
}

// TotalScore sums daily_total across every ledger row — the live total
// score, never a cached field (see the design note on cumulative-total
// propagation).
func (s *Store) TotalScore() (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(daily_total), 0) FROM day_ledgers`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total score: %w", err)
	}
	return int(total.Int64), nil
}
