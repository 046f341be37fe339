package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// DBPath returns the filesystem path the store was opened with, or
// ":memory:" for an in-memory store.
func (s *Store) DBPath() string { return s.dbPath }

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS work_items (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		description      TEXT NOT NULL,
		project          TEXT NOT NULL DEFAULT '',
		priority         INTEGER NOT NULL DEFAULT 0,
		energy           INTEGER NOT NULL DEFAULT 0,
		is_habit         INTEGER NOT NULL DEFAULT 0,
		is_today         INTEGER NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'pending',
		due_date         TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		started_at       TEXT,
		completed_at     TEXT,
		time_spent       INTEGER NOT NULL DEFAULT 0,
		depends_on       INTEGER REFERENCES work_items(id),
		habit_type       TEXT NOT NULL DEFAULT '',
		recurrence_type  TEXT NOT NULL DEFAULT 'none',
		recurrence_interval INTEGER NOT NULL DEFAULT 0,
		recurrence_days  TEXT NOT NULL DEFAULT '',
		streak           INTEGER NOT NULL DEFAULT 0,
		last_completed   TEXT,
		daily_target     INTEGER NOT NULL DEFAULT 1,
		daily_completed  INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_work_items_status   ON work_items(status);
	CREATE INDEX IF NOT EXISTS idx_work_items_is_habit ON work_items(is_habit);
	CREATE INDEX IF NOT EXISTS idx_work_items_due_date ON work_items(due_date);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS day_ledgers (
		date             TEXT PRIMARY KEY,
		points_earned    INTEGER NOT NULL DEFAULT 0,
		points_penalty   INTEGER NOT NULL DEFAULT 0,
		daily_total      INTEGER NOT NULL DEFAULT 0,
		tasks_completed  INTEGER NOT NULL DEFAULT 0,
		tasks_planned    INTEGER NOT NULL DEFAULT 0,
		habits_completed INTEGER NOT NULL DEFAULT 0,
		habits_total     INTEGER NOT NULL DEFAULT 0,
		completion_rate  REAL NOT NULL DEFAULT 0,
		penalty_streak   INTEGER NOT NULL DEFAULT 0,
		details          TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS goals (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		type               TEXT NOT NULL,
		target_points      INTEGER,
		project_name       TEXT,
		reward_description TEXT NOT NULL DEFAULT '',
		deadline           TEXT,
		achieved           INTEGER NOT NULL DEFAULT 0,
		achieved_date      TEXT,
		reward_claimed     INTEGER NOT NULL DEFAULT 0,
		reward_claimed_at  TEXT,
		created_at         TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS rest_days (
		date        TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS backups (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		filename         TEXT NOT NULL UNIQUE,
		created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		size_bytes       INTEGER NOT NULL DEFAULT 0,
		type             TEXT NOT NULL DEFAULT 'manual',
		uploaded_offsite INTEGER NOT NULL DEFAULT 0
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('max_tasks_per_day',         '10'),
		('critical_days',             '2'),
		('points_per_task_base',      '10'),
		('points_per_habit_base',     '10'),
		('routine_points_fixed',      '6'),
		('energy_mult_base',          '0.6'),
		('energy_mult_step',          '0.2'),
		('streak_log_factor',         '0.15'),
		('max_streak_bonus_days',     '100'),
		('minutes_per_energy_unit',   '20'),
		('min_work_time_seconds',     '120'),
		('time_efficiency_weight',    '0.5'),
		('completion_bonus_full',     '0.10'),
		('completion_bonus_good',     '0.05'),
		('idle_penalty',              '30'),
		('incomplete_day_penalty',    '10'),
		('incomplete_day_threshold',  '0.6'),
		('incomplete_threshold_severe','0.4'),
		('incomplete_penalty_severe', '15'),
		('missed_habit_penalty_base', '15'),
		('progressive_penalty_factor','0.1'),
		('progressive_penalty_max',   '1.5'),
		('penalty_streak_reset_days', '2'),
		('day_start_enabled',         'false'),
		('day_start_time',            '06:00'),
		('roll_available_time',       '00:00'),
		('auto_penalties_enabled',    'true'),
		('penalty_time',              '00:01'),
		('auto_roll_enabled',         'false'),
		('auto_roll_time',            '06:00'),
		('auto_backup_enabled',       'true'),
		('backup_time',               '03:00'),
		('backup_interval_days',      '1'),
		('backup_keep_local_count',   '10'),
		('last_roll_date',            ''),
		('last_penalty_date',         ''),
		('last_backup_date',          ''),
		('pending_roll',              'false'),
		('active_item_id',            '');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/dayloop/dayloop.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "dayloop", "dayloop.db"), nil
}
