package store

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// NewBackupFilename returns a UUID-suffixed filename so a manual backup
// triggered at the same moment as an automatic one never collides.
func NewBackupFilename(kind string) string {
	stamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("dayloop-%s-%s-%s.db", kind, stamp, uuid.NewString()[:8])
}

// BackupToFile snapshots the live database into destPath with SQLite's
// online VACUUM INTO, which is safe to run against a database under
// concurrent WAL writes, and reports the resulting file's size for the
// caller to record alongside the Backup row.
func (s *Store) BackupToFile(destPath string) (int64, error) {
	if _, err := s.db.Exec(`VACUUM INTO ?`, destPath); err != nil {
		return 0, fmt.Errorf("vacuum into %s: %w", destPath, err)
	}
	info, err := os.Stat(destPath)
	if err != nil {
		return 0, fmt.Errorf("stat backup %s: %w", destPath, err)
	}
	return info.Size(), nil
}

func (s *Store) CreateBackup(b Backup) (*Backup, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO backups (filename, created_at, size_bytes, type, uploaded_offsite)
		 VALUES (?, ?, ?, ?, ?)`,
		b.Filename, now, b.SizeBytes, b.Type, boolToInt(b.UploadedOffsite),
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetBackup(id)
}

func (s *Store) GetBackup(id int64) (*Backup, error) {
	b := &Backup{}
	var createdAt string
	var uploadedOffsite int
	err := s.db.QueryRow(
		`SELECT id, filename, created_at, size_bytes, type, uploaded_offsite FROM backups WHERE id = ?`, id,
	).Scan(&b.ID, &b.Filename, &createdAt, &b.SizeBytes, &b.Type, &uploadedOffsite)
	if err != nil {
		return nil, fmt.Errorf("get backup %d: %w", id, err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UploadedOffsite = uploadedOffsite == 1
	return b, nil
}

func (s *Store) ListBackups() ([]Backup, error) {
	rows, err := s.db.Query(`SELECT id, filename, created_at, size_bytes, type, uploaded_offsite
		FROM backups ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var backups []Backup
	for rows.Next() {
		var b Backup
		var createdAt string
		var uploadedOffsite int
		if err := rows.Scan(&b.ID, &b.Filename, &createdAt, &b.SizeBytes, &b.Type, &uploadedOffsite); err != nil {
			return nil, err
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		b.UploadedOffsite = uploadedOffsite == 1
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// DeleteOldBackups keeps only the keepCount most recent rows, returning
// the deleted records so the caller (an external collaborator) can
// remove their files.
func (s *Store) DeleteOldBackups(keepCount int) ([]Backup, error) {
	all, err := s.ListBackups()
	if err != nil {
		return nil, err
	}
	if len(all) <= keepCount {
		return nil, nil
	}
	stale := all[keepCount:]
	for _, b := range stale {
		if _, err := s.db.Exec(`DELETE FROM backups WHERE id = ?`, b.ID); err != nil {
			return nil, fmt.Errorf("delete backup %d: %w", b.ID, err)
		}
	}
	return stale, nil
}

func (s *Store) DeleteBackup(id int64) error {
	res, err := s.db.Exec(`DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete backup %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("backup %d: %w", id, ErrNotFound)
	}
	return nil
}
