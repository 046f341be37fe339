// Package scheduler drives the automatic roll, penalty-finalize, and
// backup jobs on a wall-clock cadence (spec.md §4.6).
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/planner"
	"github.com/nsavage/dayloop/internal/scoring"
	"github.com/nsavage/dayloop/internal/store"
)

const (
	jobAutoRoll      = "check_auto_roll"
	jobAutoPenalties = "check_auto_penalties"
	jobAutoBackup    = "check_auto_backup"
)

// JobStats tracks one job's lifetime counters, mirroring the original's
// in-process scheduler_stats dict.
type JobStats struct {
	Checks        int
	Executions    int
	LastCheck     time.Time
	LastExecution time.Time
	LastError     string
}

// Status is a point-in-time snapshot for an operator surface (TUI status
// line, `dayloop scheduler status`, etc).
type Status struct {
	Running   bool
	StartedAt time.Time
	Uptime    time.Duration
	Jobs      map[string]JobStats
}

// Scheduler polls its three jobs once a second; each job function
// independently decides whether it is actually due, the same shape as
// the original's per-minute APScheduler crons polling at finer
// granularity than their own trigger condition.
type Scheduler struct {
	store     *store.Store
	logger    *log.Logger
	backupDir string

	mu        sync.Mutex
	startedAt time.Time
	running   bool
	jobs      map[string]*JobStats
}

// New builds a Scheduler. backupDir is where BackupToFile snapshots are
// written; logger defaults to log.Default() when nil.
func New(s *store.Store, backupDir string, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		store:     s,
		logger:    logger,
		backupDir: backupDir,
		jobs: map[string]*JobStats{
			jobAutoRoll:      {},
			jobAutoPenalties: {},
			jobAutoBackup:    {},
		},
	}
}

// Run blocks, polling every job once a second, until ctx is canceled.
// Each tick runs synchronously so a cancellation between ticks never
// interrupts a job partway through.
func (sch *Scheduler) Run(ctx context.Context) {
	sch.mu.Lock()
	sch.startedAt = time.Now()
	sch.running = true
	sch.mu.Unlock()
	sch.logger.Println("scheduler: started")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sch.mu.Lock()
			sch.running = false
			sch.mu.Unlock()
			sch.logger.Println("scheduler: stopped")
			return
		case now := <-ticker.C:
			sch.tick(now)
		}
	}
}

func (sch *Scheduler) tick(now time.Time) {
	sch.checkAutoRoll(now)
	sch.checkAutoPenalties(now)
	sch.checkAutoBackup(now)
}

// Status returns a snapshot of the scheduler's running state and
// per-job counters.
func (sch *Scheduler) Status() Status {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	jobs := make(map[string]JobStats, len(sch.jobs))
	for name, stats := range sch.jobs {
		jobs[name] = *stats
	}
	var uptime time.Duration
	if sch.running {
		uptime = time.Since(sch.startedAt)
	}
	return Status{
		Running:   sch.running,
		StartedAt: sch.startedAt,
		Uptime:    uptime,
		Jobs:      jobs,
	}
}

func (sch *Scheduler) recordCheck(name string, now time.Time) *JobStats {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	stats := sch.jobs[name]
	stats.Checks++
	stats.LastCheck = now
	return stats
}

func (sch *Scheduler) recordExecution(name string, now time.Time) {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	stats := sch.jobs[name]
	stats.Executions++
	stats.LastExecution = now
}

func (sch *Scheduler) recordError(name string, err error) {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	sch.jobs[name].LastError = err.Error()
}

// checkAutoRoll fires planner.Roll once the effective date has changed
// and (when day-start shifting is off) the configured auto_roll_time
// has passed — grounded on check_auto_roll.
func (sch *Scheduler) checkAutoRoll(now time.Time) {
	sch.recordCheck(jobAutoRoll, now)

	settings, err := sch.store.GetSettings()
	if err != nil {
		sch.recordError(jobAutoRoll, err)
		return
	}
	if !settings.AutoRollEnabled {
		return
	}

	today := datectx.EffectiveDate(now, settings.DayStartEnabled, settings.DayStartTime)
	if settings.LastRollDate == today {
		return
	}

	shouldCheckTime := !settings.DayStartEnabled
	currentTime := now.Local().Format("15:04")
	if shouldCheckTime && currentTime < settings.AutoRollTime {
		return
	}

	if _, err := planner.Roll(sch.store, now, nil); err != nil {
		if errors.Is(err, store.ErrRollAlreadyDone) || errors.Is(err, store.ErrRollNotAvailable) {
			return
		}
		sch.logger.Printf("scheduler: auto-roll failed: %v", err)
		sch.recordError(jobAutoRoll, err)
		return
	}
	sch.recordExecution(jobAutoRoll, now)
	sch.logger.Printf("scheduler: auto-roll executed for %s", today)
}

// checkAutoPenalties finalizes the prior effective date at the exact
// configured minute — grounded on check_auto_penalties, which fires
// penalties ahead of the user's own roll so the ledger is settled by
// the time they wake up.
func (sch *Scheduler) checkAutoPenalties(now time.Time) {
	sch.recordCheck(jobAutoPenalties, now)

	settings, err := sch.store.GetSettings()
	if err != nil {
		sch.recordError(jobAutoPenalties, err)
		return
	}
	if !settings.AutoPenaltiesEnabled {
		return
	}
	if now.Local().Format("15:04") != settings.PenaltyTime {
		return
	}

	today := datectx.EffectiveDate(now, settings.DayStartEnabled, settings.DayStartTime)
	yesterday, err := datectx.AddDays(today, -1)
	if err != nil {
		sch.recordError(jobAutoPenalties, err)
		return
	}

	if _, err := scoring.FinalizeDay(sch.store, yesterday); err != nil {
		if errors.Is(err, store.ErrAlreadyFinalized) {
			return
		}
		sch.logger.Printf("scheduler: auto-penalties failed: %v", err)
		sch.recordError(jobAutoPenalties, err)
		return
	}
	sch.recordExecution(jobAutoPenalties, now)
	sch.logger.Printf("scheduler: penalties finalized for %s", yesterday)
}

// checkAutoBackup snapshots the database at the configured minute, no
// more often than backup_interval_days, then prunes local backups down
// to backup_keep_local_count — grounded on check_auto_backup (the
// Google Drive upload branch has no Go SDK anywhere in the pack; see
// DESIGN.md).
func (sch *Scheduler) checkAutoBackup(now time.Time) {
	sch.recordCheck(jobAutoBackup, now)

	settings, err := sch.store.GetSettings()
	if err != nil {
		sch.recordError(jobAutoBackup, err)
		return
	}
	if !settings.AutoBackupEnabled {
		return
	}
	if now.Local().Format("15:04") != settings.BackupTime {
		return
	}

	today := datectx.EffectiveDate(now, settings.DayStartEnabled, settings.DayStartTime)
	if settings.LastBackupDate != "" {
		days, err := datectx.DaysBetween(settings.LastBackupDate, today)
		if err == nil && days < settings.BackupIntervalDays {
			return
		}
	}

	if err := os.MkdirAll(sch.backupDir, 0o755); err != nil {
		sch.recordError(jobAutoBackup, err)
		return
	}
	filename := store.NewBackupFilename(store.BackupAuto)
	dest := filepath.Join(sch.backupDir, filename)
	size, err := sch.store.BackupToFile(dest)
	if err != nil {
		sch.logger.Printf("scheduler: auto-backup failed: %v", err)
		sch.recordError(jobAutoBackup, err)
		return
	}
	if _, err := sch.store.CreateBackup(store.Backup{Filename: filename, SizeBytes: size, Type: store.BackupAuto}); err != nil {
		sch.recordError(jobAutoBackup, err)
		return
	}

	settings.LastBackupDate = today
	if err := sch.store.UpdateSettings(settings); err != nil {
		sch.recordError(jobAutoBackup, err)
		return
	}

	if deleted, err := sch.store.DeleteOldBackups(settings.BackupKeepLocalCount); err != nil {
		sch.recordError(jobAutoBackup, err)
	} else {
		for _, b := range deleted {
			if rmErr := os.Remove(filepath.Join(sch.backupDir, b.Filename)); rmErr != nil && !os.IsNotExist(rmErr) {
				sch.logger.Printf("scheduler: failed to remove pruned backup %s: %v", b.Filename, rmErr)
			}
		}
	}

	sch.recordExecution(jobAutoBackup, now)
	sch.logger.Printf("scheduler: auto-backup %s (%s, %d bytes)", filename, fmt.Sprintf("keep=%d", settings.BackupKeepLocalCount), size)
}
