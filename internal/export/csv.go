package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/nsavage/dayloop/internal/store"
)

// ToWorkItemsCSV writes one row per work item — tasks and habits alike,
// habits carrying their habit-type and streak columns.
func ToWorkItemsCSV(items []store.WorkItem, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"ID", "Description", "Project", "Status", "Priority", "Energy",
		"DueDate", "IsHabit", "HabitType", "Streak", "TimeSpent", "CompletedAt",
	}); err != nil {
		return err
	}

	for _, it := range items {
		completedAt := ""
		if it.CompletedAt != nil {
			completedAt = it.CompletedAt.Local().Format(time.RFC3339)
		}
		row := []string{
			fmt.Sprintf("%d", it.ID),
			it.Description,
			it.Project,
			it.Status,
			fmt.Sprintf("%d", it.Priority),
			fmt.Sprintf("%d", it.Energy),
			it.DueDate,
			fmt.Sprintf("%t", it.IsHabit),
			it.HabitType,
			fmt.Sprintf("%d", it.Streak),
			formatDuration(it.TimeSpent),
			completedAt,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// ToLedgerCSV writes one row per day ledger in the range Roll and
// FinalizeDay have already produced.
func ToLedgerCSV(ledgers []store.DayLedger, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Date", "PointsEarned", "PointsPenalty", "DailyTotal",
		"TasksCompleted", "TasksPlanned", "HabitsCompleted", "HabitsTotal",
		"CompletionRate", "PenaltyStreak",
	}); err != nil {
		return err
	}

	for _, l := range ledgers {
		row := []string{
			l.Date,
			fmt.Sprintf("%d", l.PointsEarned),
			fmt.Sprintf("%d", l.PointsPenalty),
			fmt.Sprintf("%d", l.DailyTotal),
			fmt.Sprintf("%d", l.TasksCompleted),
			fmt.Sprintf("%d", l.TasksPlanned),
			fmt.Sprintf("%d", l.HabitsCompleted),
			fmt.Sprintf("%d", l.HabitsTotal),
			fmt.Sprintf("%.2f", l.CompletionRate),
			fmt.Sprintf("%d", l.PenaltyStreak),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
