package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nsavage/dayloop/internal/store"
)

type workItemsExport struct {
	ExportedAt string         `json:"exported_at"`
	Count      int            `json:"count"`
	Items      []jsonWorkItem `json:"items"`
}

type jsonWorkItem struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Project     string `json:"project"`
	Status      string `json:"status"`
	Priority    int    `json:"priority"`
	Energy      int    `json:"energy"`
	DueDate     string `json:"due_date,omitempty"`
	IsHabit     bool   `json:"is_habit"`
	HabitType   string `json:"habit_type,omitempty"`
	Streak      int    `json:"streak,omitempty"`
	TimeSpent   int64  `json:"time_spent_seconds"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// ToWorkItemsJSON mirrors ToWorkItemsCSV in a structured form.
func ToWorkItemsJSON(items []store.WorkItem, path string) error {
	out := workItemsExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(items),
	}

	for _, it := range items {
		completedAt := ""
		if it.CompletedAt != nil {
			completedAt = it.CompletedAt.Local().Format(time.RFC3339)
		}
		out.Items = append(out.Items, jsonWorkItem{
			ID:          it.ID,
			Description: it.Description,
			Project:     it.Project,
			Status:      it.Status,
			Priority:    it.Priority,
			Energy:      it.Energy,
			DueDate:     it.DueDate,
			IsHabit:     it.IsHabit,
			HabitType:   it.HabitType,
			Streak:      it.Streak,
			TimeSpent:   it.TimeSpent,
			CompletedAt: completedAt,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

type ledgerExport struct {
	ExportedAt string             `json:"exported_at"`
	Count      int                `json:"count"`
	Ledgers    []store.DayLedger  `json:"ledgers"`
}

// ToLedgerJSON dumps a date range of day ledgers verbatim — the struct
// already matches the shape an operator wants to chart externally.
func ToLedgerJSON(ledgers []store.DayLedger, path string) error {
	out := ledgerExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(ledgers),
		Ledgers:    ledgers,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
