package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nsavage/dayloop/internal/store"
)

func sampleItems() []store.WorkItem {
	now := time.Now().UTC()
	done := now
	last := "2026-01-09"

	return []store.WorkItem{
		{
			ID:          1,
			Description: "Ship the release",
			Project:     "Alpha",
			Status:      store.StatusCompleted,
			Priority:    8,
			Energy:      3,
			DueDate:     "2026-01-10",
			TimeSpent:   3600,
			CompletedAt: &done,
		},
		{
			ID:            2,
			Description:   "Stretch",
			Project:       "Health",
			Status:        store.StatusPending,
			IsHabit:       true,
			HabitType:     store.HabitRoutine,
			DueDate:       "2026-01-10",
			Streak:        5,
			LastCompleted: &last,
		},
		{
			ID:          3,
			Description: "Unfinished",
			Project:     "Alpha",
			Status:      store.StatusActive,
			TimeSpent:   0,
		},
	}
}

func sampleLedgers() []store.DayLedger {
	return []store.DayLedger{
		{Date: "2026-01-09", PointsEarned: 40, PointsPenalty: 5, DailyTotal: 35, TasksCompleted: 3, TasksPlanned: 4, HabitsCompleted: 1, HabitsTotal: 1, CompletionRate: 0.75, PenaltyStreak: 0},
		{Date: "2026-01-10", PointsEarned: 20, PointsPenalty: 0, DailyTotal: 20, TasksCompleted: 2, TasksPlanned: 2, HabitsCompleted: 1, HabitsTotal: 1, CompletionRate: 1.0, PenaltyStreak: 0},
	}
}

// ============================================================
// CSV — work items
// ============================================================

func TestToWorkItemsCSV(t *testing.T) {
	items := sampleItems()
	path := filepath.Join(t.TempDir(), "items.csv")

	if err := ToWorkItemsCSV(items, path); err != nil {
		t.Fatalf("ToWorkItemsCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 items), got %d", len(records))
	}

	header := records[0]
	expectedHeader := []string{"ID", "Description", "Project", "Status", "Priority", "Energy",
		"DueDate", "IsHabit", "HabitType", "Streak", "TimeSpent", "CompletedAt"}
	for i, h := range expectedHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "1" || row[1] != "Ship the release" {
		t.Fatalf("unexpected first row: %v", row)
	}
	if row[10] != "01:00:00" {
		t.Fatalf("TimeSpent = %q, want 01:00:00", row[10])
	}

	habitRow := records[2]
	if habitRow[7] != "true" || habitRow[8] != store.HabitRoutine {
		t.Fatalf("habit row not carrying habit columns: %v", habitRow)
	}
	if habitRow[9] != "5" {
		t.Fatalf("Streak = %q, want 5", habitRow[9])
	}
}

func TestToWorkItemsCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToWorkItemsCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r := csv.NewReader(f)
	records, _ := r.ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToWorkItemsCSVBadPath(t *testing.T) {
	if err := ToWorkItemsCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToWorkItemsCSVSpecialCharacters(t *testing.T) {
	items := []store.WorkItem{
		{ID: 1, Description: `has "quotes" and, commas`, Project: "A"},
	}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToWorkItemsCSV(items, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][1] != `has "quotes" and, commas` {
		t.Fatalf("description mangled: %q", records[1][1])
	}
}

// ============================================================
// CSV — day ledgers
// ============================================================

func TestToLedgerCSV(t *testing.T) {
	ledgers := sampleLedgers()
	path := filepath.Join(t.TempDir(), "ledgers.csv")

	if err := ToLedgerCSV(ledgers, path); err != nil {
		t.Fatalf("ToLedgerCSV: %v", err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 ledgers), got %d", len(records))
	}
	if records[1][0] != "2026-01-09" || records[1][3] != "35" {
		t.Fatalf("unexpected ledger row: %v", records[1])
	}
}

// ============================================================
// JSON — work items
// ============================================================

func TestToWorkItemsJSON(t *testing.T) {
	items := sampleItems()
	path := filepath.Join(t.TempDir(), "items.json")

	if err := ToWorkItemsJSON(items, path); err != nil {
		t.Fatalf("ToWorkItemsJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result workItemsExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 {
		t.Fatalf("count = %d, want 3", result.Count)
	}
	if len(result.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(result.Items))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	it := result.Items[0]
	if it.ID != 1 || it.Description != "Ship the release" {
		t.Fatalf("unexpected first item: %+v", it)
	}
	if it.CompletedAt == "" {
		t.Fatal("completed item should carry completed_at")
	}

	unfinished := result.Items[2]
	if unfinished.CompletedAt != "" {
		t.Fatalf("active item should have empty completed_at, got %q", unfinished.CompletedAt)
	}
}

func TestToWorkItemsJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToWorkItemsJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result workItemsExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Items != nil {
		t.Fatal("items should be nil/null for empty export")
	}
}

func TestToWorkItemsJSONBadPath(t *testing.T) {
	if err := ToWorkItemsJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToWorkItemsJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToWorkItemsJSON(nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToWorkItemsJSONValidTimestamps(t *testing.T) {
	items := sampleItems()
	path := filepath.Join(t.TempDir(), "ts.json")
	ToWorkItemsJSON(items, path)

	data, _ := os.ReadFile(path)
	var result workItemsExport
	json.Unmarshal(data, &result)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	if _, err := time.Parse(time.RFC3339, result.Items[0].CompletedAt); err != nil {
		t.Fatalf("completed_at is not valid RFC3339: %q", result.Items[0].CompletedAt)
	}
}

// ============================================================
// JSON — day ledgers
// ============================================================

func TestToLedgerJSON(t *testing.T) {
	ledgers := sampleLedgers()
	path := filepath.Join(t.TempDir(), "ledgers.json")

	if err := ToLedgerJSON(ledgers, path); err != nil {
		t.Fatalf("ToLedgerJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result ledgerExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("count = %d, want 2", result.Count)
	}
	if result.Ledgers[0].Date != "2026-01-09" {
		t.Fatalf("unexpected first ledger: %+v", result.Ledgers[0])
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
		{90061, "25:01:01"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
