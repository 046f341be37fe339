package datectx

import (
	"testing"
	"time"

	"github.com/nsavage/dayloop/internal/store"
)

func mustLocal(t *testing.T, layout, value string) time.Time {
	t.Helper()
	loc := time.Local
	parsed, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

// ============================================================
// EffectiveDate
// ============================================================

func TestEffectiveDateBoundaryDisabled(t *testing.T) {
	now := mustLocal(t, "2006-01-02 15:04", "2026-01-10 23:50")
	got := EffectiveDate(now, false, "06:00")
	if got != "2026-01-10" {
		t.Fatalf("expected calendar date with boundary disabled, got %s", got)
	}
}

func TestEffectiveDateBeforeBoundary(t *testing.T) {
	now := mustLocal(t, "2006-01-02 15:04", "2026-01-10 02:00")
	got := EffectiveDate(now, true, "06:00")
	if got != "2026-01-09" {
		t.Fatalf("expected previous calendar date before boundary, got %s", got)
	}
}

func TestEffectiveDateAfterBoundary(t *testing.T) {
	now := mustLocal(t, "2006-01-02 15:04", "2026-01-10 06:01")
	got := EffectiveDate(now, true, "06:00")
	if got != "2026-01-10" {
		t.Fatalf("expected same calendar date after boundary, got %s", got)
	}
}

func TestEffectiveDateExactlyAtBoundary(t *testing.T) {
	now := mustLocal(t, "2006-01-02 15:04", "2026-01-10 06:00")
	got := EffectiveDate(now, true, "06:00")
	if got != "2026-01-10" {
		t.Fatalf("boundary instant itself should count as the new day, got %s", got)
	}
}

func TestEffectiveDateNonDecreasing(t *testing.T) {
	var prev string
	base := mustLocal(t, "2006-01-02 15:04", "2026-01-10 00:00")
	for i := 0; i < 48; i++ {
		now := base.Add(time.Duration(i) * time.Hour)
		got := EffectiveDate(now, true, "06:00")
		if prev != "" && got < prev {
			t.Fatalf("effective date decreased: %s then %s", prev, got)
		}
		prev = got
	}
}

// ============================================================
// IsNewDay
// ============================================================

func TestIsNewDayEmptyLastDate(t *testing.T) {
	now := mustLocal(t, "2006-01-02 15:04", "2026-01-10 12:00")
	if !IsNewDay(now, false, "", "") {
		t.Fatal("empty last date should always count as a new day")
	}
}

func TestIsNewDaySameDate(t *testing.T) {
	now := mustLocal(t, "2006-01-02 15:04", "2026-01-10 12:00")
	if IsNewDay(now, false, "", "2026-01-10") {
		t.Fatal("same effective date should not be a new day")
	}
}

func TestIsNewDayLaterDate(t *testing.T) {
	now := mustLocal(t, "2006-01-02 15:04", "2026-01-10 12:00")
	if !IsNewDay(now, false, "", "2026-01-09") {
		t.Fatal("later effective date should count as a new day")
	}
}

// ============================================================
// Recurrence advancement
// ============================================================

func TestNextOccurrenceDaily(t *testing.T) {
	next, ok, err := NextOccurrence(store.Recurrence{Type: store.RecurrenceDaily}, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || next != "2026-01-11" {
		t.Fatalf("expected 2026-01-11, got %s (ok=%v)", next, ok)
	}
}

func TestNextOccurrenceEveryNDays(t *testing.T) {
	next, ok, err := NextOccurrence(store.Recurrence{Type: store.RecurrenceEveryNDays, Interval: 3}, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || next != "2026-01-13" {
		t.Fatalf("expected 2026-01-13, got %s", next)
	}
}

func TestNextOccurrenceWeekly(t *testing.T) {
	// 2026-01-10 is a Saturday (weekday 6). Habit runs Mon/Wed/Fri (1,3,5).
	next, ok, err := NextOccurrence(store.Recurrence{Type: store.RecurrenceWeekly, DaysOfWeek: []int{1, 3, 5}}, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || next != "2026-01-12" { // the following Monday
		t.Fatalf("expected next Monday 2026-01-12, got %s", next)
	}
}

func TestNextOccurrenceNoneIsTerminal(t *testing.T) {
	_, ok, err := NextOccurrence(store.Recurrence{Type: store.RecurrenceNone}, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("none recurrence should report no next occurrence")
	}
}

func TestAdvanceUntilCaughtUpDaily(t *testing.T) {
	next, missed, terminal, err := AdvanceUntilCaughtUp(store.Recurrence{Type: store.RecurrenceDaily}, "2026-01-05", "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if terminal {
		t.Fatal("daily recurrence should never be terminal")
	}
	if next != "2026-01-10" {
		t.Fatalf("expected to catch up to 2026-01-10, got %s", next)
	}
	if len(missed) != 5 {
		t.Fatalf("expected 5 missed occurrences, got %d: %v", len(missed), missed)
	}
}

func TestAdvanceUntilCaughtUpAlreadyCurrent(t *testing.T) {
	next, missed, _, err := AdvanceUntilCaughtUp(store.Recurrence{Type: store.RecurrenceDaily}, "2026-01-10", "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if next != "2026-01-10" || len(missed) != 0 {
		t.Fatalf("expected no advancement when already current, got %s missed=%v", next, missed)
	}
}

func TestAdvanceUntilCaughtUpNoneTerminal(t *testing.T) {
	_, _, terminal, err := AdvanceUntilCaughtUp(store.Recurrence{Type: store.RecurrenceNone}, "2026-01-05", "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if !terminal {
		t.Fatal("a one-shot habit that fell behind should become terminal")
	}
}
