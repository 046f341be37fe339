package worktracker

import (
	"errors"
	"testing"
	"time"

	"github.com/nsavage/dayloop/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Start / single-active-item invariant
// ============================================================

func TestStart_ActivatesItem(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	w, err := s.CreateWorkItem(store.WorkItem{Description: "write report", Energy: 3})
	if err != nil {
		t.Fatal(err)
	}

	active, err := tr.Start(w.ID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if active.Status != store.StatusActive {
		t.Fatalf("expected status active, got %s", active.Status)
	}
}

func TestStart_SwapsOutPreviousActive(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	a, _ := s.CreateWorkItem(store.WorkItem{Description: "a", Energy: 1})
	b, _ := s.CreateWorkItem(store.WorkItem{Description: "b", Energy: 1})

	now := time.Now()
	if _, err := tr.Start(a.ID, now); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Start(b.ID, now.Add(10*time.Second)); err != nil {
		t.Fatal(err)
	}

	gotA, err := s.GetWorkItem(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotA.Status != store.StatusPending {
		t.Fatalf("expected a to be flushed back to pending, got %s", gotA.Status)
	}
	if gotA.TimeSpent < 10 {
		t.Fatalf("expected ~10s flushed onto a, got %d", gotA.TimeSpent)
	}

	gotB, err := s.GetWorkItem(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotB.Status != store.StatusActive {
		t.Fatalf("expected b active, got %s", gotB.Status)
	}
}

// ============================================================
// Round-trip law: start-then-stop-without-complete
// ============================================================

func TestStartThenStopWithoutComplete_LeavesPendingWithElapsed(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	w, _ := s.CreateWorkItem(store.WorkItem{Description: "a", Energy: 1})

	start := time.Now()
	if _, err := tr.Start(w.ID, start); err != nil {
		t.Fatal(err)
	}
	stop := start.Add(30 * time.Second)
	if _, err := tr.Stop(stop); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetWorkItem(w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}
	if got.TimeSpent != 30 {
		t.Fatalf("expected time_spent=30, got %d", got.TimeSpent)
	}
}

func TestStop_NoneActiveIsNoOp(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	got, err := tr.Stop(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

// ============================================================
// S5 — dependency block
// ============================================================

func TestStart_BlockedByIncompleteDependency(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	a, _ := s.CreateWorkItem(store.WorkItem{Description: "a", Energy: 1})
	b, _ := s.CreateWorkItem(store.WorkItem{Description: "b", Energy: 1, DependsOn: &a.ID})

	_, err := tr.Start(b.ID, time.Now())
	if !errors.Is(err, store.ErrDependencyNotMet) {
		t.Fatalf("expected ErrDependencyNotMet, got %v", err)
	}

	// Same-day exception: adding A to today's plan unblocks B.
	a.IsToday = true
	if err := s.UpdateWorkItem(*a); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Start(b.ID, time.Now()); err != nil {
		t.Fatalf("expected start to succeed once the dependency is in today's plan: %v", err)
	}
}

func TestStart_SucceedsWhenDependencyCompleted(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	a, _ := s.CreateWorkItem(store.WorkItem{Description: "a", Energy: 1})
	b, _ := s.CreateWorkItem(store.WorkItem{Description: "b", Energy: 1, DependsOn: &a.ID})

	a.Status = store.StatusCompleted
	if err := s.UpdateWorkItem(*a); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Start(b.ID, time.Now()); err != nil {
		t.Fatalf("expected start to succeed once the dependency is completed: %v", err)
	}
}

// ============================================================
// Complete — non-habit
// ============================================================

func TestComplete_NonHabitRewardsAndMarksCompleted(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	w, _ := s.CreateWorkItem(store.WorkItem{Description: "a", Energy: 3})

	start := time.Now()
	if _, err := tr.Start(w.ID, start); err != nil {
		t.Fatal(err)
	}
	completeAt := start.Add(3600 * time.Second)
	item, points, err := tr.Complete(&w.ID, completeAt, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", item.Status)
	}
	if points != 12 {
		t.Fatalf("expected 12 points (S1), got %d", points)
	}
}

func TestComplete_DefaultsToActiveItemWhenIDNil(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	w, _ := s.CreateWorkItem(store.WorkItem{Description: "a", Energy: 1})
	if _, err := tr.Start(w.ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	item, _, err := tr.Complete(nil, time.Now(), "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != w.ID {
		t.Fatalf("expected the active item %d to be completed, got %d", w.ID, item.ID)
	}
}

func TestComplete_NoActiveItemAndNilIDIsNotFound(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	_, _, err := tr.Complete(nil, time.Now(), "2026-01-10")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Complete — habit cascade
// ============================================================

func TestComplete_HabitReachesTargetAndAdvancesRecurrence(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	w, err := s.CreateWorkItem(store.WorkItem{
		Description: "pushups", IsHabit: true, HabitType: store.HabitSkill,
		Energy: 3, DueDate: "2026-01-10", DailyTarget: 1,
		Recurrence: store.Recurrence{Type: store.RecurrenceDaily},
		Streak:     4,
	})
	if err != nil {
		t.Fatal(err)
	}

	item, points, err := tr.Complete(&w.ID, time.Now(), "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if points != 16 {
		t.Fatalf("expected 16 points (S4), got %d", points)
	}
	if item.Status != store.StatusPending {
		t.Fatalf("expected habit reset to pending for its next occurrence, got %s", item.Status)
	}
	if item.DueDate != "2026-01-11" {
		t.Fatalf("expected due_date advanced to 2026-01-11, got %s", item.DueDate)
	}
	if item.Streak != 5 {
		t.Fatalf("expected streak advanced to 5, got %d", item.Streak)
	}
	if item.DailyCompleted != 0 {
		t.Fatalf("expected daily_completed reset to 0, got %d", item.DailyCompleted)
	}
}

func TestComplete_HabitPartialInstanceNoRewardYet(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	w, err := s.CreateWorkItem(store.WorkItem{
		Description: "glasses of water", IsHabit: true, HabitType: store.HabitRoutine,
		DueDate: "2026-01-10", DailyTarget: 8,
	})
	if err != nil {
		t.Fatal(err)
	}

	item, points, err := tr.Complete(&w.ID, time.Now(), "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if points != 0 {
		t.Fatalf("expected no reward for a partial instance, got %d", points)
	}
	if item.DailyCompleted != 1 {
		t.Fatalf("expected daily_completed=1, got %d", item.DailyCompleted)
	}
	if item.Status != store.StatusPending {
		t.Fatalf("expected status to remain pending until target reached, got %s", item.Status)
	}
}

func TestComplete_OneShotHabitTerminalWhenRecurrenceNone(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	w, err := s.CreateWorkItem(store.WorkItem{
		Description: "one-time milestone", IsHabit: true, HabitType: store.HabitRoutine,
		DueDate: "2026-01-10", DailyTarget: 1,
		Recurrence: store.Recurrence{Type: store.RecurrenceNone},
	})
	if err != nil {
		t.Fatal(err)
	}

	item, _, err := tr.Complete(&w.ID, time.Now(), "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != store.StatusCompleted {
		t.Fatalf("expected a one-shot habit to stay completed (terminal), got %s", item.Status)
	}
}

// ============================================================
// CanStart
// ============================================================

func TestCanStart(t *testing.T) {
	s := newTestStore(t)
	tr := New(s)
	a, _ := s.CreateWorkItem(store.WorkItem{Description: "a", Energy: 1})
	b, _ := s.CreateWorkItem(store.WorkItem{Description: "b", Energy: 1, DependsOn: &a.ID})

	ok, err := tr.CanStart(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected b to not be startable while a is incomplete and not today")
	}

	ok, err = tr.CanStart(999)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a nonexistent item to report not startable")
	}
}
