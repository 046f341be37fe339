package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/nsavage/dayloop/internal/store"
)

func mustLocal(t *testing.T, value string) time.Time {
	t.Helper()
	tm, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}

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
// S1 — simple task reward
// ============================================================

func TestRewardForCompletion_SimpleTask(t *testing.T) {
	s := newTestStore(t)
	item := store.WorkItem{ID: 1, Description: "write report", Energy: 3, TimeSpent: 3600}

	points, err := RewardForCompletion(s, item, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if points != 12 {
		t.Fatalf("expected 12 points, got %d", points)
	}

	ledger, err := s.GetDayLedger("2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if ledger.PointsEarned != 12 || ledger.TasksCompleted != 1 {
		t.Fatalf("unexpected ledger: %+v", ledger)
	}
}

func TestRewardForCompletion_SuspiciouslyFast(t *testing.T) {
	s := newTestStore(t)
	settings, _ := s.GetSettings()
	item := store.WorkItem{ID: 1, Energy: 3, TimeSpent: int64(settings.MinWorkTimeSeconds - 1)}

	points, err := RewardForCompletion(s, item, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	// energy_mult=1.2, time_quality clamped to 1.0 (well under pace), focus_penalty=0.5
	if points <= 0 || points >= 12 {
		t.Fatalf("expected a reduced reward below the full 12, got %d", points)
	}
}

// ============================================================
// S4 — habit streak bonus
// ============================================================

func TestRewardForCompletion_HabitStreakBonus(t *testing.T) {
	s := newTestStore(t)
	item := store.WorkItem{
		ID: 2, IsHabit: true, HabitType: store.HabitSkill,
		Energy: 3, Streak: 4,
	}

	points, err := RewardForCompletion(s, item, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if points != 16 {
		t.Fatalf("expected 16 points, got %d", points)
	}
}

func TestRewardForCompletion_RoutineHabitFixed(t *testing.T) {
	s := newTestStore(t)
	settings, _ := s.GetSettings()
	item := store.WorkItem{ID: 3, IsHabit: true, HabitType: store.HabitRoutine, Energy: 5, Streak: 99}

	points, err := RewardForCompletion(s, item, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if points != settings.RoutinePointsFixed {
		t.Fatalf("expected fixed %d points, got %d", settings.RoutinePointsFixed, points)
	}
}

// ============================================================
// Completion bonus (full, per-event)
// ============================================================

func TestRewardForCompletion_FullBonusOnLastPlannedTask(t *testing.T) {
	s := newTestStore(t)
	ledger, _ := s.GetDayLedger("2026-01-10")
	ledger.TasksPlanned = 1
	if err := s.UpsertDayLedger(*ledger); err != nil {
		t.Fatal(err)
	}

	item := store.WorkItem{ID: 1, Energy: 3, TimeSpent: 3600}
	if _, err := RewardForCompletion(s, item, "2026-01-10"); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDayLedger("2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	settings, _ := s.GetSettings()
	wantEarned := 12 + int(12*settings.CompletionBonusFull)
	if got.PointsEarned != wantEarned {
		t.Fatalf("expected points_earned %d (base + full bonus), got %d", wantEarned, got.PointsEarned)
	}
}

// ============================================================
// S2 / S3 — finalize penalties, progressive multiplier
// ============================================================

func TestFinalizeDay_IdlePenalty(t *testing.T) {
	s := newTestStore(t)
	// No activity on 2026-01-10: finalize it as "yesterday" of 2026-01-11.
	ledger, err := FinalizeDay(s, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if ledger.PointsPenalty != 30 {
		t.Fatalf("expected idle penalty 30, got %d", ledger.PointsPenalty)
	}
	if ledger.PenaltyStreak != 1 {
		t.Fatalf("expected penalty_streak to become 1, got %d", ledger.PenaltyStreak)
	}
}

func TestFinalizeDay_ProgressiveMultiplier(t *testing.T) {
	s := newTestStore(t)

	day1, err := FinalizeDay(s, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if day1.PointsPenalty != 30 {
		t.Fatalf("day1: expected 30, got %d", day1.PointsPenalty)
	}

	day2, err := FinalizeDay(s, "2026-01-11")
	if err != nil {
		t.Fatal(err)
	}
	if day2.PointsPenalty != 33 {
		t.Fatalf("day2: expected 33, got %d", day2.PointsPenalty)
	}

	day3, err := FinalizeDay(s, "2026-01-12")
	if err != nil {
		t.Fatal(err)
	}
	if day3.PointsPenalty != 36 {
		t.Fatalf("day3: expected 36, got %d", day3.PointsPenalty)
	}
}

func TestFinalizeDay_AlreadyFinalizedRejected(t *testing.T) {
	s := newTestStore(t)
	if _, err := FinalizeDay(s, "2026-01-10"); err != nil {
		t.Fatal(err)
	}
	_, err := FinalizeDay(s, "2026-01-10")
	if !errors.Is(err, store.ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
}

func TestFinalizeDay_RestDaySkipsPenalty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateRestDay("2026-01-10", "vacation"); err != nil {
		t.Fatal(err)
	}
	ledger, err := FinalizeDay(s, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if ledger.PointsPenalty != 0 {
		t.Fatalf("expected no penalty on a rest day, got %d", ledger.PointsPenalty)
	}
}

func TestFinalizeDay_MissedHabitPenalty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateWorkItem(store.WorkItem{
		Description: "pushups", IsHabit: true, HabitType: store.HabitSkill,
		DueDate: "2026-01-10", DailyTarget: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	settings, _ := s.GetSettings()
	ledger, err := FinalizeDay(s, "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	// Idle (no completions at all) + missed skill habit.
	want := settings.IdlePenalty + settings.MissedHabitPenaltyBase
	if ledger.PointsPenalty != want {
		t.Fatalf("expected %d, got %d", want, ledger.PointsPenalty)
	}
}

// ============================================================
// Goal checking
// ============================================================

func TestCheckGoals_PointsGoalAchieved(t *testing.T) {
	s := newTestStore(t)
	target := 10
	g, err := s.CreateGoal(store.Goal{Type: store.GoalPoints, TargetPoints: &target, RewardDescription: "coffee"})
	if err != nil {
		t.Fatal(err)
	}

	item := store.WorkItem{ID: 1, Energy: 3, TimeSpent: 3600}
	if _, err := RewardForCompletion(s, item, "2026-01-10"); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGoal(g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Achieved {
		t.Fatal("expected points goal to be achieved after a 12-point completion against a target of 10")
	}
}

func TestCheckGoals_ProjectCompletionAchieved(t *testing.T) {
	s := newTestStore(t)
	project := "launch"
	g, err := s.CreateGoal(store.Goal{Type: store.GoalProjectCompletion, ProjectName: &project, RewardDescription: "ship it"})
	if err != nil {
		t.Fatal(err)
	}

	w, err := s.CreateWorkItem(store.WorkItem{Description: "deploy", Project: project, Energy: 1})
	if err != nil {
		t.Fatal(err)
	}
	w.Status = store.StatusCompleted
	if err := s.UpdateWorkItem(*w); err != nil {
		t.Fatal(err)
	}

	if err := CheckGoals(s, "2026-01-10"); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetGoal(g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Achieved {
		t.Fatal("expected project_completion goal to be achieved once its only task is completed")
	}
}

func TestCheckGoals_ProjectIncompleteNotAchieved(t *testing.T) {
	s := newTestStore(t)
	project := "launch"
	g, err := s.CreateGoal(store.Goal{Type: store.GoalProjectCompletion, ProjectName: &project, RewardDescription: "ship it"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateWorkItem(store.WorkItem{Description: "deploy", Project: project}); err != nil {
		t.Fatal(err)
	}

	if err := CheckGoals(s, "2026-01-10"); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetGoal(g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Achieved {
		t.Fatal("project with an incomplete task should not be achieved")
	}
}

// ============================================================
// Projection
// ============================================================

func TestProjection_NoHistoryCollapsesToAvgZero(t *testing.T) {
	s := newTestStore(t)

	p, err := Projection(s, mustLocal(t, "2026-01-10 08:00"), "2026-02-09")
	if err != nil {
		t.Fatal(err)
	}
	if p.AvgPerDay != 0 || p.MinProjection != 0 || p.AvgProjection != 0 || p.MaxProjection != 0 {
		t.Fatalf("expected an all-zero projection with no ledger history, got %+v", p)
	}
	if p.DaysUntil != 30 {
		t.Fatalf("expected 30 days until target, got %d", p.DaysUntil)
	}
}

func TestProjection_TargetNotAfterTodayCollapsesToCurrentTotal(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertDayLedger(store.DayLedger{Date: "2026-01-09", DailyTotal: 40}); err != nil {
		t.Fatal(err)
	}

	p, err := Projection(s, mustLocal(t, "2026-01-10 08:00"), "2026-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if p.DaysUntil != 0 {
		t.Fatalf("expected 0 days until target, got %d", p.DaysUntil)
	}
	if p.MinProjection != 40 || p.AvgProjection != 40 || p.MaxProjection != 40 {
		t.Fatalf("expected projection to collapse to the current total of 40, got %+v", p)
	}
}

func TestProjection_AveragesTrailingWindow(t *testing.T) {
	s := newTestStore(t)
	for _, d := range []struct {
		date  string
		total int
	}{
		{"2026-01-08", 10},
		{"2026-01-09", 20},
	} {
		if err := s.UpsertDayLedger(store.DayLedger{Date: d.date, DailyTotal: d.total}); err != nil {
			t.Fatal(err)
		}
	}

	p, err := Projection(s, mustLocal(t, "2026-01-10 08:00"), "2026-01-20")
	if err != nil {
		t.Fatal(err)
	}
	if p.AvgPerDay != 15 {
		t.Fatalf("expected avg_per_day 15, got %v", p.AvgPerDay)
	}
	currentTotal := 30 // live sum of the two ledgers above
	if p.DaysUntil != 10 {
		t.Fatalf("expected 10 days until target, got %d", p.DaysUntil)
	}
	wantAvg := currentTotal + int(15*float64(p.DaysUntil))
	if p.AvgProjection != wantAvg {
		t.Fatalf("expected avg_projection %d, got %d", wantAvg, p.AvgProjection)
	}
	if p.MinProjection > p.AvgProjection || p.AvgProjection > p.MaxProjection {
		t.Fatalf("expected min <= avg <= max, got %+v", p)
	}
}
