package scoring

import (
	"fmt"
	"math"

	"github.com/nsavage/dayloop/internal/store"
)

// minTimeQuality is the floor of the time-quality clamp — a task
// finished wildly off-pace still earns a fraction of its base points,
// never zero.
const minTimeQuality = 0.5

// RewardForCompletion computes and records the points earned by
// completing item, whose Status/CompletedAt already reflect the
// completion (the caller — worktracker — applies the state transition
// first) while Streak still holds the value from before this completion,
// which is the value the habit streak bonus uses. It updates DayLedger[effectiveDate], evaluates the
// per-event completion bonus, and re-checks active goals.
func RewardForCompletion(s *store.Store, item store.WorkItem, effectiveDate string) (int, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return 0, err
	}

	var points int
	if item.IsHabit {
		points = habitPoints(item, settings)
	} else {
		points = taskPoints(item, settings)
	}

	ledger, err := s.GetDayLedger(effectiveDate)
	if err != nil {
		return 0, err
	}
	details := decodeDetails(ledger.Details)

	ledger.PointsEarned += points
	if item.IsHabit {
		ledger.HabitsCompleted++
	} else {
		ledger.TasksCompleted++
		if ledger.TasksPlanned > 0 && ledger.TasksCompleted == ledger.TasksPlanned {
			bonus := int(math.Round(float64(ledger.PointsEarned) * settings.CompletionBonusFull))
			ledger.PointsEarned += bonus
		}
	}
	ledger.DailyTotal = ledger.PointsEarned - ledger.PointsPenalty

	details.Completions = append(details.Completions, CompletionEntry{
		ItemID:      item.ID,
		Description: item.Description,
		IsHabit:     item.IsHabit,
		Points:      points,
	})
	ledger.Details = encodeDetails(details)

	if err := s.UpsertDayLedger(*ledger); err != nil {
		return 0, err
	}

	if err := CheckGoals(s, effectiveDate); err != nil {
		return 0, fmt.Errorf("check goals after rewarding item %d: %w", item.ID, err)
	}

	return points, nil
}

// taskPoints implements the non-habit reward formula (spec: Balanced
// Progress v2.0).
func taskPoints(item store.WorkItem, settings store.Settings) int {
	energyMult := settings.EnergyMultBase + float64(item.Energy)*settings.EnergyMultStep
	expectedSecs := float64(item.Energy) * float64(settings.MinutesPerEnergyUnit) * 60

	timeQuality := 1.0
	if expectedSecs > 0 {
		ratio := (float64(item.TimeSpent) - expectedSecs) / expectedSecs
		timeQuality = clamp(1-ratio*settings.TimeEfficiencyWeight, minTimeQuality, 1.0)
	}

	focusPenalty := 0.5
	if item.TimeSpent >= int64(settings.MinWorkTimeSeconds) {
		focusPenalty = 1.0
	}

	raw := float64(settings.PointsPerTaskBase) * energyMult * timeQuality * focusPenalty
	return int(math.Round(raw))
}

// habitPoints implements the skill/routine habit reward formulas.
func habitPoints(item store.WorkItem, settings store.Settings) int {
	if item.HabitType != store.HabitSkill {
		return settings.RoutinePointsFixed
	}

	energyMult := settings.EnergyMultBase + float64(item.Energy)*settings.EnergyMultStep
	streak := item.Streak
	if streak > settings.MaxStreakBonusDays {
		streak = settings.MaxStreakBonusDays
	}
	streakBonus := 1 + math.Log2(float64(streak)+1)*settings.StreakLogFactor
	raw := float64(settings.PointsPerHabitBase) * streakBonus * energyMult
	return int(math.Round(raw))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
