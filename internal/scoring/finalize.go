package scoring

import (
	"fmt"
	"math"

	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/store"
)

// FinalizeDay computes and records the penalty for date, which must be
// strictly later than Settings.LastPenaltyDate (or that date must be
// empty). Returns ErrAlreadyFinalized otherwise — the Scheduler
// swallows that error silently; the Planner's caller is expected to
// only ever request dates in the unfinalized window.
func FinalizeDay(s *store.Store, date string) (*store.DayLedger, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}
	if settings.LastPenaltyDate != "" && !datectx.Before(settings.LastPenaltyDate, date) {
		return nil, fmt.Errorf("finalize %s: %w", date, store.ErrAlreadyFinalized)
	}

	ledger, err := s.GetDayLedger(date)
	if err != nil {
		return nil, err
	}
	details := decodeDetails(ledger.Details)

	isRestDay, err := s.IsRestDay(date)
	if err != nil {
		return nil, err
	}

	var breakdown PenaltyBreakdown
	if isRestDay {
		breakdown = PenaltyBreakdown{RestDay: true}
	} else {
		breakdown, err = computePenalty(s, settings, date, *ledger)
		if err != nil {
			return nil, err
		}
	}

	ledger.PointsPenalty = breakdown.TotalPenalty
	if ledger.TasksPlanned > 0 {
		ledger.CompletionRate = math.Min(float64(ledger.TasksCompleted)/float64(ledger.TasksPlanned), 1.0)
	}
	ledger.DailyTotal = ledger.PointsEarned - ledger.PointsPenalty

	if !isRestDay && ledger.PointsEarned > 0 {
		goodBonus := completionBonusGood(*ledger, settings)
		ledger.PointsEarned += goodBonus
		ledger.DailyTotal = ledger.PointsEarned - ledger.PointsPenalty
	}

	ledger.PenaltyStreak, err = nextPenaltyStreak(s, settings, date, breakdown.TotalPenalty)
	if err != nil {
		return nil, err
	}

	details.Penalty = &breakdown
	ledger.Details = encodeDetails(details)

	if err := s.UpsertDayLedger(*ledger); err != nil {
		return nil, err
	}

	settings.LastPenaltyDate = date
	if err := s.UpdateSettings(settings); err != nil {
		return nil, err
	}

	if err := CheckGoals(s, date); err != nil {
		return nil, fmt.Errorf("check goals after finalizing %s: %w", date, err)
	}
	return ledger, nil
}

// completionBonusGood pays the 80-99% completion bonus, evaluated only
// here (at finalize) to avoid double-paying as the ratio passes
// through the band across multiple completions in one day.
func completionBonusGood(ledger store.DayLedger, settings store.Settings) int {
	if ledger.TasksPlanned == 0 {
		return 0
	}
	rate := float64(ledger.TasksCompleted) / float64(ledger.TasksPlanned)
	if rate >= 1.0 || rate < 0.8 {
		return 0
	}
	return int(math.Round(float64(ledger.PointsEarned) * settings.CompletionBonusGood))
}

func computePenalty(s *store.Store, settings store.Settings, date string, ledger store.DayLedger) (PenaltyBreakdown, error) {
	var b PenaltyBreakdown

	if ledger.TasksCompleted == 0 && ledger.HabitsCompleted == 0 {
		b.IdlePenalty = settings.IdlePenalty
	}

	if ledger.TasksPlanned > 0 {
		rate := float64(ledger.TasksCompleted) / float64(ledger.TasksPlanned)
		switch {
		case rate < settings.IncompleteThresholdSevere:
			b.IncompletePenalty = settings.IncompletePenaltySevere
		case rate < settings.IncompleteDayThreshold:
			b.IncompletePenalty = int(math.Round(float64(settings.IncompleteDayPenalty) * (1 - rate)))
		}
	}

	missed, err := s.ListHabitsMissedOn(date)
	if err != nil {
		return b, err
	}
	for _, h := range missed {
		if h.HabitType == store.HabitSkill {
			b.MissedHabitPenalty += settings.MissedHabitPenaltyBase
		} else {
			b.MissedHabitPenalty += int(math.Round(float64(settings.MissedHabitPenaltyBase) * 0.5))
		}
	}

	sum := b.IdlePenalty + b.IncompletePenalty + b.MissedHabitPenalty
	b.ProgressiveMultiplier = 1.0
	if sum > 0 {
		priorStreak, err := priorPenaltyStreak(s, date)
		if err != nil {
			return b, err
		}
		b.ProgressiveMultiplier = 1 + math.Min(
			float64(priorStreak)*settings.ProgressivePenaltyFactor,
			settings.ProgressivePenaltyMax-1,
		)
		sum = int(math.Round(float64(sum) * b.ProgressiveMultiplier))
	}
	b.TotalPenalty = sum
	return b, nil
}

// priorPenaltyStreak returns DayLedger[date-1].penalty_streak, or 0 if
// that ledger has never been persisted.
func priorPenaltyStreak(s *store.Store, date string) (int, error) {
	prev, err := datectx.AddDays(date, -1)
	if err != nil {
		return 0, err
	}
	exists, err := s.DayLedgerExists(prev)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	ledger, err := s.GetDayLedger(prev)
	if err != nil {
		return 0, err
	}
	return ledger.PenaltyStreak, nil
}

// nextPenaltyStreak applies rule 7: grows on a penalized day, resets
// once penaltyStreakResetDays consecutive days (including date) have
// had zero penalty, otherwise carries the prior value forward.
func nextPenaltyStreak(s *store.Store, settings store.Settings, date string, totalPenalty int) (int, error) {
	prior, err := priorPenaltyStreak(s, date)
	if err != nil {
		return 0, err
	}
	if totalPenalty > 0 {
		return prior + 1, nil
	}

	consecutive := 1 // date itself has zero penalty
	check := date
	for i := 1; i < settings.PenaltyStreakResetDays; i++ {
		prevDate, err := datectx.AddDays(check, -1)
		if err != nil {
			return 0, err
		}
		exists, err := s.DayLedgerExists(prevDate)
		if err != nil {
			return 0, err
		}
		if !exists {
			break
		}
		ledger, err := s.GetDayLedger(prevDate)
		if err != nil {
			return 0, err
		}
		if ledger.PointsPenalty != 0 {
			break
		}
		consecutive++
		check = prevDate
	}

	if consecutive >= settings.PenaltyStreakResetDays {
		return 0, nil
	}
	return prior, nil
}
