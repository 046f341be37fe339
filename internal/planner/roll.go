// Package planner implements the Roll algorithm: the once-per-day
// computation of the agenda (spec.md §4.5).
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/scoring"
	"github.com/nsavage/dayloop/internal/store"
)

// Result summarizes one Roll invocation for the caller (TUI/export).
type Result struct {
	EffectiveDate  string
	ChosenTaskIDs  []int64
	TodayHabits    []store.WorkItem
	MissedHabits   map[string][]int64 // original due_date -> habit ids purged past it
	FinalizedDates []string
}

// Roll computes today's agenda. mood, if non-nil, filters out chosen
// items whose energy exceeds it. Fails with store.ErrRollAlreadyDone if
// last_roll_date is not before the effective date, or
// store.ErrRollNotAvailable if now precedes today's roll_available_time.
func Roll(s *store.Store, now time.Time, mood *int) (*Result, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}
	d := datectx.EffectiveDate(now, settings.DayStartEnabled, settings.DayStartTime)

	if settings.LastRollDate != "" && !datectx.Before(settings.LastRollDate, d) {
		return nil, fmt.Errorf("roll %s: %w", d, store.ErrRollAlreadyDone)
	}
	if !rollAvailable(now, settings.RollAvailableTime) {
		return nil, fmt.Errorf("roll not available until %s: %w", settings.RollAvailableTime, store.ErrRollNotAvailable)
	}

	// Finalize every unfinalized date before purging overdue habits:
	// purge advances each habit's due_date past d, and FinalizeDay's
	// missed-habit query matches on due_date, so purging first would
	// make yesterday's (or older) misses invisible to the penalty pass.
	finalized, err := finalizeUnfinalizedDates(s, settings.LastPenaltyDate, d)
	if err != nil {
		return nil, err
	}

	missed, err := purgeOverdueHabits(s, d)
	if err != nil {
		return nil, err
	}

	if err := s.ClearIsToday(); err != nil {
		return nil, fmt.Errorf("clear today flags: %w", err)
	}

	pending, err := s.ListPendingNonHabits()
	if err != nil {
		return nil, err
	}
	all, err := s.ListWorkItems(store.WorkItemFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]store.WorkItem, len(all))
	for _, w := range all {
		byID[w.ID] = w
	}

	chosen := selectAgenda(pending, byID, d, settings.CriticalDays, settings.MaxTasksPerDay)
	if mood != nil {
		chosen = applyMoodFilter(chosen, byID, pending, d, settings.CriticalDays, settings.MaxTasksPerDay, *mood)
	}

	ids := make([]int64, 0, len(chosen))
	for id := range chosen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if err := s.SetIsToday(ids); err != nil {
		return nil, fmt.Errorf("mark today's agenda: %w", err)
	}

	todayHabits, err := s.ListTodayHabits(d)
	if err != nil {
		return nil, err
	}

	ledger, err := s.GetDayLedger(d)
	if err != nil {
		return nil, err
	}
	ledger.TasksPlanned = len(ids)
	if err := s.UpsertDayLedger(*ledger); err != nil {
		return nil, err
	}

	settings, err = s.GetSettings()
	if err != nil {
		return nil, err
	}
	settings.LastRollDate = d
	settings.PendingRoll = false
	if err := s.UpdateSettings(settings); err != nil {
		return nil, err
	}

	return &Result{
		EffectiveDate:  d,
		ChosenTaskIDs:  ids,
		TodayHabits:    todayHabits,
		MissedHabits:   missed,
		FinalizedDates: finalized,
	}, nil
}

func rollAvailable(now time.Time, rollAvailableTime string) bool {
	t, err := time.Parse("15:04", rollAvailableTime)
	if err != nil {
		return true
	}
	local := now.Local()
	boundary := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, local.Location())
	return !local.Before(boundary)
}

// purgeOverdueHabits advances the schedule of every habit whose
// due_date has fallen behind d, as if each intervening occurrence had
// been missed. Returns the ids of the purged habits, keyed by each
// habit's original due_date, for the caller's reporting purposes.
// Must run after finalizeUnfinalizedDates: FinalizeDay's missed-habit
// query matches on due_date, so purging first would advance it past
// the dates being finalized and the penalty would never apply.
func purgeOverdueHabits(s *store.Store, d string) (map[string][]int64, error) {
	overdue, err := s.ListOverdueHabits(d)
	if err != nil {
		return nil, err
	}
	missed := make(map[string][]int64)
	for _, h := range overdue {
		originalDue := h.DueDate
		next, _, terminal, err := datectx.AdvanceUntilCaughtUp(h.Recurrence, h.DueDate, d)
		if err != nil {
			return nil, fmt.Errorf("advance overdue habit %d: %w", h.ID, err)
		}
		if terminal {
			h.Status = store.StatusCompleted
		} else {
			h.DueDate = next
		}
		if err := s.UpdateWorkItem(h); err != nil {
			return nil, err
		}
		missed[originalDue] = append(missed[originalDue], h.ID)
	}
	return missed, nil
}

// finalizeUnfinalizedDates runs FinalizeDay for every effective date in
// (lastPenaltyDate, d), in ascending order — usually just d-1. An empty
// lastPenaltyDate means nothing has ever been finalized; start the walk
// from d-1 itself rather than the dawn of time.
func finalizeUnfinalizedDates(s *store.Store, lastPenaltyDate, d string) ([]string, error) {
	next := lastPenaltyDate
	if next == "" {
		var err error
		next, err = datectx.AddDays(d, -1)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		next, err = datectx.AddDays(next, 1)
		if err != nil {
			return nil, err
		}
	}

	var finalized []string
	for datectx.Before(next, d) {
		if _, err := scoring.FinalizeDay(s, next); err != nil {
			return nil, fmt.Errorf("finalize %s: %w", next, err)
		}
		finalized = append(finalized, next)
		advanced, err := datectx.AddDays(next, 1)
		if err != nil {
			return nil, err
		}
		next = advanced
	}
	return finalized, nil
}
