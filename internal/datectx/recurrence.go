package datectx

import (
	"fmt"

	"github.com/nsavage/dayloop/internal/store"
)

// NextOccurrence computes the next scheduled date for a habit whose
// current occurrence was (or would have been) due on "from", per the
// recurrence spec. ok is false when the recurrence type is "none" — the
// habit becomes terminal and there is no next occurrence.
func NextOccurrence(r store.Recurrence, from string) (next string, ok bool, err error) {
	switch r.Type {
	case store.RecurrenceNone, "":
		return "", false, nil
	case store.RecurrenceDaily:
		next, err = AddDays(from, 1)
		return next, err == nil, err
	case store.RecurrenceEveryNDays:
		interval := r.Interval
		if interval <= 0 {
			interval = 1
		}
		next, err = AddDays(from, interval)
		return next, err == nil, err
	case store.RecurrenceWeekly:
		return nextWeeklyOccurrence(r.DaysOfWeek, from)
	default:
		return "", false, fmt.Errorf("unknown recurrence type %q", r.Type)
	}
}

// nextWeeklyOccurrence returns the smallest date strictly after "from"
// whose weekday is in daysOfWeek.
func nextWeeklyOccurrence(daysOfWeek []int, from string) (string, bool, error) {
	if len(daysOfWeek) == 0 {
		return "", false, fmt.Errorf("weekly recurrence with no days configured")
	}
	want := make(map[int]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		want[d] = true
	}

	t, err := ParseDate(from)
	if err != nil {
		return "", false, err
	}
	for i := 1; i <= 7; i++ {
		candidate := t.AddDate(0, 0, i)
		if want[int(candidate.Weekday())] {
			return FormatDate(candidate), true, nil
		}
	}
	// Unreachable for a non-empty day set, but keep the contract honest.
	return "", false, fmt.Errorf("no weekday in recurrence set")
}

// AdvanceUntilCaughtUp repeatedly applies NextOccurrence starting from
// due until the result is no longer before target (the effective date
// being rolled to), recording every intermediate date as a missed
// occurrence along the way. Used by the Planner's purge pass to catch
// up habits whose due_date has fallen behind.
//
// terminal is true if the recurrence ran out (type none) before
// catching up — the habit should become status=completed.
func AdvanceUntilCaughtUp(r store.Recurrence, due, target string) (next string, missed []string, terminal bool, err error) {
	current := due
	for Before(current, target) {
		n, ok, err := NextOccurrence(r, current)
		if err != nil {
			return "", missed, false, err
		}
		if !ok {
			return current, missed, true, nil
		}
		missed = append(missed, current)
		current = n
	}
	return current, missed, false, nil
}
