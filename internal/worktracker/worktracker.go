// Package worktracker implements the work-item state machine: start,
// stop, complete, the single-active-item invariant, dependency gating,
// and the habit recurrence hand-off on completion.
package worktracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/scoring"
	"github.com/nsavage/dayloop/internal/store"
)

// Tracker wires the state machine to a Store. It holds no state of its
// own — every transition is read-modify-write against the database, the
// same discipline the Store uses everywhere else.
type Tracker struct {
	store *store.Store
}

func New(s *store.Store) *Tracker {
	return &Tracker{store: s}
}

// Start activates id, auto-stopping whatever item was previously active
// (time-spent flush included). Fails with ErrDependencyNotMet unless
// the item's dependency is completed or itself scheduled for today.
func (tr *Tracker) Start(id int64, now time.Time) (*store.WorkItem, error) {
	item, err := tr.store.GetWorkItem(id)
	if err != nil {
		return nil, err
	}
	if item.Status == store.StatusCompleted {
		return nil, fmt.Errorf("work item %d already completed: %w", id, store.ErrInvalidArgument)
	}

	ready, err := tr.store.DependencyReady(item)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, fmt.Errorf("work item %d: %w", id, store.ErrDependencyNotMet)
	}

	_, active, err := tr.store.ActivateWorkItem(id, now)
	if err != nil {
		return nil, fmt.Errorf("start work item %d: %w", id, err)
	}
	return active, nil
}

// Stop flushes the unique active item back to pending. No-op if no
// item is active.
func (tr *Tracker) Stop(now time.Time) (*store.WorkItem, error) {
	return tr.store.DeactivateWorkItem(now)
}

// Complete finalizes a work item. If id is nil the target is the
// unique active item. Returns the updated item and the points awarded
// (0 if the item did not reach a rewarded completion this call, e.g. a
// partial habit instance).
func (tr *Tracker) Complete(id *int64, now time.Time, effectiveDate string) (*store.WorkItem, int, error) {
	item, err := tr.resolveTarget(id, now)
	if err != nil {
		return nil, 0, err
	}

	if !item.IsHabit {
		item.Status = store.StatusCompleted
		item.CompletedAt = &now
		if err := tr.store.UpdateWorkItem(*item); err != nil {
			return nil, 0, fmt.Errorf("complete work item %d: %w", item.ID, err)
		}
		points, err := scoring.RewardForCompletion(tr.store, *item, effectiveDate)
		if err != nil {
			return nil, 0, err
		}
		return item, points, nil
	}

	return tr.completeHabitInstance(item, now, effectiveDate)
}

// resolveTarget fetches the item to complete, flushing its elapsed
// time if it was the active item.
func (tr *Tracker) resolveTarget(id *int64, now time.Time) (*store.WorkItem, error) {
	if id == nil {
		active, err := tr.store.DeactivateWorkItem(now)
		if err != nil {
			return nil, err
		}
		if active == nil {
			return nil, fmt.Errorf("no active work item: %w", store.ErrNotFound)
		}
		return active, nil
	}

	item, err := tr.store.GetWorkItem(*id)
	if err != nil {
		return nil, err
	}
	if item.Status == store.StatusActive {
		flushed, err := tr.store.DeactivateWorkItem(now)
		if err != nil {
			return nil, err
		}
		if flushed != nil {
			item = flushed
		}
	}
	return item, nil
}

// completeHabitInstance applies one instance of progress toward a
// habit's daily_target, cascading into streak/recurrence advancement
// once the target is met.
func (tr *Tracker) completeHabitInstance(item *store.WorkItem, now time.Time, effectiveDate string) (*store.WorkItem, int, error) {
	settings, err := tr.store.GetSettings()
	if err != nil {
		return nil, 0, err
	}

	item.DailyCompleted++
	if item.DailyCompleted < item.DailyTarget {
		item.Status = store.StatusPending
		if err := tr.store.UpdateWorkItem(*item); err != nil {
			return nil, 0, fmt.Errorf("record habit progress %d: %w", item.ID, err)
		}
		return item, 0, nil
	}

	item.Status = store.StatusCompleted
	item.CompletedAt = &now
	item.LastCompleted = &effectiveDate

	// The streak bonus formula (S4) is keyed on the streak *before*
	// today's completion extends it — compute the reward first, then
	// advance the counter.
	points, err := scoring.RewardForCompletion(tr.store, *item, effectiveDate)
	if err != nil {
		return nil, 0, err
	}
	item.Streak = min(item.Streak+1, settings.MaxStreakBonusDays)

	next, ok, err := datectx.NextOccurrence(item.Recurrence, effectiveDate)
	if err != nil {
		return nil, 0, err
	}
	if ok {
		// Habits are never truly terminal while their recurrence is
		// non-"none": reset for the next occurrence.
		item.DueDate = next
		item.DailyCompleted = 0
		item.Status = store.StatusPending
		item.CompletedAt = nil
	}

	if err := tr.store.UpdateWorkItem(*item); err != nil {
		return nil, 0, fmt.Errorf("advance habit %d: %w", item.ID, err)
	}
	return item, points, nil
}

// CanStart reports whether id is eligible to be started right now,
// without mutating anything.
func (tr *Tracker) CanStart(id int64) (bool, error) {
	item, err := tr.store.GetWorkItem(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if item.Status == store.StatusCompleted {
		return false, nil
	}
	return tr.store.DependencyReady(item)
}
