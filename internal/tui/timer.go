package tui

import (
	"time"

	"github.com/nsavage/dayloop/internal/store"
	"github.com/nsavage/dayloop/internal/worktracker"
)

// timerState tracks the active work item's tracking state. Unlike the
// teacher's standalone timer there is no pause: worktracker.Tracker only
// knows start/stop/complete, so "paused" never appears here.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
)

// timerModel is a thin display-side wrapper over worktracker.Tracker —
// it holds the currently active item's presentation fields so the
// Agenda view doesn't have to round-trip the store on every render.
type timerModel struct {
	tracker *worktracker.Tracker

	state     timerState
	startTime time.Time
	elapsed   time.Duration

	itemID   int64
	itemDesc string
}

func newTimerModel(s *store.Store) timerModel {
	return timerModel{
		tracker: worktracker.New(s),
		state:   timerStopped,
	}
}

func (t *timerModel) start(id int64, desc string) error {
	item, err := t.tracker.Start(id, time.Now())
	if err != nil {
		return err
	}
	t.state = timerRunning
	t.startTime = time.Now()
	if item.StartedAt != nil {
		t.startTime = *item.StartedAt
	}
	t.elapsed = 0
	t.itemID = id
	t.itemDesc = desc
	return nil
}

// stop flushes the active item back to pending and returns it. No-op
// (nil, nil) if nothing is running.
func (t *timerModel) stop() (*store.WorkItem, error) {
	if t.state == timerStopped {
		return nil, nil
	}
	item, err := t.tracker.Stop(time.Now())
	if err != nil {
		return nil, err
	}
	t.state = timerStopped
	t.elapsed = 0
	return item, nil
}

// complete finalizes the active item (id nil targets whichever item is
// currently running) and reports the points awarded.
func (t *timerModel) complete(id *int64, effectiveDate string) (*store.WorkItem, int, error) {
	item, points, err := t.tracker.Complete(id, time.Now(), effectiveDate)
	if err != nil {
		return nil, 0, err
	}
	if id == nil || *id == t.itemID {
		t.state = timerStopped
		t.elapsed = 0
	}
	return item, points, nil
}

func (t *timerModel) tick() {
	if t.state == timerRunning {
		t.elapsed = time.Since(t.startTime)
	}
}

func (t timerModel) running() bool {
	return t.state == timerRunning
}

func (t timerModel) currentElapsed() time.Duration {
	if t.state == timerStopped {
		return 0
	}
	return time.Since(t.startTime)
}
