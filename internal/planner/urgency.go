package planner

import (
	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/store"
)

// urgency scores a pending non-habit item for backlog ordering (Pass
// B): higher priority, closer due dates, and higher energy all push an
// item up the queue.
func urgency(w store.WorkItem, effectiveDate string) int {
	score := w.Priority * 10

	if w.DueDate != "" {
		switch {
		case datectx.Before(w.DueDate, effectiveDate):
			score += 50
		case !datectx.Before(mustAddDays(effectiveDate, 2), w.DueDate):
			score += 25
		case !datectx.Before(mustAddDays(effectiveDate, 7), w.DueDate):
			score += 10
		}
	}

	switch {
	case w.Energy >= 4:
		score += 5
	case w.Energy <= 1:
		score -= 1
	}
	return score
}

func mustAddDays(date string, n int) string {
	next, err := datectx.AddDays(date, n)
	if err != nil {
		return date
	}
	return next
}
