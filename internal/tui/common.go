package tui

import (
	"fmt"
	"time"

	"github.com/nsavage/dayloop/internal/planner"
	"github.com/nsavage/dayloop/internal/store"
)

// viewState represents the currently active tab.
type viewState int

const (
	viewAgenda viewState = iota
	viewItems
	viewScoring
	viewGoals
	viewSettings
)

var viewNames = []string{"Agenda", "Items", "Scoring", "Goals", "Settings"}

// --- Messages ---

type timerStartedMsg struct {
	item *store.WorkItem
}

type timerStoppedMsg struct {
	item *store.WorkItem
}

type itemCompletedMsg struct {
	item   *store.WorkItem
	points int
}

type itemCreatedMsg struct {
	item *store.WorkItem
}

type itemUpdatedMsg struct{}

type rollDoneMsg struct {
	result *planner.Result
}

type goalCreatedMsg struct {
	goal *store.Goal
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type formDoneMsg struct{}
type formCancelMsg struct{}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
