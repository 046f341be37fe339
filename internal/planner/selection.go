package planner

import (
	"sort"

	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/store"
)

// selectAgenda runs Passes A-C of the Roll algorithm (spec.md §4.5
// steps 4-6) and returns the chosen item ids.
func selectAgenda(pending []store.WorkItem, byID map[int64]store.WorkItem, d string, criticalDays, maxPerDay int) map[int64]bool {
	chosen := make(map[int64]bool)

	for _, w := range passACritical(pending, byID, d, criticalDays, maxPerDay) {
		chosen[w] = true
	}
	fillFromBacklog(pending, byID, chosen, d, maxPerDay, nil)
	fillFromSameDayDependents(pending, chosen, maxPerDay, nil)
	return chosen
}

// applyMoodFilter drops chosen items whose energy exceeds mood, then
// refills remaining slots from Passes B and C restricted to
// energy <= mood (spec.md §4.5 step 7).
func applyMoodFilter(chosen map[int64]bool, byID map[int64]store.WorkItem, pending []store.WorkItem, d string, criticalDays, maxPerDay, mood int) map[int64]bool {
	for id := range chosen {
		if byID[id].Energy > mood {
			delete(chosen, id)
		}
	}
	fillFromBacklog(pending, byID, chosen, d, maxPerDay, &mood)
	fillFromSameDayDependents(pending, chosen, maxPerDay, &mood)
	return chosen
}

func passACritical(pending []store.WorkItem, byID map[int64]store.WorkItem, d string, criticalDays, maxPerDay int) []int64 {
	cutoff := mustAddDays(d, criticalDays)
	var candidates []store.WorkItem
	for _, w := range pending {
		if w.DueDate == "" || datectx.Before(cutoff, w.DueDate) {
			continue
		}
		if !readyAbsentOrCompleted(w, byID) {
			continue
		}
		candidates = append(candidates, w)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DueDate != candidates[j].DueDate {
			return candidates[i].DueDate < candidates[j].DueDate
		}
		return candidates[i].ID < candidates[j].ID
	})
	if len(candidates) > maxPerDay {
		candidates = candidates[:maxPerDay]
	}
	ids := make([]int64, len(candidates))
	for i, w := range candidates {
		ids[i] = w.ID
	}
	return ids
}

func fillFromBacklog(pending []store.WorkItem, byID map[int64]store.WorkItem, chosen map[int64]bool, d string, maxPerDay int, moodCap *int) {
	remaining := maxPerDay - len(chosen)
	if remaining <= 0 {
		return
	}
	var candidates []store.WorkItem
	for _, w := range pending {
		if chosen[w.ID] {
			continue
		}
		if moodCap != nil && w.Energy > *moodCap {
			continue
		}
		if !readyAbsentOrCompleted(w, byID) {
			continue
		}
		candidates = append(candidates, w)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ui, uj := urgency(candidates[i], d), urgency(candidates[j], d)
		if ui != uj {
			return ui > uj
		}
		return candidates[i].ID < candidates[j].ID
	})
	for _, w := range candidates {
		if remaining <= 0 {
			break
		}
		chosen[w.ID] = true
		remaining--
	}
}

func fillFromSameDayDependents(pending []store.WorkItem, chosen map[int64]bool, maxPerDay int, moodCap *int) {
	remaining := maxPerDay - len(chosen)
	if remaining <= 0 {
		return
	}
	var candidates []store.WorkItem
	for _, w := range pending {
		if chosen[w.ID] || w.DependsOn == nil {
			continue
		}
		if moodCap != nil && w.Energy > *moodCap {
			continue
		}
		if chosen[*w.DependsOn] {
			candidates = append(candidates, w)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	for _, w := range candidates {
		if remaining <= 0 {
			break
		}
		chosen[w.ID] = true
		remaining--
	}
}

func readyAbsentOrCompleted(w store.WorkItem, byID map[int64]store.WorkItem) bool {
	if w.DependsOn == nil {
		return true
	}
	dep, ok := byID[*w.DependsOn]
	return ok && dep.Status == store.StatusCompleted
}
