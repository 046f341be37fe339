package scoring

import (
	"fmt"

	"github.com/nsavage/dayloop/internal/store"
)

// CheckGoals re-evaluates every active goal after a DayLedger mutation
// and marks any that newly qualify as achieved. A points goal is
// achieved when the cumulative daily_total across every DayLedger
// reaches its target; a project_completion goal is achieved when every
// non-habit WorkItem in its project is completed.
func CheckGoals(s *store.Store, effectiveDate string) error {
	goals, err := s.ListActiveGoals()
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		return nil
	}

	var total int
	haveTotal := false

	for _, g := range goals {
		var achieved bool
		switch g.Type {
		case store.GoalPoints:
			if g.TargetPoints == nil {
				continue
			}
			if !haveTotal {
				total, err = s.TotalScore()
				if err != nil {
					return err
				}
				haveTotal = true
			}
			achieved = total >= *g.TargetPoints
		case store.GoalProjectCompletion:
			if g.ProjectName == nil {
				continue
			}
			achieved, err = projectComplete(s, *g.ProjectName)
			if err != nil {
				return err
			}
		default:
			continue
		}

		if achieved {
			if err := s.MarkGoalAchieved(g.ID, effectiveDate); err != nil {
				return fmt.Errorf("mark goal %d achieved: %w", g.ID, err)
			}
		}
	}
	return nil
}

func projectComplete(s *store.Store, project string) (bool, error) {
	items, err := s.ListWorkItems(store.WorkItemFilter{Project: &project})
	if err != nil {
		return false, err
	}
	total := 0
	completed := 0
	for _, w := range items {
		if w.IsHabit {
			continue
		}
		total++
		if w.Status == store.StatusCompleted {
			completed++
		}
	}
	return total > 0 && completed == total, nil
}
