package store

import (
	"database/sql"
	"fmt"
	"time"
)

func scanGoal(row scanner) (*Goal, error) {
	g := &Goal{}
	var targetPoints sql.NullInt64
	var projectName, deadline, achievedDate, rewardClaimedAt sql.NullString
	var achieved, rewardClaimed int
	var createdAt string

	err := row.Scan(
		&g.ID, &g.Type, &targetPoints, &projectName, &g.RewardDescription, &deadline,
		&achieved, &achievedDate, &rewardClaimed, &rewardClaimedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if targetPoints.Valid {
		g.TargetPoints = intPtr(int(targetPoints.Int64))
	}
	if projectName.Valid {
		g.ProjectName = &projectName.String
	}
	if deadline.Valid {
		g.Deadline = &deadline.String
	}
	g.Achieved = achieved == 1
	if achievedDate.Valid {
		g.AchievedDate = &achievedDate.String
	}
	g.RewardClaimed = rewardClaimed == 1
	if rewardClaimedAt.Valid {
		t, _ := time.Parse(time.RFC3339, rewardClaimedAt.String)
		g.RewardClaimedAt = &t
	}
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return g, nil
}

func intPtr(n int) *int { return &n }

const goalColumns = `id, type, target_points, project_name, reward_description, deadline,
	achieved, achieved_date, reward_claimed, reward_claimed_at, created_at`

func (s *Store) CreateGoal(g Goal) (*Goal, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO goals (type, target_points, project_name, reward_description, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.Type, g.TargetPoints, g.ProjectName, g.RewardDescription, g.Deadline, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetGoal(id)
}

func (s *Store) GetGoal(id int64) (*Goal, error) {
	row := s.db.QueryRow(`SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("goal %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get goal %d: %w", id, err)
	}
	return g, nil
}

func (s *Store) ListGoals() ([]Goal, error) {
	rows, err := s.db.Query(`SELECT ` + goalColumns + ` FROM goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// ListActiveGoals returns goals not yet achieved.
func (s *Store) ListActiveGoals() ([]Goal, error) {
	rows, err := s.db.Query(`SELECT ` + goalColumns + ` FROM goals WHERE achieved = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// MarkGoalAchieved transitions a goal to achieved. Monotonic: a no-op
// if already achieved.
func (s *Store) MarkGoalAchieved(id int64, achievedDate string) error {
	res, err := s.db.Exec(
		`UPDATE goals SET achieved = 1, achieved_date = ? WHERE id = ? AND achieved = 0`,
		achievedDate, id,
	)
	if err != nil {
		return fmt.Errorf("mark goal %d achieved: %w", id, err)
	}
	_, _ = res.RowsAffected()
	return nil
}

// ClaimReward marks a reward claimed; only valid once the goal is
// achieved, monotonic.
func (s *Store) ClaimReward(id int64) error {
	g, err := s.GetGoal(id)
	if err != nil {
		return err
	}
	if !g.Achieved {
		return fmt.Errorf("goal %d not yet achieved: %w", id, ErrInvalidArgument)
	}
	if g.RewardClaimed {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`UPDATE goals SET reward_claimed = 1, reward_claimed_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("claim reward %d: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteGoal(id int64) error {
	res, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("goal %d: %w", id, ErrNotFound)
	}
	return nil
}
