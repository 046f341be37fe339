package store

import (
	"fmt"
	"strconv"
)

// GetSetting returns the raw string value for key, as the teacher's KV
// table does; most callers want GetSettings instead.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, rows.Err()
}

// GetSettings resolves the key/value settings table into the typed
// Settings struct, falling back to DefaultSettings for any key that is
// missing or fails to parse.
func (s *Store) GetSettings() (Settings, error) {
	raw, err := s.GetAllSettings()
	if err != nil {
		return Settings{}, err
	}

	out := DefaultSettings()

	geti := func(key string, dst *int) {
		if v, ok := raw[key]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	getf := func(key string, dst *float64) {
		if v, ok := raw[key]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	getb := func(key string, dst *bool) {
		if v, ok := raw[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	gets := func(key string, dst *string) {
		if v, ok := raw[key]; ok {
			*dst = v
		}
	}

	geti("max_tasks_per_day", &out.MaxTasksPerDay)
	geti("critical_days", &out.CriticalDays)

	geti("points_per_task_base", &out.PointsPerTaskBase)
	geti("points_per_habit_base", &out.PointsPerHabitBase)
	geti("routine_points_fixed", &out.RoutinePointsFixed)
	getf("energy_mult_base", &out.EnergyMultBase)
	getf("energy_mult_step", &out.EnergyMultStep)
	getf("streak_log_factor", &out.StreakLogFactor)
	geti("max_streak_bonus_days", &out.MaxStreakBonusDays)
	geti("minutes_per_energy_unit", &out.MinutesPerEnergyUnit)
	geti("min_work_time_seconds", &out.MinWorkTimeSeconds)
	getf("time_efficiency_weight", &out.TimeEfficiencyWeight)
	getf("completion_bonus_full", &out.CompletionBonusFull)
	getf("completion_bonus_good", &out.CompletionBonusGood)

	geti("idle_penalty", &out.IdlePenalty)
	geti("incomplete_day_penalty", &out.IncompleteDayPenalty)
	getf("incomplete_day_threshold", &out.IncompleteDayThreshold)
	getf("incomplete_threshold_severe", &out.IncompleteThresholdSevere)
	geti("incomplete_penalty_severe", &out.IncompletePenaltySevere)
	geti("missed_habit_penalty_base", &out.MissedHabitPenaltyBase)
	getf("progressive_penalty_factor", &out.ProgressivePenaltyFactor)
	getf("progressive_penalty_max", &out.ProgressivePenaltyMax)
	geti("penalty_streak_reset_days", &out.PenaltyStreakResetDays)

	getb("day_start_enabled", &out.DayStartEnabled)
	gets("day_start_time", &out.DayStartTime)

	gets("roll_available_time", &out.RollAvailableTime)
	getb("auto_penalties_enabled", &out.AutoPenaltiesEnabled)
	gets("penalty_time", &out.PenaltyTime)
	getb("auto_roll_enabled", &out.AutoRollEnabled)
	gets("auto_roll_time", &out.AutoRollTime)
	getb("auto_backup_enabled", &out.AutoBackupEnabled)
	gets("backup_time", &out.BackupTime)
	geti("backup_interval_days", &out.BackupIntervalDays)
	geti("backup_keep_local_count", &out.BackupKeepLocalCount)

	gets("last_roll_date", &out.LastRollDate)
	gets("last_penalty_date", &out.LastPenaltyDate)
	gets("last_backup_date", &out.LastBackupDate)
	getb("pending_roll", &out.PendingRoll)

	if v, ok := raw["active_item_id"]; ok && v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			out.ActiveItemID = &id
		}
	}

	return out, nil
}

// UpdateSettings writes every field of settings back to the key/value
// table. Callers typically read-modify-write a single field via
// GetSettings/UpdateSettings; this is not a partial patch.
func (s *Store) UpdateSettings(settings Settings) error {
	activeItemID := ""
	if settings.ActiveItemID != nil {
		activeItemID = strconv.FormatInt(*settings.ActiveItemID, 10)
	}

	kv := map[string]string{
		"max_tasks_per_day":           strconv.Itoa(settings.MaxTasksPerDay),
		"critical_days":               strconv.Itoa(settings.CriticalDays),
		"points_per_task_base":        strconv.Itoa(settings.PointsPerTaskBase),
		"points_per_habit_base":       strconv.Itoa(settings.PointsPerHabitBase),
		"routine_points_fixed":        strconv.Itoa(settings.RoutinePointsFixed),
		"energy_mult_base":            strconv.FormatFloat(settings.EnergyMultBase, 'f', -1, 64),
		"energy_mult_step":            strconv.FormatFloat(settings.EnergyMultStep, 'f', -1, 64),
		"streak_log_factor":           strconv.FormatFloat(settings.StreakLogFactor, 'f', -1, 64),
		"max_streak_bonus_days":       strconv.Itoa(settings.MaxStreakBonusDays),
		"minutes_per_energy_unit":     strconv.Itoa(settings.MinutesPerEnergyUnit),
		"min_work_time_seconds":       strconv.Itoa(settings.MinWorkTimeSeconds),
		"time_efficiency_weight":      strconv.FormatFloat(settings.TimeEfficiencyWeight, 'f', -1, 64),
		"completion_bonus_full":       strconv.FormatFloat(settings.CompletionBonusFull, 'f', -1, 64),
		"completion_bonus_good":       strconv.FormatFloat(settings.CompletionBonusGood, 'f', -1, 64),
		"idle_penalty":                strconv.Itoa(settings.IdlePenalty),
		"incomplete_day_penalty":      strconv.Itoa(settings.IncompleteDayPenalty),
		"incomplete_day_threshold":    strconv.FormatFloat(settings.IncompleteDayThreshold, 'f', -1, 64),
		"incomplete_threshold_severe": strconv.FormatFloat(settings.IncompleteThresholdSevere, 'f', -1, 64),
		"incomplete_penalty_severe":   strconv.Itoa(settings.IncompletePenaltySevere),
		"missed_habit_penalty_base":   strconv.Itoa(settings.MissedHabitPenaltyBase),
		"progressive_penalty_factor":  strconv.FormatFloat(settings.ProgressivePenaltyFactor, 'f', -1, 64),
		"progressive_penalty_max":     strconv.FormatFloat(settings.ProgressivePenaltyMax, 'f', -1, 64),
		"penalty_streak_reset_days":   strconv.Itoa(settings.PenaltyStreakResetDays),
		"day_start_enabled":           strconv.FormatBool(settings.DayStartEnabled),
		"day_start_time":              settings.DayStartTime,
		"roll_available_time":        settings.RollAvailableTime,
		"auto_penalties_enabled":      strconv.FormatBool(settings.AutoPenaltiesEnabled),
		"penalty_time":                settings.PenaltyTime,
		"auto_roll_enabled":           strconv.FormatBool(settings.AutoRollEnabled),
		"auto_roll_time":              settings.AutoRollTime,
		"auto_backup_enabled":         strconv.FormatBool(settings.AutoBackupEnabled),
		"backup_time":                 settings.BackupTime,
		"backup_interval_days":        strconv.Itoa(settings.BackupIntervalDays),
		"backup_keep_local_count":     strconv.Itoa(settings.BackupKeepLocalCount),
		"last_roll_date":              settings.LastRollDate,
		"last_penalty_date":           settings.LastPenaltyDate,
		"last_backup_date":            settings.LastBackupDate,
		"pending_roll":                strconv.FormatBool(settings.PendingRoll),
		"active_item_id":              activeItemID,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin settings update: %w", err)
	}
	defer tx.Rollback()

	for k, v := range kv {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			k, v,
		); err != nil {
			return fmt.Errorf("set %q: %w", k, err)
		}
	}
	return tx.Commit()
}
