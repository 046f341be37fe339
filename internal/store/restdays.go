package store

import (
	"fmt"
)

func (s *Store) CreateRestDay(date, description string) (*RestDay, error) {
	_, err := s.db.Exec(
		`INSERT INTO rest_days (date, description) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET description = excluded.description`,
		date, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert rest day: %w", err)
	}
	return &RestDay{Date: date, Description: description}, nil
}

func (s *Store) IsRestDay(date string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM rest_days WHERE date = ?`, date).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check rest day %s: %w", date, err)
	}
	return count > 0, nil
}

func (s *Store) ListRestDays() ([]RestDay, error) {
	rows, err := s.db.Query(`SELECT date, description FROM rest_days ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list rest days: %w", err)
	}
	defer rows.Close()

	var days []RestDay
	for rows.Next() {
		var d RestDay
		if err := rows.Scan(&d.Date, &d.Description); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *Store) DeleteRestDay(date string) error {
	res, err := s.db.Exec(`DELETE FROM rest_days WHERE date = ?`, date)
	if err != nil {
		return fmt.Errorf("delete rest day %s: %w", date, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rest day %s: %w", date, ErrNotFound)
	}
	return nil
}
