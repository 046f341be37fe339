// Package datectx translates wall-clock instants into the operator's
// effective date — the subjective "today" that may trail the calendar
// date when a custom day-start time is configured.
package datectx

import (
	"fmt"
	"time"

	"github.com/nsavage/dayloop/internal/store"
)

// EffectiveDate returns the calendar date (YYYY-MM-DD, local time) that
// the operator considers "today" at instant now.
//
// When dayStartEnabled is false, this is simply now's local calendar
// date. When true, any instant before dayStartTime (HH:MM, local) still
// belongs to the previous calendar date — so staying up past midnight
// doesn't roll the day over early.
func EffectiveDate(now time.Time, dayStartEnabled bool, dayStartTime string) string {
	local := now.Local()
	if !dayStartEnabled {
		return local.Format(store.DateLayout)
	}

	t, err := time.Parse("15:04", dayStartTime)
	if err != nil {
		return local.Format(store.DateLayout)
	}

	boundary := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, local.Location())
	if local.Before(boundary) {
		return local.AddDate(0, 0, -1).Format(store.DateLayout)
	}
	return local.Format(store.DateLayout)
}

// IsNewDay reports whether now's effective date is strictly later than
// lastDate. An empty lastDate always counts as a new day.
func IsNewDay(now time.Time, dayStartEnabled bool, dayStartTime, lastDate string) bool {
	if lastDate == "" {
		return true
	}
	return EffectiveDate(now, dayStartEnabled, dayStartTime) > lastDate
}

// ParseDate parses a date-only string using the core's canonical layout.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(store.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t, nil
}

// FormatDate renders t using the core's canonical date-only layout.
func FormatDate(t time.Time) string {
	return t.Format(store.DateLayout)
}

// AddDays returns date advanced by n calendar days (n may be negative).
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// Before reports whether a < b as dates (both YYYY-MM-DD strings,
// which sort lexically the same as chronologically).
func Before(a, b string) bool { return a < b }

// DaysBetween returns the number of calendar days from a to b (negative
// if b precedes a) — used by the backup interval check, which compares
// against a whole-day cadence rather than a wall-clock duration.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}
