package scoring

import (
	"math"
	"time"

	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/store"
)

// projectionTrailingWindowDays is the lookback used to estimate the
// average daily rate a projection extrapolates from.
const projectionTrailingWindowDays = 30

// Low/high bracket the average daily rate into a conservative/optimistic
// spread around the avg projection.
const (
	projectionMultiplierLow  = 0.7
	projectionMultiplierHigh = 1.3
)

// Forecast is the result of Projection: a low/avg/high point-total
// estimate for targetDate, extrapolated from recent history.
type Forecast struct {
	CurrentTotal  int
	DaysUntil     int
	AvgPerDay     float64
	MinProjection int
	AvgProjection int
	MaxProjection int
}

// Projection estimates the running point total on targetDate by
// extrapolating the average daily_total over the trailing 30 days of
// DayLedger history from now's effective date. If targetDate is not
// after today, the projection collapses to the current total — there is
// nothing left to extrapolate. The low/high brackets never fall below
// the current total, since a negative trend still can't un-earn points
// already on the books.
func Projection(s *store.Store, now time.Time, targetDate string) (*Forecast, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}
	today := datectx.EffectiveDate(now, settings.DayStartEnabled, settings.DayStartTime)

	currentTotal, err := s.TotalScore()
	if err != nil {
		return nil, err
	}

	from, err := datectx.AddDays(today, -projectionTrailingWindowDays)
	if err != nil {
		return nil, err
	}
	history, err := s.ListDayLedgers(from, today)
	if err != nil {
		return nil, err
	}

	var avgPerDay float64
	if len(history) > 0 {
		var total int
		for _, l := range history {
			total += l.DailyTotal
		}
		avgPerDay = float64(total) / float64(len(history))
	}

	daysUntil, err := datectx.DaysBetween(today, targetDate)
	if err != nil {
		return nil, err
	}

	f := &Forecast{
		CurrentTotal: currentTotal,
		DaysUntil:    daysUntil,
		AvgPerDay:    math.Round(avgPerDay*100) / 100,
	}
	if daysUntil <= 0 {
		f.MinProjection = currentTotal
		f.AvgProjection = currentTotal
		f.MaxProjection = currentTotal
		return f, nil
	}

	minProjection := currentTotal + int(avgPerDay*projectionMultiplierLow*float64(daysUntil))
	avgProjection := currentTotal + int(avgPerDay*float64(daysUntil))
	maxProjection := currentTotal + int(avgPerDay*projectionMultiplierHigh*float64(daysUntil))

	f.MinProjection = max(minProjection, currentTotal)
	f.AvgProjection = max(avgProjection, currentTotal)
	f.MaxProjection = max(maxProjection, currentTotal)
	return f, nil
}
