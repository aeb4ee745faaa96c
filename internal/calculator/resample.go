package calculator

import (
	"time"

	"BreakoutSentinel/internal/model"
)

// ToWeekly groups daily bars into weeks ending on Friday. Each weekly bar is
// stamped with its Friday: open is the first, high the max, low the min,
// close the last and volume the sum of the daily bars in that week.
// Weekend bars roll into the following Friday's week.
func ToWeekly(daily []model.OHLCV) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.OHLCV
	var week model.OHLCV
	var weekEnd time.Time

	for _, d := range daily {
		end := fridayOnOrAfter(d.Time)
		if weekEnd.IsZero() || !end.Equal(weekEnd) {
			if !weekEnd.IsZero() {
				weekly = append(weekly, week)
			}
			weekEnd = end
			week = model.OHLCV{Time: end, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Volume: d.Volume}
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	weekly = append(weekly, week)
	return weekly
}

func fridayOnOrAfter(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}
