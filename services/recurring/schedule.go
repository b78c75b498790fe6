package recurring

import (
	"time"

	"wellness/models"
)

// NextOccurrence advances a calendar date by one period. Monthly steps keep the day of month,
// clamped to the last day of shorter months.
func NextOccurrence(date time.Time, freq models.Frequency) time.Time {
	switch freq {
	case models.FrequencyBiweekly:
		return date.AddDate(0, 0, 14)
	case models.FrequencyMonthly:
		y, m, day := date.Date()
		first := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
		if last := first.AddDate(0, 1, -1).Day(); day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
	default:
		return date.AddDate(0, 0, 7)
	}
}
