package calc

import "time"

// TradingDays counts Monday–Friday days from entry through asOf, excluding the entry day
// itself. Weekends never count; market holidays are not consulted. Never negative.
func TradingDays(entry, asOf time.Time) int {
	start := civilDate(entry)
	end := civilDate(asOf)
	if end.Before(start) {
		return 0
	}

	// Whole weeks contribute five weekdays each; walk the remainder.
	totalDays := int(end.Sub(start).Hours()/24) + 1
	weeks := totalDays / 7
	count := weeks * 5
	for d := start.AddDate(0, 0, weeks*7); !d.After(end); d = d.AddDate(0, 0, 1) {
		if isWeekday(d) {
			count++
		}
	}

	count-- // the entry day
	if count < 0 {
		return 0
	}
	return count
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
