package util

import "time"

// DateLayout is the canonical day format used in file names and CSV output.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date. The wall-clock date
// is kept as-is, so 2024-01-01T23:00-05:00 becomes 2024-01-01.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EachDay returns every calendar day from first to last inclusive. It
// returns nil when last is before first.
func EachDay(first, last time.Time) []time.Time {
	first, last = Day(first), Day(last)
	if last.Before(first) {
		return nil
	}
	days := make([]time.Time, 0, DaysBetween(first, last)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DaysBetween returns the signed number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
