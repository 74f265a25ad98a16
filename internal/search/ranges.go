package search

import "time"

// WeekRange returns the Monday and Sunday civil dates of the week containing
// now, formatted as date-only bounds. Callers pass now already shifted into
// the service's local zone.
func WeekRange(now time.Time) (start, end string) {
	// time.Weekday is Sunday-based; shift to a Monday-based offset.
	offset := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format("2006-01-02"), sunday.Format("2006-01-02")
}

// MonthRange returns the first and last civil dates of the month containing
// now.
func MonthRange(now time.Time) (start, end string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}
