package domain

import "time"

// WeekOf maps a calendar date to its ISO-8601 (year, week) pair.
//
// The record's week assignment and the leaderboard's notion of "current week"
// both go through this one function, so the loader and the read side can
// never disagree about week boundaries.
func WeekOf(t time.Time) (year, week int) {
	// Shift to the Thursday of the containing Monday-Sunday week. The year
	// owning that Thursday owns the week, which handles weeks spanning a
	// year boundary.
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := d.AddDate(0, 0, 4-weekday)

	yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(yearStart).Hours()/24) + 1
	week = (days + 6) / 7
	return thursday.Year(), week
}

// CurrentWeek returns the ISO week containing now.
func CurrentWeek(now time.Time) Week {
	year, week := WeekOf(now)
	return Week{Year: year, WeekNumber: week}
}
