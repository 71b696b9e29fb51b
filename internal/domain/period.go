package domain

import (
	"fmt"
	"time"
)

// PeriodType identifies one of the three recurring scoring windows.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// PeriodKeys carries the three calendar keys derived from a single instant.
type PeriodKeys struct {
	Daily   string
	Weekly  string
	Monthly string
}

// KeysAt derives all three period keys for t. Aggregation and announcements
// must go through these helpers so the keys always line up.
func KeysAt(t time.Time) PeriodKeys {
	return PeriodKeys{
		Daily:   DailyKey(t),
		Weekly:  WeeklyKey(t),
		Monthly: MonthlyKey(t),
	}
}

// Key returns the period key of the given type for t.
func (p PeriodType) Key(t time.Time) string {
	switch p {
	case PeriodDaily:
		return DailyKey(t)
	case PeriodWeekly:
		return WeeklyKey(t)
	default:
		return MonthlyKey(t)
	}
}

// DailyKey is the calendar date, e.g. "2025-07-12".
func DailyKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WeeklyKey is the year plus a Sunday-anchored week-of-year number, e.g.
// "2025-W28". Days before the year's first Sunday fall in week 0.
func WeeklyKey(t time.Time) string {
	t = t.UTC()
	week := (t.YearDay() + 6 - int(t.Weekday())) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}

// MonthlyKey is the year-month, e.g. "2025-07".
func MonthlyKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// LastWeekKey resolves the most recently completed week as of now. Weeks
// start on Sunday, so seven days ago always lands inside the week that
// ended yesterday-or-earlier; using WeeklyKey on that instant keeps the
// announced period identical to the one the aggregator wrote into.
func LastWeekKey(now time.Time) string {
	return WeeklyKey(now.AddDate(0, 0, -7))
}

// WeekStart returns midnight UTC of the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	start := t.AddDate(0, 0, -int(t.Weekday()))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}

// LastMonth returns an instant inside the previous calendar month,
// handling the January rollover.
func LastMonth(now time.Time) time.Time {
	now = now.UTC()
	if now.Month() == time.January {
		return time.Date(now.Year()-1, time.December, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
}
