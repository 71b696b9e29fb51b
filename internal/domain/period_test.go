package domain

import (
	"testing"
	"time"
)

func TestPeriodKeys(t *testing.T) {
	// Wednesday, July 9, 2025; first Sunday of 2025 is January 5.
	at := time.Date(2025, 7, 9, 15, 30, 0, 0, time.UTC)

	keys := KeysAt(at)
	if keys.Daily != "2025-07-09" {
		t.Fatalf("daily = %q", keys.Daily)
	}
	if keys.Weekly != "2025-W27" {
		t.Fatalf("weekly = %q", keys.Weekly)
	}
	if keys.Monthly != "2025-07" {
		t.Fatalf("monthly = %q", keys.Monthly)
	}
}

func TestWeeklyKeyBeforeFirstSunday(t *testing.T) {
	// January 3, 2025 is a Friday before the year's first Sunday.
	if got := WeeklyKey(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)); got != "2025-W00" {
		t.Fatalf("weekly = %q, want 2025-W00", got)
	}
	if got := WeeklyKey(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)); got != "2025-W01" {
		t.Fatalf("weekly = %q, want 2025-W01", got)
	}
}

func TestWeekRollsOnSunday(t *testing.T) {
	saturday := time.Date(2025, 7, 12, 23, 59, 0, 0, time.UTC)
	sunday := time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC)

	if WeeklyKey(saturday) == WeeklyKey(sunday) {
		t.Fatalf("week must roll over on Sunday, got %q for both days", WeeklyKey(sunday))
	}
}

func TestLastWeekKeyMatchesPreviousWeekEvents(t *testing.T) {
	// key announced at the Sunday 09:00 recap equals the key events earned
	// at any instant during the week that just ended
	fire := time.Date(2025, 7, 13, 9, 0, 0, 0, time.UTC)
	for _, earned := range []time.Time{
		time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC),    // first second of the week
		time.Date(2025, 7, 9, 15, 0, 0, 0, time.UTC),   // midweek
		time.Date(2025, 7, 12, 23, 59, 0, 0, time.UTC), // last minute
	} {
		if got, want := LastWeekKey(fire), WeeklyKey(earned); got != want {
			t.Fatalf("LastWeekKey = %q, event key = %q for %v", got, want, earned)
		}
	}
}

func TestWeekStart(t *testing.T) {
	wednesday := time.Date(2025, 7, 9, 15, 0, 0, 0, time.UTC)
	want := time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(wednesday); !got.Equal(want) {
		t.Fatalf("week start = %v, want %v", got, want)
	}
	if got := WeekStart(want); !got.Equal(want) {
		t.Fatalf("week start of a Sunday = %v, want itself", got)
	}
}

func TestLastMonthJanuaryRollover(t *testing.T) {
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	got := LastMonth(jan)
	if got.Year() != 2025 || got.Month() != time.December {
		t.Fatalf("last month of January 2026 = %v, want December 2025", got)
	}
	if MonthlyKey(got) != "2025-12" {
		t.Fatalf("key = %q, want 2025-12", MonthlyKey(got))
	}
}
