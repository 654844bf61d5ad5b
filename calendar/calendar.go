package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	USD    CalendarID = "USD"
	GBP    CalendarID = "GBP"
)

// IsKnown reports whether cal has holiday rules.
func IsKnown(cal CalendarID) bool {
	switch cal {
	case TARGET, USD, GBP:
		return true
	}
	return false
}

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case TARGET:
		return isTargetHoliday(t)
	case USD:
		return isUSDHoliday(t)
	case GBP:
		return isGBPHoliday(t)
	default:
		return false
	}
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// Next returns the first business day strictly after t.
func Next(cal CalendarID, t time.Time) time.Time {
	return AddBusinessDays(cal, t, 1)
}

// BusinessDays lists the business days in [start, end).
func BusinessDays(cal CalendarID, start, end time.Time) []time.Time {
	var out []time.Time
	for d := AdjustFollowing(cal, start); d.Before(end); d = Next(cal, d) {
		out = append(out, d)
	}
	return out
}
