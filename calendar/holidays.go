package calendar

import "time"

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// nthWeekday returns the n-th weekday of the month (n >= 1), or the last one when n < 0.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	if n < 0 {
		last := date(year, month+1, 0)
		offset := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDate(0, 0, -offset)
	}
	first := date(year, month, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

// sundayToMonday observes a Sunday holiday on the following Monday.
// Saturday holidays are not moved (Federal Reserve practice).
func sundayToMonday(t time.Time) time.Time {
	if t.Weekday() == time.Sunday {
		return t.AddDate(0, 0, 1)
	}
	return t
}

// weekendToMonday observes a weekend holiday on the following Monday.
func weekendToMonday(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

func isUSDHoliday(t time.Time) bool {
	y := t.Year()
	fixed := []time.Time{
		sundayToMonday(date(y, time.January, 1)),
		sundayToMonday(date(y, time.July, 4)),
		sundayToMonday(date(y, time.November, 11)),
		sundayToMonday(date(y, time.December, 25)),
	}
	if y >= 2022 {
		fixed = append(fixed, sundayToMonday(date(y, time.June, 19)))
	}
	floating := []time.Time{
		nthWeekday(y, time.January, time.Monday, 3),
		nthWeekday(y, time.February, time.Monday, 3),
		nthWeekday(y, time.May, time.Monday, -1),
		nthWeekday(y, time.September, time.Monday, 1),
		nthWeekday(y, time.October, time.Monday, 2),
		nthWeekday(y, time.November, time.Thursday, 4),
	}
	for _, h := range append(fixed, floating...) {
		if sameDay(t, h) {
			return true
		}
	}
	return false
}

func isGBPHoliday(t time.Time) bool {
	y := t.Year()
	easter := easterSunday(y)

	christmas := date(y, time.December, 25)
	boxing := date(y, time.December, 26)
	switch christmas.Weekday() {
	case time.Saturday:
		christmas = christmas.AddDate(0, 0, 2)
		boxing = boxing.AddDate(0, 0, 2)
	case time.Sunday:
		christmas = christmas.AddDate(0, 0, 2)
	case time.Friday:
		boxing = boxing.AddDate(0, 0, 2)
	}

	holidays := []time.Time{
		weekendToMonday(date(y, time.January, 1)),
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		nthWeekday(y, time.May, time.Monday, 1),
		nthWeekday(y, time.May, time.Monday, -1),
		nthWeekday(y, time.August, time.Monday, -1),
		christmas,
		boxing,
	}
	for _, h := range holidays {
		if sameDay(t, h) {
			return true
		}
	}
	return false
}

func isTargetHoliday(t time.Time) bool {
	y := t.Year()
	easter := easterSunday(y)
	holidays := []time.Time{
		date(y, time.January, 1),
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		date(y, time.May, 1),
		date(y, time.December, 25),
		date(y, time.December, 26),
	}
	for _, h := range holidays {
		if sameDay(t, h) {
			return true
		}
	}
	return false
}
