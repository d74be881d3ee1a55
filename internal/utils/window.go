package utils

import "time"

// Daily windows use a fixed UTC offset in minutes. There is no tz database
// lookup, so regions that observe DST drift by an hour for part of the year.

func localDate(t time.Time, tzOffsetMinutes int) (int, time.Month, int) {
	return t.UTC().Add(time.Duration(tzOffsetMinutes) * time.Minute).Date()
}

// IsNewWindow reports whether now falls on a later (or earlier) local
// calendar day than lastReset.
func IsNewWindow(lastReset, now time.Time, tzOffsetMinutes int) bool {
	ly, lm, ld := localDate(lastReset, tzOffsetMinutes)
	ny, nm, nd := localDate(now, tzOffsetMinutes)
	return ly != ny || lm != nm || ld != nd
}

// WindowStart is local midnight of now's local day, expressed in UTC.
func WindowStart(now time.Time, tzOffsetMinutes int) time.Time {
	y, m, d := localDate(now, tzOffsetMinutes)
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(-time.Duration(tzOffsetMinutes) * time.Minute)
}

func NextWindowBoundary(now time.Time, tzOffsetMinutes int) time.Time {
	return WindowStart(now, tzOffsetMinutes).Add(24 * time.Hour)
}
