package model

import (
	"fmt"
	"time"
)

// WeekdayNames are the canonical names used by Weekly/Biweekly records,
// Monday first to match the Monday-anchored week.
var WeekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayIndex maps a canonical weekday name to its Monday-based index
// (0=Monday .. 6=Sunday). The match is case-sensitive and exact; anything
// else reports ok=false so callers can fail closed.
func WeekdayIndex(name string) (int, bool) {
	for i, n := range WeekdayNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// CivilDate normalizes t to a zone-less civil date: midnight UTC of the same
// year/month/day. All engine date arithmetic runs on these values, which
// makes day counts exact regardless of what location t carried.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate builds the civil date for year/month/day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return CivilDate(t), nil
}

// FormatDate renders a civil date back to "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// MondayOf returns the Monday on or before t, as a civil date. It is the
// week anchor used everywhere, including biweekly parity.
func MondayOf(t time.Time) time.Time {
	d := CivilDate(t)
	// Go's Weekday has Sunday=0; shift to Monday=0.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Week is a Monday-anchored run of seven civil dates.
type Week struct {
	Anchor time.Time
	Days   [7]time.Time
}

// WeekOf builds the week containing t.
func WeekOf(t time.Time) Week {
	anchor := MondayOf(t)
	var w Week
	w.Anchor = anchor
	for i := 0; i < 7; i++ {
		w.Days[i] = anchor.AddDate(0, 0, i)
	}
	return w
}

// Contains reports whether the civil date of t is one of the week's days.
func (w Week) Contains(t time.Time) bool {
	d := CivilDate(t)
	return !d.Before(w.Anchor) && d.Before(w.Anchor.AddDate(0, 0, 7))
}

// WeeksBetween returns the signed number of whole weeks from the Monday of a
// to the Monday of b. Computed anchor-to-anchor on civil dates, so it cannot
// drift across daylight-saving transitions.
func WeeksBetween(a, b time.Time) int {
	ma := MondayOf(a)
	mb := MondayOf(b)
	days := int(mb.Sub(ma).Hours() / 24)
	return days / 7
}
