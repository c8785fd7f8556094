package model

import (
	"testing"
	"time"
)

func TestMondayOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{NewDate(2025, time.January, 6), NewDate(2025, time.January, 6)},  // Monday maps to itself
		{NewDate(2025, time.January, 9), NewDate(2025, time.January, 6)},  // Thursday
		{NewDate(2025, time.January, 12), NewDate(2025, time.January, 6)}, // Sunday belongs to the Monday week
		{NewDate(2025, time.January, 13), NewDate(2025, time.January, 13)},
		{NewDate(2025, time.March, 1), NewDate(2025, time.February, 24)}, // month boundary
	}

	for _, tc := range cases {
		if got := MondayOf(tc.in); !got.Equal(tc.want) {
			t.Errorf("MondayOf(%s) = %s, want %s", FormatDate(tc.in), FormatDate(got), FormatDate(tc.want))
		}
	}
}

func TestWeekOf(t *testing.T) {
	t.Parallel()

	w := WeekOf(NewDate(2025, time.January, 9))
	if !w.Anchor.Equal(NewDate(2025, time.January, 6)) {
		t.Fatalf("anchor = %s", FormatDate(w.Anchor))
	}
	if !w.Days[6].Equal(NewDate(2025, time.January, 12)) {
		t.Fatalf("last day = %s", FormatDate(w.Days[6]))
	}
	if !w.Contains(NewDate(2025, time.January, 12)) {
		t.Fatal("week does not contain its own Sunday")
	}
	if w.Contains(NewDate(2025, time.January, 13)) {
		t.Fatal("week contains the next Monday")
	}
}

func TestWeeksBetween(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b time.Time
		want int
	}{
		{NewDate(2025, time.January, 6), NewDate(2025, time.January, 6), 0},
		{NewDate(2025, time.January, 6), NewDate(2025, time.January, 20), 2},
		{NewDate(2025, time.January, 20), NewDate(2025, time.January, 6), -2},
		// Mid-week dates snap to their Mondays first.
		{NewDate(2025, time.January, 8), NewDate(2025, time.January, 16), 1},
		// A whole year, across the DST transitions a local-time subtraction
		// would trip over.
		{NewDate(2025, time.January, 6), NewDate(2026, time.January, 5), 52},
	}

	for _, tc := range cases {
		if got := WeeksBetween(tc.a, tc.b); got != tc.want {
			t.Errorf("WeeksBetween(%s, %s) = %d, want %d",
				FormatDate(tc.a), FormatDate(tc.b), got, tc.want)
		}
	}
}

func TestWeekdayIndex(t *testing.T) {
	t.Parallel()

	for i, name := range WeekdayNames {
		idx, ok := WeekdayIndex(name)
		if !ok || idx != i {
			t.Errorf("WeekdayIndex(%q) = %d, %v", name, idx, ok)
		}
	}

	for _, bad := range []string{"monday", "MONDAY", "Mon", "", "Funday"} {
		if _, ok := WeekdayIndex(bad); ok {
			t.Errorf("WeekdayIndex(%q) unexpectedly ok", bad)
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2025-03-14")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !d.Equal(NewDate(2025, time.March, 14)) {
		t.Fatalf("ParseDate = %s", FormatDate(d))
	}

	if _, err := ParseDate("14/03/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}
