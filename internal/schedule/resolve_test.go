package schedule

import (
	"testing"
	"time"

	"coursegrid/internal/model"
)

func weeklyRecord(title, day, start, end string) model.EventRecord {
	return model.EventRecord{
		Title:      title,
		StartTime:  start,
		EndTime:    end,
		Recurrence: model.Weekly{Day: day},
	}
}

func TestResolveWeekWeeklyDeterminism(t *testing.T) {
	t.Parallel()

	rec := weeklyRecord("CSI 2110 - Lecture", "Wednesday", "10:00", "11:20")

	// One occurrence per week, always on that week's Wednesday, for a run of
	// weeks anchored at arbitrary (non-Monday) dates.
	for offset := 0; offset < 10; offset++ {
		anchor := model.NewDate(2025, time.January, 2).AddDate(0, 0, 7*offset)
		occs := ResolveWeek([]model.EventRecord{rec}, anchor)

		if len(occs) != 1 {
			t.Fatalf("week of %s: expected 1 occurrence, got %d", model.FormatDate(anchor), len(occs))
		}
		if got := occs[0].Date.Weekday(); got != time.Wednesday {
			t.Fatalf("week of %s: occurrence on %v, want Wednesday", model.FormatDate(anchor), got)
		}
		if !model.WeekOf(anchor).Contains(occs[0].Date) {
			t.Fatalf("week of %s: occurrence date %s outside target week",
				model.FormatDate(anchor), model.FormatDate(occs[0].Date))
		}
	}
}

func TestResolveWeekBiweeklyParity(t *testing.T) {
	t.Parallel()

	// Reference date 2025-01-06 is a Monday; the reference week counts as "on".
	rec := model.EventRecord{
		Title:     "MAT 1341 - DGD",
		StartTime: "13:00",
		EndTime:   "14:30",
		Recurrence: model.Biweekly{
			Day:           "Monday",
			ReferenceDate: model.NewDate(2025, time.January, 6),
		},
	}

	cases := []struct {
		anchor time.Time
		want   int
	}{
		{model.NewDate(2025, time.January, 6), 1},
		{model.NewDate(2025, time.January, 13), 0},
		{model.NewDate(2025, time.January, 20), 1},
		{model.NewDate(2025, time.January, 27), 0},
		// Anchoring mid-week must agree with the Monday anchor.
		{model.NewDate(2025, time.January, 23), 1},
		// Weeks before the reference follow the same cycle.
		{model.NewDate(2024, time.December, 30), 0},
		{model.NewDate(2024, time.December, 23), 1},
	}

	for _, tc := range cases {
		occs := ResolveWeek([]model.EventRecord{rec}, tc.anchor)
		if len(occs) != tc.want {
			t.Errorf("week of %s: got %d occurrences, want %d",
				model.FormatDate(tc.anchor), len(occs), tc.want)
		}
		if tc.want == 1 && occs[0].Date.Weekday() != time.Monday {
			t.Errorf("week of %s: occurrence on %v, want Monday",
				model.FormatDate(tc.anchor), occs[0].Date.Weekday())
		}
	}
}

func TestResolveWeekFixedSingleOccurrence(t *testing.T) {
	t.Parallel()

	date := model.NewDate(2025, time.March, 14)
	rec := model.EventRecord{
		Title:      "CSI 2110 - Midterm",
		StartTime:  "19:00",
		EndTime:    "21:00",
		Recurrence: model.Fixed{StartDate: date, EndDate: date},
	}

	// Only the week containing 2025-03-14 resolves anything.
	hits := 0
	for offset := -4; offset <= 4; offset++ {
		anchor := model.NewDate(2025, time.March, 10).AddDate(0, 0, 7*offset)
		occs := ResolveWeek([]model.EventRecord{rec}, anchor)
		if len(occs) > 1 {
			t.Fatalf("week of %s: %d occurrences for a fixed record", model.FormatDate(anchor), len(occs))
		}
		if len(occs) == 1 {
			hits++
			if !occs[0].Date.Equal(date) {
				t.Fatalf("occurrence on %s, want %s",
					model.FormatDate(occs[0].Date), model.FormatDate(date))
			}
		}
	}
	if hits != 1 {
		t.Fatalf("fixed record resolved in %d weeks, want 1", hits)
	}
}

func TestResolveWeekFailsClosed(t *testing.T) {
	t.Parallel()

	anchor := model.NewDate(2025, time.January, 6)
	records := []model.EventRecord{
		// Weekday names are matched case-sensitively against the canonical set.
		weeklyRecord("bad day", "monday", "09:00", "10:00"),
		weeklyRecord("bad day 2", "Funday", "09:00", "10:00"),
		// Missing recurrence entirely.
		{Title: "no recurrence", StartTime: "09:00", EndTime: "10:00"},
		// Biweekly without a reference date.
		{Title: "no ref", StartTime: "09:00", EndTime: "10:00",
			Recurrence: model.Biweekly{Day: "Monday"}},
	}

	if occs := ResolveWeek(records, anchor); len(occs) != 0 {
		t.Fatalf("expected no occurrences from unresolvable records, got %d", len(occs))
	}
}

func TestResolveWeekMalformedTimesStillResolve(t *testing.T) {
	t.Parallel()

	rec := weeklyRecord("broken times", "Tuesday", "whenever", "??")
	occs := ResolveWeek([]model.EventRecord{rec}, model.NewDate(2025, time.January, 6))

	if len(occs) != 1 {
		t.Fatalf("expected the record to still resolve, got %d occurrences", len(occs))
	}
	if occs[0].StartMinutes != 0 || occs[0].EndMinutes != 0 {
		t.Fatalf("expected sentinel minutes 0/0, got %d/%d",
			occs[0].StartMinutes, occs[0].EndMinutes)
	}
}
