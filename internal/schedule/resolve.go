// Package schedule is the recurring-event resolution and conflict-layout
// engine. Every stage is a pure function over an in-memory snapshot of event
// records: resolve occurrences for a week, bucket them per day, detect
// overlaps, and compute pixel geometry. Bad records degrade and log; nothing
// in this package panics or returns an error across its boundary.
package schedule

import (
	"time"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/timeutil"
)

// ResolveWeek expands the record snapshot into concrete occurrences that
// land inside the week anchored at anchor (any date; the containing
// Monday-anchored week is used). A record resolves to at most one occurrence
// per calendar date.
func ResolveWeek(records []model.EventRecord, anchor time.Time) []model.Occurrence {
	week := model.WeekOf(anchor)

	out := make([]model.Occurrence, 0, len(records))
	for i, rec := range records {
		if occ, ok := resolveRecord(rec, i, week); ok {
			out = append(out, occ)
		}
	}
	return out
}

// resolveRecord decides whether and where one record occurs within the week.
// Unknown or nil recurrence kinds fail closed: no occurrence, only a log.
func resolveRecord(rec model.EventRecord, index int, week model.Week) (model.Occurrence, bool) {
	switch r := rec.Recurrence.(type) {
	case model.Weekly:
		dayIdx, ok := model.WeekdayIndex(r.Day)
		if !ok {
			appLog.Warn("weekly record has unknown weekday, skipping",
				"id", rec.ID, "title", rec.Title, "day", r.Day)
			return model.Occurrence{}, false
		}
		return makeOccurrence(rec, index, week.Days[dayIdx]), true

	case model.Biweekly:
		dayIdx, ok := model.WeekdayIndex(r.Day)
		if !ok {
			appLog.Warn("biweekly record has unknown weekday, skipping",
				"id", rec.ID, "title", rec.Title, "day", r.Day)
			return model.Occurrence{}, false
		}
		if r.ReferenceDate.IsZero() {
			appLog.Warn("biweekly record has no reference date, skipping",
				"id", rec.ID, "title", rec.Title)
			return model.Occurrence{}, false
		}
		// Parity is week-anchor to week-anchor so short or DST-shifted weeks
		// cannot drift the cycle. The reference week itself is "on".
		if model.WeeksBetween(r.ReferenceDate, week.Anchor)%2 != 0 {
			return model.Occurrence{}, false
		}
		return makeOccurrence(rec, index, week.Days[dayIdx]), true

	case model.Fixed:
		if r.StartDate.IsZero() {
			appLog.Warn("fixed record has no start date, skipping",
				"id", rec.ID, "title", rec.Title)
			return model.Occurrence{}, false
		}
		if !week.Contains(r.StartDate) {
			return model.Occurrence{}, false
		}
		return makeOccurrence(rec, index, model.CivilDate(r.StartDate)), true

	default:
		// nil or a kind this engine does not understand.
		appLog.Warn("record has unknown recurrence kind, skipping",
			"id", rec.ID, "title", rec.Title)
		return model.Occurrence{}, false
	}
}

func makeOccurrence(rec model.EventRecord, index int, date time.Time) model.Occurrence {
	return model.Occurrence{
		Record:       rec,
		Index:        index,
		Date:         date,
		StartMinutes: timeutil.ToMinutes(rec.StartTime),
		EndMinutes:   timeutil.ToMinutes(rec.EndTime),
	}
}
