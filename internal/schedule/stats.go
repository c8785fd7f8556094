package schedule

import (
	"time"

	"coursegrid/internal/model"
)

// Stats summarizes the whole record set independently of which week the
// user is looking at. Courses are recurring, so both numbers must hold still
// while the user pages through weeks.
type Stats struct {
	// Courses is the number of distinct course codes among visible records.
	Courses int

	// Conflicts is the number of distinct clashing record pairs.
	Conflicts int

	// Pairs lists those clashes for review.
	Pairs []ConflictPair
}

// statsProbeAnchor is an arbitrary fixed Monday used as the probe week when
// neither record of a pair pins a calendar date. Any Monday gives the same
// answer for two weekly records; fixing one keeps the output deterministic.
var statsProbeAnchor = model.NewDate(2001, 1, 1)

// ComputeStats derives the unique-course and conflict counts for the full
// record set, post visibility filter.
func ComputeStats(records []model.EventRecord, visible CodeSet) Stats {
	var st Stats

	// Unique courses: distinct extractable codes across records that can
	// materialize at all and pass the filter. Records without a code render
	// fine but cannot contribute to a course count.
	codes := make(map[string]struct{})
	for _, rec := range records {
		if !canOccur(rec) {
			continue
		}
		code, ok := RecordCourseCode(rec)
		if !ok || !visible.allows(code, true) {
			continue
		}
		codes[code] = struct{}{}
	}
	st.Courses = len(codes)

	// Conflicts are a property of the recurring pattern, not of the week on
	// screen. Each pair is checked in a probe week in which both records
	// could occur; re-running the resolver there answers whether they ever
	// actually share a day and overlap.
	for i := 0; i < len(records); i++ {
		if !visible.AllowsRecord(records[i]) {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			if !visible.AllowsRecord(records[j]) {
				continue
			}
			if pair, ok := patternConflict(records[i], i, records[j], j); ok {
				st.Pairs = append(st.Pairs, pair)
			}
		}
	}
	st.Conflicts = len(st.Pairs)

	return st
}

// canOccur reports whether a record can materialize in at least one week.
func canOccur(rec model.EventRecord) bool {
	switch r := rec.Recurrence.(type) {
	case model.Weekly:
		_, ok := model.WeekdayIndex(r.Day)
		return ok
	case model.Biweekly:
		_, ok := model.WeekdayIndex(r.Day)
		return ok && !r.ReferenceDate.IsZero()
	case model.Fixed:
		return !r.StartDate.IsZero()
	default:
		return false
	}
}

// patternConflict decides whether two records ever clash. The probe week is
// pinned by the most constrained record of the pair: a Fixed record's own
// week, else a Biweekly record's reference week, else any week at all.
// Resolving both records there makes every pairing come out right; in
// particular two biweekly records on opposite parities never both occur in
// either reference week, so they never conflict.
func patternConflict(a model.EventRecord, ai int, b model.EventRecord, bi int) (ConflictPair, bool) {
	anchor := statsProbeAnchor
	switch {
	case fixedStart(a) != nil:
		anchor = *fixedStart(a)
	case fixedStart(b) != nil:
		anchor = *fixedStart(b)
	case biweeklyRef(a) != nil:
		anchor = *biweeklyRef(a)
	case biweeklyRef(b) != nil:
		anchor = *biweeklyRef(b)
	}

	week := model.WeekOf(anchor)
	occA, okA := resolveRecord(a, ai, week)
	occB, okB := resolveRecord(b, bi, week)
	if !okA || !okB || !occA.Date.Equal(occB.Date) {
		return ConflictPair{}, false
	}
	if !Overlaps(occA.StartMinutes, occA.EndMinutes, occB.StartMinutes, occB.EndMinutes) {
		return ConflictPair{}, false
	}

	return ConflictPair{
		A:   a,
		B:   b,
		Day: model.WeekdayNames[mondayIndex(occA.Date)],
	}, true
}

func fixedStart(rec model.EventRecord) *time.Time {
	if r, ok := rec.Recurrence.(model.Fixed); ok && !r.StartDate.IsZero() {
		d := r.StartDate
		return &d
	}
	return nil
}

func biweeklyRef(rec model.EventRecord) *time.Time {
	if r, ok := rec.Recurrence.(model.Biweekly); ok && !r.ReferenceDate.IsZero() {
		d := r.ReferenceDate
		return &d
	}
	return nil
}
