package schedule

import (
	"time"

	"coursegrid/internal/model"
)

// CodeSet is the visibility filter: the set of course codes allowed to
// render and count. An empty set means the filter is off and everything
// shows; codes become an allow list only once something has been toggled.
type CodeSet map[string]struct{}

// NewCodeSet builds a CodeSet from a list of codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Codes returns the set members as a slice (unordered).
func (s CodeSet) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	return out
}

// allows reports whether a record with the given extraction result passes
// the filter. Records without an extractable code always pass: the filter
// only ever applies to codes that are explicitly present.
func (s CodeSet) allows(code string, hasCode bool) bool {
	if len(s) == 0 {
		return true
	}
	if !hasCode {
		return true
	}
	_, ok := s[code]
	return ok
}

// AllowsRecord applies the filter to a whole record.
func (s CodeSet) AllowsRecord(rec model.EventRecord) bool {
	code, ok := RecordCourseCode(rec)
	return s.allows(code, ok)
}

// FilterOccurrences drops occurrences whose records the visibility filter
// excludes. Input order is preserved; the input slice is not mutated.
func FilterOccurrences(occs []model.Occurrence, visible CodeSet) []model.Occurrence {
	if len(visible) == 0 {
		return occs
	}
	out := make([]model.Occurrence, 0, len(occs))
	for _, occ := range occs {
		if visible.AllowsRecord(occ.Record) {
			out = append(out, occ)
		}
	}
	return out
}

// BucketByDay groups occurrences into seven Monday-indexed buckets
// (0=Monday .. 6=Sunday). Within a bucket, input order is preserved so the
// layout tie-break stays stable across re-renders.
func BucketByDay(occs []model.Occurrence) [7][]model.Occurrence {
	var days [7][]model.Occurrence
	for _, occ := range occs {
		idx := mondayIndex(occ.Date)
		days[idx] = append(days[idx], occ)
	}
	return days
}

func mondayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}
