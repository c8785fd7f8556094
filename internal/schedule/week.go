package schedule

import (
	"time"

	"coursegrid/internal/model"
)

// DaySchedule is one rendered day column.
type DaySchedule struct {
	Date   time.Time
	Blocks []Block
}

// WeekSchedule is the full engine output for one target week: per-day blocks
// with geometry plus the deduplicated conflict list for review.
type WeekSchedule struct {
	Week      model.Week
	Days      [7]DaySchedule
	Conflicts []ConflictPair
}

// BuildWeek runs the whole pipeline for one week: resolve the snapshot,
// apply the visibility filter, bucket per day, then lay every day out. It is
// pure and idempotent, safe to re-run on every navigation or mutation.
func BuildWeek(records []model.EventRecord, anchor time.Time, visible CodeSet, cfg LayoutConfig) WeekSchedule {
	week := model.WeekOf(anchor)

	occs := ResolveWeek(records, anchor)
	occs = FilterOccurrences(occs, visible)
	days := BucketByDay(occs)

	out := WeekSchedule{Week: week, Conflicts: WeekConflicts(days)}
	for d := 0; d < 7; d++ {
		out.Days[d] = DaySchedule{
			Date:   week.Days[d],
			Blocks: LayoutDay(days[d], cfg),
		}
	}
	return out
}
