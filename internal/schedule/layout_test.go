package schedule

import (
	"math"
	"testing"
	"time"

	"coursegrid/internal/model"
)

var testGrid = LayoutConfig{
	CalendarStartMinutes: 8 * 60,
	CalendarEndMinutes:   22 * 60,
	SlotHeightPx:         60,
	MinHeightPx:          30,
	MarginPct:            0,
}

func TestLayoutDayVerticalGeometry(t *testing.T) {
	t.Parallel()

	day := []model.Occurrence{
		occAt("CSI 2110", 0, 9*60, 10*60+20), // 09:00-10:20
	}
	blocks := LayoutDay(day, testGrid)

	g := blocks[0].Geometry
	if g.Top != 60 {
		t.Errorf("top = %v, want 60", g.Top)
	}
	if g.Height != 80 {
		t.Errorf("height = %v, want 80", g.Height)
	}
}

func TestLayoutDayMinHeightClamp(t *testing.T) {
	t.Parallel()

	day := []model.Occurrence{
		occAt("short", 0, 9*60, 9*60+10),
		// Degenerate range from malformed stored times.
		occAt("degenerate", 1, 10*60, 10*60),
	}
	blocks := LayoutDay(day, testGrid)

	for i, b := range blocks {
		if b.Geometry.Height != 30 {
			t.Errorf("block %d height = %v, want min height 30", i, b.Geometry.Height)
		}
	}
}

func TestLayoutDayHidesOutOfRange(t *testing.T) {
	t.Parallel()

	day := []model.Occurrence{
		occAt("too early", 0, 6*60, 7*60),
		occAt("in range", 1, 9*60, 10*60),
		occAt("too late", 2, 22*60, 23*60),
	}
	blocks := LayoutDay(day, testGrid)

	if !blocks[0].Hidden || !blocks[2].Hidden {
		t.Fatal("out-of-range occurrences not hidden")
	}
	if blocks[1].Hidden {
		t.Fatal("in-range occurrence hidden")
	}
	// Hidden blocks keep their data; only rendering skips them.
	if blocks[0].Occurrence.Record.Title != "too early" {
		t.Fatal("hidden block lost its occurrence")
	}
}

func TestLayoutDayConflictSplit(t *testing.T) {
	t.Parallel()

	// The canonical two-course clash: both Monday, 09:00-10:20 and 09:30-10:30.
	day := []model.Occurrence{
		occAt("CSI 2110", 0, 9*60, 10*60+20),
		occAt("MAT 1341", 1, 9*60+30, 10*60+30),
	}
	blocks := LayoutDay(day, testGrid)

	for i, b := range blocks {
		if b.Geometry.GroupSize != 2 {
			t.Fatalf("block %d group size = %d, want 2", i, b.Geometry.GroupSize)
		}
		if b.Geometry.Width != 50 {
			t.Errorf("block %d width = %v, want 50", i, b.Geometry.Width)
		}
	}
	if blocks[0].Geometry.PositionInGroup != 0 || blocks[1].Geometry.PositionInGroup != 1 {
		t.Errorf("positions = %d/%d, want 0/1",
			blocks[0].Geometry.PositionInGroup, blocks[1].Geometry.PositionInGroup)
	}
	if blocks[0].Geometry.Left != 0 || blocks[1].Geometry.Left != 50 {
		t.Errorf("lefts = %v/%v, want 0/50", blocks[0].Geometry.Left, blocks[1].Geometry.Left)
	}
	if blocks[1].Geometry.ZIndex <= blocks[0].Geometry.ZIndex {
		t.Errorf("z-order not increasing with position: %d vs %d",
			blocks[0].Geometry.ZIndex, blocks[1].Geometry.ZIndex)
	}
}

func TestLayoutDayPartitionCoversGroup(t *testing.T) {
	t.Parallel()

	// A chained group of three; widths must sum to 100 (margin 0) and the
	// positions must be a permutation of 0..k-1.
	day := []model.Occurrence{
		occAt("A", 0, 540, 640),
		occAt("B", 1, 570, 690),
		occAt("C", 2, 660, 720),
	}
	blocks := LayoutDay(day, testGrid)

	sum := 0.0
	seen := make(map[int]bool)
	for _, b := range blocks {
		sum += b.Geometry.Width
		seen[b.Geometry.PositionInGroup] = true
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("widths sum to %v, want 100", sum)
	}
	for pos := 0; pos < len(day); pos++ {
		if !seen[pos] {
			t.Errorf("position %d missing from group", pos)
		}
	}
}

func TestLayoutDayMargins(t *testing.T) {
	t.Parallel()

	cfg := testGrid
	cfg.MarginPct = 2

	day := []model.Occurrence{
		occAt("solo", 0, 9*60, 10*60),
	}
	blocks := LayoutDay(day, cfg)

	g := blocks[0].Geometry
	if g.Width != 98 {
		t.Errorf("solo width = %v, want 98", g.Width)
	}
	if g.Left != 1 {
		t.Errorf("solo left = %v, want 1", g.Left)
	}
}

func TestLayoutDayTieBreakUsesInputOrder(t *testing.T) {
	t.Parallel()

	// Same start time: snapshot order decides the column, so re-renders of
	// the same snapshot can never swap blocks.
	day := []model.Occurrence{
		occAt("second in input", 5, 540, 600),
		occAt("first in input", 2, 540, 630),
	}
	blocks := LayoutDay(day, testGrid)

	if blocks[1].Geometry.PositionInGroup != 0 {
		t.Errorf("lower snapshot index got position %d, want 0", blocks[1].Geometry.PositionInGroup)
	}
	if blocks[0].Geometry.PositionInGroup != 1 {
		t.Errorf("higher snapshot index got position %d, want 1", blocks[0].Geometry.PositionInGroup)
	}
}

func TestBuildWeekIdempotent(t *testing.T) {
	t.Parallel()

	records := []model.EventRecord{
		weeklyRecord("CSI 2110 - Lecture", "Monday", "09:00", "10:20"),
		weeklyRecord("MAT 1341 - Lecture", "Monday", "09:30", "10:30"),
		weeklyRecord("PHY 1124 - Lab", "Thursday", "14:30", "17:00"),
		{
			Title:     "ITI 1121 - DGD",
			StartTime: "11:30",
			EndTime:   "12:50",
			Recurrence: model.Biweekly{
				Day:           "Wednesday",
				ReferenceDate: model.NewDate(2025, time.January, 6),
			},
		},
	}
	anchor := model.NewDate(2025, time.January, 8)

	first := BuildWeek(records, anchor, nil, testGrid)
	second := BuildWeek(records, anchor, nil, testGrid)

	if !weekSchedulesEqual(first, second) {
		t.Fatal("BuildWeek is not idempotent for identical inputs")
	}
}

func weekSchedulesEqual(a, b WeekSchedule) bool {
	if !a.Week.Anchor.Equal(b.Week.Anchor) || len(a.Conflicts) != len(b.Conflicts) {
		return false
	}
	for d := 0; d < 7; d++ {
		if len(a.Days[d].Blocks) != len(b.Days[d].Blocks) {
			return false
		}
		for i := range a.Days[d].Blocks {
			if a.Days[d].Blocks[i].Geometry != b.Days[d].Blocks[i].Geometry {
				return false
			}
			if a.Days[d].Blocks[i].Hidden != b.Days[d].Blocks[i].Hidden {
				return false
			}
		}
	}
	return true
}
