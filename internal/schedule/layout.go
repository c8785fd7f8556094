package schedule

import (
	"sort"

	"coursegrid/internal/model"
)

// LayoutConfig carries the grid geometry the layout engine needs. Values are
// threaded in explicitly so the engine stays a pure function of its inputs.
type LayoutConfig struct {
	// CalendarStartMinutes / CalendarEndMinutes bound the visible hour range
	// as minute-of-day offsets.
	CalendarStartMinutes int
	CalendarEndMinutes   int

	// SlotHeightPx is the pixel height of one hour.
	SlotHeightPx int

	// MinHeightPx floors block heights so short or degenerate events remain
	// clickable.
	MinHeightPx int

	// MarginPct is the horizontal margin in percent of the day column,
	// trimmed from each block.
	MarginPct float64
}

// Geometry is the pixel-accurate placement of one occurrence within its day
// column: vertical position from the time range, horizontal slot from the
// conflict group.
type Geometry struct {
	// Top and Height are pixels from the top of the visible grid.
	Top    float64
	Height float64

	// Left and Width are percentages of the day column width.
	Left  float64
	Width float64

	// ZIndex stacks later-starting overlapping blocks above earlier ones so
	// margins at small widths cannot hide them.
	ZIndex int

	// PositionInGroup is the 0-indexed column within the conflict group
	// (0 for unconflicted blocks).
	PositionInGroup int

	// GroupSize is the conflict group size (1 for unconflicted blocks).
	GroupSize int
}

// Block is one occurrence with its resolved geometry.
type Block struct {
	Occurrence model.Occurrence
	Geometry   Geometry

	// Hidden marks occurrences that start outside the visible hour range.
	// They stay in the data but are not rendered.
	Hidden bool
}

const baseZIndex = 10

// LayoutDay computes geometry for one day's occurrences. The result is
// aligned with the input slice and stable: the same inputs always produce
// byte-identical placement, so re-renders never jitter.
func LayoutDay(day []model.Occurrence, cfg LayoutConfig) []Block {
	blocks := make([]Block, len(day))

	visible := make([]model.Occurrence, 0, len(day))
	visibleIdx := make([]int, 0, len(day))

	for i, occ := range day {
		blocks[i] = Block{Occurrence: occ}
		if occ.StartMinutes < cfg.CalendarStartMinutes || occ.StartMinutes >= cfg.CalendarEndMinutes {
			blocks[i].Hidden = true
			continue
		}
		blocks[i].Geometry.Top, blocks[i].Geometry.Height = verticalGeometry(occ, cfg)
		visible = append(visible, occ)
		visibleIdx = append(visibleIdx, i)
	}

	// Horizontal partitioning runs over the rendered blocks only.
	taken := make([]bool, len(visible))
	for _, group := range ConflictGroups(visible) {
		order := groupOrder(visible, group)
		k := len(order)
		slot := 100.0 / float64(k)
		for pos, vi := range order {
			g := &blocks[visibleIdx[vi]].Geometry
			g.Left = float64(pos)*slot + cfg.MarginPct/2
			g.Width = slot - cfg.MarginPct
			g.ZIndex = baseZIndex + pos
			g.PositionInGroup = pos
			g.GroupSize = k
			taken[vi] = true
		}
	}

	// Unconflicted blocks take the full column width minus the margin.
	for vi, i := range visibleIdx {
		if taken[vi] {
			continue
		}
		g := &blocks[i].Geometry
		g.Left = cfg.MarginPct / 2
		g.Width = 100 - cfg.MarginPct
		g.ZIndex = baseZIndex
		g.PositionInGroup = 0
		g.GroupSize = 1
	}

	return blocks
}

// verticalGeometry maps a time range onto grid pixels. Degenerate ranges
// (end at or before start, typically from malformed time strings) collapse
// to the minimum height rather than disappearing.
func verticalGeometry(occ model.Occurrence, cfg LayoutConfig) (top, height float64) {
	slot := float64(cfg.SlotHeightPx)
	top = float64(occ.StartMinutes-cfg.CalendarStartMinutes) / 60 * slot
	height = float64(occ.EndMinutes-occ.StartMinutes) / 60 * slot
	if minH := float64(cfg.MinHeightPx); height < minH {
		height = minH
	}
	return top, height
}

// groupOrder sorts a conflict group by start time, breaking ties with the
// original snapshot index. The result is the stable positionInGroup order.
func groupOrder(visible []model.Occurrence, group []int) []int {
	order := make([]int, len(group))
	copy(order, group)
	sort.SliceStable(order, func(a, b int) bool {
		oa, ob := visible[order[a]], visible[order[b]]
		if oa.StartMinutes != ob.StartMinutes {
			return oa.StartMinutes < ob.StartMinutes
		}
		return oa.Index < ob.Index
	})
	return order
}
