package schedule

import (
	"sort"
	"time"

	"coursegrid/internal/model"
)

// Overlaps reports whether two half-open minute ranges intersect. Touching
// endpoints (e1 == s2) do not conflict.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// ConflictGraph builds an adjacency map for one day's occurrences: slice
// index to the sorted indices it overlaps with. The scan is deliberately
// quadratic; per-day occurrence counts are bounded by realistic course loads,
// and the simple scan is order-independent and easy to trust.
func ConflictGraph(day []model.Occurrence) map[int][]int {
	graph := make(map[int][]int)
	for i := 0; i < len(day); i++ {
		for j := i + 1; j < len(day); j++ {
			if Overlaps(day[i].StartMinutes, day[i].EndMinutes, day[j].StartMinutes, day[j].EndMinutes) {
				graph[i] = append(graph[i], j)
				graph[j] = append(graph[j], i)
			}
		}
	}
	for k := range graph {
		sort.Ints(graph[k])
	}
	return graph
}

// ConflictGroups returns the connected components of the day's conflict
// graph with at least one edge, each component's indices in ascending order.
// Components, not cliques: the original grid splits a whole chain of
// transitively-overlapping blocks into equal columns, and this engine keeps
// that deterministic contract.
func ConflictGroups(day []model.Occurrence) [][]int {
	graph := ConflictGraph(day)

	visited := make([]bool, len(day))
	var groups [][]int

	for i := 0; i < len(day); i++ {
		if visited[i] || len(graph[i]) == 0 {
			continue
		}
		// Iterative DFS over the component.
		var component []int
		stack := []int{i}
		visited[i] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, n)
			for _, nb := range graph[n] {
				if !visited[nb] {
					visited[nb] = true
					stack = append(stack, nb)
				}
			}
		}
		sort.Ints(component)
		groups = append(groups, component)
	}
	return groups
}

// ConflictPair is one user-facing conflict: two records clashing on a
// specific day. The pair is unordered; A always carries the lower snapshot
// index so the same clash is reported exactly once.
type ConflictPair struct {
	A, B model.EventRecord
	Day  string    // weekday name, "Monday".."Sunday"
	Date time.Time // civil date the clash was detected on (zero for pattern-level pairs)
}

// WeekConflicts flattens the pairwise conflicts of an already-bucketed week
// into a deduplicated list for conflict review.
func WeekConflicts(days [7][]model.Occurrence) []ConflictPair {
	var pairs []ConflictPair
	for d := 0; d < 7; d++ {
		day := days[d]
		for i := 0; i < len(day); i++ {
			for j := i + 1; j < len(day); j++ {
				if !Overlaps(day[i].StartMinutes, day[i].EndMinutes, day[j].StartMinutes, day[j].EndMinutes) {
					continue
				}
				a, b := day[i], day[j]
				if b.Index < a.Index {
					a, b = b, a
				}
				pairs = append(pairs, ConflictPair{
					A:    a.Record,
					B:    b.Record,
					Day:  model.WeekdayNames[d],
					Date: a.Date,
				})
			}
		}
	}
	return pairs
}
