package schedule

import (
	"testing"
	"time"

	"coursegrid/internal/model"
)

func TestBucketByDayMondayIndexed(t *testing.T) {
	t.Parallel()

	records := []model.EventRecord{
		weeklyRecord("CSI 2110", "Monday", "09:00", "10:20"),
		weeklyRecord("PHY 1124", "Sunday", "10:00", "11:00"),
		weeklyRecord("MAT 1341", "Monday", "13:00", "14:00"),
	}
	occs := ResolveWeek(records, model.NewDate(2025, time.January, 6))
	days := BucketByDay(occs)

	if len(days[0]) != 2 {
		t.Fatalf("Monday bucket has %d occurrences, want 2", len(days[0]))
	}
	if len(days[6]) != 1 {
		t.Fatalf("Sunday bucket has %d occurrences, want 1", len(days[6]))
	}
	for d := 1; d < 6; d++ {
		if len(days[d]) != 0 {
			t.Fatalf("bucket %d not empty", d)
		}
	}
	// Input order preserved within a bucket.
	if days[0][0].Record.Title != "CSI 2110" || days[0][1].Record.Title != "MAT 1341" {
		t.Fatal("bucket order does not follow input order")
	}
}

func TestFilterOccurrences(t *testing.T) {
	t.Parallel()

	records := []model.EventRecord{
		weeklyRecord("CSI 2110 - Lecture", "Monday", "09:00", "10:20"),
		weeklyRecord("MAT 1341 - Lecture", "Tuesday", "09:30", "10:30"),
		weeklyRecord("Gym", "Wednesday", "18:00", "19:00"), // no extractable code
	}
	occs := ResolveWeek(records, model.NewDate(2025, time.January, 6))

	t.Run("empty set shows everything", func(t *testing.T) {
		t.Parallel()
		if got := FilterOccurrences(occs, nil); len(got) != 3 {
			t.Fatalf("got %d occurrences, want 3", len(got))
		}
		if got := FilterOccurrences(occs, NewCodeSet()); len(got) != 3 {
			t.Fatalf("got %d occurrences with empty set, want 3", len(got))
		}
	})

	t.Run("allow list applies to extractable codes only", func(t *testing.T) {
		t.Parallel()
		got := FilterOccurrences(occs, NewCodeSet("CSI 2110"))
		if len(got) != 2 {
			t.Fatalf("got %d occurrences, want 2", len(got))
		}
		// The code-less record is never filtered out.
		if got[0].Record.Title != "CSI 2110 - Lecture" || got[1].Record.Title != "Gym" {
			t.Fatalf("unexpected survivors: %q, %q", got[0].Record.Title, got[1].Record.Title)
		}
	})
}
