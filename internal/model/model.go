package model

import "time"

// EventRecord is the stored form of one schedule entry. Start and end times
// are zone-less wall-clock "HH:MM" strings; all date handling in the engine
// works on civil dates (midnight UTC) so no timezone conversion ever happens.
type EventRecord struct {
	// ID is empty for records that have not been saved yet.
	ID string

	// Title conventionally encodes a course code, e.g. "CSI 2110 - Lecture".
	Title string

	// StartTime / EndTime are 24-hour "HH:MM" strings with StartTime < EndTime.
	// Violations are tolerated downstream (degenerate height), never reordered.
	StartTime string
	EndTime   string

	Description string
	Professor   string
	Location    string

	// Theme is an opaque color-scheme key passed through to rendering.
	// Resolution and layout never inspect it.
	Theme string

	Recurrence Recurrence
}

// Recurrence is the policy deciding which dates a record materializes on.
// It is a closed set of variants; the resolver matches exhaustively and
// treats anything else (including nil) as non-occurring.
type Recurrence interface {
	isRecurrence()
	// Kind returns the wire name of the variant.
	Kind() string
}

// Weekly occurs on every week's date matching Day.
type Weekly struct {
	// Day is a canonical weekday name, "Monday".."Sunday".
	Day string
}

// Biweekly occurs on Day only in weeks whose Monday is an even number of
// weeks away from ReferenceDate's Monday. The reference week itself is "on".
type Biweekly struct {
	Day           string
	ReferenceDate time.Time
}

// Fixed occurs once, on StartDate. EndDate is informational (inclusive range
// for export); single-day events have EndDate equal to StartDate.
type Fixed struct {
	StartDate time.Time
	EndDate   time.Time
}

func (Weekly) isRecurrence()   {}
func (Biweekly) isRecurrence() {}
func (Fixed) isRecurrence()    {}

func (Weekly) Kind() string   { return "weekly" }
func (Biweekly) Kind() string { return "biweekly" }
func (Fixed) Kind() string    { return "fixed" }

// Occurrence is one concrete instance of a record landing on one date within
// a queried week. Derived per computation pass, never persisted.
type Occurrence struct {
	Record EventRecord

	// Index is the record's position in the input snapshot. It is the
	// tie-break for layout ordering, which keeps re-renders stable.
	Index int

	// Date is the resolved civil date, one of the target week's seven days.
	Date time.Time

	// StartMinutes / EndMinutes are minute-of-day offsets derived from the
	// record's time strings (0 for malformed values).
	StartMinutes int
	EndMinutes   int
}
