package model

import "fmt"

// RecurrenceFields is the flat shape recurrence data takes on the wire and
// in storage: a pattern name plus the union of all variant fields. Build
// turns it into the typed Recurrence variant; Flatten goes back.
type RecurrenceFields struct {
	// Pattern is "weekly", "biweekly" or "fixed". "none" is accepted as a
	// legacy alias for "fixed" (older exports used it for one-off events).
	Pattern       string
	DayOfWeek     string
	ReferenceDate string // "YYYY-MM-DD", biweekly only
	StartDate     string // "YYYY-MM-DD", fixed only
	EndDate       string // "YYYY-MM-DD", fixed only, defaults to StartDate
}

// Build converts the flat fields into a Recurrence variant. On bad input it
// returns a nil Recurrence together with the error; the resolver treats nil
// as non-occurring, so one bad stored row degrades instead of failing a list.
func (f RecurrenceFields) Build() (Recurrence, error) {
	switch f.Pattern {
	case "weekly":
		return Weekly{Day: f.DayOfWeek}, nil

	case "biweekly":
		if f.ReferenceDate == "" {
			return nil, fmt.Errorf("biweekly recurrence missing reference date")
		}
		ref, err := ParseDate(f.ReferenceDate)
		if err != nil {
			return nil, fmt.Errorf("biweekly reference date: %w", err)
		}
		return Biweekly{Day: f.DayOfWeek, ReferenceDate: ref}, nil

	case "fixed", "none":
		if f.StartDate == "" {
			return nil, fmt.Errorf("fixed recurrence missing start date")
		}
		start, err := ParseDate(f.StartDate)
		if err != nil {
			return nil, fmt.Errorf("fixed start date: %w", err)
		}
		end := start
		if f.EndDate != "" {
			end, err = ParseDate(f.EndDate)
			if err != nil {
				return nil, fmt.Errorf("fixed end date: %w", err)
			}
		}
		return Fixed{StartDate: start, EndDate: end}, nil

	default:
		return nil, fmt.Errorf("unknown recurrence pattern %q", f.Pattern)
	}
}

// Flatten renders a Recurrence back into its wire/storage fields. A nil
// recurrence flattens to an empty pattern, which Build will reject again.
func FlattenRecurrence(r Recurrence) RecurrenceFields {
	switch rec := r.(type) {
	case Weekly:
		return RecurrenceFields{Pattern: "weekly", DayOfWeek: rec.Day}
	case Biweekly:
		return RecurrenceFields{
			Pattern:       "biweekly",
			DayOfWeek:     rec.Day,
			ReferenceDate: FormatDate(rec.ReferenceDate),
		}
	case Fixed:
		return RecurrenceFields{
			Pattern:   "fixed",
			StartDate: FormatDate(rec.StartDate),
			EndDate:   FormatDate(rec.EndDate),
		}
	default:
		return RecurrenceFields{}
	}
}
