// Package export renders stored event records as an iCalendar document.
// Times are written as floating local values on purpose: records are
// zone-less wall-clock, and stamping a zone here would invent information
// the data never had.
package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/timeutil"
)

// DateRange is an inclusive civil-date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Options bounds the exported term.
type Options struct {
	// TermStart anchors recurring rules; zero means the current week's Monday.
	TermStart time.Time

	// TermEnd is the UNTIL date for recurring rules; zero means sixteen
	// weeks after TermStart (one term).
	TermEnd time.Time

	// Breaks are ranges (reading weeks, holidays) excluded from recurring
	// events via EXDATE.
	Breaks []DateRange
}

const defaultTermWeeks = 16

// BuildCalendar converts the record snapshot into a VCALENDAR. Records that
// cannot be exported (unusable recurrence, malformed times) are skipped with
// a log; one bad record never fails the whole export.
func BuildCalendar(records []model.EventRecord, opts Options) *ics.Calendar {
	termStart := opts.TermStart
	if termStart.IsZero() {
		termStart = model.MondayOf(time.Now())
	} else {
		termStart = model.CivilDate(termStart)
	}
	termEnd := opts.TermEnd
	if termEnd.IsZero() {
		termEnd = termStart.AddDate(0, 0, 7*defaultTermWeeks)
	} else {
		termEnd = model.CivilDate(termEnd)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	for _, rec := range records {
		if err := addRecord(cal, rec, termStart, termEnd, opts.Breaks); err != nil {
			appLog.Warn("skipping record in ICS export", "id", rec.ID, "title", rec.Title, "err", err)
		}
	}
	return cal
}

// Serialize renders the snapshot straight to the .ics text form.
func Serialize(records []model.EventRecord, opts Options) string {
	return BuildCalendar(records, opts).Serialize()
}

func addRecord(cal *ics.Calendar, rec model.EventRecord, termStart, termEnd time.Time, breaks []DateRange) error {
	startMin, ok := timeutil.ParseMinutes(rec.StartTime)
	if !ok {
		return fmt.Errorf("malformed start time %q", rec.StartTime)
	}
	endMin, ok := timeutil.ParseMinutes(rec.EndTime)
	if !ok {
		return fmt.Errorf("malformed end time %q", rec.EndTime)
	}
	if endMin <= startMin {
		return fmt.Errorf("degenerate time range %s-%s", rec.StartTime, rec.EndTime)
	}

	switch r := rec.Recurrence.(type) {
	case model.Weekly:
		first, rday, err := firstWeekday(r.Day, termStart, nil)
		if err != nil {
			return err
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Interval:  1,
			Byweekday: []rrule.Weekday{rday},
			Until:     endOfDay(termEnd),
		})
		if err != nil {
			return fmt.Errorf("build weekly rule: %w", err)
		}
		ev := newEvent(cal, rec, first, startMin, endMin)
		ev.AddRrule(rule.String())
		addBreakExdates(ev, breaks, first, startMin, weekdayPredicate(r.Day, nil))
		return nil

	case model.Biweekly:
		if r.ReferenceDate.IsZero() {
			return fmt.Errorf("biweekly record has no reference date")
		}
		ref := r.ReferenceDate
		first, rday, err := firstWeekday(r.Day, termStart, &ref)
		if err != nil {
			return err
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Interval:  2,
			Byweekday: []rrule.Weekday{rday},
			Until:     endOfDay(termEnd),
		})
		if err != nil {
			return fmt.Errorf("build biweekly rule: %w", err)
		}
		ev := newEvent(cal, rec, first, startMin, endMin)
		ev.AddRrule(rule.String())
		addBreakExdates(ev, breaks, first, startMin, weekdayPredicate(r.Day, &ref))
		return nil

	case model.Fixed:
		if r.StartDate.IsZero() {
			return fmt.Errorf("fixed record has no start date")
		}
		ev := newEvent(cal, rec, model.CivilDate(r.StartDate), startMin, endMin)
		// A multi-day fixed range repeats daily through its inclusive end.
		if end := model.CivilDate(r.EndDate); end.After(model.CivilDate(r.StartDate)) {
			rule, err := rrule.NewRRule(rrule.ROption{
				Freq:  rrule.DAILY,
				Until: endOfDay(end),
			})
			if err != nil {
				return fmt.Errorf("build fixed-range rule: %w", err)
			}
			ev.AddRrule(rule.String())
		}
		return nil

	default:
		return fmt.Errorf("unknown recurrence kind")
	}
}

// newEvent appends one VEVENT with floating local DTSTART/DTEND built from
// the civil date and minute-of-day offsets.
func newEvent(cal *ics.Calendar, rec model.EventRecord, date time.Time, startMin, endMin int) *ics.VEvent {
	ev := cal.AddEvent(uuid.NewString())
	ev.SetDtStampTime(time.Now().UTC())
	ev.SetSummary(rec.Title)
	if rec.Professor != "" {
		ev.SetDescription("Instructor: " + rec.Professor)
	} else if rec.Description != "" {
		ev.SetDescription(rec.Description)
	}
	if rec.Location != "" {
		ev.SetLocation(rec.Location)
	}
	ev.SetProperty(ics.ComponentPropertyDtStart, floatingStamp(date, startMin))
	ev.SetProperty(ics.ComponentPropertyDtEnd, floatingStamp(date, endMin))
	return ev
}

// addBreakExdates emits one EXDATE per break day the rule would otherwise
// land on.
func addBreakExdates(ev *ics.VEvent, breaks []DateRange, first time.Time, startMin int, occurs func(time.Time) bool) {
	for _, br := range breaks {
		if br.Start.IsZero() || br.End.IsZero() {
			continue
		}
		for d := model.CivilDate(br.Start); !d.After(model.CivilDate(br.End)); d = d.AddDate(0, 0, 1) {
			if d.Before(first) || !occurs(d) {
				continue
			}
			ev.AddProperty(ics.ComponentPropertyExdate, floatingStamp(d, startMin))
		}
	}
}

// weekdayPredicate reports whether the rule lands on a given civil date:
// weekday match, plus biweekly parity when ref is non-nil.
func weekdayPredicate(day string, ref *time.Time) func(time.Time) bool {
	return func(d time.Time) bool {
		idx, ok := model.WeekdayIndex(day)
		if !ok || (int(d.Weekday())+6)%7 != idx {
			return false
		}
		if ref != nil && model.WeeksBetween(*ref, d)%2 != 0 {
			return false
		}
		return true
	}
}

// firstWeekday finds the first date on or after termStart matching the
// weekday (and, when ref is set, the biweekly parity), plus the rrule
// weekday constant.
func firstWeekday(day string, termStart time.Time, ref *time.Time) (time.Time, rrule.Weekday, error) {
	idx, ok := model.WeekdayIndex(day)
	if !ok {
		return time.Time{}, rrule.MO, fmt.Errorf("unknown weekday %q", day)
	}
	rdays := [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

	occurs := weekdayPredicate(day, ref)
	d := model.CivilDate(termStart)
	// At most two weeks of scan: one for the weekday, one for parity.
	for i := 0; i < 14; i++ {
		if occurs(d) {
			return d, rdays[idx], nil
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, rrule.MO, fmt.Errorf("no occurrence near term start for weekday %q", day)
}

func floatingStamp(date time.Time, minutes int) string {
	return fmt.Sprintf("%sT%02d%02d00", date.Format("20060102"), minutes/60, minutes%60)
}

func endOfDay(date time.Time) time.Time {
	return model.CivilDate(date).Add(24*time.Hour - time.Second)
}
