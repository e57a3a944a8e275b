// Package ical renders assembled schedule entries as an RFC 5545
// calendar with weekly RRULE recurrence, so a generated schedule can
// be imported into any calendar client.
package ical

import (
	"bytes"
	"fmt"
	"io"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/edudyne/scheduler/internal/engine"
)

// weekdayToRRule maps the engine's Weekday to rrule-go's weekday type.
var weekdayToRRule = map[engine.Weekday]rrule.Weekday{
	engine.Monday:    rrule.MO,
	engine.Tuesday:   rrule.TU,
	engine.Wednesday: rrule.WE,
	engine.Thursday:  rrule.TH,
	engine.Friday:    rrule.FR,
	engine.Saturday:  rrule.SA,
}

// Options configures the exported calendar's validity window.
type Options struct {
	SemesterStart time.Time
	SemesterEnd   time.Time
	Location      *time.Location
}

// Write renders entries as a VCALENDAR with one VEVENT per entry,
// each recurring weekly via RRULE until the semester end date.
func Write(w io.Writer, entries []engine.ScheduleEntry, opts Options) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, "-//edudyne//scheduler//EN")

	for _, entry := range entries {
		event, err := buildEvent(entry, opts, loc)
		if err != nil {
			return fmt.Errorf("ical: building event for section %s: %w", entry.SectionID, err)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	enc := ics.NewEncoder(w)
	return enc.Encode(cal)
}

// Render is a convenience wrapper returning the calendar as bytes.
func Render(entries []engine.ScheduleEntry, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildEvent(entry engine.ScheduleEntry, opts Options, loc *time.Location) (*ics.Event, error) {
	firstOccurrence := firstDateForWeekday(opts.SemesterStart, entry.Day, loc)
	start := firstOccurrence.Add(time.Duration(entry.StartMinute) * time.Minute)
	end := firstOccurrence.Add(time.Duration(entry.EndMinute) * time.Minute)

	// NewRRule validates the recurrence rule the same way a calendar
	// client would before we hand it the property text below.
	if _, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{weekdayToRRule[entry.Day]},
		Until:     opts.SemesterEnd,
		Dtstart:   start,
	}); err != nil {
		return nil, err
	}

	event := ics.NewEvent()
	uid := fmt.Sprintf("%s-%s-%d@edudyne.scheduler", entry.SectionID, entry.Day, entry.Slot)
	event.Props.SetText(ics.PropUID, uid)
	event.Props.SetDateTime(ics.PropDateTimeStart, start)
	event.Props.SetDateTime(ics.PropDateTimeEnd, end)
	event.Props.SetText(ics.PropSummary, fmt.Sprintf("%s %s", entry.CourseCode, entry.CourseName))
	event.Props.SetText(ics.PropLocation, entry.RoomID)
	event.Props.SetText(ics.PropRecurrenceRule, weeklyRRuleText(entry.Day, opts.SemesterEnd))

	return event, nil
}

// weeklyRRuleText builds the RRULE value text directly (FREQ=WEEKLY;
// BYDAY=<day>;UNTIL=<date>) since the property only needs the encoded
// rule, not rrule-go's in-memory representation.
func weeklyRRuleText(day engine.Weekday, until time.Time) string {
	byday := map[engine.Weekday]string{
		engine.Monday:    "MO",
		engine.Tuesday:   "TU",
		engine.Wednesday: "WE",
		engine.Thursday:  "TH",
		engine.Friday:    "FR",
		engine.Saturday:  "SA",
	}[day]
	return fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s", byday, until.UTC().Format("20060102T150405Z"))
}

func firstDateForWeekday(semesterStart time.Time, day engine.Weekday, loc *time.Location) time.Time {
	start := semesterStart.In(loc)
	targetGoWeekday := engineWeekdayToTime(day)
	offset := (int(targetGoWeekday) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, offset)
}

func engineWeekdayToTime(d engine.Weekday) time.Weekday {
	switch d {
	case engine.Monday:
		return time.Monday
	case engine.Tuesday:
		return time.Tuesday
	case engine.Wednesday:
		return time.Wednesday
	case engine.Thursday:
		return time.Thursday
	case engine.Friday:
		return time.Friday
	case engine.Saturday:
		return time.Saturday
	default:
		return time.Sunday
	}
}
