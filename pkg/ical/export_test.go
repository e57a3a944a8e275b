package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudyne/scheduler/internal/engine"
)

func TestRender_EmitsVEventPerEntry(t *testing.T) {
	entries := []engine.ScheduleEntry{
		{SectionID: "CS101", CourseCode: "CS101", CourseName: "Intro to CS", RoomID: "R1", Day: engine.Monday, Slot: 0, StartMinute: 0, EndMinute: 90},
		{SectionID: "CS102", CourseCode: "CS102", CourseName: "Data Structures", RoomID: "R2", Day: engine.Wednesday, Slot: 2, StartMinute: 180, EndMinute: 270},
	}
	opts := Options{
		SemesterStart: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		SemesterEnd:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	out, err := Render(entries, opts)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(text, "BEGIN:VEVENT"))
	assert.Contains(t, text, "RRULE:FREQ=WEEKLY;BYDAY=MO")
	assert.Contains(t, text, "RRULE:FREQ=WEEKLY;BYDAY=WE")
}
