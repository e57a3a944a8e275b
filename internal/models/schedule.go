package models

import "time"

// Schedule is one persisted placement row belonging to a saved run:
// a single section's occupied (room, day, slot) block.
type Schedule struct {
	ID            string    `db:"id" json:"id"`
	RunID         string    `db:"run_id" json:"run_id"`
	SectionID     string    `db:"section_id" json:"section_id"`
	CourseCode    string    `db:"course_code" json:"course_code"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	TeacherName   string    `db:"teacher_name" json:"teacher_name"`
	RoomID        string    `db:"room_id" json:"room_id"`
	College       string    `db:"college" json:"college"`
	DayOfWeek     int       `db:"day_of_week" json:"day_of_week"`
	Slot          int       `db:"slot" json:"slot"`
	StartMinute   int       `db:"start_minute" json:"start_minute"`
	EndMinute     int       `db:"end_minute" json:"end_minute"`
	ActualMinutes int       `db:"actual_minutes" json:"actual_minutes"`
	IsOnline      bool      `db:"is_online" json:"is_online"`
	IsLab         bool      `db:"is_lab" json:"is_lab"`
	Component     string    `db:"component" json:"component"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ScheduleFilter describes query params for listing persisted entries.
type ScheduleFilter struct {
	RunID     string
	TeacherID string
	RoomID    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ScheduleConflict records a teacher double-booking the post-processor
// downgraded to TBD, kept alongside the saved run for audit purposes.
type ScheduleConflict struct {
	RunID     string `db:"run_id" json:"run_id"`
	Kind      string `db:"kind" json:"kind"`
	RoomID    string `db:"room_id" json:"room_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	Slot      int    `db:"slot" json:"slot"`
	SectionID string `db:"section_id" json:"section_id"`
	OtherID   string `db:"other_id" json:"other_id"`
}

// ScheduleConflictError is returned when a save collides with an
// existing run's constraints (e.g. the same room/day/slot already
// claimed outside the optimizer's own accounting).
type ScheduleConflictError struct {
	Type     string             `json:"type"`
	Message  string             `json:"message"`
	Conflict ScheduleConflict   `json:"conflict"`
	Errors   []ScheduleConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
