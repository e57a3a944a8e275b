package dto

import "time"

// RoomRequest describes one teaching space available to the solver.
type RoomRequest struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name"`
	Building   string   `json:"building"`
	Capacity   int      `json:"capacity" validate:"required,min=1"`
	Type       string   `json:"type" validate:"required,oneof=lecture lab seminar auditorium"`
	Features   []string `json:"features"`
	Accessible bool     `json:"accessible"`
	College    string   `json:"college"`
}

// TimeSlotRequest describes one bookable period on the grid.
type TimeSlotRequest struct {
	ID          string `json:"id" validate:"required"`
	Slot        int    `json:"slot" validate:"min=0"`
	StartMinute int    `json:"startMinute" validate:"min=0"`
	EndMinute   int    `json:"endMinute" validate:"required,gtfield=StartMinute"`
}

// FacultyProfileRequest carries a teacher's optional load caps and
// shift preference, consulted by the faculty-specific hard and soft
// energy terms.
type FacultyProfileRequest struct {
	TeacherID        string `json:"teacherId" validate:"required"`
	EmploymentType   string `json:"employmentType" validate:"omitempty,oneof=full-time part-time"`
	MaxWeeklyMinutes int    `json:"maxWeeklyMinutes" validate:"omitempty,min=1"`
	MaxDailyMinutes  int    `json:"maxDailyMinutes" validate:"omitempty,min=1"`
	UnavailableDays  []int  `json:"unavailableDays" validate:"omitempty,dive,min=0,max=5"`
	PreferredShift   string `json:"preferredShift" validate:"omitempty,oneof=morning afternoon evening"`
	ShiftIsHard      bool   `json:"shiftIsHard"`
}

// SectionRequest describes one course offering to be scheduled.
type SectionRequest struct {
	ID               string   `json:"id" validate:"required"`
	CourseCode       string   `json:"courseCode" validate:"required"`
	CourseName       string   `json:"courseName"`
	TeacherID        string   `json:"teacherId" validate:"required"`
	TeacherName      string   `json:"teacherName"`
	StudentCount     int      `json:"studentCount" validate:"min=0"`
	Kind             string   `json:"kind" validate:"required,oneof=lecture lab hybrid"`
	LectureMinutes   int      `json:"lectureMinutes" validate:"omitempty,min=0"`
	LabMinutes       int      `json:"labMinutes" validate:"omitempty,min=0"`
	RequiredRoomType string   `json:"requiredRoomType" validate:"omitempty,oneof=lecture lab seminar auditorium"`
	RequiredFeatures []string `json:"requiredFeatures"`
	PreferAccessible bool     `json:"preferAccessible"`
	College          string   `json:"college"`
	Pinned           bool     `json:"pinned"`
	PinnedRoomID     string   `json:"pinnedRoomId" validate:"required_if=Pinned true"`
	PinnedDay        int      `json:"pinnedDay" validate:"omitempty,min=0,max=5"`
	PinnedSlot       int      `json:"pinnedSlot" validate:"omitempty,min=0"`
}

// ConstraintsRequest tunes the solver's soft-constraint weights and
// annealing schedule. Every field is optional; zero values fall back
// to engine.DefaultConstraints.
type ConstraintsRequest struct {
	MaxTeacherHoursPerDay     int     `json:"maxTeacherHoursPerDay" validate:"omitempty,min=1,max=16"`
	MaxConsecutiveClasses     int     `json:"maxConsecutiveClasses" validate:"omitempty,min=1"`
	PreferredUtilization      float64 `json:"preferredUtilization" validate:"omitempty,min=0,max=1"`
	PrioritizeAccessibility   bool    `json:"prioritizeAccessibility"`
	MaxLectureBlockMinutes    int     `json:"maxLectureBlockMinutes" validate:"omitempty,min=1"`
	MaxLabBlockMinutes        int     `json:"maxLabBlockMinutes" validate:"omitempty,min=1"`
	CombineSplitLectures      bool    `json:"combineSplitLectures"`
	MaxIterations             int     `json:"maxIterations" validate:"omitempty,min=1,max=100000"`
	InitialTemperature        float64 `json:"initialTemperature" validate:"omitempty,min=0"`
	CoolingRate               float64 `json:"coolingRate" validate:"omitempty,gt=0,lt=1"`
	MaxReheats                int     `json:"maxReheats" validate:"omitempty,min=0,max=20"`
	LunchMode                 string  `json:"lunchMode" validate:"omitempty,oneof=auto strict flexible none"`
	LunchStartMinute          int     `json:"lunchStartMinute" validate:"omitempty,min=0"`
	LunchEndMinute            int     `json:"lunchEndMinute" validate:"omitempty,min=0"`
	StrictLabRoomMatching     bool    `json:"strictLabRoomMatching"`
	StrictLectureRoomMatching bool    `json:"strictLectureRoomMatching"`
	MaxSessionsPerWeek        int     `json:"maxSessionsPerWeek" validate:"omitempty,min=1"`
}

// GenerateScheduleRequest instructs the generator to build a proposal
// from a self-contained catalog of sections/rooms/time slots.
type GenerateScheduleRequest struct {
	Sections        []SectionRequest        `json:"sections" validate:"required,min=1,dive"`
	Rooms           []RoomRequest           `json:"rooms" validate:"required,min=1,dive"`
	TimeSlots       []TimeSlotRequest       `json:"timeSlots" validate:"required,min=1,dive"`
	Days            []int                   `json:"days" validate:"omitempty,dive,min=0,max=5"`
	OnlineDays      []int                   `json:"onlineDays" validate:"omitempty,dive,min=0,max=5"`
	FacultyProfiles []FacultyProfileRequest `json:"facultyProfiles" validate:"omitempty,dive"`
	Constraints     ConstraintsRequest      `json:"constraints"`
	Seed            int64                   `json:"seed"`
}

// ScheduleEntryResponse is one placed section in the generated result.
type ScheduleEntryResponse struct {
	SectionID     string   `json:"sectionId"`
	CourseCode    string   `json:"courseCode"`
	CourseName    string   `json:"courseName"`
	TeacherID     string   `json:"teacherId"`
	TeacherName   string   `json:"teacherName"`
	RoomID        string   `json:"roomId"`
	College       string   `json:"college,omitempty"`
	Day           int      `json:"day"`
	Slot          int      `json:"slot"`
	StartMinute   int      `json:"startMinute"`
	EndMinute     int      `json:"endMinute"`
	SlotCount     int      `json:"slotCount"`
	ActualMinutes int      `json:"actualMinutes"`
	IsOnline      bool     `json:"isOnline"`
	IsLab         bool     `json:"isLab"`
	Component     string   `json:"component"`
	SectionType   string   `json:"sectionType"`
	SplitType     string   `json:"splitType,omitempty"`
	OriginalID    string   `json:"originalId,omitempty"`
	SiblingIDs    []string `json:"siblingIds,omitempty"`
	GroupLabel    string   `json:"groupLabel,omitempty"`
}

// ConflictResponse reports a downgraded double-booking.
type ConflictResponse struct {
	Kind      string `json:"kind"`
	RoomID    string `json:"roomId"`
	Day       int    `json:"day"`
	Slot      int    `json:"slot"`
	SectionID string `json:"sectionId"`
	OtherID   string `json:"otherId"`
}

// OptimizationStatsResponse reports the annealer's run trajectory.
type OptimizationStatsResponse struct {
	InitialCost         float64   `json:"initialCost"`
	FinalCost           float64   `json:"finalCost"`
	Iterations          int       `json:"iterations"`
	Improvements        int       `json:"improvements"`
	QuantumTunnels      int       `json:"quantumTunnels"`
	BlockSwaps          int       `json:"blockSwaps"`
	Reheats             int       `json:"reheats"`
	ConflictCount       int       `json:"conflictCount"`
	TimeElapsedMs       int64     `json:"timeElapsedMs"`
	TemperatureSchedule []float64 `json:"temperatureSchedule,omitempty"`
}

// GenerateScheduleResponse returns the assembled schedule.
type GenerateScheduleResponse struct {
	RunID                 string                    `json:"runId"`
	Success                bool                      `json:"success"`
	Message                string                    `json:"message"`
	ScheduledCount         int                       `json:"scheduledCount"`
	UnscheduledCount       int                       `json:"unscheduledCount"`
	TotalSections          int                       `json:"totalSections"`
	Entries                []ScheduleEntryResponse   `json:"entries"`
	Conflicts              []ConflictResponse        `json:"conflicts"`
	UnscheduledSectionIDs  []string                  `json:"unscheduledSectionIds"`
	Stats                  OptimizationStatsResponse `json:"stats"`
}

// SaveScheduleRequest persists a generated proposal as a semester
// schedule run.
type SaveScheduleRequest struct {
	RunID string `json:"runId" validate:"required"`
	Label string `json:"label" validate:"required"`
}

// CalendarWindow bounds the recurrence window used when rendering a
// saved run as an iCalendar export.
type CalendarWindow struct {
	SemesterStart time.Time
	SemesterEnd   time.Time
}

// RunQuery filters stored runs.
type RunQuery struct {
	Label string `form:"label" json:"label"`
}

// BattleRequest races every solver against one catalog.
type BattleRequest struct {
	GenerateScheduleRequest
	Label          string `json:"label"`
	TimeoutSeconds int    `json:"timeoutSeconds" validate:"omitempty,min=1,max=600"`
}

// BattleEntryResponse reports one entrant's ranked result.
type BattleEntryResponse struct {
	Rank           int     `json:"rank"`
	Algorithm      string  `json:"algorithm"`
	ScheduledCount int     `json:"scheduledCount"`
	TotalSections  int     `json:"totalSections"`
	Cost           float64 `json:"cost"`
	Status         string  `json:"status"`
	SolveTimeMs    int64   `json:"solveTimeMs"`
}

// BattleResponse reports the full ranked race.
type BattleResponse struct {
	ElapsedMs int                   `json:"elapsedMs"`
	Rankings  []BattleEntryResponse `json:"rankings"`
}
