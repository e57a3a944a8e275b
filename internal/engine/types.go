// Package engine implements the quantum-inspired simulated annealing
// scheduling core: time grid construction, session decomposition,
// room/teacher/cohort compatibility, schedule state, energy
// evaluation, the greedy builder, the annealer and its tunneling
// moves, the post-processor, and final result assembly.
package engine

import (
	"fmt"
	"strings"
)

// RoomType names the physical teaching space a Section can be placed
// into. Free-form in the reference institution's data (anything
// containing "lab"/"computer" hosts labs); constrained here to the
// values this catalog actually emits.
type RoomType string

const (
	RoomTypeLecture    RoomType = "lecture"
	RoomTypeLab        RoomType = "lab"
	RoomTypeSeminar    RoomType = "seminar"
	RoomTypeAuditorium RoomType = "auditorium"
)

// CollegeShared marks a room bookable across every college, bypassing
// the compatibility table's college rule.
const CollegeShared = "Shared"

// SessionKind distinguishes a Section's teaching format.
type SessionKind string

const (
	SessionLecture  SessionKind = "lecture"
	SessionLab      SessionKind = "lab"
	SessionHybrid   SessionKind = "hybrid"
	SessionCombined SessionKind = "combined"
)

// Weekday indexes the scheduling week. Saturday is included because the
// teacher's source institutions run six-day academic weeks.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (d Weekday) String() string {
	if d < Monday || d > Saturday {
		return "unknown"
	}
	return weekdayNames[d]
}

// ParseWeekday converts a lowercase day name into a Weekday.
func ParseWeekday(s string) (Weekday, error) {
	for i, name := range weekdayNames {
		if name == s {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("engine: unknown weekday %q", s)
}

// Room is a physical or virtual teaching space.
type Room struct {
	ID         string
	Name       string
	Building   string
	Capacity   int
	Type       RoomType
	Features   []string
	Accessible bool

	// College ties the room to one academic college, or CollegeShared
	// ("Shared") when it is bookable campus-wide. Empty behaves like
	// CollegeShared for the compatibility table's college rule.
	College string
}

// IsLabRoom reports whether the room can host lab sections. The
// reference catalog's room types are free-form strings; a room is a
// lab room whenever its type names a lab or computer space.
func (r Room) IsLabRoom() bool {
	t := strings.ToLower(string(r.Type))
	return strings.Contains(t, "lab") || strings.Contains(t, "computer")
}

// TimeSlot is one bookable period on the grid, identified by its index
// within the day (Slot) and its wall-clock bounds.
type TimeSlot struct {
	ID          string
	Slot        int
	StartMinute int
	EndMinute   int
}

// DurationMinutes returns the slot's length.
func (t TimeSlot) DurationMinutes() int {
	return t.EndMinute - t.StartMinute
}

// Overlaps reports whether the slot's range intersects [start, end).
func (t TimeSlot) Overlaps(start, end int) bool {
	return t.StartMinute < end && start < t.EndMinute
}

// FacultyProfile carries the optional per-teacher load and preference
// data the energy evaluator consults for the faculty-specific hard and
// soft terms. A teacher with no profile is unconstrained by these
// terms beyond the catalog-wide Constraints.
type FacultyProfile struct {
	TeacherID        string
	EmploymentType   string // "full-time" | "part-time"
	MaxWeeklyMinutes int
	MaxDailyMinutes  int
	UnavailableDays  []Weekday
	PreferredShift   string // "morning" | "afternoon" | "evening", or "" for none
	ShiftIsHard      bool   // promotes preferred-shift mismatch to a hard violation
}

// Section is a single course offering to be scheduled. Hybrid or
// oversized sections are decomposed into anchor/satellite children by
// Decompose before reaching the solver; OriginalID/SiblingIDs/LinkedID
// then point back to that lineage.
type Section struct {
	ID           string
	CourseCode   string
	CourseName   string
	TeacherID    string
	TeacherName  string
	StudentCount int
	Kind         SessionKind

	// LectureMinutes/LabMinutes are the section's weekly load split by
	// component. Exactly one is non-zero unless Kind is
	// SessionCombined, which teaches both components as one
	// unsplit block.
	LectureMinutes int
	LabMinutes     int

	RequiredRoomType RoomType
	RequiredFeatures []string
	PreferAccessible bool
	College          string

	Pinned       bool
	PinnedRoomID string
	PinnedDay    Weekday
	PinnedSlot   int

	// Decomposition lineage, populated by Decompose. Empty for
	// sections that needed no split.
	OriginalID string
	SiblingIDs []string
	LinkedID   string
	GroupLabel string
	SplitType  string // "", "G1", "G2"
}

// TotalMinutes returns the section's full weekly load across both
// components.
func (s Section) TotalMinutes() int {
	return s.LectureMinutes + s.LabMinutes
}

// IsLab reports whether the section's (single, post-decomposition)
// component is a lab. Combined sections answer false here; callers
// that need per-component awareness use sectionComponents instead.
func (s Section) IsLab() bool {
	return s.Kind == SessionLab
}

// splitSuffixes are stripped, longest-first, to recover the base
// section code used by CohortKey.
var splitSuffixes = []string{"_G1_LAB", "_G2_LAB", "_G1", "_G2", "_LEC", "_LAB"}

// CohortKey is the subject-group key used to detect multi-placement of
// the same student cohort: `base_section_code :: subject_code` with
// every decomposition suffix stripped. Anchor and satellite children
// of the same parent always collapse to the same key, which is what
// lets cohort/non-consecutive-day checks treat them as one group.
func (s Section) CohortKey() string {
	base := s.ID
	if s.OriginalID != "" {
		base = s.OriginalID
	}
	for _, suf := range splitSuffixes {
		if strings.HasSuffix(base, suf) {
			base = strings.TrimSuffix(base, suf)
			break
		}
	}
	return base + "::" + s.CourseCode
}

// NeededSlots returns how many TimeSlot-width blocks cover weeklyMinutes,
// rounding up so the schedule never under-covers a section's load.
func NeededSlots(weeklyMinutes, slotMinutes int) int {
	if slotMinutes <= 0 {
		return 1
	}
	n := (weeklyMinutes + slotMinutes - 1) / slotMinutes
	if n < 1 {
		return 1
	}
	return n
}

// Constraints tunes the soft-constraint weights, hard-constraint
// thresholds, and annealing schedule. Zero-value fields are replaced
// by DefaultConstraints.
type Constraints struct {
	MaxTeacherHoursPerDay      int // soft daily cap, hours
	HardTeacherDailyCapMinutes int // hard daily cap, minutes
	MaxConsecutiveClasses      int // soft consecutive-slot threshold
	PreferredUtilization       float64
	PrioritizeAccessibility    bool

	MaxLectureBlockMinutes int
	MaxLabBlockMinutes     int
	AllowSplitSessions     bool
	CombineSplitLectures   bool

	MaxIterations      int
	InitialTemperature float64
	CoolingRate        float64
	MaxReheats         int
	StagnationWindow   int
	TunnelBaseProb     float64

	// LunchMode is one of "auto", "strict", "flexible", "none".
	LunchMode        string
	LunchStartMinute int
	LunchEndMinute   int

	StrictLabRoomMatching     bool
	StrictLectureRoomMatching bool

	// OvercrowdTolerance is the hard-constraint overcrowd tolerance
	// (student_count > capacity*(1+tol) is a violation).
	OvercrowdTolerance float64
	// CompatCapacityTolerance is the pass-1 lecture capacity tolerance
	// ("capacity >= n*(1-tol)").
	CompatCapacityTolerance float64
	// LabRelaxedCapacityRatio is the pass-3 lab capacity relaxation
	// ("capacity >= ratio*n").
	LabRelaxedCapacityRatio float64

	MaxSessionsPerWeek int
	RecoveryBlockSlots int

	// DayOpenMinute/NightEndMinute bound the legal start window for
	// the time-boundary hard constraint. Zero disables the check
	// (the grid's own slots are already bounded).
	DayOpenMinute  int
	NightEndMinute int
}

// DefaultConstraints mirrors the reference implementation's defaults.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxTeacherHoursPerDay:      6,
		HardTeacherDailyCapMinutes: 600,
		MaxConsecutiveClasses:      3,
		PreferredUtilization:       0.75,
		PrioritizeAccessibility:    true,
		MaxLectureBlockMinutes:     180,
		MaxLabBlockMinutes:         360,
		AllowSplitSessions:         true,
		CombineSplitLectures:       true,
		MaxIterations:              1000,
		InitialTemperature:         100.0,
		CoolingRate:                0.995,
		MaxReheats:                 3,
		StagnationWindow:           100,
		TunnelBaseProb:             0.15,
		LunchMode:                  "auto",
		LunchStartMinute:           12 * 60,
		LunchEndMinute:             13 * 60,
		StrictLabRoomMatching:      true,
		StrictLectureRoomMatching:  false,
		OvercrowdTolerance:         0.0,
		CompatCapacityTolerance:    0.10,
		LabRelaxedCapacityRatio:    0.7,
		MaxSessionsPerWeek:         2,
		RecoveryBlockSlots:         4,
	}
}

func (c Constraints) withDefaults() Constraints {
	d := DefaultConstraints()
	if c.MaxTeacherHoursPerDay <= 0 {
		c.MaxTeacherHoursPerDay = d.MaxTeacherHoursPerDay
	}
	if c.HardTeacherDailyCapMinutes <= 0 {
		c.HardTeacherDailyCapMinutes = d.HardTeacherDailyCapMinutes
	}
	if c.MaxConsecutiveClasses <= 0 {
		c.MaxConsecutiveClasses = d.MaxConsecutiveClasses
	}
	if c.PreferredUtilization <= 0 {
		c.PreferredUtilization = d.PreferredUtilization
	}
	if c.MaxLectureBlockMinutes <= 0 {
		c.MaxLectureBlockMinutes = d.MaxLectureBlockMinutes
	}
	if c.MaxLabBlockMinutes <= 0 {
		c.MaxLabBlockMinutes = d.MaxLabBlockMinutes
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.InitialTemperature <= 0 {
		c.InitialTemperature = d.InitialTemperature
	}
	if c.CoolingRate <= 0 {
		c.CoolingRate = d.CoolingRate
	}
	if c.MaxReheats <= 0 {
		c.MaxReheats = d.MaxReheats
	}
	if c.StagnationWindow <= 0 {
		c.StagnationWindow = d.StagnationWindow
	}
	if c.TunnelBaseProb <= 0 {
		c.TunnelBaseProb = d.TunnelBaseProb
	}
	if c.LunchMode == "" {
		c.LunchMode = d.LunchMode
	}
	if c.LunchEndMinute <= c.LunchStartMinute {
		c.LunchStartMinute = d.LunchStartMinute
		c.LunchEndMinute = d.LunchEndMinute
	}
	if c.OvercrowdTolerance <= 0 {
		c.OvercrowdTolerance = d.OvercrowdTolerance
	}
	if c.CompatCapacityTolerance <= 0 {
		c.CompatCapacityTolerance = d.CompatCapacityTolerance
	}
	if c.LabRelaxedCapacityRatio <= 0 {
		c.LabRelaxedCapacityRatio = d.LabRelaxedCapacityRatio
	}
	if c.MaxSessionsPerWeek <= 0 {
		c.MaxSessionsPerWeek = d.MaxSessionsPerWeek
	}
	if c.RecoveryBlockSlots <= 0 {
		c.RecoveryBlockSlots = d.RecoveryBlockSlots
	}
	// AllowSplitSessions/CombineSplitLectures/StrictLabRoomMatching
	// default true; callers that want them off must set the zero
	// value explicitly via their negated counterpart is not
	// representable on a bool zero-value, so these three keep the
	// reference defaults unless a request opts out at the DTO layer.
	return c
}

// Request bundles everything the engine needs for one solve: the raw
// catalog of sections/rooms/slots/faculty plus tuning constraints.
// Sections are supplied in full; the engine never looks up entities
// from a database.
type Request struct {
	Sections        []Section
	Rooms           []Room
	TimeSlots       []TimeSlot
	Days            []Weekday
	OnlineDays      []Weekday
	FacultyProfiles []FacultyProfile
	Constraints     Constraints
}

// Key identifies one cell of the schedule grid. Online assignments use
// a synthetic, per-assignment RoomID (see onlineRoomKey) so that
// multiple online sections can share the same (day, slot) without
// colliding in the grid map the way two physical bookings would.
type Key struct {
	RoomID string
	Day    Weekday
	Slot   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d", k.RoomID, k.Day, k.Slot)
}

// Assignment occupies one Key on behalf of one Section. IsLab reflects
// the component actually taught in this cell — for a SessionCombined
// section's assignments this can differ per-key, since its lecture and
// lab halves share one SectionID but are allocated through distinct
// component shadows (see sectionComponents).
type Assignment struct {
	Key           Key
	SectionID     string
	TeacherID     string
	IsOnline      bool
	IsLab         bool
	ActualMinutes int
}

// Conflict records a detected double-booking.
type Conflict struct {
	Kind      string // "room" or "teacher"
	Key       Key
	SectionID string
	OtherID   string
}

// OptimizationStats reports the annealer's run-time trajectory.
type OptimizationStats struct {
	InitialCost         float64
	FinalCost           float64
	Iterations          int
	Improvements        int
	QuantumTunnels      int
	BlockSwaps          int
	Reheats             int
	ConflictCount       int
	TimeElapsedMs       int64
	TemperatureSchedule []float64
}

// ScheduleEntry is one row of the assembled, human-facing result.
type ScheduleEntry struct {
	SectionID    string
	CourseCode   string
	CourseName   string
	TeacherID    string
	TeacherName  string
	RoomID       string
	College      string
	Day          Weekday
	Slot         int
	StartMinute  int
	EndMinute    int
	SlotCount    int
	ActualMinutes int
	IsOnline     bool
	IsLab        bool
	Component    string // "LEC" or "LAB"
	SectionType  string // "lecture", "lab", "combined"
	SplitType    string // "", "G1", "G2"
	OriginalID   string
	SiblingIDs   []string
	GroupLabel   string
}

// Result is the full output of Run.
type Result struct {
	Success               bool
	Message                string
	ScheduledCount         int
	UnscheduledCount       int
	TotalSections          int
	ScheduleEntries        []ScheduleEntry
	Conflicts              []Conflict
	UnscheduledSectionIDs  []string
	Stats                  OptimizationStats
}
