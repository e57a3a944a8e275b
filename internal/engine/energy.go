package engine

import "sort"

// hardPenalty is the weight applied to every hard-constraint
// violation, large enough that no combination of soft penalties can
// make a hard violation look attractive to the annealer.
const hardPenalty = 1_000_000.0

const (
	weightUnscheduled       = 1000.0
	weightRoomMismatch      = 50.0
	weightMajorMismatch     = 500.0
	weightCapacityWaste     = 15.0
	weightFlexLunchOverlap  = 500.0
	weightTeacherOverload   = 80.0
	accessibilityBonus      = -10.0
	weightMorningPreference = 5.0
	weightDayImbalance      = 20.0
	weightSiblingSameDay    = 100.0
	weightNoLunchBreak      = 1000.0
	weightConsecutiveSoft   = 500.0
	weightNightClass        = 200.0
	weightExcessiveSpan     = 500.0
	weightShiftMismatch     = 500.0
	weightSwissCheeseGap    = 50.0
)

// sectionIndex is the set of lookup tables Evaluate rebuilds on every
// call so the cost function never depends on mutable solver state
// beyond the schedule itself.
type sectionIndex struct {
	bySectionID map[string]Section
	roomByID    map[string]Room
	slotByIndex map[int]TimeSlot
	facultyByID map[string]FacultyProfile
}

func buildSectionIndex(sections []Section, rooms []Room, grid TimeGrid) sectionIndex {
	idx := sectionIndex{
		bySectionID: make(map[string]Section, len(sections)),
		roomByID:    make(map[string]Room, len(rooms)),
		slotByIndex: make(map[int]TimeSlot, len(grid.Slots)),
		facultyByID: make(map[string]FacultyProfile),
	}
	for _, s := range sections {
		idx.bySectionID[s.ID] = s
	}
	for _, r := range rooms {
		idx.roomByID[r.ID] = r
	}
	for _, t := range grid.Slots {
		idx.slotByIndex[t.Slot] = t
	}
	return idx
}

func withFaculty(idx sectionIndex, profiles []FacultyProfile) sectionIndex {
	for _, p := range profiles {
		idx.facultyByID[p.TeacherID] = p
	}
	return idx
}

// Evaluate computes the total energy (cost) of state over the given
// sections/rooms/grid: hard-constraint violations dominate via
// hardPenalty, soft constraints contribute the weighted terms from
// §4.5. It builds four transient indices per call — by (teacher,day),
// by (cohort,day), by section, and by room — and counts set-size
// overages and weighted penalties in a single pass over the committed
// assignments.
func Evaluate(state *State, sections []Section, rooms []Room, grid TimeGrid, profiles []FacultyProfile, constraints Constraints) float64 {
	constraints = constraints.withDefaults()
	idx := withFaculty(buildSectionIndex(sections, rooms, grid), profiles)

	cost := 0.0
	for _, s := range sections {
		if s.TotalMinutes() == 0 && s.StudentCount == 0 {
			// Zero-load anchor left over from oversized decomposition;
			// it carries no cost of its own.
			continue
		}
		keys := state.KeysForSection(s.ID)
		needed := 0
		for _, c := range sectionComponents(s) {
			needed += NeededSlots(c.Shadow.LectureMinutes+c.Shadow.LabMinutes, slotMinutes(grid))
		}
		if len(keys) == 0 {
			cost += weightUnscheduled * float64(needed)
			continue
		}
		if len(keys) < needed {
			cost += weightUnscheduled * float64(needed-len(keys))
		}
	}

	all := state.All()
	cost += perAssignmentCost(all, idx, grid, constraints)
	cost += teacherDayCost(all, idx, grid, constraints)
	cost += cohortDayCost(all, idx, grid, constraints)
	cost += hardPenalty * float64(countHardViolations(all, idx, grid, constraints))

	return cost
}

// perAssignmentCost sums the per-cell soft terms: room-type mismatch,
// major mismatch, capacity waste, accessibility bonus, and morning
// preference.
func perAssignmentCost(all []Assignment, idx sectionIndex, grid TimeGrid, constraints Constraints) float64 {
	cost := 0.0
	for _, a := range all {
		s, ok := idx.bySectionID[a.SectionID]
		if !ok {
			continue
		}
		room, ok := idx.roomByID[a.Key.RoomID]
		if !ok {
			continue // online cell, no physical room to score
		}

		wantLab := a.IsLab
		if wantLab && !room.IsLabRoom() {
			// Already a hard violation (#5); soft mismatch term does not
			// pile on as well.
		} else if !wantLab && room.IsLabRoom() {
			cost += weightMajorMismatch
		} else if s.RequiredRoomType != "" && room.Type != s.RequiredRoomType {
			cost += weightRoomMismatch
		}

		if room.Capacity > 0 && s.StudentCount > 0 {
			ratio := float64(room.Capacity) / float64(s.StudentCount)
			if ratio > 2 {
				cost += weightCapacityWaste * (ratio - 2)
			}
		}

		if constraints.PrioritizeAccessibility && s.PreferAccessible && room.Accessible {
			cost += accessibilityBonus
		}

		if slot, ok := idx.slotByIndex[a.Key.Slot]; ok && constraints.DayOpenMinute > 0 {
			hoursFromMorning := float64(slot.StartMinute-constraints.DayOpenMinute) / 60.0
			if hoursFromMorning > 0 {
				cost += weightMorningPreference * hoursFromMorning
			}
		}

		if constraints.LunchMode == "flexible" && grid.OverlapsLunch([]Key{a.Key}) {
			cost += weightFlexLunchOverlap
		}

		if p, ok := idx.facultyByID[a.TeacherID]; ok {
			if slot, ok := idx.slotByIndex[a.Key.Slot]; ok && shiftOf(slot.StartMinute) == "evening" && p.PreferredShift != "" && p.PreferredShift != "evening" {
				cost += weightNightClass
			}
		}
	}
	return cost
}

// teacherDayCost applies the soft per-teacher-day terms: overload past
// the soft daily cap, missing lunch break, consecutive-hours overrun,
// excessive daily span, and faculty shift mismatch.
func teacherDayCost(all []Assignment, idx sectionIndex, grid TimeGrid, constraints Constraints) float64 {
	byTeacherDay := groupByTeacherDay(all)
	cost := 0.0
	capMinutes := constraints.MaxTeacherHoursPerDay * 60

	for key, assigns := range byTeacherDay {
		minutes := sumMinutes(assigns, idx)
		if minutes > capMinutes {
			cost += weightTeacherOverload * float64(minutes-capMinutes) / 60.0
		}

		slots := sortedSlots(assigns)
		if hasMorning(slots, idx) && hasAfternoon(slots, idx) && !hasLunchBreak(slots, idx, grid) {
			cost += weightNoLunchBreak
		}

		run := maxConsecutiveRun(slots, grid)
		if run > constraints.MaxConsecutiveClasses {
			cost += weightConsecutiveSoft * float64(run-constraints.MaxConsecutiveClasses)
		}

		if span := dailySpanMinutes(slots, idx); span > 10*60 {
			extraHalfHours := float64(span-10*60) / 30.0
			cost += weightExcessiveSpan * extraHalfHours
		}

		if p, ok := idx.facultyByID[key.TeacherID]; ok && p.PreferredShift != "" {
			for _, slotIdx := range slots {
				if slot, ok := idx.slotByIndex[slotIdx]; ok && shiftOf(slot.StartMinute) != p.PreferredShift {
					cost += weightShiftMismatch
					break
				}
			}
		}
	}

	cost += dayImbalanceCost(byTeacherDay)
	return cost
}

// cohortDayCost applies the soft per-cohort-day terms: sibling lec/lab
// landing on the same day, and swiss-cheese gaps within a day.
func cohortDayCost(all []Assignment, idx sectionIndex, grid TimeGrid, constraints Constraints) float64 {
	cost := 0.0
	byCohortDay := groupByCohortDay(all, idx)

	seenSiblingDay := make(map[string]bool)
	for key, assigns := range byCohortDay {
		slots := sortedSlots(assigns)
		if gap := maxGapMinutes(slots, idx, grid); gap >= 180 {
			cost += weightSwissCheeseGap
		}
		for _, a := range assigns {
			s, ok := idx.bySectionID[a.SectionID]
			if !ok || s.LinkedID == "" || s.Kind != SessionLecture {
				continue
			}
			sib, ok := idx.bySectionID[s.LinkedID]
			if !ok {
				continue
			}
			dedupe := key.CohortKey + "|" + key.Day.String() + "|" + s.ID + "|" + sib.ID
			if seenSiblingDay[dedupe] {
				continue
			}
			for _, other := range all {
				if other.SectionID == sib.ID && other.Key.Day == key.Day {
					cost += weightSiblingSameDay
					seenSiblingDay[dedupe] = true
					break
				}
			}
		}
	}
	return cost
}

// countHardViolations enumerates the C5 hard constraints over the
// committed assignments. Room double-booking (#8) cannot occur through
// the grid map itself (one Assignment per Key) so it is not separately
// counted here.
func countHardViolations(all []Assignment, idx sectionIndex, grid TimeGrid, constraints Constraints) int {
	violations := 0

	// #9 teacher double-booking, #10 cohort double-booking.
	teacherSlot := make(map[teacherSlotKey]int)
	cohortSlot := make(map[cohortSlotKey]int)
	for _, a := range all {
		teacherSlot[teacherSlotKey{TeacherID: a.TeacherID, Day: a.Key.Day, Slot: a.Key.Slot}]++
		if s, ok := idx.bySectionID[a.SectionID]; ok {
			cohortSlot[cohortSlotKey{CohortKey: s.CohortKey(), Day: a.Key.Day, Slot: a.Key.Slot}]++
		}
	}
	for _, count := range teacherSlot {
		if count > 1 {
			violations += count - 1
		}
	}
	for _, count := range cohortSlot {
		if count > 1 {
			violations += count - 1
		}
	}

	for _, a := range all {
		s, ok := idx.bySectionID[a.SectionID]
		if !ok {
			continue
		}
		room, hasRoom := idx.roomByID[a.Key.RoomID]
		online := grid.IsOnlineDay(a.Key.Day)

		// #1 online-day room assignment, #2 ghost physical lab.
		if online {
			if a.IsLab {
				violations++ // a lab can never be online; its physical presence on an online day is a ghost class
			} else if !a.IsOnline && hasRoom {
				violations++
			}
		}

		if slot, ok := idx.slotByIndex[a.Key.Slot]; ok {
			// #3 time-boundary.
			if constraints.DayOpenMinute > 0 && slot.StartMinute < constraints.DayOpenMinute {
				violations++
			}
			if constraints.NightEndMinute > 0 && slot.StartMinute >= constraints.NightEndMinute {
				violations++
			}
			// #7 strict lunch overlap.
			if constraints.LunchMode == "strict" && slot.Overlaps(grid.LunchStartMinute, grid.LunchEndMinute) {
				violations++
			}
		}

		if hasRoom {
			// #4 overcrowding.
			if room.Capacity > 0 && s.StudentCount > int(float64(room.Capacity)*(1+constraints.OvercrowdTolerance)) {
				violations++
			}
			// #5 lab in non-lab room.
			if a.IsLab && !room.IsLabRoom() {
				violations++
			}
			// #6 non-lab in lab room, when configured strict.
			if constraints.StrictLectureRoomMatching && !a.IsLab && room.IsLabRoom() {
				violations++
			}
			// #16 equipment mismatch.
			if !hasFeatures(room, s.RequiredFeatures) {
				violations++
			}
		}

		// #18 faculty unavailable day / part-time Saturday / hard shift.
		if p, ok := idx.facultyByID[a.TeacherID]; ok {
			for _, d := range p.UnavailableDays {
				if d == a.Key.Day {
					violations++
					break
				}
			}
			if p.EmploymentType == "part-time" && a.Key.Day == Saturday {
				violations++
			}
			if p.ShiftIsHard && p.PreferredShift != "" {
				if slot, ok := idx.slotByIndex[a.Key.Slot]; ok && shiftOf(slot.StartMinute) != p.PreferredShift {
					violations++
				}
			}
		}
	}

	// #11 teacher teleportation, #12 teacher daily hard cap, #13
	// faculty weekly/daily caps, #17 mandatory recovery block.
	byTeacherDay := groupByTeacherDay(all)
	teacherWeeklyMinutes := make(map[string]int)
	for key, assigns := range byTeacherDay {
		minutes := sumMinutes(assigns, idx)
		teacherWeeklyMinutes[key.TeacherID] += minutes

		if minutes > constraints.HardTeacherDailyCapMinutes {
			violations++
		}
		if p, ok := idx.facultyByID[key.TeacherID]; ok && p.MaxDailyMinutes > 0 && minutes > p.MaxDailyMinutes {
			violations++
		}

		violations += teleportationViolations(assigns, idx, grid)

		if constraints.LunchMode == "auto" {
			run := maxConsecutiveRun(sortedSlots(assigns), grid)
			if run >= constraints.RecoveryBlockSlots {
				violations++
			}
		}
	}
	for teacherID, minutes := range teacherWeeklyMinutes {
		if p, ok := idx.facultyByID[teacherID]; ok && p.MaxWeeklyMinutes > 0 && minutes > p.MaxWeeklyMinutes {
			violations++
		}
	}

	// #14 non-consecutive-day, #15 max sessions per week.
	byCohortDays := make(map[string]map[Weekday]bool)
	for _, a := range all {
		s, ok := idx.bySectionID[a.SectionID]
		if !ok {
			continue
		}
		key := s.CohortKey()
		if byCohortDays[key] == nil {
			byCohortDays[key] = make(map[Weekday]bool)
		}
		byCohortDays[key][a.Key.Day] = true
	}
	for _, days := range byCohortDays {
		ordered := make([]int, 0, len(days))
		for d := range days {
			ordered = append(ordered, int(d))
		}
		sort.Ints(ordered)
		for i := 1; i < len(ordered); i++ {
			if ordered[i]-ordered[i-1] == 1 {
				violations++
			}
		}
		if len(ordered) > constraints.MaxSessionsPerWeek {
			violations += len(ordered) - constraints.MaxSessionsPerWeek
		}
	}

	return violations
}

func teleportationViolations(assigns []Assignment, idx sectionIndex, grid TimeGrid) int {
	sort.Slice(assigns, func(i, j int) bool { return assigns[i].Key.Slot < assigns[j].Key.Slot })
	violations := 0
	for i := 1; i < len(assigns); i++ {
		prev, cur := assigns[i-1], assigns[i]
		if !grid.Consecutive(prev.Key.Slot, cur.Key.Slot) {
			continue
		}
		roomA, okA := idx.roomByID[prev.Key.RoomID]
		roomB, okB := idx.roomByID[cur.Key.RoomID]
		if okA && okB && roomA.Building != "" && roomB.Building != "" && roomA.Building != roomB.Building {
			violations++
		}
	}
	return violations
}

func hasFeatures(room Room, required []string) bool {
	if len(required) == 0 {
		return true
	}
	has := make(map[string]bool, len(room.Features))
	for _, f := range room.Features {
		has[f] = true
	}
	for _, f := range required {
		if !has[f] {
			return false
		}
	}
	return true
}

func shiftOf(startMinute int) string {
	switch {
	case startMinute < 12*60:
		return "morning"
	case startMinute < 18*60:
		return "afternoon"
	default:
		return "evening"
	}
}

func groupByTeacherDay(all []Assignment) map[teacherDayKey][]Assignment {
	out := make(map[teacherDayKey][]Assignment)
	for _, a := range all {
		key := teacherDayKey{TeacherID: a.TeacherID, Day: a.Key.Day}
		out[key] = append(out[key], a)
	}
	return out
}

type teacherSlotKey struct {
	TeacherID string
	Day       Weekday
	Slot      int
}

type cohortSlotKey struct {
	CohortKey string
	Day       Weekday
	Slot      int
}

type cohortDayGroupKey struct {
	CohortKey string
	Day       Weekday
}

func groupByCohortDay(all []Assignment, idx sectionIndex) map[cohortDayGroupKey][]Assignment {
	out := make(map[cohortDayGroupKey][]Assignment)
	for _, a := range all {
		s, ok := idx.bySectionID[a.SectionID]
		if !ok {
			continue
		}
		key := cohortDayGroupKey{CohortKey: s.CohortKey(), Day: a.Key.Day}
		out[key] = append(out[key], a)
	}
	return out
}

func sumMinutes(assigns []Assignment, idx sectionIndex) int {
	total := 0
	for _, a := range assigns {
		if a.ActualMinutes > 0 {
			total += a.ActualMinutes
			continue
		}
		if slot, ok := idx.slotByIndex[a.Key.Slot]; ok {
			total += slot.DurationMinutes()
		}
	}
	return total
}

func sortedSlots(assigns []Assignment) []int {
	out := make([]int, 0, len(assigns))
	for _, a := range assigns {
		out = append(out, a.Key.Slot)
	}
	sort.Ints(out)
	return out
}

func hasMorning(slots []int, idx sectionIndex) bool {
	for _, s := range slots {
		if slot, ok := idx.slotByIndex[s]; ok && shiftOf(slot.StartMinute) == "morning" {
			return true
		}
	}
	return false
}

func hasAfternoon(slots []int, idx sectionIndex) bool {
	for _, s := range slots {
		if slot, ok := idx.slotByIndex[s]; ok && shiftOf(slot.StartMinute) == "afternoon" {
			return true
		}
	}
	return false
}

func hasLunchBreak(slots []int, idx sectionIndex, grid TimeGrid) bool {
	if grid.LunchEndMinute <= grid.LunchStartMinute {
		return true
	}
	for _, s := range slots {
		if slot, ok := idx.slotByIndex[s]; ok && slot.Overlaps(grid.LunchStartMinute, grid.LunchEndMinute) {
			return false // occupied straight through lunch
		}
	}
	return true
}

// maxConsecutiveRun returns the longest run of grid-adjacent slots in
// the (already sorted) slots list.
func maxConsecutiveRun(slots []int, grid TimeGrid) int {
	if len(slots) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(slots); i++ {
		if grid.Consecutive(slots[i-1], slots[i]) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// dailySpanMinutes returns the wall-clock span from the first slot's
// start to the last slot's end.
func dailySpanMinutes(slots []int, idx sectionIndex) int {
	if len(slots) == 0 {
		return 0
	}
	first, ok := idx.slotByIndex[slots[0]]
	if !ok {
		return 0
	}
	last, ok := idx.slotByIndex[slots[len(slots)-1]]
	if !ok {
		return 0
	}
	return last.EndMinute - first.StartMinute
}

// maxGapMinutes returns the largest idle gap, in minutes, between
// consecutive occupied slots in a day.
func maxGapMinutes(slots []int, idx sectionIndex, grid TimeGrid) int {
	if len(slots) < 2 {
		return 0
	}
	best := 0
	for i := 1; i < len(slots); i++ {
		prev, okA := idx.slotByIndex[slots[i-1]]
		cur, okB := idx.slotByIndex[slots[i]]
		if !okA || !okB {
			continue
		}
		gap := cur.StartMinute - prev.EndMinute
		if gap > best {
			best = gap
		}
	}
	return best
}

// dayImbalanceCost penalizes a teacher's sessions clustering unevenly
// across the week: the spread between their busiest and quietest
// active day.
func dayImbalanceCost(byTeacherDay map[teacherDayKey][]Assignment) float64 {
	perTeacher := make(map[string][]int)
	for key, assigns := range byTeacherDay {
		perTeacher[key.TeacherID] = append(perTeacher[key.TeacherID], len(assigns))
	}
	cost := 0.0
	for _, counts := range perTeacher {
		if len(counts) < 2 {
			continue
		}
		min, max := counts[0], counts[0]
		for _, c := range counts[1:] {
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
		cost += weightDayImbalance * float64(max-min)
	}
	return cost
}

// sectionCellCost estimates the local soft-cost contribution of
// placing component at key, used by the greedy builder to rank
// candidate placements before a full Evaluate pass is affordable.
func sectionCellCost(component Section, key Key, idx sectionIndex, constraints Constraints) float64 {
	cost := 0.0
	room, ok := idx.roomByID[key.RoomID]
	if !ok {
		return hardPenalty
	}

	wantLab := component.IsLab()
	if wantLab && !room.IsLabRoom() {
		cost += hardPenalty
	} else if !wantLab && room.IsLabRoom() {
		cost += weightMajorMismatch
	} else if component.RequiredRoomType != "" && room.Type != component.RequiredRoomType {
		cost += weightRoomMismatch
	}

	if room.Capacity > 0 && component.StudentCount > 0 {
		ratio := float64(room.Capacity) / float64(component.StudentCount)
		if ratio > 2 {
			cost += weightCapacityWaste * (ratio - 2)
		}
	}

	if constraints.PrioritizeAccessibility && component.PreferAccessible && room.Accessible {
		cost += accessibilityBonus
	}

	if slot, ok := idx.slotByIndex[key.Slot]; ok && constraints.DayOpenMinute > 0 {
		hoursFromMorning := float64(slot.StartMinute-constraints.DayOpenMinute) / 60.0
		if hoursFromMorning > 0 {
			cost += weightMorningPreference * hoursFromMorning
		}
	}

	return cost
}

func slotMinutes(grid TimeGrid) int {
	if len(grid.Slots) == 0 {
		return 90
	}
	return grid.Slots[0].DurationMinutes()
}
