package engine

import "sort"

// Decompose expands sections that exceed the median lab-room capacity
// into a lecture anchor plus one or two lab/lecture satellites, per
// §4.2: every raw section is tested against the median capacity `L` of
// the catalog's lab rooms, not the single largest room, so an
// oversized section is one whose enrollment the typical lab room
// cannot hold rather than one that merely exceeds the biggest room in
// the building. A hybrid (lecture+lab) section that is not oversized
// is split into `_LEC`/`_LAB` components when CombineSplitLectures is
// set, and otherwise kept whole with Kind set to SessionCombined; every
// other section is returned unchanged.
// The returned slice order is deterministic (stable relative to the
// input).
func Decompose(sections []Section, rooms []Room, constraints Constraints) []Section {
	constraints = constraints.withDefaults()
	L := medianLabCapacity(rooms)

	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		hasLecture := s.LectureMinutes > 0
		hasLab := s.LabMinutes > 0
		oversized := L > 0 && s.StudentCount > L

		switch {
		case hasLecture && hasLab && oversized:
			out = append(out, decomposeHybridOversized(s)...)
		case hasLab && !hasLecture && oversized:
			out = append(out, decomposeLabOversized(s)...)
		case hasLecture && hasLab && !oversized && constraints.CombineSplitLectures:
			out = append(out, decomposeHybridCombined(s)...)
		case hasLecture && hasLab && !oversized:
			combined := s
			combined.Kind = SessionCombined
			out = append(out, combined)
		default:
			out = append(out, s)
		}
	}
	return out
}

// medianLabCapacity returns the median capacity across the catalog's
// lab rooms, or 0 when there are none (in which case no section is
// ever treated as oversized by Decompose).
func medianLabCapacity(rooms []Room) int {
	var capacities []int
	for _, r := range rooms {
		if r.IsLabRoom() {
			capacities = append(capacities, r.Capacity)
		}
	}
	if len(capacities) == 0 {
		return 0
	}
	sort.Ints(capacities)
	mid := len(capacities) / 2
	if len(capacities)%2 == 1 {
		return capacities[mid]
	}
	return (capacities[mid-1] + capacities[mid]) / 2
}

// decomposeHybridOversized splits a section with both lecture and lab
// hours, whose enrollment exceeds the median lab capacity, into one
// full-size `_LEC` anchor plus two `_G1_LAB`/`_G2_LAB` satellites
// (students split ⌈n/2⌉, ⌊n/2⌋, mutually linked).
func decomposeHybridOversized(s Section) []Section {
	anchor := s
	anchor.ID = s.ID + "_LEC"
	anchor.Kind = SessionLecture
	anchor.RequiredRoomType = RoomTypeLecture
	anchor.LabMinutes = 0
	anchor.OriginalID = s.ID
	anchor.GroupLabel = "lecture"

	halves := divideStudents(s.StudentCount, 2)
	g1 := s
	g1.ID = s.ID + "_G1_LAB"
	g1.Kind = SessionLab
	g1.RequiredRoomType = RoomTypeLab
	g1.LectureMinutes = 0
	g1.StudentCount = halves[0]
	g1.OriginalID = s.ID
	g1.LinkedID = s.ID + "_G2_LAB"
	g1.SiblingIDs = []string{anchor.ID, s.ID + "_G2_LAB"}
	g1.GroupLabel = "lab-group-1"
	g1.SplitType = "G1"

	g2 := s
	g2.ID = s.ID + "_G2_LAB"
	g2.Kind = SessionLab
	g2.RequiredRoomType = RoomTypeLab
	g2.LectureMinutes = 0
	g2.StudentCount = halves[1]
	g2.OriginalID = s.ID
	g2.LinkedID = g1.ID
	g2.SiblingIDs = []string{anchor.ID, g1.ID}
	g2.GroupLabel = "lab-group-2"
	g2.SplitType = "G2"

	anchor.SiblingIDs = []string{g1.ID, g2.ID}
	return []Section{anchor, g1, g2}
}

// decomposeLabOversized splits a lab-only oversized section into two
// linked `_G1`/`_G2` lab groups; there is no lecture component to
// anchor.
func decomposeLabOversized(s Section) []Section {
	halves := divideStudents(s.StudentCount, 2)

	g1 := s
	g1.ID = s.ID + "_G1"
	g1.Kind = SessionLab
	g1.RequiredRoomType = RoomTypeLab
	g1.StudentCount = halves[0]
	g1.OriginalID = s.ID
	g1.LinkedID = s.ID + "_G2"
	g1.GroupLabel = "lab-group-1"
	g1.SplitType = "G1"

	g2 := s
	g2.ID = s.ID + "_G2"
	g2.Kind = SessionLab
	g2.RequiredRoomType = RoomTypeLab
	g2.StudentCount = halves[1]
	g2.OriginalID = s.ID
	g2.LinkedID = g1.ID
	g2.GroupLabel = "lab-group-2"
	g2.SplitType = "G2"

	g1.SiblingIDs = []string{g2.ID}
	g2.SiblingIDs = []string{g1.ID}
	return []Section{g1, g2}
}

// decomposeHybridCombined splits a not-oversized hybrid section into an
// `_LEC` anchor and a single `_LAB` satellite, linked as siblings, per
// the combine_split_lectures policy (§4.2, bullet 4).
func decomposeHybridCombined(s Section) []Section {
	anchor := s
	anchor.ID = s.ID + "_LEC"
	anchor.Kind = SessionLecture
	anchor.RequiredRoomType = RoomTypeLecture
	anchor.LabMinutes = 0
	anchor.OriginalID = s.ID
	anchor.GroupLabel = "lecture"

	lab := s
	lab.ID = s.ID + "_LAB"
	lab.Kind = SessionLab
	lab.RequiredRoomType = RoomTypeLab
	lab.LectureMinutes = 0
	lab.OriginalID = s.ID
	lab.GroupLabel = "lab"

	anchor.SiblingIDs = []string{lab.ID}
	lab.SiblingIDs = []string{anchor.ID}
	anchor.LinkedID = lab.ID
	lab.LinkedID = anchor.ID

	return []Section{anchor, lab}
}

func divideStudents(total, groups int) []int {
	if groups < 1 {
		groups = 1
	}
	base := total / groups
	remainder := total % groups
	out := make([]int, groups)
	for i := range out {
		out[i] = base
		if i < remainder {
			out[i]++
		}
	}
	return out
}
