package engine

import "sort"

// Postprocess applies a final aggressive rescheduling pass to pick up
// any section (or component) the annealer left unscheduled, then
// downgrades any remaining teacher double-booking to TBD. Per §4.9 the
// losing assignment is kept in the schedule — only its teacher is
// cleared — with a deterministic tie-break that keeps the original
// teacher on the assignment in the lexicographically smallest room id.
func Postprocess(state *State, sections []Section, rooms []Room, grid TimeGrid, table CompatibilityTable, constraints Constraints) []Conflict {
	constraints = constraints.withDefaults()
	idx := buildSectionIndex(sections, rooms, grid)
	smin := slotMinutes(grid)

	for _, s := range sections {
		if s.TotalMinutes() == 0 && s.StudentCount == 0 {
			continue
		}
		for _, component := range sectionComponents(s) {
			needed := NeededSlots(component.Shadow.LectureMinutes+component.Shadow.LabMinutes, smin)
			if len(state.KeysForSection(s.ID)) >= needed {
				continue
			}
			placeGreedy(state, component.Shadow, rooms, grid, table, idx, smin, constraints)
		}
	}

	return resolveTeacherConflicts(state, sections)
}

// resolveTeacherConflicts finds teacher double-bookings and downgrades
// every occupant but the one in the lexicographically smallest room id
// to the TBD sentinel, reporting each downgrade as a Conflict.
func resolveTeacherConflicts(state *State, sections []Section) []Conflict {
	type slotOccupant struct {
		key Key
		sec string
	}
	byTeacherSlot := make(map[teacherSlotKey][]slotOccupant)
	for _, a := range state.All() {
		if a.TeacherID == TBDTeacherID {
			continue
		}
		tsKey := teacherSlotKey{TeacherID: a.TeacherID, Day: a.Key.Day, Slot: a.Key.Slot}
		byTeacherSlot[tsKey] = append(byTeacherSlot[tsKey], slotOccupant{key: a.Key, sec: a.SectionID})
	}

	var conflicts []Conflict
	for _, occ := range byTeacherSlot {
		if len(occ) < 2 {
			continue
		}
		sort.Slice(occ, func(i, j int) bool { return occ[i].key.RoomID < occ[j].key.RoomID })
		keep := occ[0]
		for _, drop := range occ[1:] {
			state.DowngradeToTBD(drop.key)
			conflicts = append(conflicts, Conflict{
				Kind:      "teacher",
				Key:       drop.key,
				SectionID: drop.sec,
				OtherID:   keep.sec,
			})
		}
	}
	return conflicts
}
