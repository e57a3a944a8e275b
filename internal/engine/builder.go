package engine

import "sort"

// BuildInitial constructs a greedy starting schedule per §4.6: sections
// are ordered (pinned-first, lectures-before-labs, fewer-compatible-
// rooms-first, larger-student-count-first, more-hours-first), pinned
// sections are placed at their fixed cell first, and every other
// section's components try each compatible room across the full
// day/slot grid, picking the placement with the lowest local cost
// contribution. Components that exhaust every combination are left
// unscheduled for the annealer/post-processor to pick up later.
func BuildInitial(sections []Section, rooms []Room, grid TimeGrid, table CompatibilityTable, constraints Constraints) *State {
	constraints = constraints.withDefaults()
	state := NewState()
	idx := buildSectionIndex(sections, rooms, grid)
	smin := slotMinutes(grid)

	ordered := make([]Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		aLec, bLec := a.Kind != SessionLab, b.Kind != SessionLab
		if aLec != bLec {
			return aLec
		}
		ci := len(table.CompatibleRooms(a.ID))
		cj := len(table.CompatibleRooms(b.ID))
		if ci != cj {
			return ci < cj
		}
		if a.StudentCount != b.StudentCount {
			return a.StudentCount > b.StudentCount
		}
		return a.TotalMinutes() > b.TotalMinutes()
	})

	for _, s := range ordered {
		if s.TotalMinutes() == 0 && s.StudentCount == 0 {
			continue
		}
		if s.Pinned {
			placePinned(state, s, grid, smin, constraints)
			continue
		}
		for _, component := range sectionComponents(s) {
			placeGreedy(state, component.Shadow, rooms, grid, table, idx, smin, constraints)
		}
	}

	return state
}

func placePinned(state *State, s Section, grid TimeGrid, smin int, constraints Constraints) {
	for _, component := range sectionComponents(s) {
		blocks := planBlocks(component.Shadow, smin, constraints)
		day := s.PinnedDay
		startSlot := s.PinnedSlot
		isOnline := grid.IsOnlineDay(day) && !component.Shadow.IsLab()
		for _, b := range blocks {
			state.Allocate(grid, component.Shadow, s.PinnedRoomID, day, startSlot, b.SlotCount, isOnline, b.ActualMinutes, constraints.LunchMode == "strict")
			startSlot += b.SlotCount
		}
	}
}

// placeGreedy plans one component's blocks and, for each, searches
// every compatible room across the full day/slot grid for the
// lowest-local-cost free cell, skipping online days for lab
// components (§4.6: "lab sessions may not land on online days").
func placeGreedy(state *State, component Section, rooms []Room, grid TimeGrid, table CompatibilityTable, idx sectionIndex, smin int, constraints Constraints) {
	blocks := planBlocks(component, smin, constraints)
	candidateRooms := table.CompatibleRooms(component.ID)
	if len(candidateRooms) == 0 {
		return
	}

	for _, b := range blocks {
		bestCost := -1.0
		var bestRoom string
		var bestDay Weekday
		var bestSlot int
		var bestOnline bool
		found := false

		for _, day := range grid.Days {
			onlineDay := grid.IsOnlineDay(day)
			if onlineDay && component.IsLab() {
				continue
			}
			for _, roomID := range candidateRooms {
				for _, ts := range grid.Slots {
					keys := consecutiveKeys(roomID, day, ts.Slot, b.SlotCount, grid)
					if keys == nil {
						continue
					}
					if !allFree(state, keys) {
						continue
					}
					if !teacherAvailable(state, component.TeacherID, keys) {
						continue
					}
					cost := localPlacementCost(component, keys, idx, constraints)
					if !found || cost < bestCost {
						found = true
						bestCost = cost
						bestRoom = roomID
						bestDay = day
						bestSlot = ts.Slot
						bestOnline = onlineDay
					}
				}
			}
		}

		if !found {
			break
		}
		state.Allocate(grid, component, bestRoom, bestDay, bestSlot, b.SlotCount, bestOnline, b.ActualMinutes, constraints.LunchMode == "strict")
	}
}

func consecutiveKeys(roomID string, day Weekday, startSlot, count int, grid TimeGrid) []Key {
	keys := make([]Key, 0, count)
	slotIdx := startSlot
	for i := 0; i < count; i++ {
		if _, ok := grid.SlotByIndex(slotIdx); !ok {
			return nil
		}
		keys = append(keys, Key{RoomID: roomID, Day: day, Slot: slotIdx})
		if i < count-1 && !grid.Consecutive(slotIdx, slotIdx+1) {
			return nil
		}
		slotIdx++
	}
	return keys
}

func allFree(state *State, keys []Key) bool {
	for _, k := range keys {
		if !state.IsFree(k) {
			return false
		}
	}
	return true
}

func teacherAvailable(state *State, teacherID string, keys []Key) bool {
	for _, k := range keys {
		for _, occupied := range state.TeacherDayKeys(teacherID, k.Day) {
			if occupied.Slot == k.Slot {
				return false
			}
		}
	}
	return true
}

func localPlacementCost(s Section, keys []Key, idx sectionIndex, constraints Constraints) float64 {
	cost := 0.0
	for _, k := range keys {
		cost += sectionCellCost(s, k, idx, constraints)
	}
	return cost
}
