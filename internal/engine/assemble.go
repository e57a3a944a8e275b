package engine

import "sort"

// maxSlotCount caps a single reported entry's SlotCount even when a
// section's blocks happen to chain into a longer run on the grid;
// anything beyond this is reported as separate entries. No log line
// is written when the cap is reached.
const maxSlotCount = 8

// Assemble turns a final schedule state into a Result per §4.11: each
// unique (section, room, day, start-slot) run of committed assignments
// becomes one entry with its actual end-time, decomposition lineage,
// and online/lab/TBD metadata attached.
func Assemble(state *State, sections []Section, rooms []Room, grid TimeGrid, conflicts []Conflict, stats OptimizationStats) Result {
	bySectionID := make(map[string]Section, len(sections))
	for _, s := range sections {
		bySectionID[s.ID] = s
	}
	byRoomID := make(map[string]Room, len(rooms))
	for _, r := range rooms {
		byRoomID[r.ID] = r
	}

	byKey := make(map[Key]Assignment)
	bySection := make(map[string][]Assignment)
	for _, a := range state.All() {
		byKey[a.Key] = a
		bySection[a.SectionID] = append(bySection[a.SectionID], a)
	}

	entries := make([]ScheduleEntry, 0, len(sections))
	scheduled := make(map[string]bool)

	for _, s := range sections {
		if s.TotalMinutes() == 0 && s.StudentCount == 0 {
			continue
		}
		assigns := bySection[s.ID]
		if len(assigns) == 0 {
			continue
		}
		scheduled[s.ID] = true
		entries = append(entries, groupIntoEntries(s, assigns, byRoomID, grid)...)
	}

	var unscheduledIDs []string
	total := 0
	for _, s := range sections {
		if s.TotalMinutes() == 0 && s.StudentCount == 0 {
			continue
		}
		total++
		if !scheduled[s.ID] {
			unscheduledIDs = append(unscheduledIDs, s.ID)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SectionID != entries[j].SectionID {
			return entries[i].SectionID < entries[j].SectionID
		}
		if entries[i].Day != entries[j].Day {
			return entries[i].Day < entries[j].Day
		}
		return entries[i].Slot < entries[j].Slot
	})

	message := "schedule generated"
	success := len(unscheduledIDs) == 0
	if !success {
		message = "schedule generated with unscheduled sections"
	}

	return Result{
		Success:               success,
		Message:               message,
		ScheduledCount:        len(scheduled),
		UnscheduledCount:      len(unscheduledIDs),
		TotalSections:         total,
		ScheduleEntries:       entries,
		Conflicts:             conflicts,
		UnscheduledSectionIDs: unscheduledIDs,
		Stats:                 stats,
	}
}

func groupIntoEntries(s Section, assigns []Assignment, byRoomID map[string]Room, grid TimeGrid) []ScheduleEntry {
	sort.Slice(assigns, func(i, j int) bool {
		if assigns[i].Key.RoomID != assigns[j].Key.RoomID {
			return assigns[i].Key.RoomID < assigns[j].Key.RoomID
		}
		if assigns[i].Key.Day != assigns[j].Key.Day {
			return assigns[i].Key.Day < assigns[j].Key.Day
		}
		return assigns[i].Key.Slot < assigns[j].Key.Slot
	})

	var entries []ScheduleEntry
	i := 0
	for i < len(assigns) {
		j := i + 1
		for j < len(assigns) &&
			assigns[j].Key.RoomID == assigns[i].Key.RoomID &&
			assigns[j].Key.Day == assigns[i].Key.Day &&
			assigns[j].IsLab == assigns[i].IsLab &&
			grid.Consecutive(assigns[j-1].Key.Slot, assigns[j].Key.Slot) &&
			j-i < maxSlotCount {
			j++
		}
		block := assigns[i:j]
		entries = append(entries, buildEntry(s, block, byRoomID, grid))
		i = j
	}
	return entries
}

func buildEntry(s Section, block []Assignment, byRoomID map[string]Room, grid TimeGrid) ScheduleEntry {
	startSlot, _ := grid.SlotByIndex(block[0].Key.Slot)
	endSlot, _ := grid.SlotByIndex(block[len(block)-1].Key.Slot)

	actual := 0
	for _, a := range block {
		actual += a.ActualMinutes
	}
	endMinute := startSlot.StartMinute + actual
	if endMinute < endSlot.EndMinute && actual == 0 {
		endMinute = endSlot.EndMinute
	}

	teacherID := block[0].TeacherID
	teacherName := s.TeacherName
	if teacherID == TBDTeacherID {
		teacherName = "TBD"
	}

	component := "LEC"
	if block[0].IsLab {
		component = "LAB"
	}

	college := s.College
	if room, ok := byRoomID[block[0].Key.RoomID]; ok {
		if room.College != "" {
			college = room.College
		}
	}

	return ScheduleEntry{
		SectionID:     s.ID,
		CourseCode:    s.CourseCode,
		CourseName:    s.CourseName,
		TeacherID:     teacherID,
		TeacherName:   teacherName,
		RoomID:        block[0].Key.RoomID,
		College:       college,
		Day:           block[0].Key.Day,
		Slot:          block[0].Key.Slot,
		StartMinute:   startSlot.StartMinute,
		EndMinute:     endMinute,
		SlotCount:     len(block),
		ActualMinutes: actual,
		IsOnline:      block[0].IsOnline,
		IsLab:         block[0].IsLab,
		Component:     component,
		SectionType:   string(s.Kind),
		SplitType:     s.SplitType,
		OriginalID:    s.OriginalID,
		SiblingIDs:    s.SiblingIDs,
		GroupLabel:    s.GroupLabel,
	}
}
