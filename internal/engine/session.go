package engine

// sessionBlock is one contiguous teaching block produced by planBlocks:
// SlotCount grid slots wide, carrying ActualMinutes of real class time
// (the final block of a plan is usually shorter than SlotCount*slotMinutes
// when the section's load doesn't divide evenly into whole slots, per
// §4.10 — end_time must equal start + actual_minutes, not a rounded
// slot boundary).
type sessionBlock struct {
	SlotCount     int
	ActualMinutes int
}

// sectionComponent is one teachable unit of a section: its own room-type
// requirement, kind, and minute load. Already-split sections (lecture,
// lab, or a G1/G2 satellite) have exactly one component, themselves.
// SessionCombined sections — hybrid sections small enough that Decompose
// left them unsplit — report two components so the builder and energy
// evaluator can plan/score the lecture and lab halves independently
// while keeping one Section.ID and one place in the cohort index.
type sectionComponent struct {
	Label  string // "LEC" or "LAB"
	Shadow Section
}

// sectionComponents expands s into its independently-plannable teaching
// units.
func sectionComponents(s Section) []sectionComponent {
	if s.Kind != SessionCombined {
		label := "LEC"
		if s.IsLab() {
			label = "LAB"
		}
		return []sectionComponent{{Label: label, Shadow: s}}
	}

	lecShadow := s
	lecShadow.Kind = SessionLecture
	lecShadow.RequiredRoomType = RoomTypeLecture
	lecShadow.LabMinutes = 0

	labShadow := s
	labShadow.Kind = SessionLab
	labShadow.RequiredRoomType = RoomTypeLab
	labShadow.LectureMinutes = 0

	return []sectionComponent{
		{Label: "LEC", Shadow: lecShadow},
		{Label: "LAB", Shadow: labShadow},
	}
}

// planBlocks decides how a component's weekly minutes split into
// contiguous teaching blocks, capping block length at the constraint's
// maximum for the component's kind and tracking the exact residual
// minutes of the final block rather than rounding up to a full slot.
// Lunch excision is enforced separately, by State.Allocate consulting
// TimeGrid.OverlapsLunch against the keys a block would occupy.
func planBlocks(component Section, slotMinutes int, constraints Constraints) []sessionBlock {
	if slotMinutes <= 0 {
		slotMinutes = 90
	}
	minutes := component.LectureMinutes + component.LabMinutes
	maxBlockMinutes := constraints.MaxLectureBlockMinutes
	if component.Kind == SessionLab {
		maxBlockMinutes = constraints.MaxLabBlockMinutes
	}
	maxSlotsPerBlock := maxBlockMinutes / slotMinutes
	if maxSlotsPerBlock < 1 {
		maxSlotsPerBlock = 1
	}

	totalSlots := NeededSlots(minutes, slotMinutes)
	blockCount := (totalSlots + maxSlotsPerBlock - 1) / maxSlotsPerBlock
	if blockCount < 1 {
		blockCount = 1
	}
	slotsPerBlock := (totalSlots + blockCount - 1) / blockCount
	if slotsPerBlock > maxSlotsPerBlock {
		slotsPerBlock = maxSlotsPerBlock
	}

	blocks := make([]sessionBlock, 0, blockCount)
	remainingSlots := totalSlots
	remainingMinutes := minutes
	for b := 0; b < blockCount; b++ {
		slots := slotsPerBlock
		if b == blockCount-1 || slots > remainingSlots {
			slots = remainingSlots
		}
		actual := slots * slotMinutes
		if b == blockCount-1 || actual > remainingMinutes {
			actual = remainingMinutes
		}
		blocks = append(blocks, sessionBlock{SlotCount: slots, ActualMinutes: actual})
		remainingSlots -= slots
		remainingMinutes -= actual
	}
	return blocks
}
