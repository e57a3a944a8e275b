package engine

import "fmt"

// Validate checks a Request for structural problems that would make
// the solver stages misbehave or produce an infeasible run: missing
// ids, non-positive durations, dangling teacher/room references,
// pinned sections naming an absent room, and the §7 capacity/schedule
// sanity checks (lab rooms present when lab sections exist, demand
// vs. supply, annealing-parameter ranges). Only SeverityError entries
// abort the run; warnings are returned alongside a successful result.
func Validate(req Request) ValidationErrors {
	var errs ValidationErrors
	fail := func(field, msg string) {
		errs = append(errs, &ValidationError{Field: field, Message: msg, Severity: SeverityError})
	}
	warn := func(field, msg string) {
		errs = append(errs, &ValidationError{Field: field, Message: msg, Severity: SeverityWarning})
	}

	if len(req.Sections) == 0 {
		fail("sections", "at least one section is required")
	}
	if len(req.Rooms) == 0 {
		fail("rooms", "at least one room is required")
	}
	if len(req.TimeSlots) == 0 {
		fail("time_slots", "at least one time slot is required")
	}

	roomIDs := make(map[string]bool, len(req.Rooms))
	hasLabRoom := false
	totalCapacity := 0
	for _, r := range req.Rooms {
		if r.ID == "" {
			fail("rooms", "room id must not be empty")
			continue
		}
		if roomIDs[r.ID] {
			fail("rooms", fmt.Sprintf("duplicate room id %q", r.ID))
		}
		roomIDs[r.ID] = true
		if r.Capacity <= 0 {
			fail("rooms", fmt.Sprintf("room %q must have positive capacity", r.ID))
		}
		totalCapacity += r.Capacity
		if r.IsLabRoom() {
			hasLabRoom = true
		}
	}

	slotIndices := make(map[int]bool, len(req.TimeSlots))
	for _, t := range req.TimeSlots {
		if t.EndMinute <= t.StartMinute {
			fail("time_slots", fmt.Sprintf("slot %d has non-positive duration", t.Slot))
		}
		if slotIndices[t.Slot] {
			fail("time_slots", fmt.Sprintf("duplicate slot index %d", t.Slot))
		}
		slotIndices[t.Slot] = true
	}

	sectionIDs := make(map[string]bool, len(req.Sections))
	needsLabRoom := false
	totalStudents := 0
	for _, s := range req.Sections {
		if s.ID == "" {
			fail("sections", "section id must not be empty")
			continue
		}
		if sectionIDs[s.ID] {
			fail("sections", fmt.Sprintf("duplicate section id %q", s.ID))
		}
		sectionIDs[s.ID] = true

		if s.TeacherID == "" {
			fail("sections", fmt.Sprintf("section %q missing teacher id", s.ID))
		}
		if s.StudentCount <= 0 {
			fail("sections", fmt.Sprintf("section %q must have a positive student count", s.ID))
		}
		totalStudents += s.StudentCount

		if s.TotalMinutes() <= 0 {
			fail("sections", fmt.Sprintf("section %q must have positive weekly minutes", s.ID))
		}
		if hours := float64(s.TotalMinutes()) / 60.0; hours > 40 {
			warn("sections", fmt.Sprintf("section %q has %.1f weekly hours, over the 40-hour sanity bound", s.ID, hours))
		}
		if s.LabMinutes > 0 {
			needsLabRoom = true
		}
		if s.Pinned {
			if !roomIDs[s.PinnedRoomID] {
				fail("sections", fmt.Sprintf("section %q pinned to unknown room %q", s.ID, s.PinnedRoomID))
			}
			if !slotIndices[s.PinnedSlot] {
				fail("sections", fmt.Sprintf("section %q pinned to unknown slot %d", s.ID, s.PinnedSlot))
			}
		}
	}

	if needsLabRoom && !hasLabRoom {
		fail("rooms", "at least one lab-capable room is required when a section has lab hours")
	}

	slotsPerDay := len(slotIndices)
	days := len(req.Days)
	if days == 0 {
		days = 6
	}
	supply := totalCapacity * slotsPerDay * days
	if supply > 0 && totalStudents > 0 && float64(totalStudents)/float64(supply) > 1.0 {
		warn("sections", "aggregate student demand exceeds room*slot*day supply; the schedule may be infeasible")
	}

	c := req.Constraints
	if c.CoolingRate != 0 && (c.CoolingRate < 0.5 || c.CoolingRate >= 1.0) {
		warn("constraints", fmt.Sprintf("cooling_rate %.3f is outside the recommended [0.5, 1.0) range", c.CoolingRate))
	}
	if c.MaxIterations != 0 && c.MaxIterations < 100 {
		warn("constraints", fmt.Sprintf("max_iterations %d is low; the annealer may not converge", c.MaxIterations))
	}

	return errs
}
