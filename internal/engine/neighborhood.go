package engine

import (
	"math"
	"math/rand"
)

// MoveKind names the family a proposed neighbor move belongs to.
type MoveKind string

const (
	MoveChangeRoom MoveKind = "change_room"
	MoveChangeDay  MoveKind = "change_day"
	MoveChangeTime MoveKind = "change_time"
	MoveSwap       MoveKind = "swap"
)

// Move describes a proposed relocation of one non-pinned assignment (or
// a pair, for swap) to a new cell. ApplyMove commits it through
// State.Allocate, so a Move that turns out infeasible at commit time —
// the grid changed shape between proposal and application — is
// rejected rather than corrupting state.
type Move struct {
	Kind    MoveKind
	Section Section
	OldKeys []Key

	NewRoomID string
	NewDay    Weekday
	NewStart  int

	OtherSection Section
	OtherOldKeys []Key
}

// Neighbor proposes a single local modification to state: relocating a
// randomly chosen block of a randomly chosen non-pinned section to a different
// room, day, or time, or swapping it with another non-pinned section's
// block. Returns false if no non-pinned section is currently
// scheduled.
func Neighbor(state *State, sections []Section, table CompatibilityTable, grid TimeGrid, rng *rand.Rand) (Move, bool) {
	sectionsByID := indexSections(sections)
	scheduled := scheduledSections(state, sections)
	if len(scheduled) == 0 {
		return Move{}, false
	}
	s := scheduled[rng.Intn(len(scheduled))]
	keys := state.KeysForSection(s.ID)
	if len(keys) == 0 {
		return Move{}, false
	}
	oldKey := keys[rng.Intn(len(keys))]

	kinds := []MoveKind{MoveChangeRoom, MoveChangeDay, MoveChangeTime, MoveSwap}
	kind := kinds[rng.Intn(len(kinds))]

	switch kind {
	case MoveChangeRoom:
		candidates := table.CompatibleRooms(s.ID)
		if len(candidates) == 0 {
			return Move{}, false
		}
		newRoom := candidates[rng.Intn(len(candidates))]
		return Move{Kind: kind, Section: s, OldKeys: []Key{oldKey}, NewRoomID: newRoom, NewDay: oldKey.Day, NewStart: oldKey.Slot}, true

	case MoveChangeDay:
		var pool []Weekday
		for _, d := range grid.Days {
			if d == oldKey.Day {
				continue
			}
			if s.IsLab() && grid.IsOnlineDay(d) {
				continue
			}
			if cohortUsesAdjacentDay(state, s, d, oldKey.Day) {
				continue
			}
			pool = append(pool, d)
		}
		if len(pool) == 0 {
			return Move{}, false
		}
		newDay := pool[rng.Intn(len(pool))]
		return Move{Kind: kind, Section: s, OldKeys: []Key{oldKey}, NewRoomID: oldKey.RoomID, NewDay: newDay, NewStart: oldKey.Slot}, true

	case MoveChangeTime:
		newSlot := grid.Slots[rng.Intn(len(grid.Slots))]
		return Move{Kind: kind, Section: s, OldKeys: []Key{oldKey}, NewRoomID: oldKey.RoomID, NewDay: oldKey.Day, NewStart: newSlot.Slot}, true

	default: // MoveSwap
		all := state.All()
		if len(all) < 2 {
			return Move{}, false
		}
		for attempt := 0; attempt < 10; attempt++ {
			other := all[rng.Intn(len(all))]
			if other.Key == oldKey {
				continue
			}
			otherSection, ok := sectionsByID[other.SectionID]
			if !ok || otherSection.Pinned {
				continue
			}
			return Move{
				Kind: kind, Section: s, OldKeys: []Key{oldKey},
				NewRoomID: other.Key.RoomID, NewDay: other.Key.Day, NewStart: other.Key.Slot,
				OtherSection: otherSection, OtherOldKeys: []Key{other.Key},
			}, true
		}
		return Move{}, false
	}
}

// ApplyMove commits a proposed move by deallocating its old cell(s) and
// re-allocating at the new cell(s) through State.Allocate, which
// rejects if the target is no longer free or would violate a
// teacher/section/cohort constraint. On rejection the original cell(s)
// are restored and ApplyMove returns false; the caller need not call a
// separate undo.
func ApplyMove(state *State, grid TimeGrid, m Move, constraints Constraints) bool {
	lunchStrict := constraints.LunchMode == "strict"

	if m.Kind == MoveSwap {
		return applySwap(state, grid, m, lunchStrict)
	}

	minutes := assignmentMinutes(state, m.OldKeys)
	state.Deallocate(m.Section, m.OldKeys)
	online := grid.IsOnlineDay(m.NewDay) && !m.Section.IsLab()
	if state.Allocate(grid, m.Section, m.NewRoomID, m.NewDay, m.NewStart, len(m.OldKeys), online, minutes, lunchStrict) {
		return true
	}
	restoreKeys(state, grid, m.Section, m.OldKeys, minutes, lunchStrict)
	return false
}

func applySwap(state *State, grid TimeGrid, m Move, lunchStrict bool) bool {
	aMinutes := assignmentMinutes(state, m.OldKeys)
	bMinutes := assignmentMinutes(state, m.OtherOldKeys)

	state.Deallocate(m.Section, m.OldKeys)
	state.Deallocate(m.OtherSection, m.OtherOldKeys)

	aKey, bKey := m.OldKeys[0], m.OtherOldKeys[0]
	okA := state.Allocate(grid, m.Section, bKey.RoomID, bKey.Day, bKey.Slot, 1, false, aMinutes, lunchStrict)
	okB := state.Allocate(grid, m.OtherSection, aKey.RoomID, aKey.Day, aKey.Slot, 1, false, bMinutes, lunchStrict)
	if okA && okB {
		return true
	}
	if okA {
		state.Deallocate(m.Section, state.KeysForSection(m.Section.ID))
	}
	if okB {
		state.Deallocate(m.OtherSection, state.KeysForSection(m.OtherSection.ID))
	}
	restoreKeys(state, grid, m.Section, m.OldKeys, aMinutes, lunchStrict)
	restoreKeys(state, grid, m.OtherSection, m.OtherOldKeys, bMinutes, lunchStrict)
	return false
}

func restoreKeys(state *State, grid TimeGrid, section Section, keys []Key, minutes int, lunchStrict bool) {
	if len(keys) == 0 {
		return
	}
	k0 := keys[0]
	state.Allocate(grid, section, k0.RoomID, k0.Day, k0.Slot, len(keys), false, minutes, lunchStrict)
}

func assignmentMinutes(state *State, keys []Key) int {
	total := 0
	for _, k := range keys {
		if a, ok := state.At(k); ok {
			total += a.ActualMinutes
		}
	}
	return total
}

func cohortUsesAdjacentDay(state *State, s Section, candidate, excludeDay Weekday) bool {
	for _, d := range []Weekday{candidate - 1, candidate + 1} {
		if d < Monday || d > Saturday || d == excludeDay {
			continue
		}
		if len(state.CohortDayKeys(s.CohortKey(), d)) > 0 {
			return true
		}
	}
	return false
}

// TunnelProbability implements the reference implementation's
// quantum-inspired acceptance bias: a base 10% trigger chance gated by
// exp(-1/max(T,0.1)), scaled here by the configured TunnelBaseProb.
func TunnelProbability(temperature, baseProb float64) float64 {
	t := temperature
	if t < 0.1 {
		t = 0.1
	}
	return baseProb * math.Exp(-1/t)
}

// Tunnel performs one quantum-inspired escape move, chosen at random
// among the three §4.7 tunneling variants: relocate (large-radius
// random re-placement), block-swap (exchange a department's whole day
// with another day), and online-shift (move a non-lab assignment onto
// an online day). Returns which kind was attempted and whether it
// committed.
func Tunnel(state *State, sections []Section, rooms []Room, table CompatibilityTable, grid TimeGrid, constraints Constraints, rng *rand.Rand, maxAttempts int) (string, bool) {
	switch rng.Intn(3) {
	case 0:
		return "relocate", tunnelRelocate(state, sections, rooms, table, grid, constraints, rng, maxAttempts)
	case 1:
		return "block_swap", tunnelBlockSwap(state, sections, grid, constraints, rng)
	default:
		return "online_shift", tunnelOnlineShift(state, sections, grid, constraints, rng)
	}
}

// tunnelRelocate deallocates a randomly chosen non-pinned section
// entirely and re-adds it at the energetically-best of up to
// maxAttempts random compatible room/day/slot combinations.
func tunnelRelocate(state *State, sections []Section, rooms []Room, table CompatibilityTable, grid TimeGrid, constraints Constraints, rng *rand.Rand, maxAttempts int) bool {
	scheduled := scheduledSections(state, sections)
	if len(scheduled) == 0 {
		return false
	}
	s := scheduled[rng.Intn(len(scheduled))]
	oldKeys := append([]Key(nil), state.KeysForSection(s.ID)...)
	if len(oldKeys) == 0 {
		return false
	}
	candidates := table.CompatibleRooms(s.ID)
	if len(candidates) == 0 {
		return false
	}

	idx := buildSectionIndex(sections, rooms, grid)
	minutes := assignmentMinutes(state, oldKeys)
	lunchStrict := constraints.LunchMode == "strict"
	state.Deallocate(s, oldKeys)

	bestCost := -1.0
	var bestRoom string
	var bestDay Weekday
	var bestSlot int
	found := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		roomID := candidates[rng.Intn(len(candidates))]
		day := grid.Days[rng.Intn(len(grid.Days))]
		if s.IsLab() && grid.IsOnlineDay(day) {
			continue
		}
		startIdx := rng.Intn(len(grid.Slots))
		keys := consecutiveKeys(roomID, day, grid.Slots[startIdx].Slot, len(oldKeys), grid)
		if keys == nil || !allFree(state, keys) || !teacherAvailable(state, s.TeacherID, keys) {
			continue
		}
		cost := localPlacementCost(s, keys, idx, constraints)
		if !found || cost < bestCost {
			found, bestCost, bestRoom, bestDay, bestSlot = true, cost, roomID, day, grid.Slots[startIdx].Slot
		}
	}

	if !found {
		restoreKeys(state, grid, s, oldKeys, minutes, lunchStrict)
		return false
	}
	online := grid.IsOnlineDay(bestDay) && !s.IsLab()
	if state.Allocate(grid, s, bestRoom, bestDay, bestSlot, len(oldKeys), online, minutes, lunchStrict) {
		return true
	}
	restoreKeys(state, grid, s, oldKeys, minutes, lunchStrict)
	return false
}

// tunnelBlockSwap swaps every assignment belonging to one college
// ("department") on day A with its assignments on day B. It commits
// only if every re-insertion succeeds; otherwise every deallocated
// assignment is restored with its prior duration and the swap is
// logged (by its false return) as a failed attempt.
func tunnelBlockSwap(state *State, sections []Section, grid TimeGrid, constraints Constraints, rng *rand.Rand) bool {
	if len(grid.Days) < 2 {
		return false
	}
	colleges := distinctColleges(sections)
	if len(colleges) == 0 {
		return false
	}
	college := colleges[rng.Intn(len(colleges))]
	dayA := grid.Days[rng.Intn(len(grid.Days))]
	dayB := grid.Days[rng.Intn(len(grid.Days))]
	if dayA == dayB {
		return false
	}

	sectionsByID := indexSections(sections)
	var onA, onB []Assignment
	for _, a := range state.All() {
		sec, ok := sectionsByID[a.SectionID]
		if !ok || sec.Pinned || sec.College != college {
			continue
		}
		switch a.Key.Day {
		case dayA:
			onA = append(onA, a)
		case dayB:
			onB = append(onB, a)
		}
	}
	if len(onA) == 0 && len(onB) == 0 {
		return false
	}

	lunchStrict := constraints.LunchMode == "strict"
	for _, a := range onA {
		state.Deallocate(sectionsByID[a.SectionID], []Key{a.Key})
	}
	for _, a := range onB {
		state.Deallocate(sectionsByID[a.SectionID], []Key{a.Key})
	}

	ok := true
	var moved []Assignment
	for _, a := range onA {
		sec := sectionsByID[a.SectionID]
		online := grid.IsOnlineDay(dayB) && !sec.IsLab()
		if !state.Allocate(grid, sec, a.Key.RoomID, dayB, a.Key.Slot, 1, online, a.ActualMinutes, lunchStrict) {
			ok = false
			break
		}
		moved = append(moved, Assignment{SectionID: a.SectionID, Key: Key{Day: dayB, Slot: a.Key.Slot}})
	}
	if ok {
		for _, a := range onB {
			sec := sectionsByID[a.SectionID]
			online := grid.IsOnlineDay(dayA) && !sec.IsLab()
			if !state.Allocate(grid, sec, a.Key.RoomID, dayA, a.Key.Slot, 1, online, a.ActualMinutes, lunchStrict) {
				ok = false
				break
			}
			moved = append(moved, Assignment{SectionID: a.SectionID, Key: Key{Day: dayA, Slot: a.Key.Slot}})
		}
	}
	if ok {
		return true
	}

	// Undo the re-insertions that did succeed before restoring.
	for _, m := range moved {
		for _, k := range state.KeysForSection(m.SectionID) {
			if k.Day == m.Key.Day && k.Slot == m.Key.Slot {
				state.Deallocate(sectionsByID[m.SectionID], []Key{k})
				break
			}
		}
	}

	// Restore every deallocated assignment with its prior duration.
	for _, a := range append(onA, onB...) {
		sec := sectionsByID[a.SectionID]
		state.Allocate(grid, sec, a.Key.RoomID, a.Key.Day, a.Key.Slot, 1, a.IsOnline, a.ActualMinutes, lunchStrict)
	}
	return false
}

// tunnelOnlineShift moves one non-pinned, non-lab assignment from a
// face-to-face day onto a configured online day.
func tunnelOnlineShift(state *State, sections []Section, grid TimeGrid, constraints Constraints, rng *rand.Rand) bool {
	if len(grid.OnlineDays) == 0 {
		return false
	}
	scheduled := scheduledSections(state, sections)
	var candidates []Section
	for _, s := range scheduled {
		if !s.IsLab() {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	s := candidates[rng.Intn(len(candidates))]
	keys := state.KeysForSection(s.ID)
	var faceToFace []Key
	for _, k := range keys {
		if !grid.IsOnlineDay(k.Day) {
			faceToFace = append(faceToFace, k)
		}
	}
	if len(faceToFace) == 0 {
		return false
	}
	oldKey := faceToFace[rng.Intn(len(faceToFace))]
	onlineDay := grid.OnlineDays[rng.Intn(len(grid.OnlineDays))]

	minutes := assignmentMinutes(state, []Key{oldKey})
	lunchStrict := constraints.LunchMode == "strict"
	state.Deallocate(s, []Key{oldKey})
	if state.Allocate(grid, s, oldKey.RoomID, onlineDay, oldKey.Slot, 1, true, minutes, lunchStrict) {
		return true
	}
	restoreKeys(state, grid, s, []Key{oldKey}, minutes, lunchStrict)
	return false
}

func distinctColleges(sections []Section) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sections {
		if s.College == "" || seen[s.College] {
			continue
		}
		seen[s.College] = true
		out = append(out, s.College)
	}
	return out
}

func indexSections(sections []Section) map[string]Section {
	out := make(map[string]Section, len(sections))
	for _, s := range sections {
		out[s.ID] = s
	}
	return out
}

func scheduledSections(state *State, sections []Section) []Section {
	var out []Section
	for _, s := range sections {
		if s.Pinned {
			continue
		}
		if len(state.KeysForSection(s.ID)) > 0 {
			out = append(out, s)
		}
	}
	return out
}
