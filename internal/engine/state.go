package engine

import (
	"fmt"
	"sort"
)

// State is the authoritative schedule: a map from grid cell to the
// Assignment occupying it, plus reverse indices kept in sync on every
// Place/Remove so lookups by section, by teacher-day, and by
// cohort-day never require a full scan.
type State struct {
	grid map[Key]Assignment

	bySection    map[string][]Key
	byTeacherDay map[teacherDayKey][]Key
	byGroupDay   map[groupDayKey][]Key
	byCohortDay  map[cohortDayKey][]Key

	onlineSeq int
}

type teacherDayKey struct {
	TeacherID string
	Day       Weekday
}

type groupDayKey struct {
	GroupLabel string
	Day        Weekday
}

type cohortDayKey struct {
	CohortKey string
	Day       Weekday
}

// NewState returns an empty schedule state.
func NewState() *State {
	return &State{
		grid:         make(map[Key]Assignment),
		bySection:    make(map[string][]Key),
		byTeacherDay: make(map[teacherDayKey][]Key),
		byGroupDay:   make(map[groupDayKey][]Key),
		byCohortDay:  make(map[cohortDayKey][]Key),
	}
}

// At returns the assignment occupying key, if any.
func (s *State) At(key Key) (Assignment, bool) {
	a, ok := s.grid[key]
	return a, ok
}

// IsFree reports whether no assignment occupies key. Online keys are
// always reported free to callers since they never physically
// collide; allocate() handles online placement through its own path.
func (s *State) IsFree(key Key) bool {
	_, ok := s.grid[key]
	return !ok
}

// onlineRoomKey mints a synthetic, per-assignment room id so that
// multiple sections running online at the same (day, slot) don't
// collide in the grid map the way two physical room bookings would;
// no real room is ever tracked as occupied by an online assignment.
func (s *State) onlineRoomKey(sectionID string) string {
	s.onlineSeq++
	return fmt.Sprintf("online::%s::%d", sectionID, s.onlineSeq)
}

// Place records an assignment at key unconditionally. Used by callers
// (the greedy builder's pinned-placement path, the comparator solver
// family) that have already established the cell is free by
// construction. Allocate is the checked counterpart used everywhere
// the engine itself proposes a cell.
func (s *State) Place(key Key, section Section) {
	s.insert(Assignment{Key: key, SectionID: section.ID, TeacherID: section.TeacherID, IsLab: section.IsLab()}, section)
}

func (s *State) insert(a Assignment, section Section) {
	s.grid[a.Key] = a
	s.bySection[section.ID] = append(s.bySection[section.ID], a.Key)

	tdKey := teacherDayKey{TeacherID: section.TeacherID, Day: a.Key.Day}
	s.byTeacherDay[tdKey] = append(s.byTeacherDay[tdKey], a.Key)

	if section.GroupLabel != "" {
		gdKey := groupDayKey{GroupLabel: section.GroupLabel, Day: a.Key.Day}
		s.byGroupDay[gdKey] = append(s.byGroupDay[gdKey], a.Key)
	}

	cdKey := cohortDayKey{CohortKey: section.CohortKey(), Day: a.Key.Day}
	s.byCohortDay[cdKey] = append(s.byCohortDay[cdKey], a.Key)
}

// Remove clears key and its reverse-index entries for section.
func (s *State) Remove(key Key, section Section) {
	delete(s.grid, key)
	s.bySection[section.ID] = removeKey(s.bySection[section.ID], key)

	tdKey := teacherDayKey{TeacherID: section.TeacherID, Day: key.Day}
	s.byTeacherDay[tdKey] = removeKey(s.byTeacherDay[tdKey], key)

	if section.GroupLabel != "" {
		gdKey := groupDayKey{GroupLabel: section.GroupLabel, Day: key.Day}
		s.byGroupDay[gdKey] = removeKey(s.byGroupDay[gdKey], key)
	}

	cdKey := cohortDayKey{CohortKey: section.CohortKey(), Day: key.Day}
	s.byCohortDay[cdKey] = removeKey(s.byCohortDay[cdKey], key)
}

// TBDTeacherID is the sentinel teacher id Postprocess assigns to a
// downgraded assignment: the class stays committed in the schedule,
// only its teacher is cleared, surfaced by the assembler as "TBD".
const TBDTeacherID = ""

// DowngradeToTBD clears the teacher on the assignment occupying key,
// leaving the cell itself committed. Used by Postprocess's final
// teacher-conflict sweep (§4.9): the losing assignment keeps its class
// and room, it just loses its teacher.
func (s *State) DowngradeToTBD(key Key) {
	a, ok := s.grid[key]
	if !ok {
		return
	}
	old := teacherDayKey{TeacherID: a.TeacherID, Day: key.Day}
	s.byTeacherDay[old] = removeKey(s.byTeacherDay[old], key)
	a.TeacherID = TBDTeacherID
	s.grid[key] = a
}

// Deallocate removes every key in keys on behalf of section, the
// inverse of Allocate. Subject-day index entries are dropped only once
// no other assignment of that cohort remains on that day, which
// byCohortDay's removeKey bookkeeping already guarantees since it only
// ever holds currently-occupied keys.
func (s *State) Deallocate(section Section, keys []Key) {
	for _, k := range keys {
		s.Remove(k, section)
	}
}

// Allocate implements the schedule state's checked placement
// operation: it fails if (a) lunchStrict and the range intersects the
// grid's lunch window, (b) any physical (room, day, slot) in the
// range is already occupied, (c) the teacher already has an
// assignment anywhere in the range on that day, (d) the section itself
// already occupies any slot in the range, or (e) a sibling/satellite
// of the same cohort already occupies any slot in the range. On
// success it mutates every index atomically and returns the
// Assignments it created (one per key, carrying actualMinutes on the
// final one only when it differs — callers that split blocks call
// Allocate once per block).
func (s *State) Allocate(grid TimeGrid, section Section, roomID string, day Weekday, startSlot, slotCount int, isOnline bool, actualMinutes int, lunchStrict bool) bool {
	keys := consecutiveKeys(roomID, day, startSlot, slotCount, grid)
	if keys == nil {
		return false
	}
	if lunchStrict && grid.OverlapsLunch(keys) {
		return false
	}
	if !isOnline {
		for _, k := range keys {
			if !s.IsFree(k) {
				return false
			}
		}
	}
	if s.teacherConflict(section.TeacherID, day, keys) {
		return false
	}
	if s.sectionConflict(section.ID, day, keys) {
		return false
	}
	if s.cohortConflict(section, day, keys) {
		return false
	}

	placeKeys := keys
	if isOnline {
		placeKeys = make([]Key, len(keys))
		for i, k := range keys {
			placeKeys[i] = Key{RoomID: s.onlineRoomKey(section.ID), Day: k.Day, Slot: k.Slot}
		}
	}
	for i, k := range placeKeys {
		minutes := grid.slotDurationOrZero(keys[i].Slot)
		if i == len(placeKeys)-1 {
			minutes = actualMinutes - minutesSum(grid, keys[:i])
		}
		s.insert(Assignment{Key: k, SectionID: section.ID, TeacherID: section.TeacherID, IsOnline: isOnline, IsLab: section.IsLab(), ActualMinutes: minutes}, section)
	}
	return true
}

func minutesSum(grid TimeGrid, keys []Key) int {
	total := 0
	for _, k := range keys {
		total += grid.slotDurationOrZero(k.Slot)
	}
	return total
}

// teacherConflict reports whether teacherID already occupies any slot
// in keys on day.
func (s *State) teacherConflict(teacherID string, day Weekday, keys []Key) bool {
	occupied := s.byTeacherDay[teacherDayKey{TeacherID: teacherID, Day: day}]
	return anySlotMatches(occupied, keys)
}

// sectionConflict reports whether sectionID already occupies any slot
// in keys on day.
func (s *State) sectionConflict(sectionID string, day Weekday, keys []Key) bool {
	for _, k := range s.bySection[sectionID] {
		if k.Day != day {
			continue
		}
		for _, target := range keys {
			if k.Slot == target.Slot {
				return true
			}
		}
	}
	return false
}

// cohortConflict reports whether section's cohort already occupies any
// slot in keys on day (a sibling/satellite double-booking).
func (s *State) cohortConflict(section Section, day Weekday, keys []Key) bool {
	occupied := s.byCohortDay[cohortDayKey{CohortKey: section.CohortKey(), Day: day}]
	return anySlotMatches(occupied, keys)
}

func anySlotMatches(occupied, keys []Key) bool {
	for _, o := range occupied {
		for _, k := range keys {
			if o.Slot == k.Slot {
				return true
			}
		}
	}
	return false
}

// KeysForSection returns the cells currently occupied by sectionID.
func (s *State) KeysForSection(sectionID string) []Key {
	return s.bySection[sectionID]
}

// TeacherDayKeys returns the cells teacherID occupies on day.
func (s *State) TeacherDayKeys(teacherID string, day Weekday) []Key {
	return s.byTeacherDay[teacherDayKey{TeacherID: teacherID, Day: day}]
}

// GroupDayKeys returns the cells occupied by groupLabel on day.
func (s *State) GroupDayKeys(groupLabel string, day Weekday) []Key {
	return s.byGroupDay[groupDayKey{GroupLabel: groupLabel, Day: day}]
}

// CohortDayKeys returns the cells occupied by cohortKey on day.
func (s *State) CohortDayKeys(cohortKey string, day Weekday) []Key {
	return s.byCohortDay[cohortDayKey{CohortKey: cohortKey, Day: day}]
}

// All returns a snapshot slice of every current assignment, ordered
// deterministically by (room, day, slot) so that callers iterating it
// for random selection reproduce identical sequences given the same
// rng seed.
func (s *State) All() []Assignment {
	out := make([]Assignment, 0, len(s.grid))
	for _, a := range s.grid {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.RoomID != out[j].Key.RoomID {
			return out[i].Key.RoomID < out[j].Key.RoomID
		}
		if out[i].Key.Day != out[j].Key.Day {
			return out[i].Key.Day < out[j].Key.Day
		}
		return out[i].Key.Slot < out[j].Key.Slot
	})
	return out
}

// Clone deep-copies the state for snapshotting best-so-far schedules.
func (s *State) Clone() *State {
	c := NewState()
	c.onlineSeq = s.onlineSeq
	for k, v := range s.grid {
		c.grid[k] = v
	}
	for k, v := range s.bySection {
		c.bySection[k] = append([]Key(nil), v...)
	}
	for k, v := range s.byTeacherDay {
		c.byTeacherDay[k] = append([]Key(nil), v...)
	}
	for k, v := range s.byGroupDay {
		c.byGroupDay[k] = append([]Key(nil), v...)
	}
	for k, v := range s.byCohortDay {
		c.byCohortDay[k] = append([]Key(nil), v...)
	}
	return c
}

func removeKey(keys []Key, target Key) []Key {
	for i, k := range keys {
		if k == target {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
