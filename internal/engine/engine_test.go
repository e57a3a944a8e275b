package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRooms() []Room {
	return []Room{
		{ID: "R1", Name: "Lecture Hall A", Capacity: 40, Type: RoomTypeLecture},
		{ID: "R2", Name: "Lecture Hall B", Capacity: 30, Type: RoomTypeLecture},
		{ID: "R3", Name: "Lab A", Capacity: 25, Type: RoomTypeLab, Features: []string{"computers"}},
	}
}

func sampleSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, 6)
	for i := 0; i < 6; i++ {
		slots = append(slots, TimeSlot{
			ID:          "S" + string(rune('0'+i)),
			Slot:        i,
			StartMinute: i * 90,
			EndMinute:   i*90 + 90,
		})
	}
	return slots
}

func TestBuildCompatibilityTable_RelaxesAcrossPasses(t *testing.T) {
	rooms := sampleRooms()
	s := Section{ID: "CS101", TeacherID: "T1", StudentCount: 35, Kind: SessionLecture, RequiredRoomType: RoomTypeLecture, LectureMinutes: 180}
	table := BuildCompatibilityTable([]Section{s}, rooms, DefaultConstraints())
	got := table.CompatibleRooms("CS101")
	require.Contains(t, got, "R1")
	assert.NotContains(t, got, "R2", "R2 capacity 30 is below 35*(1-tol)")
}

func TestBuildCompatibilityTable_FallsBackWhenNoRoomFits(t *testing.T) {
	rooms := []Room{{ID: "R1", Capacity: 10, Type: RoomTypeLab, Features: []string{"projector"}}}
	s := Section{ID: "CS101", TeacherID: "T1", StudentCount: 9, Kind: SessionLecture, RequiredRoomType: RoomTypeLecture, RequiredFeatures: []string{"projector"}, LectureMinutes: 90}
	table := BuildCompatibilityTable([]Section{s}, rooms, DefaultConstraints())
	got := table.CompatibleRooms("CS101")
	assert.Equal(t, []string{"R1"}, got, "lab-hosts-lecture relaxation should surface the only room")
}

func TestBuildCompatibilityTable_CollegeRuleExcludesOtherColleges(t *testing.T) {
	rooms := []Room{
		{ID: "R1", Capacity: 40, Type: RoomTypeLecture, College: "Engineering"},
		{ID: "R2", Capacity: 40, Type: RoomTypeLecture, College: "Business"},
		{ID: "R3", Capacity: 40, Type: RoomTypeLecture, College: CollegeShared},
	}
	s := Section{ID: "CS101", TeacherID: "T1", StudentCount: 30, Kind: SessionLecture, RequiredRoomType: RoomTypeLecture, LectureMinutes: 180, College: "Engineering"}
	got := CompatibleRoomsForSection(s, rooms, DefaultConstraints())
	assert.Contains(t, got, "R1")
	assert.Contains(t, got, "R3")
	assert.NotContains(t, got, "R2", "a Business-tagged room may not host an Engineering section")
}

func TestDecompose_HybridOversizedProducesAnchorAndTwoLabGroups(t *testing.T) {
	sections := []Section{{ID: "CS201", TeacherID: "T1", StudentCount: 60, Kind: SessionHybrid, LectureMinutes: 90, LabMinutes: 180}}
	out := Decompose(sections, sampleRooms(), DefaultConstraints())

	var anchor *Section
	var satellites []Section
	for i := range out {
		if out[i].ID == "CS201_LEC" {
			anchor = &out[i]
		} else {
			satellites = append(satellites, out[i])
		}
	}
	require.NotNil(t, anchor)
	assert.Equal(t, "CS201", anchor.OriginalID)
	assert.Equal(t, SessionLecture, anchor.Kind)
	assert.Equal(t, 90, anchor.LectureMinutes, "the anchor keeps its full lecture load")
	require.Len(t, satellites, 2, "60 students over median lab capacity 25 should split into exactly two lab groups")
	assert.ElementsMatch(t, []string{"CS201_G1_LAB", "CS201_G2_LAB"}, []string{satellites[0].ID, satellites[1].ID})
	assert.Equal(t, 60, satellites[0].StudentCount+satellites[1].StudentCount, "the two lab groups split the full roster")
	assert.Len(t, anchor.SiblingIDs, 2)
}

func TestDecompose_PassesThroughOrdinarySections(t *testing.T) {
	sections := []Section{{ID: "CS301", TeacherID: "T1", StudentCount: 20, Kind: SessionLecture, LectureMinutes: 180}}
	out := Decompose(sections, sampleRooms(), DefaultConstraints())
	require.Len(t, out, 1)
	assert.Equal(t, "CS301", out[0].ID)
	assert.Empty(t, out[0].OriginalID)
}

func TestState_PlaceRemoveReverseIndices(t *testing.T) {
	state := NewState()
	s := Section{ID: "CS101", TeacherID: "T1", GroupLabel: "lecture"}
	key := Key{RoomID: "R1", Day: Monday, Slot: 0}

	state.Place(key, s)
	assert.False(t, state.IsFree(key))
	assert.Equal(t, []Key{key}, state.KeysForSection("CS101"))
	assert.Equal(t, []Key{key}, state.TeacherDayKeys("T1", Monday))
	assert.Equal(t, []Key{key}, state.GroupDayKeys("lecture", Monday))

	state.Remove(key, s)
	assert.True(t, state.IsFree(key))
	assert.Empty(t, state.KeysForSection("CS101"))
	assert.Empty(t, state.TeacherDayKeys("T1", Monday))
}

func TestState_AllocateRejectsCohortOverlap(t *testing.T) {
	grid := TimeGrid{Days: []Weekday{Monday}, Slots: sampleSlots()}
	state := NewState()

	anchor := Section{ID: "CS201_LEC", OriginalID: "CS201", CourseCode: "CS201", TeacherID: "T1"}
	satellite := Section{ID: "CS201_G1_LAB", OriginalID: "CS201", CourseCode: "CS201", TeacherID: "T2"}

	require.True(t, state.Allocate(grid, anchor, "R1", Monday, 0, 1, false, 90, false))
	assert.False(t, state.Allocate(grid, satellite, "R3", Monday, 0, 1, false, 90, false),
		"a sibling of the same cohort may not double-book the same slot")
}

func TestEvaluate_PenalizesUnscheduledSections(t *testing.T) {
	req := Request{
		Sections: []Section{{ID: "CS101", TeacherID: "T1", StudentCount: 20, Kind: SessionLecture, LectureMinutes: 180}},
		Rooms:    sampleRooms(),
		TimeSlots: sampleSlots(),
	}
	grid := BuildTimeGrid(req)
	state := NewState()
	cost := Evaluate(state, req.Sections, req.Rooms, grid, nil, DefaultConstraints())
	assert.Greater(t, cost, 0.0)
}

func TestNeighbor_NeverSelectsPinnedSection(t *testing.T) {
	grid := TimeGrid{Days: []Weekday{Monday, Tuesday}, Slots: sampleSlots()}
	pinned := Section{ID: "CS101", TeacherID: "T1", Pinned: true, PinnedRoomID: "R1", PinnedDay: Monday, PinnedSlot: 0}
	state := NewState()
	state.Place(Key{RoomID: "R1", Day: Monday, Slot: 0}, pinned)

	table := CompatibilityTable{}
	rng := rand.New(rand.NewSource(7))
	_, ok := Neighbor(state, []Section{pinned}, table, grid, rng)
	assert.False(t, ok, "the only scheduled section is pinned, so no neighbor move is available")
}

func TestRun_ProducesDeterministicScheduleForFixedSeed(t *testing.T) {
	req := Request{
		Sections: []Section{
			{ID: "CS101", TeacherID: "T1", StudentCount: 20, Kind: SessionLecture, RequiredRoomType: RoomTypeLecture, LectureMinutes: 180},
			{ID: "CS102", TeacherID: "T2", StudentCount: 22, Kind: SessionLab, RequiredRoomType: RoomTypeLab, RequiredFeatures: []string{"computers"}, LabMinutes: 180},
		},
		Rooms:     sampleRooms(),
		TimeSlots: sampleSlots(),
		Days:      []Weekday{Monday, Tuesday},
	}

	r1, err := Run(req, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	r2, err := Run(req, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, r1.ScheduledCount, r2.ScheduledCount)
	assert.Equal(t, r1.ScheduleEntries, r2.ScheduleEntries)
	assert.Equal(t, 2, r1.TotalSections)
}

func TestRun_RejectsEmptyRequest(t *testing.T) {
	_, err := Run(Request{}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.NotEmpty(t, verrs)
}

func TestPostprocess_DowngradesTeacherDoubleBookingButKeepsTheClass(t *testing.T) {
	rooms := sampleRooms()
	sections := []Section{
		{ID: "A", TeacherID: "T1", StudentCount: 10, Kind: SessionLecture, LectureMinutes: 90},
		{ID: "B", TeacherID: "T1", StudentCount: 10, Kind: SessionLecture, LectureMinutes: 90},
	}
	state := NewState()
	state.Place(Key{RoomID: "R2", Day: Monday, Slot: 0}, sections[0])
	state.Place(Key{RoomID: "R1", Day: Monday, Slot: 0}, sections[1])

	grid := TimeGrid{Days: []Weekday{Monday}, Slots: sampleSlots()}
	table := BuildCompatibilityTable(sections, rooms, DefaultConstraints())

	conflicts := Postprocess(state, sections, rooms, grid, table, DefaultConstraints())
	require.Len(t, conflicts, 1)
	assert.Equal(t, "A", conflicts[0].SectionID, "lowest room id R1 (section B) keeps its teacher, R2 occupant (A) is downgraded")

	downgraded, ok := state.At(Key{RoomID: "R2", Day: Monday, Slot: 0})
	require.True(t, ok, "the downgraded assignment stays in the schedule")
	assert.Equal(t, TBDTeacherID, downgraded.TeacherID)

	kept, ok := state.At(Key{RoomID: "R1", Day: Monday, Slot: 0})
	require.True(t, ok)
	assert.Equal(t, "T1", kept.TeacherID)
}

func TestPlanBlocks_FinalBlockCarriesResidualMinutes(t *testing.T) {
	s := Section{ID: "CS401", Kind: SessionLecture, LectureMinutes: 200}
	blocks := planBlocks(s, 90, DefaultConstraints())
	total := 0
	for _, b := range blocks {
		total += b.ActualMinutes
	}
	assert.Equal(t, 200, total, "blocks must sum to exactly the section's weekly minutes")
	assert.Less(t, blocks[len(blocks)-1].ActualMinutes, 90, "the final block should carry the short residual, not a full slot")
}
