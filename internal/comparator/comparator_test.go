package comparator

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudyne/scheduler/internal/engine"
)

func tinyRequest() engine.Request {
	return engine.Request{
		Sections: []engine.Section{
			{ID: "CS101", TeacherID: "T1", StudentCount: 20, Kind: engine.SessionLecture, RequiredRoomType: engine.RoomTypeLecture, LectureMinutes: 90},
		},
		Rooms: []engine.Room{
			{ID: "R1", Capacity: 30, Type: engine.RoomTypeLecture},
		},
		TimeSlots: []engine.TimeSlot{
			{ID: "S0", Slot: 0, StartMinute: 0, EndMinute: 90},
			{ID: "S1", Slot: 1, StartMinute: 90, EndMinute: 180},
		},
		Days: []engine.Weekday{engine.Monday},
	}
}

func TestExportMatrix_OneVariablePerCompatibleCell(t *testing.T) {
	Q, vars := ExportMatrix(tinyRequest())
	assert.Len(t, vars, 2, "one room, one day, two slots")
	assert.NotEmpty(t, Q, "assign-once penalty should populate the diagonal")
}

func TestExactSolver_SchedulesTrivialRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	solver := NewExactSolver()
	result, err := solver.Solve(ctx, tinyRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScheduledCount)
	assert.Equal(t, "optimal", result.Status)
}

func TestQUBOSolver_Runs(t *testing.T) {
	solver := NewQUBOSolver(rand.New(rand.NewSource(7)))
	result, err := solver.Solve(context.Background(), tinyRequest())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.ScheduledCount, 0)
	assert.Equal(t, "qubo-tabu", result.Algorithm)
}

func TestQIASolver_Runs(t *testing.T) {
	solver := NewQIASolver(rand.New(rand.NewSource(7)))
	solver.Generations = 20
	solver.PopulationSize = 5
	result, err := solver.Solve(context.Background(), tinyRequest())
	require.NoError(t, err)
	assert.Equal(t, "qia", result.Algorithm)
}

func TestQAOASolver_BruteForcesSmallProblems(t *testing.T) {
	solver := NewQAOASolver(rand.New(rand.NewSource(7)))
	result, err := solver.Solve(context.Background(), tinyRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScheduledCount)
	assert.Equal(t, "optimal", result.Status)
}
