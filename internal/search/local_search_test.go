package search

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

func overfullRoomCatalogs() (map[string]*timetable.CourseClass, map[string]*timetable.Room) {
	// One class overflowing the only room: minimum achievable penalty is
	// exactly (20-10) x 1 = 10 for any placement.
	classes := map[string]*timetable.CourseClass{
		"A": {Code: "A", StudentCount: 20, Credits: 1},
	}
	rooms := map[string]*timetable.Room{
		"R1": {Code: "R1", Capacity: 10},
	}
	return classes, rooms
}

func twoClassCatalogs() (map[string]*timetable.CourseClass, map[string]*timetable.Room) {
	classes := map[string]*timetable.CourseClass{
		"A": {Code: "A", StudentCount: 10, Credits: 2},
		"B": {Code: "B", StudentCount: 5, Credits: 1},
	}
	rooms := map[string]*timetable.Room{
		"R1": {Code: "R1", Capacity: 10},
	}
	return classes, rooms
}

func solvableCatalogs() (map[string]*timetable.CourseClass, map[string]*timetable.Room) {
	classes := map[string]*timetable.CourseClass{
		"A": {Code: "A", StudentCount: 10, Credits: 2},
		"B": {Code: "B", StudentCount: 5, Credits: 1},
	}
	rooms := map[string]*timetable.Room{
		"R1": {Code: "R1", Capacity: 20},
		"R2": {Code: "R2", Capacity: 20},
	}
	return classes, rooms
}

func newClimber(t *testing.T, classes map[string]*timetable.CourseClass, rooms map[string]*timetable.Room, seed int64) (*HillClimb, *timetable.Schedule) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	climber, err := NewHillClimb(objective.NewEvaluator(), classes, rooms, rng)
	require.NoError(t, err)

	initial := timetable.NewSchedule()
	initial.RandomFill(timetable.SortedClasses(classes), timetable.SortedRooms(rooms), rng)
	return climber, initial
}

func TestParseVariant(t *testing.T) {
	for _, name := range []string{"stochastic", "steepest_ascent", "sideways_move", "random_restart"} {
		variant, err := ParseVariant(name)
		assert.NoError(t, err)
		assert.Equal(t, Variant(name), variant)
	}

	_, err := ParseVariant("tabu")
	assert.Error(t, err)
}

func TestNewHillClimbFailsFast(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	rng := rand.New(rand.NewSource(1))

	// Act & Assert
	_, err := NewHillClimb(nil, classes, rooms, rng)
	assert.Error(t, err)
	_, err = NewHillClimb(objective.NewEvaluator(), map[string]*timetable.CourseClass{}, rooms, rng)
	assert.Error(t, err)
	_, err = NewHillClimb(objective.NewEvaluator(), classes, map[string]*timetable.Room{}, rng)
	assert.Error(t, err)
	_, err = NewHillClimb(objective.NewEvaluator(), classes, rooms, nil)
	assert.Error(t, err)
}

func TestSolveRejectsUnknownVariant(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	climber, initial := newClimber(t, classes, rooms, 1)

	// Act
	_, _, err := climber.Solve(context.Background(), initial, Variant("tabu"), DefaultHillClimbParams())

	// Assert
	assert.Error(t, err)
}

func TestSolveRejectsRecursiveRestart(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	climber, initial := newClimber(t, classes, rooms, 1)
	params := DefaultHillClimbParams()
	params.RestartVariant = RandomRestart

	// Act
	_, _, err := climber.Solve(context.Background(), initial, RandomRestart, params)

	// Assert
	assert.Error(t, err)
}

func TestSolveRejectsUnknownRestartVariant(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	climber, initial := newClimber(t, classes, rooms, 1)
	params := DefaultHillClimbParams()
	params.RestartVariant = Variant("tabu")

	// Act
	best, result, err := climber.Solve(context.Background(), initial, RandomRestart, params)

	// Assert
	assert.Error(t, err)
	assert.Nil(t, best)
	assert.Nil(t, result)
}

func TestSteepestAscentCountsTheHaltingScan(t *testing.T) {
	// Arrange: every placement of the single meeting scores the same, so the
	// initial schedule is already a local optimum and the run halts after one
	// full neighborhood scan.
	classes, rooms := overfullRoomCatalogs()
	climber, initial := newClimber(t, classes, rooms, 7)

	// Act
	_, result, err := climber.Solve(context.Background(), initial, SteepestAscent, DefaultHillClimbParams())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, len(result.History), result.Iterations)
}

func TestSteepestAscentHistoryIsNonIncreasing(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	climber, initial := newClimber(t, classes, rooms, 42)
	params := DefaultHillClimbParams()
	params.MaxIterations = 50

	// Act
	best, result, err := climber.Solve(context.Background(), initial, SteepestAscent, params)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.LessOrEqual(t, result.Iterations, 50)
	for i := 1; i < len(result.History); i++ {
		assert.LessOrEqual(t, result.History[i], result.History[i-1])
	}
	assert.LessOrEqual(t, result.BestPenalty, result.InitialPenalty)
	assert.Equal(t, SteepestAscent, result.Variant)
}

func TestNoVariantBeatsTheCapacityFloor(t *testing.T) {
	// Arrange
	classes, rooms := overfullRoomCatalogs()

	for _, variant := range []Variant{Stochastic, SteepestAscent, SidewaysMove, RandomRestart} {
		climber, initial := newClimber(t, classes, rooms, 7)
		params := DefaultHillClimbParams()
		params.MaxIterations = 30
		params.MaxRestarts = 3

		// Act
		_, result, err := climber.Solve(context.Background(), initial, variant, params)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 10.0, result.BestPenalty, "variant %v", variant)
	}
}

func TestStochasticStopsOnStagnation(t *testing.T) {
	// Arrange: the overfull instance is flat, so no neighbor ever improves.
	classes, rooms := overfullRoomCatalogs()
	climber, initial := newClimber(t, classes, rooms, 5)
	params := DefaultHillClimbParams()
	params.MaxIterations = 10_000
	params.StagnationLimit = 25

	// Act
	_, result, err := climber.Solve(context.Background(), initial, Stochastic, params)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 25, result.Iterations)
}

func TestSteepestAscentSolvesRelaxedInstance(t *testing.T) {
	// Arrange: two spacious rooms make a zero-penalty schedule reachable.
	classes, rooms := solvableCatalogs()
	climber, initial := newClimber(t, classes, rooms, 3)

	// Act
	best, result, err := climber.Solve(context.Background(), initial, SteepestAscent, DefaultHillClimbParams())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.BestPenalty)
	assert.Equal(t, 0.0, objective.NewEvaluator().Evaluate(best))
}

func TestRandomRestartKeepsBestTrial(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	climber, initial := newClimber(t, classes, rooms, 19)
	params := DefaultHillClimbParams()
	params.MaxIterations = 20
	params.MaxRestarts = 4
	params.RestartVariant = Stochastic

	// Act
	best, result, err := climber.Solve(context.Background(), initial, RandomRestart, params)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, len(result.IterationsPerRestart), result.Restarts)
	assert.LessOrEqual(t, result.Restarts, 4)
	assert.Len(t, result.History, result.Restarts)
	for _, trialBest := range result.History {
		assert.GreaterOrEqual(t, trialBest, result.BestPenalty)
	}
}

func TestSidewaysMoveRespectsPlateauBudget(t *testing.T) {
	// Arrange: a flat landscape only admits plateau steps.
	classes, rooms := overfullRoomCatalogs()
	climber, initial := newClimber(t, classes, rooms, 13)
	params := DefaultHillClimbParams()
	params.MaxIterations = 100
	params.MaxSidewaysMoves = 5

	// Act
	_, result, err := climber.Solve(context.Background(), initial, SidewaysMove, params)

	// Assert
	require.NoError(t, err)
	assert.LessOrEqual(t, result.SidewaysMoves, 5)
	assert.Equal(t, 10.0, result.BestPenalty)
}

func TestSolveAbortsOnCanceledContext(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	climber, initial := newClimber(t, classes, rooms, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	best, result, err := climber.Solve(ctx, initial, Stochastic, DefaultHillClimbParams())

	// Assert
	assert.Error(t, err)
	assert.Nil(t, best)
	assert.Nil(t, result)
}
