package search

import (
	"context"
	"math/rand"
	"testing"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

func TestFitnessIsMonotone(t *testing.T) {
	assert.Equal(t, 1.0, Fitness(0))
	assert.Greater(t, Fitness(1), Fitness(2))
	assert.Greater(t, Fitness(0), Fitness(0.5))
	assert.InDelta(t, 0.5, Fitness(1), 1e-9)
}

func TestGeneticConfigValidation(t *testing.T) {
	assert.NoError(t, DefaultGeneticConfig().Validate())
	assert.Error(t, GeneticConfig{PopulationSize: 1, Generations: 10, MutationRate: 0.2}.Validate())
	assert.Error(t, GeneticConfig{PopulationSize: 10, Generations: 0, MutationRate: 0.2}.Validate())
	assert.Error(t, GeneticConfig{PopulationSize: 10, Generations: 10, MutationRate: 1.5}.Validate())
}

func TestNewGeneticFailsFastOnEmptyCatalogs(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	rng := rand.New(rand.NewSource(1))

	// Act & Assert
	_, err := NewGenetic(DefaultGeneticConfig(), objective.NewEvaluator(), map[string]*timetable.CourseClass{}, rooms, rng)
	assert.Error(t, err)
	_, err = NewGenetic(DefaultGeneticConfig(), objective.NewEvaluator(), classes, map[string]*timetable.Room{}, rng)
	assert.Error(t, err)
}

func TestGeneticBestNeverWorsensAcrossGenerations(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	cfg := GeneticConfig{PopulationSize: 10, Generations: 25, MutationRate: 0.2}
	genetic, err := NewGenetic(cfg, objective.NewEvaluator(), classes, rooms, rand.New(rand.NewSource(37)))
	require.NoError(t, err)

	// Act
	best, result, err := genetic.Optimize(context.Background())

	// Assert: elitism makes the per-generation best monotonically non-worsening.
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.LessOrEqual(t, result.Generations, 25)
	assert.Len(t, result.AvgFitnessHistory, result.Generations)
	for i := 1; i < len(result.History); i++ {
		assert.LessOrEqual(t, result.History[i], result.History[i-1])
	}
	assert.Equal(t, result.BestPenalty, objective.NewEvaluator().Evaluate(best))
}

func TestGeneticStopsAtZeroPenalty(t *testing.T) {
	// Arrange
	classes, rooms := solvableCatalogs()
	cfg := GeneticConfig{PopulationSize: 20, Generations: 200, MutationRate: 0.2}
	genetic, err := NewGenetic(cfg, objective.NewEvaluator(), classes, rooms, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	// Act
	_, result, err := genetic.Optimize(context.Background())

	// Assert
	require.NoError(t, err)
	if result.BestPenalty == 0 {
		assert.Less(t, result.Generations, 200)
	}
}

func TestCrossoverNeverSplitsAClassAcrossParents(t *testing.T) {
	// Arrange
	g := gomega.NewWithT(t)
	classes, rooms := twoClassCatalogs()
	classList := timetable.SortedClasses(classes)
	roomList := timetable.SortedRooms(rooms)
	rng := rand.New(rand.NewSource(41))

	genetic, err := NewGenetic(DefaultGeneticConfig(), objective.NewEvaluator(), classes, rooms, rng)
	require.NoError(t, err)

	meetingsByClass := func(s *timetable.Schedule) map[string][]timetable.Meeting {
		perClass := map[string][]timetable.Meeting{}
		for _, meeting := range s.Meetings {
			perClass[meeting.Class.Code] = append(perClass[meeting.Class.Code], meeting)
		}
		return perClass
	}

	for range 50 {
		parent1 := timetable.NewSchedule()
		parent1.RandomFill(classList, roomList, rng)
		parent2 := timetable.NewSchedule()
		parent2.RandomFill(classList, roomList, rng)

		// Act
		child1, child2 := genetic.crossover(parent1, parent2)

		// Assert: per class code, each child's meetings exactly equal one
		// parent's meetings for that class, and the assignments of the two
		// children are complementary.
		fromParent1 := meetingsByClass(parent1)
		fromParent2 := meetingsByClass(parent2)
		for _, child := range []*timetable.Schedule{child1, child2} {
			perClass := meetingsByClass(child)
			g.Expect(perClass).To(gomega.HaveLen(len(classes)))
			for code, meetings := range perClass {
				g.Expect(meetings).To(gomega.Or(
					gomega.ConsistOf(fromParent1[code]),
					gomega.ConsistOf(fromParent2[code]),
				))
			}
		}

		child1Classes := meetingsByClass(child1)
		child2Classes := meetingsByClass(child2)
		for code := range fromParent1 {
			g.Expect(child1Classes).To(gomega.HaveKey(code))
			g.Expect(child2Classes).To(gomega.HaveKey(code))
		}
	}
}

func TestMutationPreservesClassCoverage(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	classList := timetable.SortedClasses(classes)
	roomList := timetable.SortedRooms(rooms)
	rng := rand.New(rand.NewSource(43))

	genetic, err := NewGenetic(DefaultGeneticConfig(), objective.NewEvaluator(), classes, rooms, rng)
	require.NoError(t, err)

	for range 200 {
		individual := timetable.NewSchedule()
		individual.RandomFill(classList, roomList, rng)

		// Act
		genetic.mutate(individual)

		// Assert: every class still has meetings summing to its credits.
		hoursPerClass := map[string]int{}
		for _, meeting := range individual.Meetings {
			hoursPerClass[meeting.Class.Code] += meeting.Slot.Duration()
			assert.GreaterOrEqual(t, meeting.Slot.StartHour, timetable.MinHour)
			assert.LessOrEqual(t, meeting.Slot.EndHour, timetable.MaxHour)
		}
		for _, class := range classList {
			assert.Equal(t, class.Credits, hoursPerClass[class.Code])
		}
	}
}

func TestTournamentPrefersFitter(t *testing.T) {
	// Arrange
	classes, rooms := twoClassCatalogs()
	genetic, err := NewGenetic(DefaultGeneticConfig(), objective.NewEvaluator(), classes, rooms, rand.New(rand.NewSource(47)))
	require.NoError(t, err)

	population := []*timetable.Schedule{timetable.NewSchedule(), timetable.NewSchedule()}
	fitnesses := []float64{0.2, 0.9}

	// Act & Assert: with only two individuals the tournament always drafts both.
	for range 20 {
		assert.Same(t, population[1], genetic.tournament(population, fitnesses))
	}
}
