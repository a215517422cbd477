package search

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/samber/lo"

	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

// GeneticConfig parameterizes the evolutionary search.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
}

func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 20,
		Generations:    100,
		MutationRate:   0.2,
	}
}

func (c GeneticConfig) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("PopulationSize must be at least 2: %v", c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("Generations must be positive: %v", c.Generations)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("MutationRate must be within [0, 1]: %v", c.MutationRate)
	}
	return nil
}

// Genetic evolves a population of schedules with binary tournament selection,
// per-class crossover and three mutation kinds, under single-elite
// replacement so the tracked best never worsens between generations.
type Genetic struct {
	cfg        GeneticConfig
	evaluator  *objective.Evaluator
	classes    []*timetable.CourseClass
	classIndex map[string]*timetable.CourseClass
	rooms      []*timetable.Room
	rng        *rand.Rand
}

func NewGenetic(
	cfg GeneticConfig,
	evaluator *objective.Evaluator,
	classes map[string]*timetable.CourseClass,
	rooms map[string]*timetable.Room,
	rng *rand.Rand,
) (*Genetic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator must not be nil")
	}
	if len(classes) == 0 || len(rooms) == 0 {
		return nil, fmt.Errorf("classes and rooms catalogs must not be empty")
	}
	if rng == nil {
		return nil, fmt.Errorf("random generator must not be nil")
	}
	return &Genetic{
		cfg:        cfg,
		evaluator:  evaluator,
		classes:    timetable.SortedClasses(classes),
		classIndex: classes,
		rooms:      timetable.SortedRooms(rooms),
		rng:        rng,
	}, nil
}

// Fitness maps a penalty into (0, 1], monotone decreasing penalty meaning
// increasing fitness.
func Fitness(penalty float64) float64 {
	return 1.0 / (1.0 + penalty)
}

// Optimize evolves the population for the configured number of generations,
// exiting early the instant a zero-penalty individual appears. It returns the
// best individual found across all generations together with the result
// record; a canceled context aborts the run without a partial result.
func (g *Genetic) Optimize(ctx context.Context) (*timetable.Schedule, *Result, error) {
	start := time.Now()
	batch := newBatchEvaluator(g.evaluator)
	defer batch.stop()

	population := make([]*timetable.Schedule, g.cfg.PopulationSize)
	for i := range population {
		population[i] = timetable.NewSchedule()
		population[i].RandomFill(g.classes, g.rooms, g.rng)
	}

	result := &Result{}
	var best *timetable.Schedule
	bestPenalty := 0.0

	for generation := 0; generation < g.cfg.Generations; generation++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		penalties := batch.penalties(population)
		fitnesses := lo.Map(penalties, func(penalty float64, _ int) float64 {
			return Fitness(penalty)
		})

		eliteIndex := 0
		for i, penalty := range penalties {
			if penalty < penalties[eliteIndex] {
				eliteIndex = i
			}
		}
		generationBest := penalties[eliteIndex]

		result.Generations++
		result.History = append(result.History, generationBest)
		result.AvgFitnessHistory = append(result.AvgFitnessHistory, lo.Sum(fitnesses)/float64(len(fitnesses)))
		if generation == 0 {
			result.InitialPenalty = generationBest
		}

		if best == nil || generationBest < bestPenalty {
			best = population[eliteIndex].Clone()
			bestPenalty = generationBest
		}
		if bestPenalty == 0 {
			break
		}

		// Elitism: the generation's best survives unmodified; the rest of the
		// population is rebuilt from selected, crossed and maybe-mutated pairs.
		next := make([]*timetable.Schedule, 0, g.cfg.PopulationSize+1)
		next = append(next, population[eliteIndex].Clone())
		for len(next) < g.cfg.PopulationSize {
			parent1 := g.tournament(population, fitnesses)
			parent2 := g.tournament(population, fitnesses)
			child1, child2 := g.crossover(parent1, parent2)
			if g.rng.Float64() < g.cfg.MutationRate {
				g.mutate(child1)
			}
			if g.rng.Float64() < g.cfg.MutationRate {
				g.mutate(child2)
			}
			next = append(next, child1, child2)
		}
		population = next[:g.cfg.PopulationSize]
	}

	result.Best = best
	result.BestPenalty = bestPenalty
	result.FinalPenalty = bestPenalty
	result.Iterations = result.Generations
	result.Duration = time.Since(start)
	return best, result, nil
}

// tournament draws two distinct indices uniformly and keeps the fitter one.
func (g *Genetic) tournament(population []*timetable.Schedule, fitnesses []float64) *timetable.Schedule {
	i := g.rng.Intn(len(population))
	j := g.rng.Intn(len(population) - 1)
	if j >= i {
		j++
	}
	if fitnesses[j] > fitnesses[i] {
		return population[j]
	}
	return population[i]
}

// crossover recombines two parents per class: the union of class codes is
// split into two halves, and each child inherits a class's complete meeting
// group from exactly one parent, so no class's meetings are ever mixed.
func (g *Genetic) crossover(parent1, parent2 *timetable.Schedule) (*timetable.Schedule, *timetable.Schedule) {
	codes := lo.Union(parent1.ClassCodes(), parent2.ClassCodes())
	g.rng.Shuffle(len(codes), func(i, j int) {
		codes[i], codes[j] = codes[j], codes[i]
	})
	firstHalf := lo.SliceToMap(codes[:len(codes)/2], func(code string) (string, struct{}) {
		return code, struct{}{}
	})

	child1 := timetable.NewSchedule()
	child2 := timetable.NewSchedule()
	for _, meeting := range parent1.Meetings {
		if _, fromParent1 := firstHalf[meeting.Class.Code]; fromParent1 {
			child1.AddMeeting(meeting)
		} else {
			child2.AddMeeting(meeting)
		}
	}
	for _, meeting := range parent2.Meetings {
		if _, fromParent1 := firstHalf[meeting.Class.Code]; fromParent1 {
			child2.AddMeeting(meeting)
		} else {
			child1.AddMeeting(meeting)
		}
	}
	return child1, child2
}

// mutate applies one uniformly chosen mutation in place: retime one meeting,
// reroom one meeting, or drop and regenerate all meetings of one class.
func (g *Genetic) mutate(individual *timetable.Schedule) {
	if len(individual.Meetings) == 0 {
		return
	}
	switch g.rng.Intn(3) {
	case 0: // retime
		i := g.rng.Intn(len(individual.Meetings))
		slot := individual.Meetings[i].Slot
		duration := slot.Duration()
		day := timetable.Day(g.rng.Intn(timetable.TotalDays))
		start := timetable.MinHour + g.rng.Intn(timetable.MaxHour-timetable.MinHour-duration+1)
		individual.Meetings[i].Slot = timetable.TimeSlot{Day: day, StartHour: start, EndHour: start + duration}
	case 1: // reroom
		i := g.rng.Intn(len(individual.Meetings))
		individual.Meetings[i].Room = g.rooms[g.rng.Intn(len(g.rooms))]
	case 2: // reschedule one class from scratch
		codes := individual.ClassCodes()
		code := codes[g.rng.Intn(len(codes))]
		individual.Meetings = lo.Filter(individual.Meetings, func(m timetable.Meeting, _ int) bool {
			return m.Class.Code != code
		})
		individual.AllocateClass(g.classIndex[code], g.rooms, g.rng)
	}
}
