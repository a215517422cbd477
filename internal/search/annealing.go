package search

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

// stuckWindow is the number of trailing best-penalty samples inspected when
// probing for a local optimum, and the spacing between probes.
const stuckWindow = 50

// stuckRange is the best-penalty spread below which the window counts as flat.
const stuckRange = 0.01

// AnnealingConfig parameterizes the cooling schedule and the iteration budget.
// CollisionAttempts > 0 switches neighbor generation to the collision-avoiding
// variant, retrying a MOVE that many times for a room placement free of
// same-day overlaps before falling back to the unconstrained draw.
type AnnealingConfig struct {
	InitialTemp       float64
	CoolingRate       float64
	MinTemp           float64
	MaxIterations     int
	CollisionAttempts int
}

func DefaultAnnealingConfig() AnnealingConfig {
	return AnnealingConfig{
		InitialTemp:   500.0,
		CoolingRate:   0.97,
		MinTemp:       0.01,
		MaxIterations: 5000,
	}
}

func (c AnnealingConfig) Validate() error {
	if c.InitialTemp <= 0 {
		return fmt.Errorf("InitialTemp must be positive: %v", c.InitialTemp)
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return fmt.Errorf("CoolingRate must be strictly between 0 and 1: %v", c.CoolingRate)
	}
	if c.MinTemp < 0 {
		return fmt.Errorf("MinTemp must be non-negative: %v", c.MinTemp)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("MaxIterations must be positive: %v", c.MaxIterations)
	}
	if c.CollisionAttempts < 0 {
		return fmt.Errorf("CollisionAttempts must be non-negative: %v", c.CollisionAttempts)
	}
	return nil
}

// Annealing is a temperature-controlled probabilistic local search: worse
// neighbors are accepted with a probability that shrinks as the temperature
// cools, letting the trajectory escape local optima early in the run.
type Annealing struct {
	cfg       AnnealingConfig
	evaluator *objective.Evaluator
	classes   []*timetable.CourseClass
	rooms     []*timetable.Room
	rng       *rand.Rand
}

func NewAnnealing(
	cfg AnnealingConfig,
	evaluator *objective.Evaluator,
	classes map[string]*timetable.CourseClass,
	rooms map[string]*timetable.Room,
	rng *rand.Rand,
) (*Annealing, error) {
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
	return &Annealing{
		cfg:       cfg,
		evaluator: evaluator,
		classes:   timetable.SortedClasses(classes),
		rooms:     timetable.SortedRooms(rooms),
		rng:       rng,
	}, nil
}

// AcceptanceProbability implements the Metropolis criterion: 1 for a strictly
// better neighbor, otherwise exp((current-neighbor)/T) clamped into [0, 1].
// A temperature below 1e-10 rejects outright rather than dividing by
// (nearly) zero, and exponential overflow clamps to 1.
func AcceptanceProbability(currentPenalty, neighborPenalty, temperature float64) float64 {
	if neighborPenalty < currentPenalty {
		return 1.0
	}
	if temperature < 1e-10 {
		return 0.0
	}
	probability := math.Exp((currentPenalty - neighborPenalty) / temperature)
	if math.IsInf(probability, 1) || probability > 1 {
		return 1.0
	}
	return probability
}

// Run anneals from a fresh randomized schedule until the temperature falls
// below MinTemp, the iteration budget runs out, or a zero-penalty schedule
// appears. A canceled context aborts the run without a partial result.
func (a *Annealing) Run(ctx context.Context) (*timetable.Schedule, *Result, error) {
	start := time.Now()

	current := timetable.NewSchedule()
	current.RandomFill(a.classes, a.rooms, a.rng)
	currentPenalty := a.evaluator.Evaluate(current)

	best := current.Clone()
	bestPenalty := currentPenalty
	temperature := a.cfg.InitialTemp

	result := &Result{
		InitialPenalty:     currentPenalty,
		PenaltyHistory:     []float64{currentPenalty},
		History:            []float64{bestPenalty},
		TemperatureHistory: []float64{temperature},
	}

	lastStuckCheck := 0
	iteration := 0
	for temperature > a.cfg.MinTemp && iteration < a.cfg.MaxIterations && bestPenalty > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		var neighbor *timetable.Schedule
		var ok bool
		if a.cfg.CollisionAttempts > 0 {
			neighbor, ok = current.RandomNeighborAvoidingCollisions(a.rooms, a.rng, a.cfg.CollisionAttempts)
		} else {
			neighbor, ok = current.RandomNeighbor(a.rooms, a.rng)
		}
		if !ok {
			break
		}
		neighborPenalty := a.evaluator.Evaluate(neighbor)

		probability := AcceptanceProbability(currentPenalty, neighborPenalty, temperature)
		result.AcceptanceHistory = append(result.AcceptanceHistory, probability)

		if a.rng.Float64() < probability {
			current = neighbor
			currentPenalty = neighborPenalty
			if currentPenalty < bestPenalty {
				best = current.Clone()
				bestPenalty = currentPenalty
			}
		}

		result.PenaltyHistory = append(result.PenaltyHistory, currentPenalty)
		result.History = append(result.History, bestPenalty)

		temperature *= a.cfg.CoolingRate
		result.TemperatureHistory = append(result.TemperatureHistory, temperature)

		// Diagnostic only: a flat best-penalty window marks the trajectory as
		// stuck, but never branches control flow.
		if iteration-lastStuckCheck >= stuckWindow {
			if flatWindow(result.History, stuckWindow) {
				result.LocalOptimaCount++
				result.IterationsStuck = append(result.IterationsStuck, iteration)
			}
			lastStuckCheck = iteration
		}
		iteration++
	}

	result.Best = best
	result.BestPenalty = bestPenalty
	result.FinalPenalty = currentPenalty
	result.Iterations = iteration
	result.Duration = time.Since(start)
	return best, result, nil
}

// flatWindow reports whether the last window samples span a range below
// stuckRange. Short histories never count as flat.
func flatWindow(history []float64, window int) bool {
	if len(history) < window {
		return false
	}
	recent := history[len(history)-window:]
	lowest, highest := recent[0], recent[0]
	for _, sample := range recent[1:] {
		lowest = math.Min(lowest, sample)
		highest = math.Max(highest, sample)
	}
	return highest-lowest < stuckRange
}
