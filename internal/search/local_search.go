package search

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

// Variant names one of the hill-climbing acceptance policies.
type Variant string

const (
	Stochastic     Variant = "stochastic"
	SteepestAscent Variant = "steepest_ascent"
	SidewaysMove   Variant = "sideways_move"
	RandomRestart  Variant = "random_restart"
)

var variants = []Variant{Stochastic, SteepestAscent, SidewaysMove, RandomRestart}

// ParseVariant resolves a variant name, failing fast on anything unknown.
func ParseVariant(name string) (Variant, error) {
	for _, variant := range variants {
		if string(variant) == name {
			return variant, nil
		}
	}
	return "", fmt.Errorf("%v is not a valid hill-climbing variant", name)
}

// HillClimbParams bundles the budgets of the four variants. Fields that a
// variant does not use are ignored by it.
type HillClimbParams struct {
	MaxIterations    int
	MaxSidewaysMoves int
	MaxRestarts      int
	RestartVariant   Variant
	StagnationLimit  int
}

func DefaultHillClimbParams() HillClimbParams {
	return HillClimbParams{
		MaxIterations:    1000,
		MaxSidewaysMoves: 100,
		MaxRestarts:      10,
		RestartVariant:   SteepestAscent,
		StagnationLimit:  100,
	}
}

func (p HillClimbParams) Validate() error {
	if p.MaxIterations <= 0 {
		return fmt.Errorf("MaxIterations must be positive: %v", p.MaxIterations)
	}
	if p.MaxSidewaysMoves < 0 {
		return fmt.Errorf("MaxSidewaysMoves must be non-negative: %v", p.MaxSidewaysMoves)
	}
	if p.MaxRestarts <= 0 {
		return fmt.Errorf("MaxRestarts must be positive: %v", p.MaxRestarts)
	}
	if p.StagnationLimit <= 0 {
		return fmt.Errorf("StagnationLimit must be positive: %v", p.StagnationLimit)
	}
	if _, err := ParseVariant(string(p.RestartVariant)); err != nil {
		return err
	}
	if p.RestartVariant == RandomRestart {
		return fmt.Errorf("restarts cannot recursively restart")
	}
	return nil
}

// HillClimb is a single-trajectory local search over schedule neighborhoods.
type HillClimb struct {
	evaluator *objective.Evaluator
	classes   []*timetable.CourseClass
	rooms     []*timetable.Room
	rng       *rand.Rand
}

func NewHillClimb(
	evaluator *objective.Evaluator,
	classes map[string]*timetable.CourseClass,
	rooms map[string]*timetable.Room,
	rng *rand.Rand,
) (*HillClimb, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator must not be nil")
	}
	if len(classes) == 0 || len(rooms) == 0 {
		return nil, fmt.Errorf("classes and rooms catalogs must not be empty")
	}
	if rng == nil {
		return nil, fmt.Errorf("random generator must not be nil")
	}
	return &HillClimb{
		evaluator: evaluator,
		classes:   timetable.SortedClasses(classes),
		rooms:     timetable.SortedRooms(rooms),
		rng:       rng,
	}, nil
}

// Solve climbs from the initial schedule with the requested variant. It
// returns the best schedule found together with a complete result record, or
// an error before the search loop starts; a canceled context aborts the run
// without a partial result.
func (h *HillClimb) Solve(
	ctx context.Context,
	initial *timetable.Schedule,
	variant Variant,
	params HillClimbParams,
) (*timetable.Schedule, *Result, error) {
	if _, err := ParseVariant(string(variant)); err != nil {
		return nil, nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	var result *Result
	var err error
	switch variant {
	case Stochastic:
		result, err = h.stochastic(ctx, initial, params)
	case SteepestAscent:
		result, err = h.bestNeighborClimb(ctx, initial, params, false)
	case SidewaysMove:
		result, err = h.bestNeighborClimb(ctx, initial, params, true)
	case RandomRestart:
		result, err = h.randomRestart(ctx, params)
	}
	if err != nil {
		return nil, nil, err
	}

	result.Variant = variant
	result.Duration = time.Since(start)
	return result.Best, result, nil
}

// stochastic draws one random neighbor per iteration and accepts only strict
// improvements, stopping on budget exhaustion or a stagnation window without
// any improvement.
func (h *HillClimb) stochastic(ctx context.Context, initial *timetable.Schedule, params HillClimbParams) (*Result, error) {
	current := initial
	currentPenalty := h.evaluator.Evaluate(current)
	best := current.Clone()
	bestPenalty := currentPenalty

	result := &Result{
		InitialPenalty: currentPenalty,
		History:        []float64{currentPenalty},
	}

	stagnation := 0
	for iteration := 0; iteration < params.MaxIterations && bestPenalty > 0; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Iterations++

		neighbor, ok := current.RandomNeighbor(h.rooms, h.rng)
		if !ok {
			break
		}
		neighborPenalty := h.evaluator.Evaluate(neighbor)
		if neighborPenalty < currentPenalty {
			current = neighbor
			currentPenalty = neighborPenalty
			stagnation = 0
		} else {
			stagnation++
		}

		if currentPenalty < bestPenalty {
			best = current.Clone()
			bestPenalty = currentPenalty
		}
		result.History = append(result.History, bestPenalty)

		if stagnation >= params.StagnationLimit {
			break
		}
	}

	result.Best = best
	result.BestPenalty = bestPenalty
	result.FinalPenalty = currentPenalty
	return result, nil
}

// bestNeighborClimb scans the complete neighborhood each iteration and moves
// to the single best neighbor. Without plateau moves it halts at the first
// local optimum; with them it additionally accepts equal-penalty neighbors up
// to MaxSidewaysMoves consecutive times, any strict improvement resetting the
// counter.
func (h *HillClimb) bestNeighborClimb(ctx context.Context, initial *timetable.Schedule, params HillClimbParams, allowPlateau bool) (*Result, error) {
	batch := newBatchEvaluator(h.evaluator)
	defer batch.stop()

	current := initial
	currentPenalty := h.evaluator.Evaluate(current)
	best := current.Clone()
	bestPenalty := currentPenalty

	result := &Result{
		InitialPenalty: currentPenalty,
		History:        []float64{currentPenalty},
	}

	sideways := 0
	for iteration := 0; iteration < params.MaxIterations && bestPenalty > 0; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		neighbor, neighborPenalty, ok := batch.bestOf(current.Neighbors(h.rooms))
		if !ok {
			break
		}
		result.Iterations++

		switch {
		case neighborPenalty < currentPenalty:
			current = neighbor
			currentPenalty = neighborPenalty
			sideways = 0
		case allowPlateau && neighborPenalty == currentPenalty && sideways < params.MaxSidewaysMoves:
			current = neighbor
			sideways++
			result.SidewaysMoves++
		default:
			// Local optimum (or plateau budget exhausted).
			return h.finishClimb(result, best, bestPenalty, currentPenalty), nil
		}

		if currentPenalty < bestPenalty {
			best = current.Clone()
			bestPenalty = currentPenalty
			sideways = 0
		}
		result.History = append(result.History, bestPenalty)
	}

	return h.finishClimb(result, best, bestPenalty, currentPenalty), nil
}

func (h *HillClimb) finishClimb(result *Result, best *timetable.Schedule, bestPenalty, finalPenalty float64) *Result {
	result.Best = best
	result.BestPenalty = bestPenalty
	result.FinalPenalty = finalPenalty
	return result
}

// randomRestart runs independent trials from fresh randomized schedules and
// keeps the best one. History holds each trial's best penalty.
func (h *HillClimb) randomRestart(ctx context.Context, params HillClimbParams) (*Result, error) {
	result := &Result{}
	var best *timetable.Schedule
	bestPenalty := 0.0

	for restart := 0; restart < params.MaxRestarts; restart++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fresh := timetable.NewSchedule()
		fresh.RandomFill(h.classes, h.rooms, h.rng)

		var trial *Result
		var err error
		switch params.RestartVariant {
		case Stochastic:
			trial, err = h.stochastic(ctx, fresh, params)
		case SteepestAscent:
			trial, err = h.bestNeighborClimb(ctx, fresh, params, false)
		case SidewaysMove:
			trial, err = h.bestNeighborClimb(ctx, fresh, params, true)
		default:
			return nil, fmt.Errorf("%v is not a valid restart variant", params.RestartVariant)
		}
		if err != nil {
			return nil, err
		}

		if restart == 0 {
			result.InitialPenalty = trial.InitialPenalty
		}
		result.Restarts++
		result.Iterations += trial.Iterations
		result.IterationsPerRestart = append(result.IterationsPerRestart, trial.Iterations)
		result.History = append(result.History, trial.BestPenalty)

		if best == nil || trial.BestPenalty < bestPenalty {
			best = trial.Best.Clone()
			bestPenalty = trial.BestPenalty
		}
		if bestPenalty == 0 {
			break
		}
	}

	result.Best = best
	result.BestPenalty = bestPenalty
	result.FinalPenalty = bestPenalty
	return result, nil
}
