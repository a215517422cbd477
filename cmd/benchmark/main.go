package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/samber/lo"

	"github.com/limaJavier/scheduleopt/internal/catalog"
	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/search"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

// trial is one named solver closure benchmarked across seeds.
type trial struct {
	name string
	run  func(input *catalog.Catalog, rng *rand.Rand) (*search.Result, error)
}

func main() {
	filePtr := flag.String("file", "", "Path to the JSON input file")
	seedsPtr := flag.Int("seeds", 5, "Number of seeds per algorithm")
	iterationsPtr := flag.Int("iterations", 500, "Iteration budget per run")
	flag.Parse()

	if *filePtr == "" {
		log.Fatal("an input file must be specified")
	} else if *seedsPtr <= 0 || *iterationsPtr <= 0 {
		log.Fatal("seeds and iterations must be positive")
	}

	input, err := catalog.FromJSON(*filePtr)
	if err != nil {
		log.Fatalf("cannot load catalogs: %v", err)
	}

	iterations := *iterationsPtr
	trials := []trial{}
	for _, variant := range []search.Variant{search.Stochastic, search.SteepestAscent, search.SidewaysMove, search.RandomRestart} {
		trials = append(trials, trial{
			name: "hill_climb/" + string(variant),
			run: func(input *catalog.Catalog, rng *rand.Rand) (*search.Result, error) {
				evaluator := objective.NewEvaluator()
				climber, err := search.NewHillClimb(evaluator, input.Classes, input.Rooms, rng)
				if err != nil {
					return nil, err
				}
				params := search.DefaultHillClimbParams()
				params.MaxIterations = iterations
				initial := timetable.NewSchedule()
				initial.RandomFill(timetable.SortedClasses(input.Classes), timetable.SortedRooms(input.Rooms), rng)
				_, result, err := climber.Solve(context.Background(), initial, variant, params)
				return result, err
			},
		})
	}
	trials = append(trials,
		trial{
			name: "annealing",
			run: func(input *catalog.Catalog, rng *rand.Rand) (*search.Result, error) {
				cfg := search.DefaultAnnealingConfig()
				cfg.MaxIterations = iterations
				annealing, err := search.NewAnnealing(cfg, objective.NewEvaluator(), input.Classes, input.Rooms, rng)
				if err != nil {
					return nil, err
				}
				_, result, err := annealing.Run(context.Background())
				return result, err
			},
		},
		trial{
			name: "genetic",
			run: func(input *catalog.Catalog, rng *rand.Rand) (*search.Result, error) {
				cfg := search.DefaultGeneticConfig()
				cfg.Generations = iterations
				genetic, err := search.NewGenetic(cfg, objective.NewEvaluator(), input.Classes, input.Rooms, rng)
				if err != nil {
					return nil, err
				}
				_, result, err := genetic.Optimize(context.Background())
				return result, err
			},
		},
	)

	fmt.Printf("%-28v %12v %12v %12v %12v\n", "algorithm", "best", "avg best", "avg iters", "avg time")
	for _, t := range trials {
		results := make([]*search.Result, 0, *seedsPtr)
		for seed := range *seedsPtr {
			rng := rand.New(rand.NewSource(int64(seed) + 1))
			result, err := t.run(input, rng)
			if err != nil {
				log.Fatalf("%v failed: %v", t.name, err)
			}
			results = append(results, result)
		}

		lowest := lo.MinBy(results, func(a, b *search.Result) bool {
			return a.BestPenalty < b.BestPenalty
		})
		avgBest := lo.SumBy(results, func(r *search.Result) float64 { return r.BestPenalty }) / float64(len(results))
		avgIterations := float64(lo.SumBy(results, func(r *search.Result) int { return r.Iterations })) / float64(len(results))
		avgDuration := lo.SumBy(results, func(r *search.Result) float64 { return r.Duration.Seconds() }) / float64(len(results))

		fmt.Printf("%-28v %12.2f %12.2f %12.1f %11.3fs\n", t.name, lowest.BestPenalty, avgBest, avgIterations, avgDuration)
	}
}
