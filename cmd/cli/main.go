package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"slices"
	"strings"

	"github.com/limaJavier/scheduleopt/internal/catalog"
	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/search"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

var (
	validFormats    = []string{"json", "csv"}
	validAlgorithms = []string{"hill_climb", "annealing", "genetic"}
)

func main() {
	// Define arguments
	filePtr := flag.String("file", "", "Path to the JSON input file, or the classes CSV file when -format=csv")
	formatPtr := flag.String("format", "json", "Input format. Allowed values are: \"json\" and \"csv\", where \"json\" is the default")
	roomsPtr := flag.String("rooms", "", "Path to the rooms CSV file (csv format only)")
	studentsPtr := flag.String("students", "", "Path to the students CSV file (csv format only, optional)")
	algorithmPtr := flag.String("algorithm", "hill_climb", "Search algorithm. Allowed values are: \"hill_climb\", \"annealing\" and \"genetic\", where \"hill_climb\" is the default")
	variantPtr := flag.String("variant", "steepest_ascent", "Hill-climbing variant. Allowed values are: \"stochastic\", \"steepest_ascent\", \"sideways_move\" and \"random_restart\", where \"steepest_ascent\" is the default")
	iterationsPtr := flag.Int("iterations", 1000, "Iteration budget per run (generations for the genetic algorithm)")
	seedPtr := flag.Int64("seed", 1, "Random seed")
	outPtr := flag.String("out", "", "Path to the file where the result record will be written as JSON; if empty, only the summary is printed")
	flag.Parse()

	format := strings.ToLower(*formatPtr)
	algorithm := strings.ToLower(*algorithmPtr)

	// Validate arguments
	if !slices.Contains(validFormats, format) {
		log.Fatalf("%v is not a valid format", format)
	} else if !slices.Contains(validAlgorithms, algorithm) {
		log.Fatalf("%v is not a valid algorithm", algorithm)
	} else if *filePtr == "" {
		log.Fatal("an input file must be specified")
	} else if format == "csv" && *roomsPtr == "" {
		log.Fatal("a rooms file must be specified for the csv format")
	} else if *iterationsPtr <= 0 {
		log.Fatalf("iterations must be positive: %v", *iterationsPtr)
	}

	// Extract input
	var input *catalog.Catalog
	var err error
	if format == "csv" {
		input, err = catalog.FromCSV(*filePtr, *roomsPtr, *studentsPtr)
	} else {
		input, err = catalog.FromJSON(*filePtr)
	}
	if err != nil {
		log.Fatalf("cannot load catalogs: %v", err)
	}

	// Initialize engines and run
	evaluator := objective.NewEvaluator()
	rng := rand.New(rand.NewSource(*seedPtr))
	best, result := run(algorithm, *variantPtr, *iterationsPtr, evaluator, input, rng)

	printSchedule(best)
	printSummary(result)

	if *outPtr != "" {
		record, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("cannot serialize result record: %v", err)
		}
		if err := os.WriteFile(*outPtr, record, 0644); err != nil {
			log.Fatalf("cannot write result record: %v", err)
		}
	}
}

func run(
	algorithm, variant string,
	iterations int,
	evaluator *objective.Evaluator,
	input *catalog.Catalog,
	rng *rand.Rand,
) (*timetable.Schedule, *search.Result) {
	ctx := context.Background()

	switch algorithm {
	case "annealing":
		cfg := search.DefaultAnnealingConfig()
		cfg.MaxIterations = iterations
		annealing, err := search.NewAnnealing(cfg, evaluator, input.Classes, input.Rooms, rng)
		if err != nil {
			log.Fatalf("cannot initialize simulated annealing: %v", err)
		}
		best, result, err := annealing.Run(ctx)
		if err != nil {
			log.Fatalf("simulated annealing failed: %v", err)
		}
		return best, result

	case "genetic":
		cfg := search.DefaultGeneticConfig()
		cfg.Generations = iterations
		genetic, err := search.NewGenetic(cfg, evaluator, input.Classes, input.Rooms, rng)
		if err != nil {
			log.Fatalf("cannot initialize genetic search: %v", err)
		}
		best, result, err := genetic.Optimize(ctx)
		if err != nil {
			log.Fatalf("genetic search failed: %v", err)
		}
		return best, result

	default: // hill_climb
		parsedVariant, err := search.ParseVariant(variant)
		if err != nil {
			log.Fatal(err)
		}
		climber, err := search.NewHillClimb(evaluator, input.Classes, input.Rooms, rng)
		if err != nil {
			log.Fatalf("cannot initialize hill climbing: %v", err)
		}
		params := search.DefaultHillClimbParams()
		params.MaxIterations = iterations
		initial := timetable.NewSchedule()
		initial.RandomFill(timetable.SortedClasses(input.Classes), timetable.SortedRooms(input.Rooms), rng)
		best, result, err := climber.Solve(ctx, initial, parsedVariant, params)
		if err != nil {
			log.Fatalf("hill climbing failed: %v", err)
		}
		return best, result
	}
}

func printSchedule(schedule *timetable.Schedule) {
	meetings := slices.Clone(schedule.Meetings)
	slices.SortFunc(meetings, func(a, b timetable.Meeting) int {
		if a.Slot.Day != b.Slot.Day {
			return int(a.Slot.Day) - int(b.Slot.Day)
		}
		if a.Slot.StartHour != b.Slot.StartHour {
			return a.Slot.StartHour - b.Slot.StartHour
		}
		return strings.Compare(a.Class.Code, b.Class.Code)
	})

	for _, meeting := range meetings {
		fmt.Printf("Day: %v, Hours: %02d:00-%02d:00, Class: %v, Room: %v\n",
			meeting.Slot.Day, meeting.Slot.StartHour, meeting.Slot.EndHour, meeting.Class.Code, meeting.Room.Code)
	}
}

func printSummary(result *search.Result) {
	fmt.Printf("\nInitial penalty: %.2f\n", result.InitialPenalty)
	fmt.Printf("Best penalty: %.2f\n", result.BestPenalty)
	fmt.Printf("Iterations: %v\n", result.Iterations)
	fmt.Printf("Duration: %v\n", result.Duration)
	if len(result.History) > 0 {
		fmt.Printf("Final best-penalty sample: %.2f\n", result.History[len(result.History)-1])
	}
}
