// Package search contains the three metaheuristics that optimize course
// schedules: hill climbing (four variants), simulated annealing and a genetic
// algorithm. Every algorithm depends only on the domain model and the
// objective evaluator, and each one fulfills the same contract: find the best
// schedule it can within its budget and report a complete result record.
package search

import (
	"time"

	"github.com/limaJavier/scheduleopt/internal/timetable"
)

// Result is the complete record of one search run. The history slices are
// diagnostic series intended for external rendering; fields irrelevant to the
// algorithm that produced the record are left at their zero values.
type Result struct {
	Best           *timetable.Schedule `json:"-"`
	BestPenalty    float64             `json:"bestPenalty"`
	InitialPenalty float64             `json:"initialPenalty"`
	FinalPenalty   float64             `json:"finalPenalty"`

	// History carries the best penalty per iteration, except for the
	// random-restart variant where it holds each trial's best penalty, and
	// the genetic algorithm where it holds the best penalty per generation.
	History []float64 `json:"history"`

	Iterations int           `json:"iterations"`
	Duration   time.Duration `json:"duration"`

	// Hill-climbing specifics.
	Variant              Variant `json:"variant,omitempty"`
	SidewaysMoves        int     `json:"sidewaysMoves,omitempty"`
	Restarts             int     `json:"restarts,omitempty"`
	IterationsPerRestart []int   `json:"iterationsPerRestart,omitempty"`

	// Simulated-annealing specifics.
	PenaltyHistory     []float64 `json:"penaltyHistory,omitempty"`
	AcceptanceHistory  []float64 `json:"acceptanceHistory,omitempty"`
	TemperatureHistory []float64 `json:"temperatureHistory,omitempty"`
	LocalOptimaCount   int       `json:"localOptimaCount,omitempty"`
	IterationsStuck    []int     `json:"iterationsStuck,omitempty"`

	// Genetic-algorithm specifics.
	Generations       int       `json:"generations,omitempty"`
	AvgFitnessHistory []float64 `json:"avgFitnessHistory,omitempty"`
}
