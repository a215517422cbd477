package search

import (
	"iter"
	"math"
	"runtime"

	"github.com/alitto/pond"

	"github.com/limaJavier/scheduleopt/internal/objective"
	"github.com/limaJavier/scheduleopt/internal/timetable"
)

const (
	// evaluationChunkSize bounds how many neighborhood candidates are
	// materialized at once while scanning a lazy neighbor sequence.
	evaluationChunkSize = 128
	// sequentialThreshold is the batch size below which pool dispatch costs
	// more than it saves.
	sequentialThreshold = 8
)

// batchEvaluator fans penalty evaluation of independent candidate schedules
// out over a worker pool. Candidates and the shared catalogs are read-only
// during evaluation; the evaluator's memo cache is internally synchronized.
type batchEvaluator struct {
	evaluator *objective.Evaluator
	pool      *pond.WorkerPool
}

func newBatchEvaluator(evaluator *objective.Evaluator) *batchEvaluator {
	workers := runtime.NumCPU()
	return &batchEvaluator{
		evaluator: evaluator,
		pool:      pond.New(workers, workers*evaluationChunkSize),
	}
}

func (b *batchEvaluator) stop() {
	b.pool.StopAndWait()
}

// penalties evaluates a batch of schedules, preserving order.
func (b *batchEvaluator) penalties(candidates []*timetable.Schedule) []float64 {
	penalties := make([]float64, len(candidates))
	if len(candidates) < sequentialThreshold {
		for i, candidate := range candidates {
			penalties[i] = b.evaluator.Evaluate(candidate)
		}
		return penalties
	}

	group := b.pool.Group()
	for i, candidate := range candidates {
		group.Submit(func() {
			penalties[i] = b.evaluator.Evaluate(candidate)
		})
	}
	group.Wait()
	return penalties
}

// bestOf consumes a lazy candidate sequence chunk by chunk and returns the
// lowest-penalty schedule seen. ok is false when the sequence was empty.
func (b *batchEvaluator) bestOf(candidates iter.Seq[*timetable.Schedule]) (best *timetable.Schedule, bestPenalty float64, ok bool) {
	bestPenalty = math.Inf(1)
	chunk := make([]*timetable.Schedule, 0, evaluationChunkSize)

	flush := func() {
		for i, penalty := range b.penalties(chunk) {
			if penalty < bestPenalty {
				best = chunk[i]
				bestPenalty = penalty
			}
		}
		chunk = chunk[:0]
	}

	for candidate := range candidates {
		chunk = append(chunk, candidate)
		if len(chunk) == evaluationChunkSize {
			flush()
		}
	}
	flush()
	return best, bestPenalty, best != nil
}
