// Package objective scores candidate schedules. The penalty is a non-negative
// scalar, lower is better, and exactly 0 marks a fully feasible schedule.
package objective

import (
	"sync"

	"github.com/limaJavier/scheduleopt/internal/timetable"
)

// priorityWeights scale a student's contribution to a room conflict by how
// highly they ranked the affected class.
var priorityWeights = map[int]float64{
	1: 1.75,
	2: 1.50,
	3: 1.25,
}

const defaultPriorityWeight = 1.0

func priorityWeight(priority int) float64 {
	if weight, ok := priorityWeights[priority]; ok {
		return weight
	}
	return defaultPriorityWeight
}

// Evaluator computes the penalty of a schedule as the sum of three
// independently toggleable terms: student time conflicts, room conflicts and
// room capacity overflow. A zero Evaluator scores nothing; use NewEvaluator
// for the standard policy with all terms enabled and memoization on.
type Evaluator struct {
	StudentConflict bool
	RoomConflict    bool
	Capacity        bool

	mu    sync.RWMutex
	cache map[uint64]float64
}

// NewEvaluator returns an evaluator with every penalty term enabled and a
// fingerprint-keyed memo cache, safe for concurrent use.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		StudentConflict: true,
		RoomConflict:    true,
		Capacity:        true,
		cache:           map[uint64]float64{},
	}
}

// Evaluate returns the total penalty of the schedule. The result depends only
// on the meeting set, not on its order.
func (e *Evaluator) Evaluate(schedule *timetable.Schedule) float64 {
	var fingerprint uint64
	if e.cache != nil {
		fingerprint = schedule.Fingerprint()
		e.mu.RLock()
		penalty, hit := e.cache[fingerprint]
		e.mu.RUnlock()
		if hit {
			return penalty
		}
	}

	total := 0.0
	if e.StudentConflict {
		total += e.studentConflictPenalty(schedule)
	}
	if e.RoomConflict {
		total += e.roomConflictPenalty(schedule)
	}
	if e.Capacity {
		total += e.capacityPenalty(schedule)
	}

	if e.cache != nil {
		e.mu.Lock()
		e.cache[fingerprint] = total
		e.mu.Unlock()
	}
	return total
}

// studentConflictPenalty adds, for every unordered pair of one student's
// meetings on the same day, the pair's overlap duration in hours.
func (e *Evaluator) studentConflictPenalty(schedule *timetable.Schedule) float64 {
	meetingsPerStudent := map[*timetable.Student][]timetable.TimeSlot{}
	for _, meeting := range schedule.Meetings {
		for _, student := range meeting.Class.Students {
			meetingsPerStudent[student] = append(meetingsPerStudent[student], meeting.Slot)
		}
	}

	penalty := 0.0
	for _, slots := range meetingsPerStudent {
		for i := 0; i < len(slots); i++ {
			for j := i + 1; j < len(slots); j++ {
				penalty += float64(slots[i].OverlapDuration(slots[j]))
			}
		}
	}
	return penalty
}

type roomCell struct {
	room *timetable.Room
	day  timetable.Day
	hour int
}

// roomConflictPenalty expands meetings into occupied (room, day, hour) cells
// and charges every cell holding more than one meeting a weighted headcount:
// each affected class's students contribute a weight keyed by their priority
// for the class, and a class without per-student detail degrades to its
// aggregate StudentCount at priority-1 weight.
func (e *Evaluator) roomConflictPenalty(schedule *timetable.Schedule) float64 {
	cells := map[roomCell][]*timetable.CourseClass{}
	for _, meeting := range schedule.Meetings {
		for hour := meeting.Slot.StartHour; hour < meeting.Slot.EndHour; hour++ {
			cell := roomCell{room: meeting.Room, day: meeting.Slot.Day, hour: hour}
			cells[cell] = append(cells[cell], meeting.Class)
		}
	}

	penalty := 0.0
	for _, classes := range cells {
		if len(classes) < 2 {
			continue
		}
		for _, class := range classes {
			penalty += classConflictWeight(class)
		}
	}
	return penalty
}

func classConflictWeight(class *timetable.CourseClass) float64 {
	if len(class.Students) == 0 {
		return float64(class.StudentCount) * priorityWeight(1)
	}
	weight := 0.0
	for _, student := range class.Students {
		weight += priorityWeight(student.Priority(class.Code))
	}
	return weight
}

// capacityPenalty charges every meeting whose enrollment exceeds its room's
// capacity the overflow headcount times the meeting duration.
func (e *Evaluator) capacityPenalty(schedule *timetable.Schedule) float64 {
	penalty := 0.0
	for _, meeting := range schedule.Meetings {
		overflow := meeting.Class.StudentCount - meeting.Room.Capacity
		if overflow > 0 {
			penalty += float64(overflow * meeting.Slot.Duration())
		}
	}
	return penalty
}
