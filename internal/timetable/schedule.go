package timetable

import (
	"fmt"
	"hash/fnv"
	"iter"
	"math/rand"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Meeting is one scheduled contact-hour block: a class placed into a time
// slot and a room. Class and Room point into the shared read-only catalogs;
// Slot is a value, so copying a Meeting severs every mutable alias.
type Meeting struct {
	Class *CourseClass
	Slot  TimeSlot
	Room  *Room
}

// Schedule is one candidate solution: an ordered sequence of meetings.
// It carries no structural validator; infeasible placements are scored by
// the objective evaluator instead of being rejected.
type Schedule struct {
	Meetings []Meeting
}

func NewSchedule() *Schedule {
	return &Schedule{}
}

func (s *Schedule) AddMeeting(meeting Meeting) {
	s.Meetings = append(s.Meetings, meeting)
}

// Clone returns an independently owned copy. A retained "best" snapshot must
// never alias a still-mutating working copy, so every retention site in the
// search algorithms goes through here.
func (s *Schedule) Clone() *Schedule {
	meetings := make([]Meeting, len(s.Meetings))
	copy(meetings, s.Meetings)
	return &Schedule{Meetings: meetings}
}

// ClassCodes returns the distinct class codes present in the schedule.
func (s *Schedule) ClassCodes() []string {
	codes := lo.Uniq(lo.Map(s.Meetings, func(m Meeting, _ int) string {
		return m.Class.Code
	}))
	slices.Sort(codes)
	return codes
}

// Fingerprint hashes a canonical, order-independent representation of the
// meeting set, so structurally identical schedules reached through different
// mutation paths produce the same key.
func (s *Schedule) Fingerprint() uint64 {
	entries := lo.Map(s.Meetings, func(m Meeting, _ int) string {
		return fmt.Sprintf("%s|%d|%d|%d|%s", m.Class.Code, m.Slot.Day, m.Slot.StartHour, m.Slot.EndHour, m.Room.Code)
	})
	slices.Sort(entries)
	hash := fnv.New64a()
	hash.Write([]byte(strings.Join(entries, ";")))
	return hash.Sum64()
}

// AllocateClass appends randomly drawn meetings for a single class until its
// contact hours are covered: uniform day, uniform start in [MinHour, MaxHour-1]
// and a duration of up to three hours bounded by the remaining need and the
// end of the teaching day.
func (s *Schedule) AllocateClass(class *CourseClass, rooms []*Room, rng *rand.Rand) {
	remaining := class.Credits
	for remaining > 0 {
		day := Day(rng.Intn(TotalDays))
		start := MinHour + rng.Intn(MaxHour-MinHour)
		duration := 1 + rng.Intn(min(3, remaining, MaxHour-start))
		s.AddMeeting(Meeting{
			Class: class,
			Slot:  TimeSlot{Day: day, StartHour: start, EndHour: start + duration},
			Room:  rooms[rng.Intn(len(rooms))],
		})
		remaining -= duration
	}
}

// RandomFill discards any existing meetings and draws a structurally complete
// but constraint-ignorant schedule covering every class's contact hours.
func (s *Schedule) RandomFill(classes []*CourseClass, rooms []*Room, rng *rand.Rand) {
	s.Meetings = s.Meetings[:0]
	for _, class := range classes {
		s.AllocateClass(class, rooms, rng)
	}
}

// RandomNeighbor returns a copy one move away from s: with probability one
// half two distinct meetings exchange their (slot, room) pairs, otherwise a
// single meeting is redrawn into a new slot of the same duration and a new
// uniformly random room. Returns ok == false only for an empty schedule.
func (s *Schedule) RandomNeighbor(rooms []*Room, rng *rand.Rand) (*Schedule, bool) {
	if len(s.Meetings) == 0 {
		return nil, false
	}
	neighbor := s.Clone()
	if len(s.Meetings) >= 2 && rng.Float64() < 0.5 {
		i := rng.Intn(len(neighbor.Meetings))
		j := rng.Intn(len(neighbor.Meetings) - 1)
		if j >= i {
			j++
		}
		swapPlacements(neighbor, i, j)
	} else {
		i := rng.Intn(len(neighbor.Meetings))
		neighbor.Meetings[i].Slot = redrawSlot(neighbor.Meetings[i].Slot, rng)
		neighbor.Meetings[i].Room = rooms[rng.Intn(len(rooms))]
	}
	return neighbor, true
}

// RandomNeighborAvoidingCollisions behaves like RandomNeighbor, but a MOVE
// retries up to maxAttempts looking for a placement whose room is free of
// same-day overlaps against the schedule's other meetings, falling back to
// the last unconstrained draw when the budget runs out.
func (s *Schedule) RandomNeighborAvoidingCollisions(rooms []*Room, rng *rand.Rand, maxAttempts int) (*Schedule, bool) {
	if len(s.Meetings) == 0 {
		return nil, false
	}
	neighbor := s.Clone()
	if len(s.Meetings) >= 2 && rng.Float64() < 0.5 {
		i := rng.Intn(len(neighbor.Meetings))
		j := rng.Intn(len(neighbor.Meetings) - 1)
		if j >= i {
			j++
		}
		swapPlacements(neighbor, i, j)
		return neighbor, true
	}
	i := rng.Intn(len(neighbor.Meetings))
	for attempt := 0; attempt < maxAttempts; attempt++ {
		neighbor.Meetings[i].Slot = redrawSlot(neighbor.Meetings[i].Slot, rng)
		neighbor.Meetings[i].Room = rooms[rng.Intn(len(rooms))]
		if !neighbor.roomCollision(i) {
			break
		}
	}
	return neighbor, true
}

// Neighbors lazily enumerates the complete 1-move and 1-swap neighborhood:
// every meeting against every same-duration (day, start) placement and every
// room except its current placement, plus every unordered meeting pair with
// their (slot, room) pairs exchanged, excluding no-op exchanges. Schedules are
// materialized one at a time as the sequence is consumed.
func (s *Schedule) Neighbors(rooms []*Room) iter.Seq[*Schedule] {
	return func(yield func(*Schedule) bool) {
		for i, meeting := range s.Meetings {
			duration := meeting.Slot.Duration()
			for day := Monday; day <= Friday; day++ {
				for start := MinHour; start+duration <= MaxHour; start++ {
					for _, room := range rooms {
						if day == meeting.Slot.Day && start == meeting.Slot.StartHour && room == meeting.Room {
							continue
						}
						neighbor := s.Clone()
						neighbor.Meetings[i].Slot = TimeSlot{Day: day, StartHour: start, EndHour: start + duration}
						neighbor.Meetings[i].Room = room
						if !yield(neighbor) {
							return
						}
					}
				}
			}
		}
		for i := 0; i < len(s.Meetings); i++ {
			for j := i + 1; j < len(s.Meetings); j++ {
				if s.Meetings[i].Slot == s.Meetings[j].Slot && s.Meetings[i].Room == s.Meetings[j].Room {
					continue
				}
				neighbor := s.Clone()
				swapPlacements(neighbor, i, j)
				if !yield(neighbor) {
					return
				}
			}
		}
	}
}

func swapPlacements(s *Schedule, i, j int) {
	s.Meetings[i].Slot, s.Meetings[j].Slot = s.Meetings[j].Slot, s.Meetings[i].Slot
	s.Meetings[i].Room, s.Meetings[j].Room = s.Meetings[j].Room, s.Meetings[i].Room
}

// redrawSlot draws a fresh day and start for the same duration.
func redrawSlot(slot TimeSlot, rng *rand.Rand) TimeSlot {
	duration := slot.Duration()
	day := Day(rng.Intn(TotalDays))
	start := MinHour + rng.Intn(MaxHour-MinHour-duration+1)
	return TimeSlot{Day: day, StartHour: start, EndHour: start + duration}
}

// roomCollision reports whether meeting i shares its room with an
// overlapping meeting elsewhere in the schedule.
func (s *Schedule) roomCollision(i int) bool {
	for j, other := range s.Meetings {
		if j == i {
			continue
		}
		if other.Room == s.Meetings[i].Room && other.Slot.OverlapsWith(s.Meetings[i].Slot) {
			return true
		}
	}
	return false
}
