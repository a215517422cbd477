package timetable

import "fmt"

// Day is a weekday index. The schedule week runs Monday through Friday.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

const TotalDays = 5

// Teaching hours run from MinHour to MaxHour; a slot occupies [StartHour, EndHour).
const (
	MinHour = 7
	MaxHour = 18
)

var dayNames = map[Day]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
}

func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Day(%d)", int(d))
}

// TimeSlot is a contiguous block of hours on a single day.
type TimeSlot struct {
	Day       Day
	StartHour int
	EndHour   int
}

func (t TimeSlot) Duration() int {
	return t.EndHour - t.StartHour
}

func (t TimeSlot) OverlapsWith(other TimeSlot) bool {
	if t.Day != other.Day {
		return false
	}
	return t.StartHour < other.EndHour && other.StartHour < t.EndHour
}

// OverlapDuration returns the number of shared hours, 0 when the slots do not overlap.
func (t TimeSlot) OverlapDuration(other TimeSlot) int {
	if !t.OverlapsWith(other) {
		return 0
	}
	start := max(t.StartHour, other.StartHour)
	end := min(t.EndHour, other.EndHour)
	return end - start
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%v %02d:00-%02d:00", t.Day, t.StartHour, t.EndHour)
}
