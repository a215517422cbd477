// Package catalog loads and validates the read-only class, room and student
// catalogs consumed by the search core. The core itself performs no I/O;
// everything file-shaped lives here.
package catalog

import (
	"fmt"

	"github.com/limaJavier/scheduleopt/internal/timetable"
)

// Catalog bundles the three input maps. Students may be empty, in which case
// room-conflict scoring degrades to aggregate-count weighting.
type Catalog struct {
	Classes  map[string]*timetable.CourseClass
	Rooms    map[string]*timetable.Room
	Students map[string]*timetable.Student
}

// Validate checks catalog well-formedness: positive capacities, positive
// credits, non-negative student counts and enrollment referencing known
// classes. The search core assumes these hold.
func (c *Catalog) Validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("catalog contains no classes")
	}
	if len(c.Rooms) == 0 {
		return fmt.Errorf("catalog contains no rooms")
	}
	for code, class := range c.Classes {
		if class.Credits <= 0 {
			return fmt.Errorf("class %v must have positive credits: %v", code, class.Credits)
		}
		if class.StudentCount < 0 {
			return fmt.Errorf("class %v must have a non-negative student count: %v", code, class.StudentCount)
		}
	}
	for code, room := range c.Rooms {
		if room.Capacity <= 0 {
			return fmt.Errorf("room %v must have positive capacity: %v", code, room.Capacity)
		}
	}
	for id, student := range c.Students {
		for _, code := range student.Classes {
			if _, known := c.Classes[code]; !known {
				return fmt.Errorf("student %v is enrolled in unknown class %v", id, code)
			}
		}
	}
	return nil
}

// link cross-references each student into the CourseClass they are enrolled
// in, enabling per-student conflict and priority scoring.
func (c *Catalog) link() {
	for _, student := range c.Students {
		for _, code := range student.Classes {
			if class, known := c.Classes[code]; known {
				class.AddStudent(student)
			}
		}
	}
}
