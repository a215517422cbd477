package timetable

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// CourseClass is one class of a course: a code, its aggregate enrollment and
// the weekly contact hours its meetings must sum to. Students is optional
// per-student detail; when empty, scoring falls back to StudentCount.
type CourseClass struct {
	Code         string
	StudentCount int
	Credits      int
	Students     []*Student
}

// AddStudent links a student to the class, ignoring duplicates.
func (c *CourseClass) AddStudent(student *Student) {
	if !slices.Contains(c.Students, student) {
		c.Students = append(c.Students, student)
	}
}

// Room is a teaching room with a fixed seating capacity.
type Room struct {
	Code     string
	Capacity int
}

// Student holds a student's enrolled class codes ordered by preference,
// index 0 being the most preferred.
type Student struct {
	ID      string
	Classes []string
}

// Priority returns the 1-based preference rank of a class code, or
// len(Classes)+1 when the student is not enrolled in it.
func (s *Student) Priority(code string) int {
	if i := slices.Index(s.Classes, code); i >= 0 {
		return i + 1
	}
	return len(s.Classes) + 1
}

// SortedClasses flattens a class catalog into a slice with deterministic
// (code-sorted) order, so runs with a fixed random seed are reproducible.
func SortedClasses(classes map[string]*CourseClass) []*CourseClass {
	list := lo.Values(classes)
	slices.SortFunc(list, func(a, b *CourseClass) int {
		return strings.Compare(a.Code, b.Code)
	})
	return list
}

// SortedRooms flattens a room catalog into a code-sorted slice.
func SortedRooms(rooms map[string]*Room) []*Room {
	list := lo.Values(rooms)
	slices.SortFunc(list, func(a, b *Room) int {
		return strings.Compare(a.Code, b.Code)
	})
	return list
}
