package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/limaJavier/scheduleopt/internal/timetable"
)

type classRow struct {
	Code         string `csv:"code"`
	StudentCount int    `csv:"students"`
	Credits      int    `csv:"credits"`
}

type roomRow struct {
	Code     string `csv:"code"`
	Capacity int    `csv:"capacity"`
}

type studentRow struct {
	ID string `csv:"id"`
	// Classes holds semicolon-separated class codes in preference order.
	Classes string `csv:"classes"`
}

// FromCSV loads a catalog from three CSV files. studentsFile may be empty,
// leaving the student catalog empty and scoring on aggregate counts.
func FromCSV(classesFile, roomsFile, studentsFile string) (*Catalog, error) {
	catalog := &Catalog{
		Classes:  map[string]*timetable.CourseClass{},
		Rooms:    map[string]*timetable.Room{},
		Students: map[string]*timetable.Student{},
	}

	var classRows []*classRow
	if err := unmarshalCSV(classesFile, &classRows); err != nil {
		return nil, err
	}
	for _, row := range classRows {
		if _, duplicate := catalog.Classes[row.Code]; duplicate {
			return nil, fmt.Errorf("duplicate class code: %v", row.Code)
		}
		catalog.Classes[row.Code] = &timetable.CourseClass{
			Code:         row.Code,
			StudentCount: row.StudentCount,
			Credits:      row.Credits,
		}
	}

	var roomRows []*roomRow
	if err := unmarshalCSV(roomsFile, &roomRows); err != nil {
		return nil, err
	}
	for _, row := range roomRows {
		if _, duplicate := catalog.Rooms[row.Code]; duplicate {
			return nil, fmt.Errorf("duplicate room code: %v", row.Code)
		}
		catalog.Rooms[row.Code] = &timetable.Room{
			Code:     row.Code,
			Capacity: row.Capacity,
		}
	}

	if studentsFile != "" {
		var studentRows []*studentRow
		if err := unmarshalCSV(studentsFile, &studentRows); err != nil {
			return nil, err
		}
		for _, row := range studentRows {
			if _, duplicate := catalog.Students[row.ID]; duplicate {
				return nil, fmt.Errorf("duplicate student id: %v", row.ID)
			}
			var classes []string
			if row.Classes != "" {
				classes = strings.Split(row.Classes, ";")
			}
			catalog.Students[row.ID] = &timetable.Student{
				ID:      row.ID,
				Classes: classes,
			}
		}
	}

	catalog.link()
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func unmarshalCSV(file string, rows any) error {
	handle, err := os.Open(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	if err := gocsv.UnmarshalFile(handle, rows); err != nil {
		return fmt.Errorf("cannot parse %v: %w", file, err)
	}
	return nil
}
