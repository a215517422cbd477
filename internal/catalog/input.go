package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/limaJavier/scheduleopt/internal/timetable"
)

type classRecord struct {
	Code         string `mapstructure:"kode"`
	StudentCount int    `mapstructure:"jumlah_mahasiswa"`
	Credits      int    `mapstructure:"sks"`
}

type roomRecord struct {
	Code     string `mapstructure:"kode"`
	Capacity int    `mapstructure:"kuota"`
}

type studentRecord struct {
	ID         string   `mapstructure:"id"`
	Classes    []string `mapstructure:"daftar_mk"`
	Priorities []int    `mapstructure:"prioritas"`
}

type inputFile struct {
	Classes  []classRecord   `mapstructure:"kelas_mata_kuliah"`
	Rooms    []roomRecord    `mapstructure:"ruangan"`
	Students []studentRecord `mapstructure:"mahasiswa"`
}

// FromJSON loads a catalog from the JSON input format: class, room and
// (optionally) student sections. Student class lists are reordered by their
// declared priorities, most preferred first.
func FromJSON(file string) (*Catalog, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return nil, fmt.Errorf("cannot parse input file: %w", err)
	}

	var input inputFile
	if err := mapstructure.Decode(inputJson, &input); err != nil {
		return nil, fmt.Errorf("cannot decode input file: %w", err)
	}

	catalog := &Catalog{
		Classes:  map[string]*timetable.CourseClass{},
		Rooms:    map[string]*timetable.Room{},
		Students: map[string]*timetable.Student{},
	}

	for _, record := range input.Classes {
		if _, duplicate := catalog.Classes[record.Code]; duplicate {
			return nil, fmt.Errorf("duplicate class code: %v", record.Code)
		}
		catalog.Classes[record.Code] = &timetable.CourseClass{
			Code:         record.Code,
			StudentCount: record.StudentCount,
			Credits:      record.Credits,
		}
	}

	for _, record := range input.Rooms {
		if _, duplicate := catalog.Rooms[record.Code]; duplicate {
			return nil, fmt.Errorf("duplicate room code: %v", record.Code)
		}
		catalog.Rooms[record.Code] = &timetable.Room{
			Code:     record.Code,
			Capacity: record.Capacity,
		}
	}

	for _, record := range input.Students {
		if _, duplicate := catalog.Students[record.ID]; duplicate {
			return nil, fmt.Errorf("duplicate student id: %v", record.ID)
		}
		classes, err := classesByPriority(record)
		if err != nil {
			return nil, err
		}
		catalog.Students[record.ID] = &timetable.Student{
			ID:      record.ID,
			Classes: classes,
		}
	}

	catalog.link()
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// classesByPriority orders a student's class codes by their declared
// priorities, most preferred first.
func classesByPriority(record studentRecord) ([]string, error) {
	if len(record.Classes) != len(record.Priorities) {
		return nil, fmt.Errorf("student %v declares %d classes but %d priorities", record.ID, len(record.Classes), len(record.Priorities))
	}
	type pair struct {
		code     string
		priority int
	}
	pairs := make([]pair, len(record.Classes))
	for i, code := range record.Classes {
		pairs[i] = pair{code: code, priority: record.Priorities[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].priority < pairs[j].priority
	})
	classes := make([]string, len(pairs))
	for i, p := range pairs {
		classes[i] = p.code
	}
	return classes, nil
}
