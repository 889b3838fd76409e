package scheduler

import (
	"fmt"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

var testSlotDescriptions = []string{
	"MWF 9:00-9:50am",
	"TR 9:30-10:45am",
	"MWF 1:00-1:50pm",
	"TR 2:00-3:15pm",
	"MW 6:00-7:15pm Evening",
	"TR 11:00-12:15pm",
}

func teacherPref(id int64, maxSections int32) domain.TeacherPreference {
	return domain.TeacherPreference{TeacherID: id, MinSections: 0, MaxSections: maxSections}
}

// newTestCatalog 生成测试用目录，满意度由 (教师 ID + 班次 ID) % 5 决定
func newTestCatalog(sections int, rooms int, slots int, prefs ...domain.TeacherPreference) *domain.Catalog {
	c := &domain.Catalog{Name: "test"}

	for i := 1; i <= sections; i++ {
		courseType := domain.CourseTypePure
		if i%2 == 0 {
			courseType = domain.CourseTypeApplied
		}
		c.CourseSections = append(c.CourseSections, domain.CourseSection{
			ID:           int64(i),
			CourseNumber: fmt.Sprintf("MATH%d", 100+i),
			Section:      "01",
			Units:        3,
			CourseType:   courseType,
		})
	}

	for i := 1; i <= rooms; i++ {
		board := domain.BoardTypeWhiteboard
		if i%2 == 0 {
			board = domain.BoardTypeChalkboard
		}
		c.Classrooms = append(c.Classrooms, domain.Classroom{ID: int64(i), RoomNumber: fmt.Sprintf("R%d", 100+i), BoardType: board})
	}

	for i := 1; i <= slots; i++ {
		c.TimeSlots = append(c.TimeSlots, domain.TimeSlot{
			ID:          int64(i),
			Description: testSlotDescriptions[(i-1)%len(testSlotDescriptions)],
		})
	}

	for _, pref := range prefs {
		scores := make(map[int64]float64, sections)
		for _, section := range c.CourseSections {
			scores[section.ID] = float64((pref.TeacherID + section.ID) % 5)
		}
		c.Teachers = append(c.Teachers, domain.Teacher{
			ID:           pref.TeacherID,
			FullName:     fmt.Sprintf("教师%d", pref.TeacherID),
			Preference:   pref,
			Satisfaction: domain.TeacherSatisfaction{TeacherID: pref.TeacherID, Scores: scores},
		})
	}

	return c
}

func testParameters(populationSize int, seed int64) *Parameters {
	params := DefaultParameters()
	params.PopulationSize = populationSize
	params.Seed = seed
	return params
}

type pairKey struct {
	room int
	slot int
}

func hasCollision(ch *Chromosome) bool {
	used := make(map[pairKey]bool, ch.Len())
	for _, g := range ch.genes {
		key := pairKey{room: g.Room, slot: g.Slot}
		if used[key] {
			return true
		}
		used[key] = true
	}
	return false
}

func coversEveryCourseOnce(ch *Chromosome, catalog *domain.Catalog) bool {
	if ch.Len() != len(catalog.CourseSections) {
		return false
	}
	seen := make(map[int64]int)
	for _, g := range ch.genes {
		seen[catalog.CourseSections[g.Course].ID]++
	}
	for _, section := range catalog.CourseSections {
		if seen[section.ID] != 1 {
			return false
		}
	}
	return true
}
