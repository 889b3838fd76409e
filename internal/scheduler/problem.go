package scheduler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

// problem 是一次运行中只读的目录索引，所有染色体共享同一个实例
type problem struct {
	sections []domain.CourseSection
	rooms    []domain.Classroom
	slots    []domain.TimeSlot

	slotMWF []bool // 时间段的上课日是否包含 M、W 或 F
	slotTR  []bool // 时间段的上课日是否包含 T 或 R

	teacherIDs      []int64 // 升序，保证相同种子下的抽样结果可复现
	teacherIndex    map[int64]int
	preferences     []domain.TeacherPreference
	scores          [][]float64 // [教师下标][课程班次下标]
	maxSatisfaction float64

	model fitnessModel
}

func newProblem(catalog *domain.Catalog, model fitnessModel) (*problem, error) {
	if len(catalog.CourseSections) == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(catalog.Teachers) == 0 {
		return nil, ErrEmptyTeacherPool
	}
	if len(catalog.Classrooms)*len(catalog.TimeSlots) < len(catalog.CourseSections) {
		return nil, fmt.Errorf("%w（%d 间教室 × %d 个时间段 < %d 个课程班次）",
			ErrInsufficientCombinations, len(catalog.Classrooms), len(catalog.TimeSlots), len(catalog.CourseSections))
	}

	p := &problem{
		sections:     catalog.CourseSections,
		rooms:        catalog.Classrooms,
		slots:        catalog.TimeSlots,
		slotMWF:      make([]bool, len(catalog.TimeSlots)),
		slotTR:       make([]bool, len(catalog.TimeSlots)),
		teacherIndex: make(map[int64]int, len(catalog.Teachers)),
		model:        model,
	}

	for i, slot := range catalog.TimeSlots {
		days := dayLetters(slot.Description)
		p.slotMWF[i] = strings.ContainsAny(days, "MWF")
		p.slotTR[i] = strings.ContainsAny(days, "TR")
	}

	teachers := slices.Clone(catalog.Teachers)
	slices.SortFunc(teachers, func(a, b domain.Teacher) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	for i, t := range teachers {
		if _, exists := p.teacherIndex[t.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateTeacher, t.ID)
		}
		p.teacherIndex[t.ID] = i
		p.teacherIDs = append(p.teacherIDs, t.ID)
		p.preferences = append(p.preferences, t.Preference)

		row := make([]float64, len(p.sections))
		for j, section := range p.sections {
			score, ok := t.Satisfaction.Scores[section.ID]
			if !ok {
				return nil, fmt.Errorf("%w: 教师 %d 缺少课程班次 %d 的满意度", ErrMissingSatisfaction, t.ID, section.ID)
			}
			if score < 0 {
				return nil, fmt.Errorf("%w: 教师 %d 对课程班次 %d 的满意度为 %g", ErrNegativeSatisfaction, t.ID, section.ID, score)
			}
			row[j] = score
			p.maxSatisfaction = max(p.maxSatisfaction, score)
		}
		p.scores = append(p.scores, row)
	}

	return p, nil
}

// dayLetters 取出时间段描述中第一个字段的大写字母部分，例如 "MWF 9:00-9:50am" 返回 "MWF"
func dayLetters(description string) string {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range fields[0] {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (p *problem) satisfaction(teacherID int64, course int) float64 {
	return p.scores[p.teacherIndex[teacherID]][course]
}

func (p *problem) preference(teacherID int64) domain.TeacherPreference {
	return p.preferences[p.teacherIndex[teacherID]]
}

func timeMatches(pref domain.TimePreference, description string) bool {
	lower := strings.ToLower(description)
	switch pref {
	case domain.TimePreferenceMorning:
		return strings.Contains(lower, "am")
	case domain.TimePreferenceAfternoon:
		// 11 点开始的课程虽然以 pm 结束，但不算作下午
		return strings.Contains(lower, "pm") && !strings.Contains(description, "11")
	case domain.TimePreferenceEvening:
		return strings.Contains(lower, "evening")
	default:
		return false
	}
}

func daysMatches(pref domain.DaysPreference, description string) bool {
	switch pref {
	case domain.DaysPreferenceMWF:
		return strings.Contains(description, "MWF")
	case domain.DaysPreferenceTR:
		return strings.Contains(description, "TR")
	default:
		return false
	}
}

// preferenceMatches 统计该基因满足了教师多少个已设置的偏好维度
func (p *problem) preferenceMatches(g Gene) int {
	pref := p.preference(g.Teacher)
	description := p.slots[g.Slot].Description
	matches := 0

	if pref.BoardPref != domain.NoPreference && p.rooms[g.Room].BoardType == pref.BoardPref {
		matches++
	}
	if pref.TimePref != domain.NoPreference && timeMatches(pref.TimePref, description) {
		matches++
	}
	if pref.DaysPref != domain.NoPreference && daysMatches(pref.DaysPref, description) {
		matches++
	}
	if pref.TypePref != domain.NoPreference && p.sections[g.Course].CourseType == pref.TypePref {
		matches++
	}

	return matches
}

// notMeetingPreferences 只要有一个已设置的偏好维度没有被满足就返回 true
func (p *problem) notMeetingPreferences(g Gene) bool {
	pref := p.preference(g.Teacher)
	description := p.slots[g.Slot].Description

	if pref.BoardPref != domain.NoPreference && p.rooms[g.Room].BoardType != pref.BoardPref {
		return true
	}

	switch pref.TimePref {
	case domain.TimePreferenceMorning, domain.TimePreferenceAfternoon, domain.TimePreferenceEvening:
		if !timeMatches(pref.TimePref, description) {
			return true
		}
	}

	switch pref.DaysPref {
	case domain.DaysPreferenceMWF, domain.DaysPreferenceTR:
		if !daysMatches(pref.DaysPref, description) {
			return true
		}
	}

	if pref.TypePref != domain.NoPreference && p.sections[g.Course].CourseType != pref.TypePref {
		return true
	}

	return false
}
