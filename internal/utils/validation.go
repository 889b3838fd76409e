package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

// ValidateCatalog 在目录入库之前检查数据是否完整、一致
func ValidateCatalog(c *domain.Catalog) error {
	if len(c.CourseSections) == 0 {
		return errors.New("课程班次不能为空")
	}
	if len(c.Teachers) == 0 {
		return errors.New("教师不能为空")
	}
	if len(c.Classrooms)*len(c.TimeSlots) < len(c.CourseSections) {
		return fmt.Errorf("%d 间教室和 %d 个时间段不足以安排 %d 个课程班次", len(c.Classrooms), len(c.TimeSlots), len(c.CourseSections))
	}

	sectionIDs := make(map[int64]bool, len(c.CourseSections))
	for _, section := range c.CourseSections {
		if sectionIDs[section.ID] {
			return fmt.Errorf("课程班次 %d 重复", section.ID)
		}
		sectionIDs[section.ID] = true

		if section.CourseType != domain.CourseTypePure && section.CourseType != domain.CourseTypeApplied {
			return fmt.Errorf("课程班次 %d 的课程类型 %d 无效", section.ID, section.CourseType)
		}
	}

	roomNumbers := make(map[string]bool, len(c.Classrooms))
	for _, room := range c.Classrooms {
		if roomNumbers[room.RoomNumber] {
			return fmt.Errorf("教室 %s 重复", room.RoomNumber)
		}
		roomNumbers[room.RoomNumber] = true

		if room.BoardType != domain.BoardTypeWhiteboard && room.BoardType != domain.BoardTypeChalkboard {
			return fmt.Errorf("教室 %s 的黑板类型 %d 无效", room.RoomNumber, room.BoardType)
		}
	}

	slotIDs := make(map[int64]bool, len(c.TimeSlots))
	for _, slot := range c.TimeSlots {
		if slotIDs[slot.ID] {
			return fmt.Errorf("时间段 %d 重复", slot.ID)
		}
		slotIDs[slot.ID] = true

		if _, err := ParseTimeSlot(slot.Description); err != nil {
			return fmt.Errorf("时间段 %d: %w", slot.ID, err)
		}
	}

	teacherIDs := make(map[int64]bool, len(c.Teachers))
	for _, teacher := range c.Teachers {
		if teacherIDs[teacher.ID] {
			return fmt.Errorf("教师 %d 重复", teacher.ID)
		}
		teacherIDs[teacher.ID] = true

		if err := validatePreference(teacher.ID, &teacher.Preference); err != nil {
			return err
		}

		for _, section := range c.CourseSections {
			score, ok := teacher.Satisfaction.Scores[section.ID]
			if !ok {
				return fmt.Errorf("教师 %d 缺少课程班次 %d 的满意度", teacher.ID, section.ID)
			}
			if score < 0 {
				return fmt.Errorf("教师 %d 对课程班次 %d 的满意度不能为负数", teacher.ID, section.ID)
			}
		}
		for sectionID := range teacher.Satisfaction.Scores {
			if !sectionIDs[sectionID] {
				return fmt.Errorf("教师 %d 的满意度中包含不存在的课程班次 %d", teacher.ID, sectionID)
			}
		}
	}

	return nil
}

func validatePreference(teacherID int64, pref *domain.TeacherPreference) error {
	if pref.MinSections < 0 || pref.MaxSections < pref.MinSections {
		return fmt.Errorf("教师 %d 的班次数量范围 [%d, %d] 无效", teacherID, pref.MinSections, pref.MaxSections)
	}
	if pref.BoardPref < domain.NoPreference || pref.BoardPref > domain.BoardTypeChalkboard {
		return fmt.Errorf("教师 %d 的黑板偏好 %d 无效", teacherID, pref.BoardPref)
	}
	if pref.TimePref < domain.NoPreference || pref.TimePref > domain.TimePreferenceEvening {
		return fmt.Errorf("教师 %d 的时间偏好 %d 无效", teacherID, pref.TimePref)
	}
	if pref.DaysPref < domain.NoPreference || pref.DaysPref > domain.DaysPreferenceTR {
		return fmt.Errorf("教师 %d 的上课日偏好 %d 无效", teacherID, pref.DaysPref)
	}
	if pref.TypePref < domain.NoPreference || pref.TypePref > domain.CourseTypeApplied {
		return fmt.Errorf("教师 %d 的课程类型偏好 %d 无效", teacherID, pref.TypePref)
	}
	return nil
}
