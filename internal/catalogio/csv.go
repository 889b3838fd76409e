package catalogio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

// 目录以 csv 形式存放时的文件名
const (
	FileCourseSections      = "course_sections.csv"
	FileClassrooms          = "classrooms.csv"
	FileTimeSlots           = "time_slots.csv"
	FileTeacherPreferences  = "teacher_preferences.csv"
	FileTeacherSatisfaction = "teacher_satisfaction.csv"
)

// teacherRow 在偏好之外带上教师的姓名和邮箱
type teacherRow struct {
	domain.TeacherPreference
	FullName string `csv:"full_name"`
	Email    string `csv:"email"`
}

// satisfactionRow 为长格式的满意度，每行对应一个 (教师, 课程班次)
type satisfactionRow struct {
	TeacherID       int64   `csv:"teacher_id"`
	CourseSectionID int64   `csv:"course_section_id"`
	Score           float64 `csv:"score"`
}

func unmarshalFile(dir string, name string, out any) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("无法打开 %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return nil
}

func marshalFile(dir string, name string, in any) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建 %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(in, f); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

// LoadCSVDir 从目录中的 5 个 csv 文件读取目录
func LoadCSVDir(dir string) (*domain.Catalog, error) {
	c := &domain.Catalog{}

	if err := unmarshalFile(dir, FileCourseSections, &c.CourseSections); err != nil {
		return nil, err
	}
	if err := unmarshalFile(dir, FileClassrooms, &c.Classrooms); err != nil {
		return nil, err
	}
	for i := range c.Classrooms {
		c.Classrooms[i].ID = int64(i + 1)
	}
	if err := unmarshalFile(dir, FileTimeSlots, &c.TimeSlots); err != nil {
		return nil, err
	}

	teachers := []teacherRow{}
	if err := unmarshalFile(dir, FileTeacherPreferences, &teachers); err != nil {
		return nil, err
	}
	teacherIndex := make(map[int64]int, len(teachers))
	for _, t := range teachers {
		teacherIndex[t.TeacherID] = len(c.Teachers)
		c.Teachers = append(c.Teachers, domain.Teacher{
			ID:           t.TeacherID,
			FullName:     t.FullName,
			Email:        t.Email,
			Preference:   t.TeacherPreference,
			Satisfaction: domain.TeacherSatisfaction{TeacherID: t.TeacherID, Scores: make(map[int64]float64)},
		})
	}

	scores := []satisfactionRow{}
	if err := unmarshalFile(dir, FileTeacherSatisfaction, &scores); err != nil {
		return nil, err
	}
	for _, s := range scores {
		idx, ok := teacherIndex[s.TeacherID]
		if !ok {
			return nil, fmt.Errorf("%s 中的教师 %d 没有偏好设置", FileTeacherSatisfaction, s.TeacherID)
		}
		c.Teachers[idx].Satisfaction.Scores[s.CourseSectionID] = s.Score
	}

	return c, nil
}

// WriteCSVDir 将目录写成 LoadCSVDir 可以读取的 csv 文件
func WriteCSVDir(dir string, c *domain.Catalog) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("无法创建目录 %s: %w", dir, err)
	}

	if err := marshalFile(dir, FileCourseSections, &c.CourseSections); err != nil {
		return err
	}
	if err := marshalFile(dir, FileClassrooms, &c.Classrooms); err != nil {
		return err
	}
	if err := marshalFile(dir, FileTimeSlots, &c.TimeSlots); err != nil {
		return err
	}

	teachers := make([]teacherRow, len(c.Teachers))
	scores := make([]satisfactionRow, 0, len(c.Teachers)*len(c.CourseSections))
	for i, t := range c.Teachers {
		teachers[i] = teacherRow{TeacherPreference: t.Preference, FullName: t.FullName, Email: t.Email}
		teachers[i].TeacherID = t.ID
		for _, section := range c.CourseSections {
			score, ok := t.Satisfaction.Scores[section.ID]
			if !ok {
				continue
			}
			scores = append(scores, satisfactionRow{TeacherID: t.ID, CourseSectionID: section.ID, Score: score})
		}
	}

	if err := marshalFile(dir, FileTeacherPreferences, &teachers); err != nil {
		return err
	}
	return marshalFile(dir, FileTeacherSatisfaction, &scores)
}
