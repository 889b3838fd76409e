package domain

import "time"

// 各偏好维度统一使用 0 表示“无偏好”
const NoPreference = 0

type BoardType int32

const (
	BoardTypeWhiteboard BoardType = 1
	BoardTypeChalkboard BoardType = 2
)

type CourseType int32

const (
	CourseTypePure    CourseType = 1
	CourseTypeApplied CourseType = 2
)

type TimePreference int32

const (
	TimePreferenceMorning   TimePreference = 1
	TimePreferenceAfternoon TimePreference = 2
	TimePreferenceEvening   TimePreference = 3
)

type DaysPreference int32

const (
	DaysPreferenceMWF DaysPreference = 1
	DaysPreferenceTR  DaysPreference = 2
)

type CourseSection struct {
	ID           int64      `json:"id" csv:"course_section_id"`
	CourseNumber string     `json:"courseNumber" csv:"course_number"`
	Section      string     `json:"section" csv:"section"`
	Units        int32      `json:"units" csv:"units"`
	CourseType   CourseType `json:"courseType" csv:"course_type"`
}

type Classroom struct {
	ID         int64     `json:"id" csv:"-"`
	RoomNumber string    `json:"roomNumber" csv:"room_number"`
	BoardType  BoardType `json:"boardType" csv:"board_type"`
}

// TimeSlot 的描述中包含上课日字母和起止时间，例如 "MWF 9:00-9:50am"
type TimeSlot struct {
	ID          int64  `json:"id" csv:"time_slot_id"`
	Description string `json:"description" csv:"description"`
}

type TeacherPreference struct {
	TeacherID   int64          `json:"teacherID" csv:"teacher_id"`
	MinSections int32          `json:"minSections" csv:"min_sections"`
	MaxSections int32          `json:"maxSections" csv:"max_sections"`
	BoardPref   BoardType      `json:"boardPref" csv:"board_pref"`
	TimePref    TimePreference `json:"timePref" csv:"time_pref"`
	DaysPref    DaysPreference `json:"daysPref" csv:"days_pref"`
	TypePref    CourseType     `json:"typePref" csv:"type_pref"`
}

// TeacherSatisfaction 记录教师对每个课程班次的满意度，键为课程班次 ID
type TeacherSatisfaction struct {
	TeacherID int64             `json:"teacherID"`
	Scores    map[int64]float64 `json:"scores"`
}

type Teacher struct {
	ID           int64               `json:"id"`
	FullName     string              `json:"fullName"`
	Email        string              `json:"email"`
	Preference   TeacherPreference   `json:"preference"`
	Satisfaction TeacherSatisfaction `json:"satisfaction"`
}

type Catalog struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	CourseSections []CourseSection `json:"courseSections"`
	Classrooms     []Classroom     `json:"classrooms"`
	TimeSlots      []TimeSlot      `json:"timeSlots"`
	Teachers       []Teacher       `json:"teachers"`
	CreatedAt      time.Time       `json:"createdAt"`
	Version        int32           `json:"-"`
}

type CatalogMeta struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	CourseSectionCount int32     `json:"courseSectionCount"`
	TeacherCount       int32     `json:"teacherCount"`
	CreatedAt          time.Time `json:"createdAt"`
}
