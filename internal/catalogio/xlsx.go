package catalogio

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

// 工作簿中的工作表名称
const (
	SheetCourseSections      = "(I) Simulated Course Sections"
	SheetClassrooms          = "(J) Classrooms"
	SheetTimeSlots           = "(K) Time Slots"
	SheetTeacherPreference   = "Teacher Preference"
	SheetTeacherSatisfaction = "Teacher Satisfaction"
)

// 列名
const (
	columnCourseSectionID = "Course Section ID"
	columnCourseNumber    = "Course Number"
	columnSection         = "Section"
	columnUnits           = "Units"
	columnCourseType      = "Course Type"
	columnRoomNumber      = "Room Number"
	columnBoardType       = "Board Type"
	columnTimeSlotID      = "Time Slot ID"
	columnDescription     = "Description"
	columnTeacherID       = "Teacher ID"
	columnTeacherName     = "Teacher Name"
	columnTeacherEmail    = "Email"
	columnMinSections     = "Min Sections"
	columnMaxSections     = "Max Sections"
	columnBoardPref       = "Board Pref"
	columnTimePref        = "Time Pref"
	columnDaysPref        = "Days Pref"
	columnTypePref        = "Type Pref"

	// 满意度表中每个课程班次占一列，列名为 CS + 课程班次 ID
	satisfactionColumnPrefix = "CS"
)

var (
	ErrMissingSheet  = errors.New("工作簿中缺少工作表")
	ErrMissingColumn = errors.New("工作表中缺少列")
	ErrInvalidCell   = errors.New("单元格内容无效")
)

// sheetRow 为一行数据，键为表头中的列名
type sheetRow struct {
	number int // 在工作表中的行号，从 1 开始
	values map[string]string
}

func (r sheetRow) text(column string) string {
	return r.values[column]
}

func (r sheetRow) integer(sheet string, column string) (int64, error) {
	v := r.values[column]
	if v == "" {
		return 0, nil
	}
	// 数字单元格可能被读成 "3.0"
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n != float64(int64(n)) {
		return 0, fmt.Errorf("%w: %s 第 %d 行 %s 列为 %q", ErrInvalidCell, sheet, r.number, column, v)
	}
	return int64(n), nil
}

func (r sheetRow) decimal(sheet string, column string) (float64, error) {
	v := r.values[column]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s 第 %d 行 %s 列为 %q", ErrInvalidCell, sheet, r.number, column, v)
	}
	return n, nil
}

// enum 同时接受数字和名称，例如 Board Pref 列既可以是 1 也可以是 Whiteboard
func (r sheetRow) enum(sheet string, column string, names map[string]int32) (int32, error) {
	v := strings.TrimSpace(r.values[column])
	if n, ok := names[strings.ToLower(v)]; ok {
		return n, nil
	}
	n, err := r.integer(sheet, column)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

var (
	boardNames = map[string]int32{
		"": 0, "none": 0, "no pref": 0,
		"whiteboard": int32(domain.BoardTypeWhiteboard),
		"chalkboard": int32(domain.BoardTypeChalkboard),
	}
	courseTypeNames = map[string]int32{
		"": 0, "none": 0, "no pref": 0,
		"pure":    int32(domain.CourseTypePure),
		"applied": int32(domain.CourseTypeApplied),
	}
	timeNames = map[string]int32{
		"": 0, "none": 0, "no pref": 0,
		"morning":   int32(domain.TimePreferenceMorning),
		"afternoon": int32(domain.TimePreferenceAfternoon),
		"evening":   int32(domain.TimePreferenceEvening),
	}
	daysNames = map[string]int32{
		"": 0, "none": 0, "no pref": 0,
		"mwf": int32(domain.DaysPreferenceMWF),
		"tr":  int32(domain.DaysPreferenceTR),
	}
)

func readSheet(f *excelize.File, sheet string, required ...string) ([]string, []sheetRow, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingSheet, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: %s 没有表头", ErrMissingColumn, sheet)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	for _, column := range required {
		if !slices.Contains(header, column) {
			return nil, nil, fmt.Errorf("%w: %s 缺少 %s", ErrMissingColumn, sheet, column)
		}
	}

	result := make([]sheetRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := sheetRow{number: i + 1, values: make(map[string]string, len(header))}
		empty := true
		for j, column := range header {
			if column == "" || j >= len(rows[i]) {
				continue
			}
			v := strings.TrimSpace(rows[i][j])
			if v != "" {
				empty = false
			}
			row.values[column] = v
		}

		// 跳过全空行
		if empty {
			continue
		}
		result = append(result, row)
	}

	return header, result, nil
}

// ReadWorkbook 从 xlsx 工作簿中读取完整的目录
func ReadWorkbook(r io.Reader) (*domain.Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("无法解析 Excel 文件: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

// LoadWorkbook 从磁盘上的 xlsx 文件中读取目录
func LoadWorkbook(path string) (*domain.Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 Excel 文件 %s: %w", path, err)
	}
	defer f.Close()

	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*domain.Catalog, error) {
	c := &domain.Catalog{}

	/****** 课程班次 ******/
	_, rows, err := readSheet(f, SheetCourseSections, columnCourseSectionID, columnCourseNumber, columnCourseType)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		id, err := row.integer(SheetCourseSections, columnCourseSectionID)
		if err != nil {
			return nil, err
		}
		units, err := row.integer(SheetCourseSections, columnUnits)
		if err != nil {
			return nil, err
		}
		courseType, err := row.enum(SheetCourseSections, columnCourseType, courseTypeNames)
		if err != nil {
			return nil, err
		}
		c.CourseSections = append(c.CourseSections, domain.CourseSection{
			ID:           id,
			CourseNumber: row.text(columnCourseNumber),
			Section:      row.text(columnSection),
			Units:        int32(units),
			CourseType:   domain.CourseType(courseType),
		})
	}

	/****** 教室 ******/
	_, rows, err = readSheet(f, SheetClassrooms, columnRoomNumber, columnBoardType)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		board, err := row.enum(SheetClassrooms, columnBoardType, boardNames)
		if err != nil {
			return nil, err
		}
		c.Classrooms = append(c.Classrooms, domain.Classroom{
			ID:         int64(i + 1),
			RoomNumber: row.text(columnRoomNumber),
			BoardType:  domain.BoardType(board),
		})
	}

	/****** 时间段 ******/
	_, rows, err = readSheet(f, SheetTimeSlots, columnTimeSlotID, columnDescription)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		id, err := row.integer(SheetTimeSlots, columnTimeSlotID)
		if err != nil {
			return nil, err
		}
		c.TimeSlots = append(c.TimeSlots, domain.TimeSlot{ID: id, Description: row.text(columnDescription)})
	}

	/****** 教师偏好 ******/
	_, rows, err = readSheet(f, SheetTeacherPreference, columnTeacherID, columnMinSections, columnMaxSections)
	if err != nil {
		return nil, err
	}
	teacherIndex := make(map[int64]int, len(rows))
	for _, row := range rows {
		pref, err := readPreference(row)
		if err != nil {
			return nil, err
		}
		teacherIndex[pref.TeacherID] = len(c.Teachers)
		c.Teachers = append(c.Teachers, domain.Teacher{
			ID:           pref.TeacherID,
			FullName:     row.text(columnTeacherName),
			Email:        row.text(columnTeacherEmail),
			Preference:   *pref,
			Satisfaction: domain.TeacherSatisfaction{TeacherID: pref.TeacherID, Scores: make(map[int64]float64)},
		})
	}

	/****** 教师满意度 ******/
	header, rows, err := readSheet(f, SheetTeacherSatisfaction, columnTeacherID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		teacherID, err := row.integer(SheetTeacherSatisfaction, columnTeacherID)
		if err != nil {
			return nil, err
		}
		idx, ok := teacherIndex[teacherID]
		if !ok {
			return nil, fmt.Errorf("%w: %s 第 %d 行的教师 %d 没有偏好设置", ErrInvalidCell, SheetTeacherSatisfaction, row.number, teacherID)
		}

		for _, column := range header {
			sectionID, ok := satisfactionSectionID(column)
			if !ok {
				continue
			}
			score, err := row.decimal(SheetTeacherSatisfaction, column)
			if err != nil {
				return nil, err
			}
			c.Teachers[idx].Satisfaction.Scores[sectionID] = score
		}
	}

	return c, nil
}

func readPreference(row sheetRow) (*domain.TeacherPreference, error) {
	teacherID, err := row.integer(SheetTeacherPreference, columnTeacherID)
	if err != nil {
		return nil, err
	}
	minSections, err := row.integer(SheetTeacherPreference, columnMinSections)
	if err != nil {
		return nil, err
	}
	maxSections, err := row.integer(SheetTeacherPreference, columnMaxSections)
	if err != nil {
		return nil, err
	}
	board, err := row.enum(SheetTeacherPreference, columnBoardPref, boardNames)
	if err != nil {
		return nil, err
	}
	timePref, err := row.enum(SheetTeacherPreference, columnTimePref, timeNames)
	if err != nil {
		return nil, err
	}
	days, err := row.enum(SheetTeacherPreference, columnDaysPref, daysNames)
	if err != nil {
		return nil, err
	}
	courseType, err := row.enum(SheetTeacherPreference, columnTypePref, courseTypeNames)
	if err != nil {
		return nil, err
	}

	return &domain.TeacherPreference{
		TeacherID:   teacherID,
		MinSections: int32(minSections),
		MaxSections: int32(maxSections),
		BoardPref:   domain.BoardType(board),
		TimePref:    domain.TimePreference(timePref),
		DaysPref:    domain.DaysPreference(days),
		TypePref:    domain.CourseType(courseType),
	}, nil
}

// satisfactionSectionID 从形如 CS12 的列名中取出课程班次 ID
func satisfactionSectionID(column string) (int64, bool) {
	if !strings.HasPrefix(column, satisfactionColumnPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(column, satisfactionColumnPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
