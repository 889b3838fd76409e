package catalogio

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/utils"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSchedule   = "Schedule"
	SheetStatistics = "Summary Statistics"
)

// workbook 封装了按行写入的 excelize 文件
type workbook struct {
	f           *excelize.File
	headerStyle int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &workbook{f: f, headerStyle: style}, nil
}

// addSheet 新建工作表并写入表头，第一个工作表会替换默认的 Sheet1
func (w *workbook) addSheet(name string, header []any) error {
	sheets := w.f.GetSheetList()
	if len(sheets) == 1 && sheets[0] == "Sheet1" {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return err
	}

	if err := w.f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(name, "A1", last, w.headerStyle)
}

// writeRow 写入第 row 行（从 1 开始）
func (w *workbook) writeRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *workbook) buffer() (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := w.f.Write(buf); err != nil {
		return nil, fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return buf, nil
}

// WriteCatalog 按导入时的格式导出目录，ReadWorkbook 可以直接读回
func WriteCatalog(c *domain.Catalog) (*bytes.Buffer, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer w.f.Close()

	if err := w.addSheet(SheetCourseSections, []any{
		columnCourseSectionID, columnCourseNumber, columnSection, columnUnits, columnCourseType,
	}); err != nil {
		return nil, err
	}
	for i, s := range c.CourseSections {
		if err := w.writeRow(SheetCourseSections, i+2, []any{
			s.ID, s.CourseNumber, s.Section, s.Units, int32(s.CourseType),
		}); err != nil {
			return nil, err
		}
	}

	if err := w.addSheet(SheetClassrooms, []any{columnRoomNumber, columnBoardType}); err != nil {
		return nil, err
	}
	for i, room := range c.Classrooms {
		if err := w.writeRow(SheetClassrooms, i+2, []any{room.RoomNumber, int32(room.BoardType)}); err != nil {
			return nil, err
		}
	}

	if err := w.addSheet(SheetTimeSlots, []any{columnTimeSlotID, columnDescription}); err != nil {
		return nil, err
	}
	for i, slot := range c.TimeSlots {
		if err := w.writeRow(SheetTimeSlots, i+2, []any{slot.ID, slot.Description}); err != nil {
			return nil, err
		}
	}

	if err := w.addSheet(SheetTeacherPreference, []any{
		columnTeacherID, columnTeacherName, columnTeacherEmail, columnMinSections, columnMaxSections,
		columnBoardPref, columnTimePref, columnDaysPref, columnTypePref,
	}); err != nil {
		return nil, err
	}
	for i, t := range c.Teachers {
		p := t.Preference
		if err := w.writeRow(SheetTeacherPreference, i+2, []any{
			t.ID, t.FullName, t.Email, p.MinSections, p.MaxSections,
			int32(p.BoardPref), int32(p.TimePref), int32(p.DaysPref), int32(p.TypePref),
		}); err != nil {
			return nil, err
		}
	}

	header := []any{columnTeacherID}
	for _, s := range c.CourseSections {
		header = append(header, fmt.Sprintf("%s%d", satisfactionColumnPrefix, s.ID))
	}
	if err := w.addSheet(SheetTeacherSatisfaction, header); err != nil {
		return nil, err
	}
	for i, t := range c.Teachers {
		row := []any{t.ID}
		for _, s := range c.CourseSections {
			row = append(row, t.Satisfaction.Scores[s.ID])
		}
		if err := w.writeRow(SheetTeacherSatisfaction, i+2, row); err != nil {
			return nil, err
		}
	}

	return w.buffer()
}

// WriteSchedule 导出最终课表，按教师和时间段排序
func WriteSchedule(assignments []domain.ScheduleAssignment) (*bytes.Buffer, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer w.f.Close()

	if err := w.addSheet(SheetSchedule, []any{
		"Teacher ID", "Course ID", "Course Number", "Section", "Time Slot", "Start", "End", "Room", "Meets Preferences",
	}); err != nil {
		return nil, err
	}

	sorted := slices.Clone(assignments)
	slices.SortStableFunc(sorted, func(a, b domain.ScheduleAssignment) int {
		if a.TeacherID != b.TeacherID {
			return cmp.Compare(a.TeacherID, b.TeacherID)
		}
		return cmp.Compare(a.TimeSlotID, b.TimeSlotID)
	})

	for i, a := range sorted {
		// 解析失败时起止时间留空，不影响导出
		start, end := "", ""
		if parsed, err := utils.ParseTimeSlot(a.TimeSlotDescription); err == nil {
			start, end = parsed.Start, parsed.End
		}

		meets := "No"
		if a.MeetsPreferences {
			meets = "Yes"
		}

		if err := w.writeRow(SheetSchedule, i+2, []any{
			a.TeacherID, a.CourseSectionID, a.CourseNumber, a.Section, a.TimeSlotDescription, start, end, a.RoomNumber, meets,
		}); err != nil {
			return nil, err
		}
	}

	if err := w.f.SetColWidth(SheetSchedule, "E", "E", 24); err != nil {
		return nil, err
	}

	return w.buffer()
}

// WriteStatistics 导出每一代的统计信息
func WriteStatistics(stats []domain.GenerationStatistics) (*bytes.Buffer, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer w.f.Close()

	if err := w.addSheet(SheetStatistics, []any{
		"generation", "total_courses", "distribution", "teacher_preference_adherence", "teacher_satisfaction",
		"average_fitness", "max_fitness", "duplicate_assignments", "invalid_chromosomes",
	}); err != nil {
		return nil, err
	}

	for i, st := range stats {
		distribution := fmt.Sprintf("MWF: %d, TR: %d", st.Distribution.MWF, st.Distribution.TR)

		if err := w.writeRow(SheetStatistics, i+2, []any{
			st.Generation, st.TotalCourses, distribution, st.PreferenceAdherence, st.AverageSatisfaction,
			st.AverageFitness, st.MaxFitness, st.DuplicateAssignments, st.InvalidChromosomes,
		}); err != nil {
			return nil, err
		}
	}

	return w.buffer()
}
