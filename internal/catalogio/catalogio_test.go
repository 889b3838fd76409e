package catalogio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/utils"
)

func assertSameCatalog(t *testing.T, want *domain.Catalog, got *domain.Catalog) {
	t.Helper()
	assert.Equal(t, want.CourseSections, got.CourseSections)
	assert.Equal(t, want.Classrooms, got.Classrooms)
	assert.Equal(t, want.TimeSlots, got.TimeSlots)
	assert.Equal(t, want.Teachers, got.Teachers)
}

func TestWorkbookRoundTrip(t *testing.T) {
	want := utils.GenerateRandomCatalog(12, 2, 4)

	buf, err := WriteCatalog(want)
	require.NoError(t, err)

	got, err := ReadWorkbook(buf)
	require.NoError(t, err)
	assertSameCatalog(t, want, got)
	assert.NoError(t, utils.ValidateCatalog(got))
}

func TestCSVRoundTrip(t *testing.T) {
	want := utils.GenerateRandomCatalog(8, 1, 3)
	dir := t.TempDir()

	require.NoError(t, WriteCSVDir(dir, want))

	got, err := LoadCSVDir(dir)
	require.NoError(t, err)
	assertSameCatalog(t, want, got)
}

func TestLoadCSVDir_MissingFile(t *testing.T) {
	_, err := LoadCSVDir(t.TempDir())
	assert.Error(t, err)
}

// newSourceWorkbook 构造一个使用文字枚举值的工作簿，与人工填写的表格一致
func newSourceWorkbook(t *testing.T, skip string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheets := map[string][][]any{
		SheetCourseSections: {
			{"Course Section ID", "Course Number", "Section", "Units", "Course Type"},
			{1, "MATH 1010", "01", 3, "Pure"},
			{2, "MATH 2210", "01", 3, "Applied"},
		},
		SheetClassrooms: {
			{"Room Number", "Board Type"},
			{"R101", "Whiteboard"},
			{},
			{"R102", "Chalkboard"},
		},
		SheetTimeSlots: {
			{"Time Slot ID", "Description"},
			{1, "MWF 9:00-9:50am"},
			{2, "TR 2:00-3:15pm"},
		},
		SheetTeacherPreference: {
			{"Teacher ID", "Min Sections", "Max Sections", "Board Pref", "Time Pref", "Days Pref", "Type Pref"},
			{7, 0, 2, "Whiteboard", "Morning", "MWF", "None"},
			{8, 1, 2, 0, 2, 2, 1},
		},
		SheetTeacherSatisfaction: {
			{"Teacher ID", "Min Sections", "CS1", "CS2"},
			{7, 0, 3, 1.5},
			{8, 1, 0, 4},
		},
	}

	for name, rows := range sheets {
		if name == skip {
			continue
		}
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf
}

func TestReadWorkbook_NamedValues(t *testing.T) {
	c, err := ReadWorkbook(newSourceWorkbook(t, ""))
	require.NoError(t, err)

	require.Len(t, c.CourseSections, 2)
	assert.Equal(t, domain.CourseTypeApplied, c.CourseSections[1].CourseType)
	assert.Equal(t, "01", c.CourseSections[0].Section)

	// 空行被跳过，教室 ID 按顺序分配
	require.Len(t, c.Classrooms, 2)
	assert.Equal(t, domain.Classroom{ID: 2, RoomNumber: "R102", BoardType: domain.BoardTypeChalkboard}, c.Classrooms[1])

	require.Len(t, c.Teachers, 2)
	assert.Equal(t, domain.TeacherPreference{
		TeacherID:   7,
		MinSections: 0,
		MaxSections: 2,
		BoardPref:   domain.BoardTypeWhiteboard,
		TimePref:    domain.TimePreferenceMorning,
		DaysPref:    domain.DaysPreferenceMWF,
		TypePref:    domain.NoPreference,
	}, c.Teachers[0].Preference)
	assert.Equal(t, domain.DaysPreferenceTR, c.Teachers[1].Preference.DaysPref)
	assert.Equal(t, map[int64]float64{1: 3, 2: 1.5}, c.Teachers[0].Satisfaction.Scores)
	assert.Equal(t, map[int64]float64{1: 0, 2: 4}, c.Teachers[1].Satisfaction.Scores)

	assert.NoError(t, utils.ValidateCatalog(c))
}

func TestReadWorkbook_MissingSheet(t *testing.T) {
	_, err := ReadWorkbook(newSourceWorkbook(t, SheetTimeSlots))
	assert.ErrorIs(t, err, ErrMissingSheet)
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ReadWorkbook(bytes.NewBufferString("not a workbook"))
	assert.Error(t, err)
}

func TestWriteSchedule(t *testing.T) {
	buf, err := WriteSchedule([]domain.ScheduleAssignment{
		{CourseSectionID: 2, CourseNumber: "MATH 2210", Section: "01", RoomNumber: "R102", TimeSlotID: 2, TimeSlotDescription: "TR 2:00-3:15pm", TeacherID: 8},
		{CourseSectionID: 1, CourseNumber: "MATH 1010", Section: "01", RoomNumber: "R101", TimeSlotID: 1, TimeSlotDescription: "MWF 9:00-9:50am", TeacherID: 7, MeetsPreferences: true},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetSchedule)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Teacher ID", rows[0][0])
	assert.Equal(t, []string{"7", "1", "MATH 1010", "01", "MWF 9:00-9:50am", "09:00", "09:50", "R101", "Yes"}, rows[1])
	assert.Equal(t, []string{"8", "2", "MATH 2210", "01", "TR 2:00-3:15pm", "14:00", "15:15", "R102", "No"}, rows[2])
}

func TestWriteStatistics(t *testing.T) {
	buf, err := WriteStatistics([]domain.GenerationStatistics{
		{Generation: 1, TotalCourses: 4, Distribution: domain.DayDistribution{MWF: 3, TR: 1}},
		{Generation: 2, TotalCourses: 4, Distribution: domain.DayDistribution{MWF: 2, TR: 2}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetStatistics)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "generation", rows[0][0])
	assert.Equal(t, "MWF: 3, TR: 1", rows[1][2])
	assert.Equal(t, "MWF: 2, TR: 2", rows[2][2])
}
