package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

// singleGeneCatalog: 1 个纯数学班次，1 间白板教室，1 个 MWF 上午时间段，教师满意度为 2
func singleGeneCatalog(pref domain.TeacherPreference) *domain.Catalog {
	return &domain.Catalog{
		CourseSections: []domain.CourseSection{{ID: 1, CourseNumber: "MATH101", CourseType: domain.CourseTypePure}},
		Classrooms:     []domain.Classroom{{ID: 1, RoomNumber: "R101", BoardType: domain.BoardTypeWhiteboard}},
		TimeSlots:      []domain.TimeSlot{{ID: 1, Description: "MWF 9:00-9:50am"}},
		Teachers: []domain.Teacher{{
			ID:           pref.TeacherID,
			Preference:   pref,
			Satisfaction: domain.TeacherSatisfaction{TeacherID: pref.TeacherID, Scores: map[int64]float64{1: 2}},
		}},
	}
}

func TestAdditiveFitness(t *testing.T) {
	tests := []struct {
		name string
		pref domain.TeacherPreference
		want float64
	}{
		{
			// 4 项偏好全部满足：3*(4+2) + 2*2 - 10*|1-0| = 12
			name: "全部满足",
			pref: domain.TeacherPreference{
				TeacherID: 1, MaxSections: 1,
				BoardPref: domain.BoardTypeWhiteboard,
				TimePref:  domain.TimePreferenceMorning,
				DaysPref:  domain.DaysPreferenceMWF,
				TypePref:  domain.CourseTypePure,
			},
			want: 12,
		},
		{
			// 时间偏好不满足：3*(3+2) + 2*2 - 30 - 10 = -21
			name: "时间偏好不满足",
			pref: domain.TeacherPreference{
				TeacherID: 1, MaxSections: 1,
				BoardPref: domain.BoardTypeWhiteboard,
				TimePref:  domain.TimePreferenceAfternoon,
				DaysPref:  domain.DaysPreferenceMWF,
				TypePref:  domain.CourseTypePure,
			},
			want: -21,
		},
		{
			// 没有任何偏好：3*(0+2) + 2*2 - 10 = 0
			name: "没有偏好",
			pref: domain.TeacherPreference{TeacherID: 1, MaxSections: 1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(testParameters(TournamentSize, 1), singleGeneCatalog(tt.pref))
			require.NoError(t, err)
			assert.Equal(t, FitnessModelAdditive, s.FitnessModel())
			assert.InDelta(t, tt.want, s.Best().Fitness(), 1e-9)
		})
	}
}

func TestAdditiveFitness_DuplicatePenalty(t *testing.T) {
	catalog := newTestCatalog(2, 2, 2, teacherPref(1, 2))
	s, err := New(testParameters(TournamentSize, 1), catalog)
	require.NoError(t, err)

	unique := &Chromosome{genes: []Gene{
		{Course: 0, Room: 0, Slot: 0, Teacher: 1},
		{Course: 1, Room: 1, Slot: 0, Teacher: 1},
	}, problem: s.problem}
	duplicated := &Chromosome{genes: []Gene{
		{Course: 0, Room: 0, Slot: 0, Teacher: 1},
		{Course: 0, Room: 1, Slot: 0, Teacher: 1},
	}, problem: s.problem}

	// 两个基因都落在 MWF 时间段，差异只来自课程本身与重复惩罚
	course0 := 3*(0+s.problem.satisfaction(1, 0)) + 2*s.problem.satisfaction(1, 0)
	course1 := 3*(0+s.problem.satisfaction(1, 1)) + 2*s.problem.satisfaction(1, 1)
	assert.InDelta(t, course0+course1-20, unique.EvaluateFitness(), 1e-9)
	assert.InDelta(t, 2*course0-duplicatePenalty-20, duplicated.EvaluateFitness(), 1e-9)
}

func TestWeightedFitness(t *testing.T) {
	params := testParameters(TournamentSize, 1)
	params.FitnessModel = FitnessModelWeighted
	params.Weights = Weights{Balance: 0.5, Load: 0.25, Satisfaction: 0.25}

	pref := domain.TeacherPreference{TeacherID: 1, MinSections: 0, MaxSections: 2}
	s, err := New(params, singleGeneCatalog(pref))
	require.NoError(t, err)
	assert.Equal(t, FitnessModelWeighted, s.FitnessModel())

	// balance = 1/(1+1) = 0.5，load = 1 - |1-1|/1 = 1，satisfaction = 2/2 = 1
	assert.InDelta(t, 0.5*0.5+0.25*1+0.25*1, s.Best().Fitness(), 1e-9)
}

func TestWeightedFitness_InvalidWeights(t *testing.T) {
	for _, w := range []Weights{
		{Balance: 0.5, Load: 0.5, Satisfaction: 0.5},
		{Balance: 1.5, Load: -0.5, Satisfaction: 0},
	} {
		params := testParameters(TournamentSize, 1)
		params.FitnessModel = FitnessModelWeighted
		params.Weights = w

		_, err := New(params, singleGeneCatalog(teacherPref(1, 1)))
		assert.ErrorIs(t, err, ErrInvalidWeights)
	}
}

func TestTimeMatches(t *testing.T) {
	tests := []struct {
		pref        domain.TimePreference
		description string
		want        bool
	}{
		{domain.TimePreferenceMorning, "MWF 9:00-9:50am", true},
		{domain.TimePreferenceMorning, "TR 2:00-3:15pm", false},
		{domain.TimePreferenceAfternoon, "TR 2:00-3:15pm", true},
		{domain.TimePreferenceAfternoon, "TR 11:00-12:15pm", false},
		{domain.TimePreferenceEvening, "MW 6:00-7:15pm Evening", true},
		{domain.TimePreferenceEvening, "MWF 1:00-1:50pm", false},
		{domain.TimePreference(9), "MWF 1:00-1:50pm", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, timeMatches(tt.pref, tt.description), tt.description)
	}
}

func TestNotMeetingPreferences(t *testing.T) {
	catalog := newTestCatalog(2, 2, 4, teacherPref(1, 2))
	catalog.Teachers[0].Preference.DaysPref = domain.DaysPreferenceTR

	s, err := New(testParameters(TournamentSize, 1), catalog)
	require.NoError(t, err)

	ch := s.Best()
	// 时间段下标 0 为 MWF，下标 1 为 TR
	assert.True(t, ch.NotMeetingPreferences(Gene{Course: 0, Room: 0, Slot: 0, Teacher: 1}))
	assert.False(t, ch.NotMeetingPreferences(Gene{Course: 0, Room: 0, Slot: 1, Teacher: 1}))
}

func TestDayLetters(t *testing.T) {
	assert.Equal(t, "MWF", dayLetters("MWF 9:00-9:50am"))
	assert.Equal(t, "TR", dayLetters("  TR 11:00 - 12:15pm"))
	assert.Equal(t, "", dayLetters("9:00-9:50am"))
	assert.Equal(t, "", dayLetters(""))
}
