package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

// 3 个课程班次，2 间教室，3 个时间段，2 名教师各最多 2 个班次
func TestNew_ScenarioA(t *testing.T) {
	catalog := newTestCatalog(3, 2, 3, teacherPref(1, 2), teacherPref(2, 2))

	s, err := New(testParameters(TournamentSize, 42), catalog)
	require.NoError(t, err)
	assert.Equal(t, StateConstructed, s.State())

	for _, ch := range s.Population() {
		assert.True(t, coversEveryCourseOnce(ch, catalog), "每个课程班次都应该恰好出现一次")
		assert.False(t, hasCollision(ch), "初始染色体中不应存在教室冲突")
		assert.True(t, ch.IsValid())
	}
}

// 4 个课程班次，1 间教室 × 3 个时间段
func TestNew_ScenarioB_InsufficientCombinations(t *testing.T) {
	catalog := newTestCatalog(4, 1, 3, teacherPref(1, 4))

	_, err := New(testParameters(TournamentSize, 1), catalog)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCombinations)
	assert.ErrorIs(t, err, ErrConfiguration)
}

// 唯一的教师最多 1 个班次，但目录中有 2 个课程班次
func TestNew_ScenarioC_EligibilityFallback(t *testing.T) {
	catalog := newTestCatalog(2, 2, 2, teacherPref(7, 1))

	s, err := New(testParameters(TournamentSize, 3), catalog)
	require.NoError(t, err)

	for _, ch := range s.Population() {
		assert.True(t, coversEveryCourseOnce(ch, catalog))
		assert.False(t, ch.IsValid(), "教师被分配了 2 个班次，超过上限 1")
	}

	result := s.Result()
	assert.False(t, result.Valid)
	assert.Same(t, s.Best(), result.Best)
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		catalog *domain.Catalog
		params  *Parameters
		want    error
	}{
		{
			name:    "种群小于锦标赛规模",
			catalog: newTestCatalog(3, 2, 3, teacherPref(1, 3)),
			params:  testParameters(TournamentSize-1, 1),
			want:    ErrPopulationTooSmall,
		},
		{
			name:    "没有教师",
			catalog: newTestCatalog(3, 2, 3),
			params:  testParameters(10, 1),
			want:    ErrEmptyTeacherPool,
		},
		{
			name:    "没有课程班次",
			catalog: newTestCatalog(0, 2, 3, teacherPref(1, 3)),
			params:  testParameters(10, 1),
			want:    ErrEmptyCatalog,
		},
		{
			name:    "重复的教师",
			catalog: newTestCatalog(3, 2, 3, teacherPref(1, 3), teacherPref(1, 3)),
			params:  testParameters(10, 1),
			want:    ErrDuplicateTeacher,
		},
		{
			name:    "未知的适应度模型",
			catalog: newTestCatalog(3, 2, 3, teacherPref(1, 3)),
			params: func() *Parameters {
				p := testParameters(10, 1)
				p.FitnessModel = "mystery"
				return p
			}(),
			want: ErrUnknownFitnessModel,
		},
		{
			name:    "精英数量超过种群大小",
			catalog: newTestCatalog(3, 2, 3, teacherPref(1, 3)),
			params: func() *Parameters {
				p := testParameters(10, 1)
				p.EliteCount = 11
				return p
			}(),
			want: ErrInvalidEliteCount,
		},
		{
			name:    "变异概率超出范围",
			catalog: newTestCatalog(3, 2, 3, teacherPref(1, 3)),
			params: func() *Parameters {
				p := testParameters(10, 1)
				p.MutationRate = 1.5
				return p
			}(),
			want: ErrInvalidMutationRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.params, tt.catalog)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNew_SatisfactionValidation(t *testing.T) {
	catalog := newTestCatalog(3, 2, 3, teacherPref(1, 3))
	delete(catalog.Teachers[0].Satisfaction.Scores, 2)

	_, err := New(testParameters(10, 1), catalog)
	assert.ErrorIs(t, err, ErrMissingSatisfaction)

	catalog = newTestCatalog(3, 2, 3, teacherPref(1, 3))
	catalog.Teachers[0].Satisfaction.Scores[1] = -1

	_, err = New(testParameters(10, 1), catalog)
	assert.ErrorIs(t, err, ErrNegativeSatisfaction)
}

func TestIsValid(t *testing.T) {
	catalog := newTestCatalog(3, 2, 3, teacherPref(1, 2), teacherPref(2, 1))
	s, err := New(testParameters(TournamentSize, 5), catalog)
	require.NoError(t, err)

	tests := []struct {
		name     string
		teachers []int64
		want     bool
	}{
		{name: "都在上限内", teachers: []int64{1, 1, 2}, want: true},
		{name: "教师 1 超出上限", teachers: []int64{1, 1, 1}, want: false},
		{name: "教师 2 超出上限", teachers: []int64{2, 2, 1}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			genes := make([]Gene, len(tt.teachers))
			for i, teacher := range tt.teachers {
				genes[i] = Gene{Course: i, Room: i % 2, Slot: i, Teacher: teacher}
			}
			ch := &Chromosome{genes: genes, problem: s.problem}
			assert.Equal(t, tt.want, ch.IsValid())
		})
	}
}

func TestEvaluateFitness_Idempotent(t *testing.T) {
	catalog := newTestCatalog(12, 3, 6, teacherPref(1, 4), teacherPref(2, 4), teacherPref(3, 4))
	s, err := New(testParameters(10, 9), catalog)
	require.NoError(t, err)

	for _, ch := range s.Population() {
		before := ch.Fitness()
		assert.Equal(t, before, ch.EvaluateFitness())
		assert.Equal(t, before, ch.EvaluateFitness())
	}
}

func TestSelection_ReturnsDistinctParents(t *testing.T) {
	catalog := newTestCatalog(6, 2, 4, teacherPref(1, 3), teacherPref(2, 3))
	s, err := New(testParameters(TournamentSize, 11), catalog)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		parent1, parent2 := s.Selection()
		assert.NotSame(t, parent1, parent2)
		assert.GreaterOrEqual(t, parent1.Fitness(), parent2.Fitness())
	}
}

func TestSelection_PicksTournamentWinners(t *testing.T) {
	catalog := newTestCatalog(6, 2, 4, teacherPref(1, 3), teacherPref(2, 3))
	s, err := New(testParameters(TournamentSize, 13), catalog)
	require.NoError(t, err)

	// 种群大小等于锦标赛规模时，所有个体都会参赛，因此必然选中前两名
	parent1, parent2 := s.Selection()
	assert.Equal(t, s.population[0].Fitness(), parent1.Fitness())
	assert.Equal(t, s.population[1].Fitness(), parent2.Fitness())
}

func TestCrossover_KeepsCoverageAndAvoidsCollisions(t *testing.T) {
	catalog := newTestCatalog(10, 3, 4, teacherPref(1, 5), teacherPref(2, 5))
	s, err := New(testParameters(12, 17), catalog)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		parent1, parent2 := s.Selection()
		child := s.Crossover(parent1, parent2)

		assert.True(t, coversEveryCourseOnce(child, catalog))
		assert.False(t, hasCollision(child))
		assert.NotSame(t, parent1, child)

		for j, g := range child.genes {
			assert.Equal(t, j, g.Course)
			assert.Contains(t, []int64{parent1.genes[j].Teacher, parent2.genes[j].Teacher}, g.Teacher)
		}
	}
}

func TestCrossover_DoesNotAliasParents(t *testing.T) {
	catalog := newTestCatalog(5, 2, 3, teacherPref(1, 5))
	s, err := New(testParameters(TournamentSize, 19), catalog)
	require.NoError(t, err)

	parent1, parent2 := s.Selection()
	before1, before2 := parent1.Genes(), parent2.Genes()

	child := s.Crossover(parent1, parent2)
	for i := 0; i < 20; i++ {
		s.Mutation(child)
	}

	assert.Equal(t, before1, parent1.Genes())
	assert.Equal(t, before2, parent2.Genes())
}

func TestMutation_ChangesExactlyOneGene(t *testing.T) {
	catalog := newTestCatalog(8, 3, 4, teacherPref(1, 4), teacherPref(2, 4))
	s, err := New(testParameters(TournamentSize, 23), catalog)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		ch := s.Crossover(s.Selection())
		before := ch.Genes()

		s.Mutation(ch)
		after := ch.Genes()

		changed := 0
		for j := range before {
			if before[j] == after[j] {
				continue
			}
			changed++
			assert.Equal(t, before[j].Course, after[j].Course)
			assert.Equal(t, before[j].Teacher, after[j].Teacher)
			roomChanged := before[j].Room != after[j].Room
			slotChanged := before[j].Slot != after[j].Slot
			assert.True(t, roomChanged != slotChanged, "只能更换教室或时间段中的一个")
		}
		assert.Equal(t, 1, changed)
		assert.Equal(t, ch.Fitness(), ch.EvaluateFitness())
	}
}

func TestRedraw(t *testing.T) {
	s := &Scheduler{rng: nil}
	assert.Equal(t, 0, s.redraw(0, 1))
}

func TestDrawTeacher_PrefersLowerSatisfaction(t *testing.T) {
	catalog := newTestCatalog(1, 1, 1, teacherPref(1, 1), teacherPref(2, 1))
	catalog.Teachers[0].Satisfaction.Scores[1] = 0
	catalog.Teachers[1].Satisfaction.Scores[1] = 9

	s, err := New(testParameters(TournamentSize, 29), catalog)
	require.NoError(t, err)

	// 权重分别为 1 和 0.1，教师 1 被抽中的概率约为 91%
	counts := map[int]int{}
	for i := 0; i < 2000; i++ {
		counts[s.drawTeacher([]int{0, 1}, 0)]++
	}
	assert.Greater(t, counts[0], counts[1]*5)
	assert.Greater(t, counts[1], 0, "满意度高的教师的概率也不能为 0")
}

func TestEligibleTeachers(t *testing.T) {
	catalog := newTestCatalog(2, 2, 2, teacherPref(1, 1), teacherPref(2, 2))
	s, err := New(testParameters(TournamentSize, 31), catalog)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, s.eligibleTeachers([]int32{0, 0}))
	assert.Equal(t, []int{1}, s.eligibleTeachers([]int32{1, 1}))
	assert.Equal(t, []int{0, 1}, s.eligibleTeachers([]int32{1, 2}), "全部满额时退回到所有教师")
}

func TestAssignments(t *testing.T) {
	catalog := newTestCatalog(3, 2, 3, teacherPref(1, 3))
	s, err := New(testParameters(TournamentSize, 37), catalog)
	require.NoError(t, err)

	best := s.Best()
	assignments := best.Assignments()
	require.Len(t, assignments, 3)
	for i, a := range assignments {
		g := best.Gene(i)
		assert.Equal(t, catalog.CourseSections[i].ID, a.CourseSectionID)
		assert.Equal(t, catalog.Classrooms[g.Room].RoomNumber, a.RoomNumber)
		assert.Equal(t, catalog.TimeSlots[g.Slot].ID, a.TimeSlotID)
		assert.Equal(t, catalog.TimeSlots[g.Slot].Description, a.TimeSlotDescription)
		assert.Equal(t, int64(1), a.TeacherID)
		assert.Equal(t, !best.NotMeetingPreferences(g), a.MeetsPreferences)
	}
	assert.Contains(t, best.String(), "Course ID | Room | Time Slot | Teacher ID")
}
