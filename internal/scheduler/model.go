package scheduler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

const (
	TournamentSize      = 7
	DefaultEliteCount   = 2
	DefaultMutationRate = 0.2
	DefaultResamples    = 10
)

// Gene: 某个课程班次的一次排课决策，Course/Room/Slot 为其在目录中的下标
type Gene struct {
	Course  int
	Room    int
	Slot    int
	Teacher int64
}

// Chromosome: 一份完整的候选课表，第 i 个基因对应第 i 个课程班次
type Chromosome struct {
	genes   []Gene
	fitness float64
	problem *problem
}

// Population 始终按适应度从高到低排列
type Population []*Chromosome

type Weights struct {
	Balance      float64 `json:"balance"`
	Load         float64 `json:"load"`
	Satisfaction float64 `json:"satisfaction"`
}

// 遗传算法参数
type Parameters struct {
	PopulationSize         int     // 种群大小，不能小于锦标赛规模
	MutationRate           float64 // 子代发生变异的概率
	EliteCount             int     // 每一代直接保留的精英数量
	Seed                   int64   // 随机数种子
	FitnessModel           string  // 适应度模型，一次运行中只使用一种
	Weights                Weights // 仅 weighted-v1 模型使用
	RejectInvalidOffspring bool    // 为 true 时丢弃违反工作量上限的子代并重新生成
	MaxResampleAttempts    int     // 重新生成子代的最大尝试次数
	SkipStatistics         bool    // 为 true 时不计算每一代的统计信息
}

func DefaultParameters() *Parameters {
	return &Parameters{
		PopulationSize:      50,
		MutationRate:        DefaultMutationRate,
		EliteCount:          DefaultEliteCount,
		FitnessModel:        FitnessModelAdditive,
		MaxResampleAttempts: DefaultResamples,
	}
}

type State int

const (
	StateConstructed State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Progress 在每一代结束后传给调用方注入的回调
type Progress struct {
	Generation  int
	Generations int
	BestFitness float64
	Statistics  *domain.GenerationStatistics
}

type ProgressFunc func(Progress)

type Result struct {
	Best       *Chromosome
	Valid      bool
	Statistics []domain.GenerationStatistics
}

func (c *Chromosome) Fitness() float64 {
	return c.fitness
}

func (c *Chromosome) Len() int {
	return len(c.genes)
}

func (c *Chromosome) Gene(i int) Gene {
	return c.genes[i]
}

// Genes 返回基因的副本，调用方的修改不会影响染色体
func (c *Chromosome) Genes() []Gene {
	return slices.Clone(c.genes)
}

// Assignments 将染色体转换为可以持久化或导出的排课结果
func (c *Chromosome) Assignments() []domain.ScheduleAssignment {
	p := c.problem
	assignments := make([]domain.ScheduleAssignment, len(c.genes))
	for i, g := range c.genes {
		section := p.sections[g.Course]
		slot := p.slots[g.Slot]
		assignments[i] = domain.ScheduleAssignment{
			CourseSectionID:     section.ID,
			CourseNumber:        section.CourseNumber,
			Section:             section.Section,
			RoomNumber:          p.rooms[g.Room].RoomNumber,
			TimeSlotID:          slot.ID,
			TimeSlotDescription: slot.Description,
			TeacherID:           g.Teacher,
			MeetsPreferences:    !p.notMeetingPreferences(g),
		}
	}
	return assignments
}

func (c *Chromosome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chromosome (Fitness: %g):\n", c.fitness)
	b.WriteString("Course ID | Room | Time Slot | Teacher ID\n")
	b.WriteString("----------|------|-----------|-----------\n")
	for _, g := range c.genes {
		fmt.Fprintf(&b, "%-10d|%-6s|%-11d|%d\n",
			c.problem.sections[g.Course].ID, c.problem.rooms[g.Room].RoomNumber, c.problem.slots[g.Slot].ID, g.Teacher)
	}
	return b.String()
}

// ParametersFromRun 将持久化的运行参数转换为算法参数
func ParametersFromRun(rp domain.ScheduleRunParameters) *Parameters {
	return &Parameters{
		PopulationSize: int(rp.PopulationSize),
		MutationRate:   rp.MutationRate,
		EliteCount:     int(rp.EliteCount),
		Seed:           rp.Seed,
		FitnessModel:   rp.FitnessModel,
		Weights: Weights{
			Balance:      rp.BalanceWeight,
			Load:         rp.LoadWeight,
			Satisfaction: rp.SatisfactionWeight,
		},
		RejectInvalidOffspring: rp.RejectInvalidOffspring,
		MaxResampleAttempts:    DefaultResamples,
	}
}
