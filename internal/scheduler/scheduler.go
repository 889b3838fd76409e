package scheduler

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

// Scheduler 为遗传算法本身，只在单个 goroutine 中使用
type Scheduler struct {
	parameters *Parameters
	problem    *problem
	rng        *rand.Rand
	population Population
	statistics []domain.GenerationStatistics
	state      State
}

// New 使用 parameters.Seed 创建随机数源
func New(parameters *Parameters, catalog *domain.Catalog) (*Scheduler, error) {
	return NewWithRand(parameters, catalog, rand.New(rand.NewSource(parameters.Seed)))
}

// NewWithRand 使用调用方提供的随机数源，所有随机操作都只消耗这个源
func NewWithRand(parameters *Parameters, catalog *domain.Catalog, rng *rand.Rand) (*Scheduler, error) {
	if err := validateParameters(parameters); err != nil {
		return nil, err
	}

	model, err := newFitnessModel(parameters.FitnessModel, parameters.Weights)
	if err != nil {
		return nil, err
	}

	p, err := newProblem(catalog, model)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		parameters: parameters,
		problem:    p,
		rng:        rng,
		population: make(Population, parameters.PopulationSize),
		statistics: make([]domain.GenerationStatistics, 0),
		state:      StateConstructed,
	}

	// 生成初始种群
	for i := range s.population {
		s.population[i] = s.randomInitChromosome()
	}
	sortPopulation(s.population)

	slog.Debug("初始种群已生成",
		slog.Int("population_size", parameters.PopulationSize),
		slog.String("fitness_model", model.name()),
		slog.Float64("best_fitness", s.population[0].fitness),
	)

	return s, nil
}

func validateParameters(parameters *Parameters) error {
	if parameters.PopulationSize < TournamentSize {
		return fmt.Errorf("%w（当前为 %d）", ErrPopulationTooSmall, parameters.PopulationSize)
	}
	if parameters.EliteCount < 0 || parameters.EliteCount > parameters.PopulationSize {
		return fmt.Errorf("%w（当前为 %d）", ErrInvalidEliteCount, parameters.EliteCount)
	}
	if parameters.MutationRate < 0 || parameters.MutationRate > 1 {
		return fmt.Errorf("%w（当前为 %g）", ErrInvalidMutationRate, parameters.MutationRate)
	}
	return nil
}

// Validate 在不构造种群的情况下检查参数，便于在任务入队前尽早发现错误
func (p *Parameters) Validate() error {
	if err := validateParameters(p); err != nil {
		return err
	}
	_, err := newFitnessModel(p.FitnessModel, p.Weights)
	return err
}

func (s *Scheduler) State() State {
	return s.state
}

func (s *Scheduler) FitnessModel() string {
	return s.problem.model.name()
}

// Population 返回当前种群的副本，按适应度从高到低排列
func (s *Scheduler) Population() Population {
	return slices.Clone(s.population)
}

func (s *Scheduler) Statistics() []domain.GenerationStatistics {
	return slices.Clone(s.statistics)
}

func (s *Scheduler) Best() *Chromosome {
	return s.population[0]
}

// Run 迭代固定的代数，没有提前停止
// 每一代：保留精英 -> 选择 -> 交叉 -> 按概率变异 -> 排序 -> 替换种群 -> 统计
func (s *Scheduler) Run(generations int, progress ProgressFunc) ([]domain.GenerationStatistics, error) {
	if generations < 0 {
		return nil, fmt.Errorf("%w（当前为 %d）", ErrNegativeGenerations, generations)
	}
	if s.state != StateConstructed {
		return nil, ErrAlreadyRun
	}
	s.state = StateRunning

	size := s.parameters.PopulationSize

	for gen := 1; gen <= generations; gen++ {
		newPop := make(Population, 0, size)

		// 保留精英，种群总是有序的，所以前 EliteCount 个就是最优的
		newPop = append(newPop, s.population[:s.parameters.EliteCount]...)

		for len(newPop) < size {
			newPop = append(newPop, s.breed())
		}

		sortPopulation(newPop)
		s.population = newPop

		var stats *domain.GenerationStatistics
		if !s.parameters.SkipStatistics {
			st := ComputeStatistics(gen, s.population)
			s.statistics = append(s.statistics, st)
			stats = &st
		}

		slog.Debug("完成一代迭代", slog.Int("generation", gen), slog.Float64("best_fitness", s.population[0].fitness))

		if progress != nil {
			progress(Progress{
				Generation:  gen,
				Generations: generations,
				BestFitness: s.population[0].fitness,
				Statistics:  stats,
			})
		}
	}

	s.state = StateCompleted
	return s.Statistics(), nil
}

// Result 选出最终种群中适应度最高的有效染色体
// 如果没有任何染色体满足工作量上限，则返回适应度最高的染色体并标记为无效
func (s *Scheduler) Result() *Result {
	result := &Result{
		Best:       s.population[0],
		Valid:      false,
		Statistics: s.Statistics(),
	}

	for _, ch := range s.population {
		if ch.IsValid() {
			result.Best = ch
			result.Valid = true
			break
		}
	}

	return result
}

// Schedule 运行指定代数并返回结果
func (s *Scheduler) Schedule(generations int, progress ProgressFunc) (*Result, error) {
	if _, err := s.Run(generations, progress); err != nil {
		return nil, err
	}

	result := s.Result()
	if !result.Valid {
		slog.Warn("最终种群中不存在满足工作量上限的课表，返回适应度最高的课表", slog.Float64("fitness", result.Best.fitness))
	}

	return result, nil
}
