package scheduler

import (
	"cmp"
	"log/slog"
	"slices"
)

type roomSlot struct {
	room int
	slot int
}

// randomInitChromosome 随机初始化一个染色体
// 先打乱所有 (教室, 时间段) 组合再依次取出，保证初始染色体中不存在教室冲突
func (s *Scheduler) randomInitChromosome() *Chromosome {
	p := s.problem

	combinations := make([]roomSlot, 0, len(p.rooms)*len(p.slots))
	for room := range p.rooms {
		for slot := range p.slots {
			combinations = append(combinations, roomSlot{room: room, slot: slot})
		}
	}
	s.rng.Shuffle(len(combinations), func(i, j int) {
		combinations[i], combinations[j] = combinations[j], combinations[i]
	})

	assigned := make([]int32, len(p.teacherIDs))
	genes := make([]Gene, len(p.sections))

	for course := range p.sections {
		pair := combinations[len(combinations)-1]
		combinations = combinations[:len(combinations)-1]

		teacherIdx := s.drawTeacher(s.eligibleTeachers(assigned), course)
		assigned[teacherIdx]++

		genes[course] = Gene{
			Course:  course,
			Room:    pair.room,
			Slot:    pair.slot,
			Teacher: p.teacherIDs[teacherIdx],
		}
	}

	ch := &Chromosome{genes: genes, problem: p}
	ch.EvaluateFitness()
	return ch
}

// eligibleTeachers 找出还没有达到班次上限的教师
// 如果所有教师都已满额，则退回到全部教师（软约束放宽，而不是报错）
func (s *Scheduler) eligibleTeachers(assigned []int32) []int {
	eligible := make([]int, 0, len(assigned))
	for i, cnt := range assigned {
		if cnt < s.problem.preferences[i].MaxSections {
			eligible = append(eligible, i)
		}
	}

	if len(eligible) == 0 {
		for i := range assigned {
			eligible = append(eligible, i)
		}
	}

	return eligible
}

// drawTeacher 按 1 / (1 + 满意度) 加权随机抽取教师，满意度越低的教师越容易被选中
func (s *Scheduler) drawTeacher(eligible []int, course int) int {
	weights := make([]float64, len(eligible))
	total := 0.0
	for i, teacherIdx := range eligible {
		weights[i] = 1 / (1 + s.problem.scores[teacherIdx][course])
		total += weights[i]
	}

	pick := s.rng.Float64() * total
	partial := 0.0
	for i, w := range weights {
		partial += w
		if pick < partial {
			return eligible[i]
		}
	}

	// 浮点误差时落到最后一个
	return eligible[len(eligible)-1]
}

// EvaluateFitness 从头计算染色体的适应度，不依赖任何之前的结果
func (c *Chromosome) EvaluateFitness() float64 {
	c.fitness = c.problem.model.evaluate(c.problem, c.genes)
	return c.fitness
}

// IsValid 只做判断，是否丢弃由调用方决定
func (c *Chromosome) IsValid() bool {
	counts := make([]int32, len(c.problem.teacherIDs))
	for _, g := range c.genes {
		idx := c.problem.teacherIndex[g.Teacher]
		counts[idx]++
		if counts[idx] > c.problem.preferences[idx].MaxSections {
			return false
		}
	}
	return true
}

func (c *Chromosome) NotMeetingPreferences(g Gene) bool {
	return c.problem.notMeetingPreferences(g)
}

// 锦标赛选择：不放回地抽取 TournamentSize 个染色体，返回其中适应度最高的两个
func (s *Scheduler) Selection() (*Chromosome, *Chromosome) {
	indexes := s.rng.Perm(len(s.population))[:TournamentSize]
	tournament := make([]*Chromosome, len(indexes))
	for i, idx := range indexes {
		tournament[i] = s.population[idx]
	}

	slices.SortStableFunc(tournament, func(a, b *Chromosome) int {
		return cmp.Compare(b.fitness, a.fitness)
	})

	return tournament[0], tournament[1]
}

// 均匀交叉
// 每个位置以 0.5 的概率选择父本一或父本二的基因，若 (教室, 时间段) 已被占用则重新随机抽取
func (s *Scheduler) Crossover(parent1 *Chromosome, parent2 *Chromosome) *Chromosome {
	p := s.problem
	used := make(map[roomSlot]bool, len(parent1.genes))
	genes := make([]Gene, len(parent1.genes))

	for i := range parent1.genes {
		gene := parent1.genes[i]
		if s.rng.Float64() >= 0.5 {
			gene = parent2.genes[i]
		}

		// 课程和教师保持不变，只重新抽取教室和时间段
		for used[roomSlot{room: gene.Room, slot: gene.Slot}] {
			gene.Room = s.rng.Intn(len(p.rooms))
			gene.Slot = s.rng.Intn(len(p.slots))
		}

		used[roomSlot{room: gene.Room, slot: gene.Slot}] = true
		genes[i] = gene
	}

	child := &Chromosome{genes: genes, problem: p}
	child.EvaluateFitness()
	return child
}

// 变异
// 随机选一个基因，以 0.5 的概率更换教室，否则更换时间段
func (s *Scheduler) Mutation(ch *Chromosome) {
	idx := s.rng.Intn(len(ch.genes))
	gene := ch.genes[idx]

	if s.rng.Float64() < 0.5 {
		gene.Room = s.redraw(gene.Room, len(s.problem.rooms))
	} else {
		gene.Slot = s.redraw(gene.Slot, len(s.problem.slots))
	}

	ch.genes[idx] = gene
	ch.EvaluateFitness()
	slog.Debug("变异完成", slog.Int("index", idx), slog.Float64("fitness", ch.fitness))
}

// redraw 在 [0, n) 中抽取一个与 current 不同的值，只有一个候选时保持不变
func (s *Scheduler) redraw(current int, n int) int {
	if n <= 1 {
		return current
	}
	v := s.rng.Intn(n - 1)
	if v >= current {
		v++
	}
	return v
}

// breed 生成一个子代
// 开启 RejectInvalidOffspring 时，违反工作量上限的子代会被丢弃并重新选择、交叉、变异
func (s *Scheduler) breed() *Chromosome {
	attempts := 1
	if s.parameters.RejectInvalidOffspring {
		attempts = max(1, s.parameters.MaxResampleAttempts)
	}

	var child *Chromosome
	for i := 0; i < attempts; i++ {
		parent1, parent2 := s.Selection()
		child = s.Crossover(parent1, parent2)
		if s.rng.Float64() < s.parameters.MutationRate {
			s.Mutation(child)
		}
		if !s.parameters.RejectInvalidOffspring || child.IsValid() {
			return child
		}
	}

	// 多次尝试后仍然无效则接受最后一个子代
	return child
}

func sortPopulation(pop Population) {
	slices.SortStableFunc(pop, func(a, b *Chromosome) int {
		return cmp.Compare(b.fitness, a.fitness)
	})
}
