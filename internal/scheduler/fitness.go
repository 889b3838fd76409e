package scheduler

import (
	"fmt"
	"math"
)

const (
	FitnessModelAdditive = "additive-v1"
	FitnessModelWeighted = "weighted-v1"
)

// additive-v1 的各项权重
const (
	preferenceWeight     = 3
	satisfactionWeight   = 2
	deviationPenalty     = 30
	balancePenaltyWeight = 10
	duplicatePenalty     = 5
)

const weightsTolerance = 1e-6

// fitnessModel 必须是基因和目录的纯函数，不能持有任何可变状态
type fitnessModel interface {
	name() string
	evaluate(p *problem, genes []Gene) float64
}

func newFitnessModel(name string, w Weights) (fitnessModel, error) {
	switch name {
	case "", FitnessModelAdditive:
		return additiveModel{}, nil
	case FitnessModelWeighted:
		if w.Balance < 0 || w.Load < 0 || w.Satisfaction < 0 {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidWeights, w)
		}
		if math.Abs(w.Balance+w.Load+w.Satisfaction-1) > weightsTolerance {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidWeights, w)
		}
		return weightedModel{weights: w}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFitnessModel, name)
	}
}

func dayCounts(p *problem, genes []Gene) (mwf int, tr int) {
	for _, g := range genes {
		if p.slotMWF[g.Slot] {
			mwf++
		}
		if p.slotTR[g.Slot] {
			tr++
		}
	}
	return mwf, tr
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

/**
 * additive-v1
 * fitness = Σ(3 * (matches + satisfaction) + 2 * satisfaction)
 *         - 5 * duplicates - 30 * genesNotMeetingPreferences - 10 * |mwf - tr|
 * 没有下限，可以为负数
 */
type additiveModel struct{}

func (additiveModel) name() string {
	return FitnessModelAdditive
}

func (additiveModel) evaluate(p *problem, genes []Gene) float64 {
	fitness := 0.0
	seen := make(map[int64]bool, len(genes))

	for _, g := range genes {
		courseID := p.sections[g.Course].ID
		if seen[courseID] {
			fitness -= duplicatePenalty
		} else {
			seen[courseID] = true
		}

		satisfaction := p.satisfaction(g.Teacher, g.Course)
		preferenceScore := float64(p.preferenceMatches(g)) + satisfaction
		fitness += preferenceScore * preferenceWeight
		fitness += satisfaction * satisfactionWeight

		if p.notMeetingPreferences(g) {
			fitness -= deviationPenalty
		}
	}

	mwf, tr := dayCounts(p, genes)
	fitness -= float64(absInt(mwf-tr)) * balancePenaltyWeight

	return fitness
}

/**
 * weighted-v1
 * fitness = ω1 * balance + ω2 * load + ω3 * satisfaction
 * 其中:
 * 		1. balance = 1 / (1 + |mwf - tr|)
 * 		2. load = max(0, 1 - MAD / N)，MAD 为各教师实际班次数与 (min+max)/2 的平均绝对偏差
 * 		3. satisfaction 为所有基因满意度的均值，再除以目录中的最大满意度
 */
type weightedModel struct {
	weights Weights
}

func (weightedModel) name() string {
	return FitnessModelWeighted
}

func (m weightedModel) evaluate(p *problem, genes []Gene) float64 {
	n := float64(len(genes))
	if n == 0 {
		return 0
	}

	mwf, tr := dayCounts(p, genes)
	balance := 1 / (1 + float64(absInt(mwf-tr)))

	counts := make([]float64, len(p.teacherIDs))
	totalSatisfaction := 0.0
	for _, g := range genes {
		counts[p.teacherIndex[g.Teacher]]++
		totalSatisfaction += p.satisfaction(g.Teacher, g.Course)
	}

	deviation := 0.0
	for i, pref := range p.preferences {
		ideal := float64(pref.MinSections+pref.MaxSections) / 2
		deviation += math.Abs(counts[i] - ideal)
	}
	mad := deviation / float64(len(p.preferences))
	load := max(0, 1-mad/n)

	satisfaction := 0.0
	if p.maxSatisfaction > 0 {
		satisfaction = totalSatisfaction / n / p.maxSatisfaction
	}

	return m.weights.Balance*balance + m.weights.Load*load + m.weights.Satisfaction*satisfaction
}
