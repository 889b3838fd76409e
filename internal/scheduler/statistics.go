package scheduler

import (
	"math"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

// ComputeStatistics 将某一代的种群归约为统计指标
// 偏好满足率和满意度按整个种群的基因总数归一化
func ComputeStatistics(generation int, pop Population) domain.GenerationStatistics {
	stats := domain.GenerationStatistics{
		Generation: int32(generation),
	}
	if len(pop) == 0 {
		return stats
	}

	p := pop[0].problem
	stats.TotalCourses = int32(len(p.sections))

	totalGenes := 0
	adherent := 0
	totalSatisfaction := 0.0
	totalFitness := 0.0
	maxFitness := math.Inf(-1)

	for _, ch := range pop {
		seen := make(map[int64]bool, len(ch.genes))

		for _, g := range ch.genes {
			totalGenes++

			// 与原有统计口径一致：不含 M/W/F 的时间段都归为 TR
			if p.slotMWF[g.Slot] {
				stats.Distribution.MWF++
			} else {
				stats.Distribution.TR++
			}

			if !p.notMeetingPreferences(g) {
				adherent++
			}
			totalSatisfaction += p.satisfaction(g.Teacher, g.Course)

			// 正常情况下不应该出现重复的课程班次，这里只作为正确性检查
			courseID := p.sections[g.Course].ID
			if seen[courseID] {
				stats.DuplicateAssignments++
			}
			seen[courseID] = true
		}

		if !ch.IsValid() {
			stats.InvalidChromosomes++
		}

		totalFitness += ch.fitness
		maxFitness = max(maxFitness, ch.fitness)
	}

	stats.AverageFitness = totalFitness / float64(len(pop))
	stats.MaxFitness = maxFitness

	if totalGenes > 0 {
		stats.Distribution.MWFPercentage = float64(stats.Distribution.MWF) / float64(totalGenes) * 100
		stats.Distribution.TRPercentage = float64(stats.Distribution.TR) / float64(totalGenes) * 100
		stats.PreferenceAdherence = float64(adherent) / float64(totalGenes) * 100
		stats.PreferenceViolation = 100 - stats.PreferenceAdherence
		stats.AverageSatisfaction = totalSatisfaction / float64(totalGenes)
	}

	return stats
}
