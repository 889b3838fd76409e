package scheduler

import (
	"errors"
	"fmt"
)

// ErrConfiguration 为所有构造期错误的根错误，调用方可以用 errors.Is 统一判断
var ErrConfiguration = errors.New("排课配置错误")

var (
	ErrEmptyCatalog             = fmt.Errorf("%w: 课程班次不能为空", ErrConfiguration)
	ErrInsufficientCombinations = fmt.Errorf("%w: 教室与时间段的组合数量少于课程班次数量", ErrConfiguration)
	ErrEmptyTeacherPool         = fmt.Errorf("%w: 教师列表不能为空", ErrConfiguration)
	ErrDuplicateTeacher         = fmt.Errorf("%w: 教师 ID 重复", ErrConfiguration)
	ErrMissingSatisfaction      = fmt.Errorf("%w: 缺少教师满意度", ErrConfiguration)
	ErrNegativeSatisfaction     = fmt.Errorf("%w: 教师满意度不能为负数", ErrConfiguration)
	ErrPopulationTooSmall       = fmt.Errorf("%w: 种群大小不能小于锦标赛规模 %d", ErrConfiguration, TournamentSize)
	ErrInvalidEliteCount        = fmt.Errorf("%w: 精英数量必须在 0 到种群大小之间", ErrConfiguration)
	ErrInvalidMutationRate      = fmt.Errorf("%w: 变异概率必须在 0 到 1 之间", ErrConfiguration)
	ErrUnknownFitnessModel      = fmt.Errorf("%w: 未知的适应度模型", ErrConfiguration)
	ErrInvalidWeights           = fmt.Errorf("%w: 适应度权重必须非负且和为 1", ErrConfiguration)
	ErrNegativeGenerations      = fmt.Errorf("%w: 迭代代数不能为负数", ErrConfiguration)
)

var ErrAlreadyRun = errors.New("该排课任务已经运行过，不能重复运行")
