package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/catalogio"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/seed"
)

// 离线排课：读取目录文件，运行遗传算法并把结果写成 Excel，不依赖数据库和消息队列
func main() {
	params := scheduler.DefaultParameters()

	var input string
	var generations int
	var scheduleOut, statisticsOut string
	var verbose bool

	flag.StringVar(&input, "input", "", "目录文件，xlsx 工作簿或包含 csv 文件的目录")
	flag.IntVar(&generations, "generations", 100, "迭代代数")
	flag.IntVar(&params.PopulationSize, "population", params.PopulationSize, "种群大小")
	flag.Float64Var(&params.MutationRate, "mutation-rate", params.MutationRate, "变异概率")
	flag.IntVar(&params.EliteCount, "elite", params.EliteCount, "每一代保留的精英数量")
	flag.Int64Var(&params.Seed, "seed", time.Now().UnixNano(), "随机数种子")
	flag.StringVar(&params.FitnessModel, "fitness-model", params.FitnessModel, "适应度模型 (additive-v1, weighted-v1)")
	flag.Float64Var(&params.Weights.Balance, "balance-weight", 0, "weighted-v1 的上课日均衡权重")
	flag.Float64Var(&params.Weights.Load, "load-weight", 0, "weighted-v1 的工作量均衡权重")
	flag.Float64Var(&params.Weights.Satisfaction, "satisfaction-weight", 0, "weighted-v1 的满意度权重")
	flag.BoolVar(&params.RejectInvalidOffspring, "reject-invalid", false, "丢弃违反工作量上限的子代")
	flag.StringVar(&scheduleOut, "schedule-out", "schedule.xlsx", "课表输出文件")
	flag.StringVar(&statisticsOut, "statistics-out", "summary_statistics.xlsx", "统计信息输出文件，为空时不计算统计信息")
	flag.BoolVar(&verbose, "v", false, "输出每一代的调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if input == "" {
		logger.Error("请指定目录文件")
		os.Exit(1)
	}
	params.SkipStatistics = statisticsOut == ""

	/**********************************************
	 * 读取目录
	 **********************************************/
	catalog, err := seed.LoadCatalog(input)
	if err != nil {
		logger.Error("无法读取目录", slog.String("input", input), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("已读取目录",
		slog.Int("course_sections", len(catalog.CourseSections)),
		slog.Int("classrooms", len(catalog.Classrooms)),
		slog.Int("time_slots", len(catalog.TimeSlots)),
		slog.Int("teachers", len(catalog.Teachers)),
	)

	/**********************************************
	 * 运行遗传算法
	 **********************************************/
	s, err := scheduler.New(params, catalog)
	if err != nil {
		logger.Error("无法创建排课任务", slog.String("error", err.Error()))
		os.Exit(1)
	}

	start := time.Now()
	result, err := s.Schedule(generations, func(p scheduler.Progress) {
		if p.Generation%10 == 0 || p.Generation == p.Generations {
			logger.Info("排课进度", slog.Int("generation", p.Generation), slog.Int("generations", p.Generations), slog.Float64("best_fitness", p.BestFitness))
		}
	})
	if err != nil {
		logger.Error("排课失败", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("排课完成",
		slog.Int64("seed", params.Seed),
		slog.String("fitness_model", s.FitnessModel()),
		slog.Float64("best_fitness", result.Best.Fitness()),
		slog.Bool("valid", result.Valid),
		slog.Duration("duration", time.Since(start)),
	)

	/**********************************************
	 * 写出结果
	 **********************************************/
	buf, err := catalogio.WriteSchedule(result.Best.Assignments())
	if err != nil {
		logger.Error("无法生成课表", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := os.WriteFile(scheduleOut, buf.Bytes(), 0o644); err != nil {
		logger.Error("无法写入课表", slog.String("path", scheduleOut), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("课表已写入", slog.String("path", scheduleOut))

	if statisticsOut == "" {
		return
	}

	buf, err = catalogio.WriteStatistics(result.Statistics)
	if err != nil {
		logger.Error("无法生成统计信息", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := os.WriteFile(statisticsOut, buf.Bytes(), 0o644); err != nil {
		logger.Error("无法写入统计信息", slog.String("path", statisticsOut), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("统计信息已写入", slog.String("path", statisticsOut))
}
