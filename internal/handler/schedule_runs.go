package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/catalogio"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/scheduler"
)

func (h *Handler) CreateScheduleRun(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CatalogCtx).(*domain.Catalog)

	// 未填写的参数使用配置中的默认值
	var req struct {
		PopulationSize         *int32   `json:"populationSize" validate:"omitempty,min=7,max=1000"`
		Generations            *int32   `json:"generations" validate:"omitempty,min=0,max=10000"`
		MutationRate           *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
		EliteCount             *int32   `json:"eliteCount" validate:"omitempty,min=0"`
		Seed                   *int64   `json:"seed"`
		FitnessModel           *string  `json:"fitnessModel" validate:"omitempty,oneof=additive-v1 weighted-v1"`
		BalanceWeight          float64  `json:"balanceWeight" validate:"min=0,max=1"`
		LoadWeight             float64  `json:"loadWeight" validate:"min=0,max=1"`
		SatisfactionWeight     float64  `json:"satisfactionWeight" validate:"min=0,max=1"`
		RejectInvalidOffspring bool     `json:"rejectInvalidOffspring"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	defaults := h.config.Scheduler
	params := domain.ScheduleRunParameters{
		PopulationSize:         int32(defaults.PopulationSize),
		Generations:            int32(defaults.Generations),
		MutationRate:           defaults.MutationRate,
		EliteCount:             int32(defaults.EliteCount),
		Seed:                   time.Now().UnixNano(),
		FitnessModel:           defaults.FitnessModel,
		BalanceWeight:          req.BalanceWeight,
		LoadWeight:             req.LoadWeight,
		SatisfactionWeight:     req.SatisfactionWeight,
		RejectInvalidOffspring: req.RejectInvalidOffspring,
	}
	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.Generations != nil {
		params.Generations = *req.Generations
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.EliteCount != nil {
		params.EliteCount = *req.EliteCount
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}
	if req.FitnessModel != nil {
		params.FitnessModel = *req.FitnessModel
	}

	if err := scheduler.ParametersFromRun(params).Validate(); err != nil {
		h.badRequest(w, r, err)
		return
	}

	run := &domain.ScheduleRun{
		CatalogID:   c.ID,
		Status:      domain.ScheduleRunStatusPending,
		Parameters:  params,
		RequestedBy: myInfo.ID,
	}

	if err := h.repository.CreateScheduleRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 投递到排课队列，由 worker 异步执行
	if err := h.publishJSON(h.config.RabbitMQ.ScheduleQueue, domain.ScheduleRunJob{RunID: run.ID}); err != nil {
		h.abandonScheduleRun(r, run, err)
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排课任务已提交", run)
}

// abandonScheduleRun 在任务无法入队时将其标记为失败，否则没有 worker 会处理它
func (h *Handler) abandonScheduleRun(r *http.Request, run *domain.ScheduleRun, cause error) {
	run.MarkFailed(fmt.Errorf("无法投递排课任务: %w", cause), time.Now())
	if err := h.repository.UpdateScheduleRunStatus(run); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) GetCatalogScheduleRuns(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CatalogCtx).(*domain.Catalog)

	runs, err := h.repository.GetScheduleRunsByCatalogID(c.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排课任务列表成功", runs)
}

func (h *Handler) GetScheduleRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(ScheduleRunCtx).(*domain.ScheduleRun)

	var resp struct {
		*domain.ScheduleRun
		Progress *domain.ScheduleRunProgress `json:"progress"`
	}
	resp.ScheduleRun = run

	switch run.Status {
	case domain.ScheduleRunStatusCompleted:
		assignments, err := h.repository.GetScheduleRunAssignments(run.ID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		run.Assignments = assignments
	case domain.ScheduleRunStatusRunning:
		// 进度只存在于 redis 中，读取失败不影响返回任务本身
		progress, err := h.getScheduleRunProgress(run.ID)
		if err != nil {
			h.logInternalServerError(r, err)
		}
		resp.Progress = progress
	}

	h.successResponse(w, r, "获取排课任务成功", resp)
}

func (h *Handler) getScheduleRunProgress(runID int64) (*domain.ScheduleRunProgress, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	data, err := h.redisClient.Get(ctx, domain.ScheduleRunProgressKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	progress := &domain.ScheduleRunProgress{}
	if err := json.Unmarshal(data, progress); err != nil {
		return nil, err
	}

	return progress, nil
}

func (h *Handler) GetScheduleRunStatistics(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(ScheduleRunCtx).(*domain.ScheduleRun)

	stats, err := h.repository.GetScheduleRunStatistics(run.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取统计信息成功", stats)
}

func (h *Handler) ExportScheduleRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(ScheduleRunCtx).(*domain.ScheduleRun)

	if run.Status != domain.ScheduleRunStatusCompleted {
		h.errorResponse(w, r, "排课任务尚未完成")
		return
	}

	assignments, err := h.repository.GetScheduleRunAssignments(run.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	buf, err := catalogio.WriteSchedule(assignments)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeXLSX(w, r, fmt.Sprintf("schedule_run_%d.xlsx", run.ID), buf)
}

func (h *Handler) ExportScheduleRunStatistics(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(ScheduleRunCtx).(*domain.ScheduleRun)

	if run.Status != domain.ScheduleRunStatusCompleted {
		h.errorResponse(w, r, "排课任务尚未完成")
		return
	}

	stats, err := h.repository.GetScheduleRunStatistics(run.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	buf, err := catalogio.WriteStatistics(stats)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeXLSX(w, r, fmt.Sprintf("schedule_run_%d_statistics.xlsx", run.ID), buf)
}
