package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/scheduler"
)

// errRunLocked 表示该任务正在被其他 worker 执行
var errRunLocked = errors.New("排课任务正在被其他 worker 执行")

type worker struct {
	cfg         *config.Config
	repo        *repository.Repository
	redisClient *redis.Client
	channel     *amqp.Channel
	logger      *slog.Logger
}

func (wk *worker) redisContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(wk.cfg.Redis.OperationExpiration)*time.Second)
}

// handle 处理一条排课消息，返回的错误决定消息是否需要重新入队
func (wk *worker) handle(msg amqp.Delivery) (requeue bool, err error) {
	job := domain.ScheduleRunJob{}
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		return false, fmt.Errorf("排课消息反序列化失败: %w", err)
	}

	logger := wk.logger.With(slog.Int64("run_id", job.RunID))

	// 同一个任务同时只能有一个 worker 执行
	ctx, cancel := wk.redisContext()
	defer cancel()

	lockKey := domain.ScheduleRunLockKey(job.RunID)
	ok, err := wk.redisClient.SetNX(ctx, lockKey, time.Now().Unix(), time.Duration(wk.cfg.Redis.RunLockExpiration)*time.Second).Result()
	if err != nil {
		return true, err
	}
	if !ok {
		return false, errRunLocked
	}
	defer func() {
		ctx, cancel := wk.redisContext()
		defer cancel()
		if err := wk.redisClient.Del(ctx, lockKey).Err(); err != nil {
			logger.Error("无法释放排课任务锁", slog.String("error", err.Error()))
		}
	}()

	// 任务记录不存在时消息无法处理，直接丢弃
	run, err := wk.repo.GetScheduleRunByID(job.RunID)
	if err != nil {
		return !errors.Is(err, sql.ErrNoRows), err
	}

	// 重复投递的消息直接忽略
	if run.Status == domain.ScheduleRunStatusCompleted || run.Status == domain.ScheduleRunStatusFailed {
		logger.Info("排课任务已经结束，忽略该消息", slog.String("status", string(run.Status)))
		return false, nil
	}

	// 目录不存在时任务注定失败，其他错误（如数据库超时）重新入队
	catalog, catalogErr := wk.repo.GetCatalogByID(run.CatalogID)
	runErr, requeue := catalogLoadError(run.CatalogID, catalogErr)
	if requeue {
		return true, runErr
	}

	run.Status = domain.ScheduleRunStatusRunning
	if err := wk.repo.UpdateScheduleRunStatus(run); err != nil {
		return true, err
	}

	logger.Info("开始排课", slog.Int64("catalog_id", run.CatalogID), slog.Int("generations", int(run.Parameters.Generations)))
	start := time.Now()

	catalogName := ""
	if runErr == nil {
		catalogName = catalog.Name
		lock := newLockRefresher(time.Duration(wk.cfg.Redis.RunLockExpiration) * time.Second)
		runErr = wk.execute(run, catalog, logger, func() {
			if !lock.due(time.Now()) {
				return
			}
			if err := wk.refreshLock(lockKey, lock.ttl); err != nil {
				logger.Warn("无法延长排课任务锁", slog.String("error", err.Error()))
			}
		})
	}

	if runErr != nil {
		logger.Error("排课失败", slog.String("error", runErr.Error()))
		run.MarkFailed(runErr, time.Now())
		if err := wk.repo.UpdateScheduleRunStatus(run); err != nil {
			return true, err
		}
	} else {
		finishedAt := time.Now()
		run.FinishedAt = &finishedAt
		run.Status = domain.ScheduleRunStatusCompleted
		if err := wk.repo.InsertScheduleRunResult(run); err != nil {
			return true, err
		}
		logger.Info("排课完成", slog.Float64("best_fitness", *run.BestFitness), slog.Bool("valid", *run.Valid), slog.Duration("duration", time.Since(start)))
	}

	// 通知失败不影响任务本身
	if err := wk.notify(run, catalogName); err != nil {
		logger.Error("无法发送排课结果通知", slog.String("error", err.Error()))
	}

	return false, nil
}

// execute 运行遗传算法，结果写回 run
// 每一代结束后都会调用 heartbeat
func (wk *worker) execute(run *domain.ScheduleRun, catalog *domain.Catalog, logger *slog.Logger, heartbeat func()) error {
	params := scheduler.ParametersFromRun(run.Parameters)
	params.MaxResampleAttempts = wk.cfg.Scheduler.MaxResampleAttempts

	s, err := scheduler.New(params, catalog)
	if err != nil {
		return err
	}

	interval := max(wk.cfg.Scheduler.ProgressInterval, 1)
	result, err := s.Schedule(int(run.Parameters.Generations), func(p scheduler.Progress) {
		heartbeat()
		if p.Generation%interval != 0 && p.Generation != p.Generations {
			return
		}
		if err := wk.reportProgress(run.ID, p); err != nil {
			logger.Warn("无法写入排课进度", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}

	bestFitness := result.Best.Fitness()
	run.BestFitness = &bestFitness
	run.Valid = &result.Valid
	run.Assignments = result.Best.Assignments()
	run.Statistics = result.Statistics

	return nil
}

// catalogLoadError 区分读取目录失败的原因，requeue 为 true 表示错误是暂时的
func catalogLoadError(catalogID int64, err error) (runErr error, requeue bool) {
	switch {
	case err == nil:
		return nil, false
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("目录 %d 不存在", catalogID), false
	default:
		return err, true
	}
}

// lockRefresher 控制延长任务锁的频率，每过三分之一的 ttl 延长一次
type lockRefresher struct {
	ttl  time.Duration
	last time.Time
}

func newLockRefresher(ttl time.Duration) *lockRefresher {
	return &lockRefresher{ttl: ttl, last: time.Now()}
}

func (l *lockRefresher) due(now time.Time) bool {
	if now.Sub(l.last) < l.ttl/3 {
		return false
	}
	l.last = now
	return true
}

func (wk *worker) refreshLock(lockKey string, ttl time.Duration) error {
	ctx, cancel := wk.redisContext()
	defer cancel()

	return wk.redisClient.Expire(ctx, lockKey, ttl).Err()
}

func (wk *worker) reportProgress(runID int64, p scheduler.Progress) error {
	data, err := json.Marshal(domain.ScheduleRunProgress{
		Generation:  int32(p.Generation),
		Generations: int32(p.Generations),
		BestFitness: p.BestFitness,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := wk.redisContext()
	defer cancel()

	return wk.redisClient.Set(ctx, domain.ScheduleRunProgressKey(runID), data, time.Duration(wk.cfg.Redis.ProgressExpiration)*time.Second).Err()
}

// notify 将排课结果通过邮件队列通知给发起人
func (wk *worker) notify(run *domain.ScheduleRun, catalogName string) error {
	user, err := wk.repo.GetUserByID(run.RequestedBy)
	if err != nil {
		return err
	}

	data := domain.ScheduleRunCompletedMailData{
		FullName:     user.FullName,
		RunID:        run.ID,
		CatalogName:  catalogName,
		Status:       run.Status,
		ErrorMessage: run.ErrorMessage,
	}
	if run.BestFitness != nil {
		data.BestFitness = *run.BestFitness
	}
	if run.Valid != nil {
		data.Valid = *run.Valid
	}

	body, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeScheduleRunCompleted,
		To:   user.Email,
		Data: data,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(wk.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return wk.channel.PublishWithContext(
		ctx,
		"",
		wk.cfg.RabbitMQ.MailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
