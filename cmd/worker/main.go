package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/infra"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/repository"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	dbpool, err := infra.OpenDB(cfg)
	if err != nil {
		logger.Error("无法初始化数据库", "error", err)
		return
	}
	defer dbpool.Close()

	rdb, err := infra.OpenRedis(cfg)
	if err != nil {
		logger.Error("无法初始化 redis", "error", err)
		return
	}
	defer rdb.Close()

	// 结果通知需要投递到邮件队列，所以两个队列都需要声明
	mq, err := infra.OpenRabbitMQ(cfg, cfg.RabbitMQ.ScheduleQueue, cfg.RabbitMQ.MailQueue)
	if err != nil {
		logger.Error("无法初始化 rabbitmq", "error", err)
		return
	}
	defer mq.Close()
	ch := mq.Channel

	// 排课是 CPU 密集型任务，每个 worker 同时只处理一条消息
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	msgs, err := ch.Consume(
		cfg.RabbitMQ.ScheduleQueue,
		"",
		false, // 手动确认，任务完成后才 ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	wk := &worker{
		cfg:         cfg,
		repo:        repository.NewRepository(cfg, dbpool),
		redisClient: rdb,
		channel:     ch,
		logger:      logger,
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}

				requeue, err := wk.handle(msg)
				switch {
				case err == nil:
					_ = msg.Ack(false)
				case errors.Is(err, errRunLocked):
					logger.Warn("跳过正在执行的排课任务", slog.String("message", string(msg.Body)))
					_ = msg.Ack(false)
				default:
					logger.Error("处理排课消息失败", slog.String("message", string(msg.Body)), slog.Bool("requeue", requeue), slog.String("error", err.Error()))
					_ = msg.Nack(false, requeue)
				}
			}
		}
	}()

	logger.Info("等待排课任务...（按 CTRL+C 退出）")
	<-sigChan

	// 正在执行的任务会先完成再退出
	logger.Info("正在关闭 schedule worker...")
	cancel()
	wg.Wait()
	logger.Info("schedule worker 已成功关闭")
}
