// Package infra 负责建立 api、worker 和 seed 共用的外部连接
package infra

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB 创建数据库连接池并确认数据库可达
func OpenDB(cfg *config.Config) (*sql.DB, error) {
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("无法创建数据库连接池: %w", err)
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 不会真正建立连接
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	return dbpool, nil
}

func OpenRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到 redis: %w", err)
	}

	return rdb, nil
}

// RabbitMQ 持有一个连接和其上的一个通道
type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// OpenRabbitMQ 建立连接和通道，并声明持久化的队列
func OpenRabbitMQ(cfg *config.Config, queues ...string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, fmt.Errorf("无法连接到 rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("无法建立通道: %w", err)
	}

	for _, queue := range queues {
		_, err := ch.QueueDeclare(
			queue,
			true,  // 持久化
			false, // 没有消费者时不自动删除
			false,
			false,
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("无法声明队列 %s: %w", queue, err)
		}
	}

	return &RabbitMQ{Conn: conn, Channel: ch}, nil
}

func (mq *RabbitMQ) Close() {
	_ = mq.Channel.Close()
	_ = mq.Conn.Close()
}
