package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/infra"
	"github.com/wneessen/go-mail"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	templates, err := loadMailTemplates(cfg.Email.TemplatesPath)
	if err != nil {
		logger.Error("无法加载邮件模板", slog.String("error", err.Error()))
		return
	}
	m := &mailer{from: cfg.Email.SMTP.Username, templates: templates}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 启动时先确认能连上邮件服务器
	dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer dialCancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 消费邮件队列
	 **********************************************/
	mq, err := infra.OpenRabbitMQ(cfg, cfg.RabbitMQ.MailQueue)
	if err != nil {
		logger.Error("无法初始化 rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer mq.Close()

	msgs, err := mq.Channel.Consume(
		cfg.RabbitMQ.MailQueue,
		"",    // 由 RabbitMQ 分配消费者标识
		false, // 发送成功后再手动确认
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					stop()
					return
				}

				msg, err := m.buildMessage(delivery.Body)
				if err != nil {
					logger.Error("无法构建邮件", slog.String("error", err.Error()))
					_ = delivery.Nack(false, false)
					continue
				}

				if err := client.DialAndSend(msg); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = delivery.Nack(false, true) // 重新入队
					continue
				}

				logger.Info("邮件已发送", slog.Uint64("delivery_tag", delivery.DeliveryTag))
				_ = delivery.Ack(false)
			}
		}
	}()

	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-ctx.Done()

	logger.Info("正在关闭 mail worker...")
	wg.Wait()
	logger.Info("mail worker 已成功关闭")
}
