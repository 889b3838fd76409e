package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

type mailTemplate struct {
	subject string
	tmpl    *template.Template
}

// 邮件类型 -> 模板文件和主题
var mailTemplateFiles = map[string]struct {
	file    string
	subject string
}{
	domain.MailTypeCreateUser:           {file: "new_account_email.html", subject: "ECNC 排课系统 - 账户信息"},
	domain.MailTypeScheduleRunCompleted: {file: "schedule_run_completed_email.html", subject: "ECNC 排课系统 - 排课任务结果"},
}

func loadMailTemplates(dir string) (map[string]mailTemplate, error) {
	templates := make(map[string]mailTemplate, len(mailTemplateFiles))
	for mailType, f := range mailTemplateFiles {
		tmpl, err := template.ParseFiles(filepath.Join(dir, f.file))
		if err != nil {
			return nil, fmt.Errorf("无法解析邮件模板 %s: %w", f.file, err)
		}
		templates[mailType] = mailTemplate{subject: f.subject, tmpl: tmpl}
	}
	return templates, nil
}

type mailer struct {
	from      string
	templates map[string]mailTemplate
}

// buildMessage 把队列中的消息渲染成邮件，返回的错误都不值得重试
func (m *mailer) buildMessage(body []byte) (*mail.Msg, error) {
	var mailMessage domain.MailMessage
	if err := json.Unmarshal(body, &mailMessage); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	t, ok := m.templates[mailMessage.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %q", mailMessage.Type)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(mailMessage.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	msg.Subject(t.subject)
	if err := msg.SetBodyHTMLTemplate(t.tmpl, mailMessage.Data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}

	return msg, nil
}
