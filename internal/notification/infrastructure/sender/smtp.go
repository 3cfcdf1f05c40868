package sender

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
)

// SMTPSender 基于标准 SMTP 协议的邮件发送器
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender 创建 SMTP 邮件发送器
func NewSMTPSender(host string, port int, username, password, from string) domain.Sender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, target string, subject string, content string) error {
	slog.InfoContext(ctx, "sending email", "target", target, "subject", subject)

	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + target + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		content + "\r\n")

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{target}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
