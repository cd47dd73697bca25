package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"leavemgmt/internal/domain/notifications"
	"leavemgmt/internal/platform/config"
)

type noopMailer struct {
	log *zap.Logger
}

func (m noopMailer) Send(_ context.Context, _, to, subject, _ string) error {
	m.log.Debug("email delivery disabled", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type smtpMailer struct {
	cfg config.Config
	log *zap.Logger
}

// New returns an SMTP mailer, or a logging no-op when email is disabled.
func New(cfg config.Config, logger *zap.Logger) notifications.Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("email")
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{log: log}
	}
	return &smtpMailer{cfg: cfg, log: log}
}

func (s *smtpMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	if err := s.send(ctx, from, to, buildMessage(from, to, subject, body)); err != nil {
		s.log.Warn("email send failed", zap.String("to", to), zap.Error(err))
		return err
	}
	s.log.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (s *smtpMailer) send(ctx context.Context, from, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.SMTPHost, fmt.Sprint(s.cfg.SMTPPort))

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return err
		}
	}

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
	}
	body = strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n")
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + body)
}
