// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/silaylearn/silay-api/internal/config"
)

// SMTPMailer delivers mail through an authenticated STARTTLS relay.
type SMTPMailer struct {
	cfg       config.MailConfig
	expiresIn string
	logger    *slog.Logger
}

// NewSMTPMailer creates a mailer. tokenTTL is quoted in the reset email.
func NewSMTPMailer(cfg config.MailConfig, tokenTTL time.Duration, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, expiresIn: humanize(tokenTTL), logger: logger}
}

// SendPasswordReset sends the multipart reset email to one recipient.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	msg, err := m.resetMessage(to, resetLink)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Server,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	m.logger.Info("reset email sent", "server", m.cfg.Server)
	return nil
}

func (m *SMTPMailer) resetMessage(to, resetLink string) (*mail.Msg, error) {
	plain, html, err := renderReset(resetLink, m.expiresIn)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Username); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(mail.TypeTextPlain, plain)
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	return msg, nil
}

// LogMailer logs reset links instead of sending them. Used when no SMTP
// credentials are configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendPasswordReset logs the link at warn level.
func (l *LogMailer) SendPasswordReset(_ context.Context, to, resetLink string) error {
	l.logger.Warn("smtp not configured, reset link not emailed", "to", to, "link", resetLink)
	return nil
}

func humanize(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short time"
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
