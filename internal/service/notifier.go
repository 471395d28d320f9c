package service

import (
	"context"
	"fmt"

	"github.com/campgrid/auth-service/internal/config"
	mail "github.com/go-mail/mail"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SMTPNotifier delivers email over SMTP. It satisfies Notifier; callers
// treat delivery failure as non-fatal and log it, since the underlying
// account state is still valid and a resend can always be requested.
type SMTPNotifier struct {
	dialer *mail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPNotifier creates a notifier from SMTP configuration
func NewSMTPNotifier(cfg config.SMTPConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// Send delivers a multipart text+html message and returns a delivery id
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	if err := n.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	deliveryID := uuid.New().String()
	n.logger.Info("email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("delivery_id", deliveryID),
	)
	return deliveryID, nil
}

// LogNotifier logs instead of sending; used in development and tests where
// no SMTP server is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message and returns a delivery id
func (n *LogNotifier) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	deliveryID := uuid.New().String()
	n.logger.Info("email suppressed (log notifier)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", text),
		zap.String("delivery_id", deliveryID),
	)
	return deliveryID, nil
}
