// Package sender delivers notifications to recipients.
package sender

import (
	"context"
	"log/slog"
)

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, phoneNumber, body string) error
}

// LogSender records deliveries in the service log instead of contacting a
// mail or SMS gateway.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email sent",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)),
	)
	return ctx.Err()
}

func (s *LogSender) SendSMS(ctx context.Context, phoneNumber, body string) error {
	s.logger.InfoContext(ctx, "sms sent",
		slog.String("to", phoneNumber),
		slog.Int("body_bytes", len(body)),
	)
	return ctx.Err()
}
