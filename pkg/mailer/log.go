package mailer

import (
	"context"
	"net/mail"

	"go.uber.org/zap"
)

// LogSender writes messages to the application log instead of delivering them.
type LogSender struct {
	from   string
	logger *zap.Logger
}

// NewLogSender builds a development transport.
func NewLogSender(from mail.Address, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{from: from.String(), logger: logger.Named("mailer")}
}

// Send logs msg and never fails for a valid message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("email",
		zap.String("from", s.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
