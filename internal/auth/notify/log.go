package notify

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the logger instead of delivering them. It is
// the development default so sign-up links and reset codes show up in the
// service output.
type LogSender struct {
	Logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{Logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	s.Logger.InfoContext(ctx, "email not delivered (log driver)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Text),
	)
	return nil
}
