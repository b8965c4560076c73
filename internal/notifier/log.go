package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of delivering them.
// Used for dry runs and local development.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Type() string    { return "log" }
func (s *LogSender) Validate() error { return nil }

func (s *LogSender) Send(_ context.Context, text string) error {
	s.logger.Info().
		Str("message", text).
		Msg("Would send notification (dry run)")
	return nil
}
