package relay

import (
	"context"
	"log/slog"
)

// NoopSender logs sends without delivering anything. It is the dry-run
// provider: the dispatcher still walks its full state machine and writes
// ledger entries, but no relay is contacted.
type NoopSender struct {
	logger *slog.Logger
}

// NewNoopSender creates a NoopSender.
func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

// Send logs the message and reports success.
func (s *NoopSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("noop send", "to", to, "subject", subject)
	return nil
}
