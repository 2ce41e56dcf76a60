package mail

import (
	"context"

	"github.com/dmitrijs2005/aquatrack/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. It is
// used when no SMTP host is configured, so local setups can still follow
// verification and reset links.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "email not delivered, no SMTP host configured",
		"to", msg.To, "subject", msg.Subject, "html", msg.HTML)
	return nil
}
