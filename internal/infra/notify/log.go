package notify

import (
	"context"
	"log/slog"

	"tinyhome/internal/app/policies"
)

// LogNotifier records what would have been sent and reports the notifier as disabled.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, msg policies.Message) error {
	if n.Logger != nil {
		n.Logger.WarnContext(ctx, "email not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	}
	return policies.ErrNotifierDisabled
}

var _ policies.Notifier = LogNotifier{}
