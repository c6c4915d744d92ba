package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier acknowledges a registration by logging it. It is the only
// acknowledgment channel; nothing leaves the process.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendAcknowledgment(ctx context.Context, in AcknowledgmentInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "registration_acknowledged",
		"plan", in.Plan,
		"total", in.Total,
		"message", in.Message,
		"request_id", in.RequestID,
	)
	// personal details stay out of info logs
	n.log.DebugContext(ctx, "registration_acknowledged_contact",
		"email", in.Email,
		"name", in.Name,
		"request_id", in.RequestID,
	)
	return nil
}
