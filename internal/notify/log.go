package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// LogNotifier is the fallback sink used when no NATS URL is configured.
// Deliveries are logged and otherwise discarded.
type LogNotifier struct {
	log *zerolog.Logger
}

// NewLogNotifier builds a log-only notifier.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, recipientID int64, kind string, _ json.RawMessage) error {
	n.log.Info().
		Int64("recipient_id", recipientID).
		Str("kind", kind).
		Msg("notification (log sink)")
	return nil
}
