package publish

import (
	"context"

	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

// Notifier delivers terminal-failure notices. It tries the sink first and
// falls back to the error log, so a failure is never silently dropped.
type Notifier struct {
	publisher Publisher
	logger    logger.Logger
}

// NewNotifier creates a Notifier backed by publisher.
func NewNotifier(publisher Publisher, log logger.Logger) *Notifier {
	return &Notifier{publisher: publisher, logger: log}
}

// Notify reports msg for the session. Best-effort: a sink failure is logged,
// not returned.
func (n *Notifier) Notify(ctx context.Context, sessionID, msg string) {
	text := "Session " + sessionID + ": " + msg
	if n.publisher != nil {
		err := n.publisher.Publish(ctx, text)
		if err == nil {
			return
		}
		n.logger.Warn(ctx, "Fallback sink unreachable: %v", err)
	}
	n.logger.Error(ctx, "%s", text)
}
