package notify

import (
	"context"

	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// LogNotifier writes digests to the log instead of sending them. It is used when
// mail delivery is disabled.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the digest. Nothing is sent, so it always reports ErrNotDelivered.
func (n *LogNotifier) Notify(ctx context.Context, subject, body string) error {
	n.logger.Info("Digest (mail disabled)",
		zap.String("subject", subject),
		zap.String("body", body))
	return core.ErrNotDelivered
}
