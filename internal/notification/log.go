package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes the reset link to the service log instead of delivering it.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, msg PasswordReset) error {
	n.logger.Info("password reset link",
		zap.String("to", msg.To),
		zap.String("link", msg.Link),
		zap.Time("expires_at", msg.ExpiresAt))
	return nil
}
