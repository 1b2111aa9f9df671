package store

import (
	"go.uber.org/zap"
)

// Notifier receives the user-visible outcome of every store operation.
// Every failure path goes through it; nothing fails silently.
type Notifier interface {
	Success(action, detail string)
	Error(action, detail string)
}

type zapNotifier struct {
	logger *zap.Logger
}

func NewZapNotifier(logger *zap.Logger) Notifier {
	return &zapNotifier{logger: logger}
}

func (n *zapNotifier) Success(action, detail string) {
	n.logger.Info("notification", zap.String("action", action), zap.String("detail", detail))
}

func (n *zapNotifier) Error(action, detail string) {
	n.logger.Warn("notification", zap.String("action", action), zap.String("detail", detail))
}
