package sweep

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier delivers a reminder to its user
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes reminders to the log. The app channel reads them from
// the sweep report, so logging is the only delivery needed.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs each reminder
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the reminder
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("Cooling period ended",
		"message", n.Message(),
		"user", n.Username,
		"purchase", n.PurchaseName,
		"price", n.PurchasePrice,
		"category", n.PurchaseCategory,
		"channel", n.Channel,
	)
	return nil
}

// Message renders the reminder text shown to the user
func (n Notification) Message() string {
	return fmt.Sprintf("Период ожидания закончился: %s (%.0f ₽, %s). Вы всё ещё хотите это купить?",
		n.PurchaseName, n.PurchasePrice, n.PurchaseCategory)
}
