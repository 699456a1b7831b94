// Package sweep finds purchases whose cooling period has ended and reminds
// their owners, subject to each user's notification settings.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eshaffer321/coolingoff/internal/domain/notify"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/lock"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

// ErrSweepInProgress is returned when another sweep holds the lock
var ErrSweepInProgress = errors.New("sweep already in progress")

// Locker serializes sweep runs
type Locker interface {
	TryAcquire(ctx context.Context) (lock.ReleaseFunc, bool, error)
}

// Notification is a reminder that a purchase finished cooling off
type Notification struct {
	UserID           string    `json:"userId"`
	Username         string    `json:"username"`
	PurchaseID       string    `json:"purchaseId"`
	PurchaseName     string    `json:"purchaseName"`
	PurchasePrice    float64   `json:"purchasePrice"`
	PurchaseCategory string    `json:"purchaseCategory"`
	Channel          string    `json:"channel"`
	SentAt           time.Time `json:"sentAt"`
}

// Report summarizes one sweep
type Report struct {
	RunID             int64          `json:"runId"`
	PurchasesDue      int            `json:"purchasesDue"`
	NotificationsSent int            `json:"notificationsSent"`
	Skipped           int            `json:"skipped"`
	Errors            int            `json:"errors"`
	Notifications     []Notification `json:"notifications"`
}

// Sweeper runs the notification sweep
type Sweeper struct {
	storage  storage.Repository
	notifier Notifier
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper creates a sweeper. A nil notifier logs reminders; a nil locker
// serializes runs within this process only.
func NewSweeper(store storage.Repository, notifier Notifier, locker Locker, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &Sweeper{
		storage:  store,
		notifier: notifier,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run notifies owners of due purchases. Only one run proceeds at a time;
// others return ErrSweepInProgress.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	release, ok, err := s.locker.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	if !ok {
		return nil, ErrSweepInProgress
	}
	defer release()

	now := s.now()
	report := &Report{Notifications: make([]Notification, 0)}

	runID, err := s.storage.StartSweepRun(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record sweep start: %w", err)
	}
	report.RunID = runID

	runErr := s.run(ctx, now, report)

	if err := s.storage.CompleteSweepRun(ctx, runID, report.PurchasesDue, report.NotificationsSent, report.Skipped, runErr); err != nil {
		s.logger.Warn("Failed to record sweep completion", "run_id", runID, "error", err)
	}

	if runErr != nil {
		return nil, runErr
	}

	s.logger.Info("Sweep completed",
		"run_id", runID,
		"due", report.PurchasesDue,
		"sent", report.NotificationsSent,
		"skipped", report.Skipped,
		"errors", report.Errors,
	)
	return report, nil
}

func (s *Sweeper) run(ctx context.Context, now time.Time, report *Report) error {
	due, err := s.storage.ListDuePurchases(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due purchases: %w", err)
	}
	report.PurchasesDue = len(due)

	for _, p := range due {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, sent, err := s.process(ctx, now, p)
		switch {
		case err != nil:
			s.logger.Error("Failed to process purchase", "purchase_id", p.ID, "user_id", p.UserID, "error", err)
			report.Errors++
			report.Skipped++
		case !sent:
			report.Skipped++
		default:
			report.Notifications = append(report.Notifications, *n)
			report.NotificationsSent++
		}
	}

	return nil
}

// process applies the user's settings and the frequency gate to one due purchase.
// Settings are read per purchase so a notification sent earlier in the same run
// closes the gate for that user's remaining purchases.
func (s *Sweeper) process(ctx context.Context, now time.Time, p storage.DuePurchase) (*Notification, bool, error) {
	settings, err := s.storage.GetNotificationSettings(ctx, p.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("Skipping purchase without notification settings", "purchase_id", p.ID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load notification settings: %w", err)
	}

	if !settings.Enabled {
		return nil, false, nil
	}
	if settings.Excludes(p.Category) {
		s.logger.Debug("Skipping excluded category", "purchase_id", p.ID, "category", p.Category)
		return nil, false, nil
	}
	if !notify.ShouldNotify(now, settings.LastNotificationSent, notify.Frequency(settings.Frequency)) {
		return nil, false, nil
	}

	marked, err := s.storage.MarkNotified(ctx, p.UserID, p.ID, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark purchase notified: %w", err)
	}
	if !marked {
		// Completed or notified since the due list was read
		return nil, false, nil
	}

	n := &Notification{
		UserID:           p.UserID,
		Username:         p.Username,
		PurchaseID:       p.ID,
		PurchaseName:     p.Name,
		PurchasePrice:    p.Price,
		PurchaseCategory: p.Category,
		Channel:          settings.Channel,
		SentAt:           now,
	}

	if err := s.notifier.Notify(ctx, *n); err != nil {
		// State has already advanced; the reminder stays visible in the app
		s.logger.Warn("Notifier failed", "purchase_id", p.ID, "channel", n.Channel, "error", err)
	}

	return n, true, nil
}

// Runs returns recent sweep runs, newest first
func (s *Sweeper) Runs(ctx context.Context, limit int) ([]storage.SweepRun, error) {
	return s.storage.ListSweepRuns(ctx, limit)
}

// GetRun returns a single sweep run
func (s *Sweeper) GetRun(ctx context.Context, runID int64) (*storage.SweepRun, error) {
	return s.storage.GetSweepRun(ctx, runID)
}
