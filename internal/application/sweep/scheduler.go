package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

// Scheduler runs the sweep on a cron schedule
type Scheduler struct {
	sweeper  *Sweeper
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewScheduler validates schedule (standard cron with seconds, or descriptors
// such as "@every 1h" and "@hourly") and prepares a scheduler
func NewScheduler(sweeper *Sweeper, schedule string, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	s := &Scheduler{
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		cron:     cron.New(),
	}
	if err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running sweeps in the background
func (s *Scheduler) Start() {
	s.logger.Info("Sweep scheduler started", "schedule", s.schedule)
	s.cron.Start()
}

// Stop halts the schedule. A sweep already running is not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Sweep scheduler stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.sweeper.Run(ctx); err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			s.logger.Debug("Scheduled sweep skipped, another run holds the lock")
			return
		}
		s.logger.Error("Scheduled sweep failed", "error", err)
	}
}
