package application

import (
	"context"
	"log/slog"
	"time"

	dues "amicale-backend/internal/dues/domain"
)

// Scheduler runs the full reconciliation and overdue marking once a day.
type Scheduler struct {
	service     *ReconcileService
	dailyAt     string
	graceMonths int
	logger      *slog.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(service *ReconcileService, dailyAt string, graceMonths int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		service:     service,
		dailyAt:     dailyAt,
		graceMonths: graceMonths,
		logger:      logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.service == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.runOnce(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func (s *Scheduler) runOnce(ctx context.Context, now time.Time) {
	if _, err := s.service.Run(ctx, "", false); err != nil {
		s.logger.Error("scheduled reconciliation failed", "error", err)
	}
	cutoff := dues.PeriodOf(now.AddDate(0, -s.graceMonths, 0))
	if _, err := s.service.MarkOverdue(ctx, cutoff); err != nil {
		s.logger.Error("scheduled overdue marking failed", "error", err)
	}
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
