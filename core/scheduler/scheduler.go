package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Trigger enqueues a synchronization of the given period and returns the job id.
type Trigger func(ctx context.Context, month, year int) (string, error)

// Scheduler runs a Trigger for the current month on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a scheduler evaluated in loc. The expression is validated immediately.
func New(cfg Config, loc *time.Location, trigger Trigger, logger *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		trigger: trigger,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(cfg.Cron, s.Tick); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Cron, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Sync scheduler started", zap.Int("entries", len(s.cron.Entries())))
}

// Stop halts the schedule and waits for a running tick to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Tick enqueues a sync of the current month.
func (s *Scheduler) Tick() {
	now := s.now().In(s.loc)
	month, year := int(now.Month()), now.Year()

	id, err := s.trigger(context.Background(), month, year)
	if err != nil {
		s.logger.Error("Scheduled sync not started",
			zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return
	}
	s.logger.Info("Scheduled sync enqueued",
		zap.String("job_id", id), zap.Int("month", month), zap.Int("year", year))
}
