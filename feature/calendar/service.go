package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	cal "clinic-manager/core/calendar"
	"clinic-manager/core/jobs"
	"clinic-manager/core/logger"
	"clinic-manager/core/reconcile"

	"go.uber.org/zap"
)

// Job kinds tracked in the registry.
const (
	KindSync  = "sync"
	KindPurge = "purge"
)

var (
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrUnmanagedCalendar is returned when a purge targets a calendar outside the managed set.
	ErrUnmanagedCalendar = errors.New("calendar is not managed by this service")
)

// Options wires the service collaborators.
type Options struct {
	Engine    *reconcile.Engine
	Purger    *reconcile.Purger
	Directory *cal.Directory
	Registry  *jobs.Registry
	// Source feeds the ICS export; it is normally the engine's source.
	Source reconcile.Source
	// Events tunes event construction for the export.
	Events reconcile.Options
	// Context bounds background jobs; it should outlive requests.
	Context context.Context
}

// Service starts and tracks synchronization and purge jobs.
type Service struct {
	engine    *reconcile.Engine
	purger    *reconcile.Purger
	directory *cal.Directory
	registry  *jobs.Registry
	source    reconcile.Source
	events    reconcile.Options
	base      context.Context
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a new calendar service.
func NewService(opts Options, logger *zap.Logger) *Service {
	base := opts.Context
	if base == nil {
		base = context.Background()
	}
	if opts.Events.Location == nil {
		opts.Events.Location = time.UTC
	}
	return &Service{
		engine:    opts.Engine,
		purger:    opts.Purger,
		directory: opts.Directory,
		registry:  opts.Registry,
		source:    opts.Source,
		events:    opts.Events,
		base:      base,
		now:       time.Now,
		logger:    logger,
	}
}

// CurrentPeriod returns the current month and year in the clinic time zone.
func (s *Service) CurrentPeriod() (int, int) {
	now := s.now().In(s.events.Location)
	return int(now.Month()), now.Year()
}

// StartSync enqueues a synchronization of month/year and returns the job id.
// An invalid period or a run already in progress is rejected immediately;
// every other failure, including a missing studio calendar, fails the job.
func (s *Service) StartSync(ctx context.Context, month, year int, dryRun bool) (string, error) {
	if err := reconcile.ValidatePeriod(month, year); err != nil {
		return "", err
	}
	if !dryRun && s.engine.Running() {
		return "", reconcile.ErrRunInProgress
	}

	id := s.registry.Start(s.base, KindSync, func(ctx context.Context, rep *jobs.Reporter) error {
		log := logger.WithJob(s.logger, rep.ID(), KindSync)

		studios, err := s.directory.StudioCalendars(ctx)
		if err != nil {
			return fmt.Errorf("%w: cannot resolve studio calendars: %w", reconcile.ErrConfiguration, err)
		}

		res, err := s.engine.Run(ctx, reconcile.RunRequest{
			Month:           month,
			Year:            year,
			StudioCalendars: studios,
			DryRun:          dryRun,
		}, &jobObserver{rep: rep})
		if res != nil {
			for _, w := range res.Warnings {
				rep.Warn(w)
			}
		}
		if err != nil {
			rep.SetResult(res)
			return err
		}
		log.Info("Sync job finished", zap.String("message", res.Message))
		rep.Complete(res.Message, res)
		return nil
	})
	return id, nil
}

// SyncStatus returns the snapshot of a sync job.
func (s *Service) SyncStatus(id string) (jobs.Job, error) {
	return s.status(id, KindSync)
}

// StartPurge enqueues the deletion of every event of calendarID and of its
// sync state entries. Only managed calendars can be purged, and never while
// a synchronization holds the state.
func (s *Service) StartPurge(ctx context.Context, calendarID string) (string, error) {
	if calendarID == "" {
		return "", fmt.Errorf("%w: calendar id is required", ErrUnmanagedCalendar)
	}
	if s.engine != nil && s.engine.Running() {
		return "", reconcile.ErrRunInProgress
	}
	ok, err := s.directory.IsManaged(ctx, calendarID)
	if err != nil {
		return "", fmt.Errorf("failed to list calendars: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnmanagedCalendar, calendarID)
	}

	id := s.registry.Start(s.base, KindPurge, func(ctx context.Context, rep *jobs.Reporter) error {
		rep.Status(jobs.StatusRunning, "Counting events")
		res, err := s.purger.Purge(ctx, calendarID, func(deleted, total int) {
			rep.Progress(deleted, total, fmt.Sprintf("Deleted %d of %d events", deleted, total))
		})
		for _, w := range res.Warnings {
			rep.Warn(w)
		}
		if err != nil {
			rep.SetResult(res)
			return err
		}
		for _, e := range res.Errors {
			rep.Warn(e)
		}
		rep.Complete(res.Message, res)
		return nil
	})
	return id, nil
}

// PurgeStatus returns the snapshot of a purge job.
func (s *Service) PurgeStatus(id string) (jobs.Job, error) {
	return s.status(id, KindPurge)
}

// Calendars returns the managed calendars.
func (s *Service) Calendars(ctx context.Context) ([]cal.CalendarInfo, error) {
	return s.directory.Managed(ctx)
}

// RefreshCalendars drops the cached calendar list and reads it again.
func (s *Service) RefreshCalendars(ctx context.Context) ([]cal.CalendarInfo, error) {
	s.directory.Invalidate()
	return s.directory.Managed(ctx)
}

// PruneJobs removes finished jobs older than retention.
func (s *Service) PruneJobs(retention time.Duration) int {
	return s.registry.Prune(retention)
}

func (s *Service) status(id, kind string) (jobs.Job, error) {
	job, ok := s.registry.Get(id)
	if !ok || job.Kind != kind {
		return jobs.Job{}, ErrJobNotFound
	}
	return job, nil
}
