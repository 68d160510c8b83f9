package reconcile

import (
	"context"
	"fmt"

	"clinic-manager/core/calendar"
	"clinic-manager/core/syncstate"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Engine runs incremental synchronizations of a period.
type Engine struct {
	source  Source
	gateway calendar.Gateway
	store   *syncstate.Store
	locker  *syncstate.Locker
	opts    Options
	logger  *zap.Logger
	inst    *instruments
}

// NewEngine creates an engine. gateway should already apply the retry
// policy. locker may be nil when runs are serialized elsewhere.
func NewEngine(source Source, gateway calendar.Gateway, store *syncstate.Store, locker *syncstate.Locker, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source:  source,
		gateway: gateway,
		store:   store,
		locker:  locker,
		opts:    opts.withDefaults(),
		logger:  logger,
		inst:    newInstruments(),
	}
}

// Running reports whether a run currently holds the state lock.
func (e *Engine) Running() bool {
	return e.locker != nil && e.locker.Held(e.store.Key())
}

// Plan builds the plan of req without touching the remote calendar or the state.
func (e *Engine) Plan(ctx context.Context, req RunRequest) (*Plan, error) {
	if err := ValidatePeriod(req.Month, req.Year); err != nil {
		return nil, err
	}
	records, err := e.source.Appointments(ctx, req.Month, req.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	return BuildPlan(records, e.store.Load(ctx), req, e.opts)
}

// Run synchronizes req's period. Run-level failures (invalid period or
// studio map, unreadable source, concurrent run) are returned as errors
// together with a result carrying the failure message. Per-item failures
// only show up in the result.
func (e *Engine) Run(ctx context.Context, req RunRequest, obs Observer) (*Result, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	res := &Result{Month: req.Month, Year: req.Year, DryRun: req.DryRun, Errors: []string{}, Warnings: []string{}}

	ctx, span := e.inst.tracer.Start(ctx, "sync.run", trace.WithAttributes(
		attribute.Int("sync.month", req.Month),
		attribute.Int("sync.year", req.Year),
		attribute.Bool("sync.dry_run", req.DryRun),
	))
	defer span.End()

	log := e.logger.With(zap.Int("month", req.Month), zap.Int("year", req.Year), zap.Bool("dry_run", req.DryRun))

	fail := func(err error) (*Result, error) {
		res.Message = err.Error()
		obs.OnPhase(PhaseFailed, res.Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		add(ctx, e.inst.runs, 1, attribute.String("outcome", "failed"))
		log.Error("Synchronization failed", zap.Error(err))
		return res, err
	}

	if err := ValidatePeriod(req.Month, req.Year); err != nil {
		return fail(err)
	}

	if e.locker != nil && !req.DryRun {
		unlock, err := e.locker.TryLock(e.store.Key())
		if err != nil {
			return fail(err)
		}
		defer unlock()
	}

	obs.OnPhase(PhaseAnalyzing, fmt.Sprintf("Analyzing appointments for %02d/%d", req.Month, req.Year))
	records, err := e.source.Appointments(ctx, req.Month, req.Year)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrSourceRead, err))
	}
	state := e.store.Load(ctx)

	plan, err := BuildPlan(records, state, req, e.opts)
	if err != nil {
		return fail(err)
	}

	res.TotalProcessed = len(records)
	res.AnalysisFailures = len(plan.Failures)
	for _, f := range plan.Failures {
		log.Warn("Appointment cannot be synchronized", zap.Int("index", f.Index), zap.String("id", f.ID), zap.String("reason", f.Reason))
	}
	log.Info("Synchronization plan built",
		zap.Int("records", plan.Summary.Records),
		zap.Int("create", plan.Summary.Create),
		zap.Int("recreate", plan.Summary.Recreate),
		zap.Int("unchanged", plan.Summary.Unchanged),
		zap.Int("delete", plan.Summary.Delete),
		zap.Int("failures", plan.Summary.Failures),
	)

	if req.DryRun {
		res.Changed = plan.Summary.Create + plan.Summary.Recreate
		res.Created = plan.Summary.Create
		res.Recreated = plan.Summary.Recreate
		res.Deleted = plan.Summary.Delete
		res.Unchanged = plan.Summary.Unchanged
		res.Message = "Dry run: " + summaryMessage(res)
		obs.OnPhase(PhaseCompleted, res.Message)
		return res, nil
	}

	// The plan was built from this state; mutate a private copy from now on.
	state = state.Clone()

	obs.OnPhase(PhaseApplying, fmt.Sprintf("Applying %d appointments", len(plan.Items)))
	cancelled := e.apply(ctx, plan, state, res, obs, log)

	if cancelled == nil {
		obs.OnPhase(PhasePruning, fmt.Sprintf("Removing %d stale events", len(plan.Stale)))
		cancelled = e.prune(ctx, plan, state, res, obs, log)
	}

	obs.OnPhase(PhasePersisting, "Saving synchronization state")
	// Persist even when cancelled: remote mutations already happened.
	if err := e.store.Save(context.WithoutCancel(ctx), state); err != nil {
		warning := fmt.Sprintf("sync state not saved: %v", err)
		res.Warnings = append(res.Warnings, warning)
		log.Error("Failed to persist sync state", zap.Error(err))
	}

	add(ctx, e.inst.changed, res.Changed)
	add(ctx, e.inst.deleted, res.Deleted)
	add(ctx, e.inst.skipped, res.Skipped)

	if cancelled != nil {
		return fail(fmt.Errorf("synchronization interrupted after %d changes: %w", res.Changed, cancelled))
	}

	res.Message = summaryMessage(res)
	obs.OnPhase(PhaseCompleted, res.Message)
	add(ctx, e.inst.runs, 1, attribute.String("outcome", "completed"))
	log.Info("Synchronization completed",
		zap.Int("changed", res.Changed),
		zap.Int("deleted", res.Deleted),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// apply processes plan items in source order. It returns the context error
// when the run was cancelled between items.
func (e *Engine) apply(ctx context.Context, plan *Plan, state syncstate.State, res *Result, obs Observer, log *zap.Logger) error {
	total := len(plan.Items)
	for i, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch item.Action {
		case ActionNone:
			res.Unchanged++
		case ActionCreate:
			if e.insert(ctx, item, plan, state, res, log) {
				res.Created++
			}
		case ActionRecreate:
			if e.recreate(ctx, item, plan, state, res, log) {
				res.Recreated++
			}
		}

		obs.OnProgress(Progress{
			Processed: i + 1,
			Changed:   res.Changed,
			Total:     total,
			Message:   fmt.Sprintf("Processed %d/%d appointments, %d changed", i+1, total, res.Changed),
		})
	}
	return nil
}

// insert creates item's event and records it. It reports whether it succeeded.
func (e *Engine) insert(ctx context.Context, item Item, plan *Plan, state syncstate.State, res *Result, log *zap.Logger) bool {
	body := BuildEvent(item.Record, e.opts.Location, e.opts.DefaultDuration)
	eventID, err := e.gateway.InsertEvent(ctx, item.CalendarID, body)
	if err != nil {
		res.Skipped++
		res.Errors = append(res.Errors, fmt.Sprintf("%s: insert failed: %v", item.ID, err))
		log.Warn("Failed to create event",
			zap.String("id", item.ID),
			zap.String("calendar_id", item.CalendarID),
			zap.String("kind", calendar.KindOf(err).String()),
			zap.Error(err),
		)
		return false
	}

	state[item.ID] = newEntry(item, eventID, plan.Month, plan.Year, e.opts.Now())
	res.Changed++
	return true
}

// recreate deletes the previous event and inserts the new one.
func (e *Engine) recreate(ctx context.Context, item Item, plan *Plan, state syncstate.State, res *Result, log *zap.Logger) bool {
	prev := item.Previous
	prevCalendar := prev.CalendarID
	if prevCalendar == "" {
		prevCalendar = item.CalendarID
	}
	deleteErr := e.gateway.DeleteEvent(ctx, prevCalendar, prev.EventID)
	if deleteErr != nil {
		log.Warn("Failed to delete previous event",
			zap.String("id", item.ID),
			zap.String("event_id", prev.EventID),
			zap.Error(deleteErr),
		)
	}

	if !e.insert(ctx, item, plan, state, res, log) {
		if deleteErr == nil {
			// The old event is gone and no new one exists.
			delete(state, item.ID)
		}
		return false
	}

	if deleteErr != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: previous event %s could not be deleted and may be duplicated: %v", item.ID, prev.EventID, deleteErr))
	}
	return true
}

// prune deletes the events of stale entries of the period.
func (e *Engine) prune(ctx context.Context, plan *Plan, state syncstate.State, res *Result, obs Observer, log *zap.Logger) error {
	total := len(plan.Stale)
	for i, stale := range plan.Stale {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.gateway.DeleteEvent(ctx, stale.Entry.CalendarID, stale.Entry.EventID); err != nil && !calendar.IsNotFound(err) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: delete failed: %v", stale.ID, err))
			log.Warn("Failed to delete stale event",
				zap.String("id", stale.ID),
				zap.String("event_id", stale.Entry.EventID),
				zap.Error(err),
			)
		} else {
			delete(state, stale.ID)
			res.Deleted++
		}

		obs.OnProgress(Progress{
			Processed: i + 1,
			Changed:   res.Changed,
			Total:     total,
			Message:   fmt.Sprintf("Removed %d/%d stale events", res.Deleted, total),
		})
	}
	return nil
}

func summaryMessage(res *Result) string {
	var msg string
	if res.Changed == 0 && res.Deleted == 0 {
		msg = NothingToSync
	} else {
		msg = fmt.Sprintf("Synchronized %d appointments: %d changed, %d deleted, %d unchanged.",
			res.TotalProcessed, res.Changed, res.Deleted, res.Unchanged)
	}
	if res.Skipped > 0 {
		msg += fmt.Sprintf(" %d skipped after errors.", res.Skipped)
	}
	if res.AnalysisFailures > 0 {
		msg += fmt.Sprintf(" %d could not be analyzed.", res.AnalysisFailures)
	}
	return msg
}
