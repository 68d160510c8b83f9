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

// PurgeResult summarizes a calendar purge.
type PurgeResult struct {
	CalendarID string   `json:"calendar_id"`
	Total      int      `json:"total"`
	Deleted    int      `json:"deleted"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
	// Forgotten counts the sync state entries dropped with their events.
	Forgotten int    `json:"forgotten"`
	Message   string `json:"message"`
}

// PurgeProgress receives (deleted so far, estimated total).
type PurgeProgress func(deleted, total int)

// Purger deletes every event of a calendar and forgets the matching sync
// state entries.
type Purger struct {
	gateway calendar.Gateway
	store   *syncstate.Store
	locker  *syncstate.Locker
	logger  *zap.Logger
	inst    *instruments
}

// NewPurger creates a purger. gateway should already apply the retry policy.
// store is the state shared with the engine and locker its run lock; with a
// nil store the sync state is not touched.
func NewPurger(gateway calendar.Gateway, store *syncstate.Store, locker *syncstate.Locker, logger *zap.Logger) *Purger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Purger{gateway: gateway, store: store, locker: locker, logger: logger, inst: newInstruments()}
}

// Purge counts the events of calendarID, then deletes them page by page.
// Listing failures abort the purge; individual delete failures are counted
// and the event is left in place. State entries of deleted events are
// removed even when the purge stops early, so a later sync recreates them.
func (p *Purger) Purge(ctx context.Context, calendarID string, progress PurgeProgress) (*PurgeResult, error) {
	if progress == nil {
		progress = func(int, int) {}
	}
	res := &PurgeResult{CalendarID: calendarID, Errors: []string{}, Warnings: []string{}}
	log := p.logger.With(zap.String("calendar_id", calendarID))

	if p.store != nil && p.locker != nil {
		unlock, err := p.locker.TryLock(p.store.Key())
		if err != nil {
			return res, err
		}
		defer unlock()
	}

	ctx, span := p.inst.tracer.Start(ctx, "purge.run", trace.WithAttributes(attribute.String("purge.calendar_id", calendarID)))
	defer span.End()

	deleted := make(map[string]struct{})
	failed := make(map[string]struct{})
	complete := false
	defer func() {
		p.forget(ctx, calendarID, deleted, failed, complete, res, log)
	}()

	total, err := p.count(ctx, calendarID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, fmt.Errorf("failed to count events: %w", err)
	}
	res.Total = total
	log.Info("Purging calendar", zap.Int("events", total))
	progress(0, total)

	// Deleted and failed ids; a lagging listing may return them again.
	handled := make(map[string]struct{})
	pageToken := ""
	for {
		if err := ctx.Err(); err != nil {
			res.Message = fmt.Sprintf("Purge interrupted after deleting %d events", res.Deleted)
			return res, err
		}

		events, next, err := p.gateway.ListEvents(ctx, calendarID, pageToken)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			res.Message = fmt.Sprintf("Purge stopped after deleting %d events", res.Deleted)
			return res, fmt.Errorf("failed to list events: %w", err)
		}

		deletedOnPage := 0
		for _, ev := range events {
			if _, skip := handled[ev.ID]; skip {
				continue
			}
			if err := ctx.Err(); err != nil {
				break
			}
			handled[ev.ID] = struct{}{}
			if err := p.gateway.DeleteEvent(ctx, calendarID, ev.ID); err != nil {
				failed[ev.ID] = struct{}{}
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", ev.ID, err))
				log.Warn("Failed to delete event", zap.String("event_id", ev.ID), zap.Error(err))
				continue
			}
			deleted[ev.ID] = struct{}{}
			res.Deleted++
			deletedOnPage++
			progress(res.Deleted, max(total, res.Deleted))
		}

		// Deletions shift later pages, so start over once anything moved.
		if deletedOnPage > 0 {
			pageToken = ""
			continue
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	complete = true

	add(ctx, p.inst.purged, res.Deleted, attribute.String("calendar_id", calendarID))
	res.Message = fmt.Sprintf("Deleted %d of %d events", res.Deleted, res.Total)
	if res.Failed > 0 {
		res.Message += fmt.Sprintf(", %d could not be deleted", res.Failed)
	}
	log.Info("Calendar purged", zap.Int("deleted", res.Deleted), zap.Int("failed", res.Failed))
	return res, nil
}

// forget drops the state entries whose events this purge removed. After a
// complete purge every entry of calendarID goes, except those whose delete
// failed and whose event therefore still exists.
func (p *Purger) forget(ctx context.Context, calendarID string, deleted, failed map[string]struct{}, complete bool, res *PurgeResult, log *zap.Logger) {
	if p.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	state := p.store.Load(ctx).Clone()

	for id, e := range state {
		_, gone := deleted[e.EventID]
		if !gone && complete && e.CalendarID == calendarID {
			_, stuck := failed[e.EventID]
			gone = !stuck
		}
		if gone {
			delete(state, id)
			res.Forgotten++
		}
	}
	if res.Forgotten == 0 {
		return
	}

	if err := p.store.Save(ctx, state); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("sync state not saved: %v", err))
		log.Error("Failed to persist sync state after purge", zap.Error(err))
		return
	}
	log.Info("Sync state entries forgotten", zap.Int("entries", res.Forgotten))
}

func (p *Purger) count(ctx context.Context, calendarID string) (int, error) {
	total := 0
	pageToken := ""
	for {
		events, next, err := p.gateway.ListEvents(ctx, calendarID, pageToken)
		if err != nil {
			return 0, err
		}
		total += len(events)
		if next == "" {
			return total, nil
		}
		pageToken = next
	}
}
