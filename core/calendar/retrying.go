package calendar

import (
	"context"

	"clinic-manager/core/retry"

	"go.uber.org/zap"
)

// RetryingGateway applies one retry policy to every call of the wrapped gateway.
type RetryingGateway struct {
	next   Gateway
	policy retry.Policy
	logger *zap.Logger
}

// NewRetryingGateway wraps next. A policy without a Retryable predicate
// retries transient and rate limited failures.
func NewRetryingGateway(next Gateway, policy retry.Policy, logger *zap.Logger) *RetryingGateway {
	if policy.Retryable == nil {
		policy.Retryable = IsRetryable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingGateway{next: next, policy: policy, logger: logger}
}

func (g *RetryingGateway) do(ctx context.Context, op, calendarID string, fn func(ctx context.Context) error) error {
	p := g.policy
	p.OnRetry = func(attempt int, err error) {
		g.logger.Warn("Calendar call failed, retrying",
			zap.String("op", op),
			zap.String("calendar_id", calendarID),
			zap.String("kind", KindOf(err).String()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Error(err),
		)
	}
	return p.Do(ctx, fn)
}

// InsertEvent inserts with retries.
func (g *RetryingGateway) InsertEvent(ctx context.Context, calendarID string, body EventBody) (string, error) {
	var id string
	err := g.do(ctx, "insert_event", calendarID, func(ctx context.Context) error {
		var err error
		id, err = g.next.InsertEvent(ctx, calendarID, body)
		return err
	})
	return id, err
}

// UpdateEvent updates with retries.
func (g *RetryingGateway) UpdateEvent(ctx context.Context, calendarID, eventID string, body EventBody) (string, error) {
	var id string
	err := g.do(ctx, "update_event", calendarID, func(ctx context.Context) error {
		var err error
		id, err = g.next.UpdateEvent(ctx, calendarID, eventID, body)
		return err
	})
	return id, err
}

// DeleteEvent deletes with retries. NotFound is success.
func (g *RetryingGateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := g.do(ctx, "delete_event", calendarID, func(ctx context.Context) error {
		return g.next.DeleteEvent(ctx, calendarID, eventID)
	})
	if IsNotFound(err) {
		return nil
	}
	return err
}

// ListEvents lists one page with retries.
func (g *RetryingGateway) ListEvents(ctx context.Context, calendarID, pageToken string) ([]Event, string, error) {
	var (
		events []Event
		next   string
	)
	err := g.do(ctx, "list_events", calendarID, func(ctx context.Context) error {
		var err error
		events, next, err = g.next.ListEvents(ctx, calendarID, pageToken)
		return err
	})
	return events, next, err
}

// ListCalendars lists calendars with retries.
func (g *RetryingGateway) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var out []CalendarInfo
	err := g.do(ctx, "list_calendars", "", func(ctx context.Context) error {
		var err error
		out, err = g.next.ListCalendars(ctx)
		return err
	})
	return out, err
}
