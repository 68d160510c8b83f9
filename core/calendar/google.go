package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	appointmentProperty = "clinic_appointment_id"
	listPageSize        = 250
)

// GoogleGateway implements Gateway over the Google Calendar v3 API.
type GoogleGateway struct {
	service *gcal.Service
	timeout time.Duration
	logger  *zap.Logger
}

// NewGoogleGateway builds a gateway authenticated with the configured
// credentials file. Extra client options are appended after the credentials.
func NewGoogleGateway(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*GoogleGateway, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar credentials: %w", err)
	}

	clientOpts := append([]option.ClientOption{option.WithCredentials(creds)}, opts...)
	service, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return NewGoogleGatewayFromService(service, cfg.CallTimeout(), logger), nil
}

// NewGoogleGatewayFromService wraps an existing calendar service.
func NewGoogleGatewayFromService(service *gcal.Service, timeout time.Duration, logger *zap.Logger) *GoogleGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleGateway{service: service, timeout: timeout, logger: logger}
}

func (g *GoogleGateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// InsertEvent creates an event on calendarID.
func (g *GoogleGateway) InsertEvent(ctx context.Context, calendarID string, body EventBody) (string, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	ev, err := g.service.Events.Insert(calendarID, toGoogleEvent(body)).Context(ctx).Do()
	if err != nil {
		return "", classify("insert_event", err)
	}
	return ev.Id, nil
}

// UpdateEvent replaces eventID on calendarID with body.
func (g *GoogleGateway) UpdateEvent(ctx context.Context, calendarID, eventID string, body EventBody) (string, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	ev, err := g.service.Events.Update(calendarID, eventID, toGoogleEvent(body)).Context(ctx).Do()
	if err != nil {
		return "", classify("update_event", err)
	}
	return ev.Id, nil
}

// DeleteEvent removes eventID from calendarID. A missing event is success.
func (g *GoogleGateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	err := classify("delete_event", g.service.Events.Delete(calendarID, eventID).Context(ctx).Do())
	if IsNotFound(err) {
		g.logger.Debug("Event already deleted",
			zap.String("calendar_id", calendarID),
			zap.String("event_id", eventID),
		)
		return nil
	}
	return err
}

// ListEvents returns one page of events of calendarID.
func (g *GoogleGateway) ListEvents(ctx context.Context, calendarID, pageToken string) ([]Event, string, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	call := g.service.Events.List(calendarID).
		MaxResults(listPageSize).
		ShowDeleted(false).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	res, err := call.Do()
	if err != nil {
		return nil, "", classify("list_events", err)
	}

	events := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, fromGoogleEvent(item))
	}
	return events, res.NextPageToken, nil
}

// ListCalendars returns every calendar on the account's calendar list.
func (g *GoogleGateway) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	var out []CalendarInfo
	pageToken := ""
	for {
		call := g.service.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, classify("list_calendars", err)
		}
		for _, item := range res.Items {
			out = append(out, CalendarInfo{
				ID:         item.Id,
				Name:       item.Summary,
				Primary:    item.Primary,
				AccessRole: item.AccessRole,
			})
		}
		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
}

func toGoogleEvent(body EventBody) *gcal.Event {
	ev := &gcal.Event{
		Summary:     body.Summary,
		Description: body.Description,
		Start: &gcal.EventDateTime{
			DateTime: body.Start.Format(time.RFC3339),
			TimeZone: body.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: body.End.Format(time.RFC3339),
			TimeZone: body.TimeZone,
		},
		ColorId: body.ColorID,
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if body.AppointmentID != "" {
		ev.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{appointmentProperty: body.AppointmentID},
		}
	}
	return ev
}

func fromGoogleEvent(item *gcal.Event) Event {
	ev := Event{
		ID:      item.Id,
		Summary: item.Summary,
		Status:  item.Status,
	}
	if item.Start != nil {
		ev.Start = parseEventTime(item.Start)
	}
	if item.End != nil {
		ev.End = parseEventTime(item.End)
	}
	if item.ExtendedProperties != nil {
		ev.AppointmentID = item.ExtendedProperties.Private[appointmentProperty]
	}
	return ev
}

func parseEventTime(dt *gcal.EventDateTime) time.Time {
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	}
	if dt.Date != "" {
		if t, err := time.Parse("2006-01-02", dt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
