package calendar

import (
	"context"
	"time"
)

// Gateway is the remote calendar capability used by the engine.
type Gateway interface {
	// InsertEvent creates an event and returns its remote id.
	InsertEvent(ctx context.Context, calendarID string, body EventBody) (string, error)
	// UpdateEvent replaces an event and returns its remote id.
	UpdateEvent(ctx context.Context, calendarID, eventID string, body EventBody) (string, error)
	// DeleteEvent removes an event. An event that is already gone is not an error.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	// ListEvents returns one page of events and the token of the next page, empty on the last one.
	ListEvents(ctx context.Context, calendarID, pageToken string) ([]Event, string, error)
	// ListCalendars returns every calendar visible to the account.
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
}

// EventBody is the full content written for an event on create or update.
type EventBody struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// TimeZone is the IANA zone name attached to Start and End.
	TimeZone string
	// ColorID is the remote color tag.
	ColorID string
	// AppointmentID is stored as a private property so events can be traced back.
	AppointmentID string
}

// Event is an event as read back from the remote calendar.
type Event struct {
	ID            string
	Summary       string
	Start         time.Time
	End           time.Time
	Status        string
	AppointmentID string
}

// CalendarInfo describes a remote calendar.
type CalendarInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Primary    bool   `json:"primary"`
	AccessRole string `json:"access_role"`
}
