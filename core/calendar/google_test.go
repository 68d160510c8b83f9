package calendar_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinic-manager/core/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *calendar.GoogleGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gcal.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return calendar.NewGoogleGatewayFromService(svc, timeout, zap.NewNop())
}

func writeAPIError(w http.ResponseWriter, code int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": reason,
			"errors":  []map[string]string{{"reason": reason, "message": reason}},
		},
	})
}

func TestGoogleGateway_InsertEvent(t *testing.T) {
	var got gcal.Event
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/calendars/cal-1/events"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		assert.Contains(t, string(body), `"useDefault":false`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"evt-42"}`))
	}, time.Second)

	loc, _ := time.LoadLocation("Europe/Rome")
	start := time.Date(2025, 5, 12, 9, 0, 0, 0, loc)
	id, err := gw.InsertEvent(context.Background(), "cal-1", calendar.EventBody{
		Summary:       "Mario Rossi",
		Description:   "notes",
		Start:         start,
		End:           start.Add(10 * time.Minute),
		TimeZone:      "Europe/Rome",
		ColorID:       "7",
		AppointmentID: "2025-05-12|09:00|1|Mario Rossi",
	})

	require.NoError(t, err)
	assert.Equal(t, "evt-42", id)
	assert.Equal(t, "Mario Rossi", got.Summary)
	assert.Equal(t, "notes", got.Description)
	assert.Equal(t, "7", got.ColorId)
	assert.Equal(t, "2025-05-12T09:00:00+02:00", got.Start.DateTime)
	assert.Equal(t, "2025-05-12T09:10:00+02:00", got.End.DateTime)
	assert.Equal(t, "Europe/Rome", got.Start.TimeZone)
	require.NotNil(t, got.Reminders)
	assert.False(t, got.Reminders.UseDefault)
	assert.Equal(t, "2025-05-12|09:00|1|Mario Rossi", got.ExtendedProperties.Private["clinic_appointment_id"])
}

func TestGoogleGateway_InsertRateLimited(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusForbidden, "rateLimitExceeded")
	}, time.Second)

	_, err := gw.InsertEvent(context.Background(), "cal-1", calendar.EventBody{})
	require.Error(t, err)
	assert.Equal(t, calendar.RateLimited, calendar.KindOf(err))
}

func TestGoogleGateway_UpdateEvent(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/calendars/cal-1/events/evt-1"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"evt-1"}`))
	}, time.Second)

	id, err := gw.UpdateEvent(context.Background(), "cal-1", "evt-1", calendar.EventBody{Summary: "x"})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
}

func TestGoogleGateway_DeleteEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		}, time.Second)
		assert.NoError(t, gw.DeleteEvent(context.Background(), "cal-1", "evt-1"))
	})

	t.Run("NotFoundIsSuccess", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(w, http.StatusNotFound, "notFound")
		}, time.Second)
		assert.NoError(t, gw.DeleteEvent(context.Background(), "cal-1", "evt-1"))
	})

	t.Run("GoneIsSuccess", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(w, http.StatusGone, "deleted")
		}, time.Second)
		assert.NoError(t, gw.DeleteEvent(context.Background(), "cal-1", "evt-1"))
	})

	t.Run("ServerErrorIsTransient", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(w, http.StatusServiceUnavailable, "backendError")
		}, time.Second)
		err := gw.DeleteEvent(context.Background(), "cal-1", "evt-1")
		assert.Equal(t, calendar.Transient, calendar.KindOf(err))
	})
}

func TestGoogleGateway_ListEvents(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"items":[{"id":"a","summary":"A","start":{"dateTime":"2025-05-12T09:00:00Z"},"end":{"dateTime":"2025-05-12T09:10:00Z"}},{"id":"b","start":{"date":"2025-05-13"},"extendedProperties":{"private":{"clinic_appointment_id":"k"}}}],"nextPageToken":"p2"}`))
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("pageToken"))
		_, _ = w.Write([]byte(`{"items":[{"id":"c"}]}`))
	}, time.Second)

	events, next, err := gw.ListEvents(context.Background(), "cal-1", "")
	require.NoError(t, err)
	assert.Equal(t, "p2", next)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC), events[0].Start.UTC())
	assert.Equal(t, time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC), events[1].Start)
	assert.Equal(t, "k", events[1].AppointmentID)

	events, next, err = gw.ListEvents(context.Background(), "cal-1", "p2")
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Len(t, events, 1)
}

func TestGoogleGateway_ListCalendars(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/calendarList"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"items":[{"id":"blu@group","summary":"Studio Blu","accessRole":"owner"}],"nextPageToken":"n"}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"me","summary":"Me","primary":true}]}`))
	}, time.Second)

	list, err := gw.ListCalendars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []calendar.CalendarInfo{
		{ID: "blu@group", Name: "Studio Blu", AccessRole: "owner"},
		{ID: "me", Name: "Me", Primary: true},
	}, list)
}

func TestGoogleGateway_CallTimeoutIsTransient(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 20*time.Millisecond)

	_, err := gw.InsertEvent(context.Background(), "cal-1", calendar.EventBody{})
	require.Error(t, err)
	assert.Equal(t, calendar.Transient, calendar.KindOf(err))
}
