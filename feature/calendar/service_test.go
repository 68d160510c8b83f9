package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinic-manager/core/appointment"
	cal "clinic-manager/core/calendar"
	"clinic-manager/core/calendar/mocks"
	"clinic-manager/core/jobs"
	"clinic-manager/core/reconcile"
	"clinic-manager/core/syncstate"

	ical "github.com/arran4/golang-ical"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	gw       *mocks.Gateway
	registry *jobs.Registry
	locker   *syncstate.Locker
	store    *syncstate.Store
	feature  *Feature
	app      *fiber.App
}

func record(day, hour, minute, studio int, patient string) appointment.Record {
	return appointment.Record{
		Date:        appointment.Date{Year: 2025, Month: time.May, Day: day},
		Start:       appointment.At(hour, minute),
		End:         appointment.At(hour, minute+30),
		Studio:      studio,
		Doctor:      1,
		PatientName: patient,
		TypeCode:    "VIS",
	}
}

func newHarness(t *testing.T, records ...appointment.Record) *harness {
	t.Helper()
	gw := new(mocks.Gateway)
	gw.On("ListCalendars", mock.Anything).Return([]cal.CalendarInfo{
		{ID: "blu@group", Name: "Studio Blu"},
		{ID: "archive@group", Name: "Archive"},
		{ID: "private@group", Name: "Private"},
	}, nil).Maybe()

	source := reconcile.SourceFunc(func(context.Context, int, int) ([]appointment.Record, error) {
		return records, nil
	})
	store := syncstate.NewStore(syncstate.NewFileBackend(afero.NewMemMapFs(), "data/synced_events.json"), zap.NewNop())
	locker := syncstate.NewLocker()
	opts := reconcile.Options{Location: time.UTC, DefaultDuration: 10 * time.Minute, DailyNoteStudio: 1}
	registry := jobs.NewRegistry(zap.NewNop())

	feature := NewFeature(Options{
		Engine:    reconcile.NewEngine(source, gw, store, locker, opts, zap.NewNop()),
		Purger:    reconcile.NewPurger(gw, store, locker, zap.NewNop()),
		Directory: cal.NewDirectory(gw, cal.DirectoryOptions{StudioCalendars: map[int]string{1: "blu@group"}, Managed: []string{"archive@group"}}),
		Registry:  registry,
		Source:    source,
		Events:    opts,
	}, zap.NewNop())
	feature.Service().now = func() time.Time { return time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC) }

	app := fiber.New()
	require.NoError(t, feature.Load(app))

	return &harness{gw: gw, registry: registry, locker: locker, store: store, feature: feature, app: app}
}

func (h *harness) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func TestSync_CompletesJob(t *testing.T) {
	h := newHarness(t, record(12, 9, 0, 1, "Mario Rossi"))
	h.gw.On("InsertEvent", mock.Anything, "blu@group", mock.MatchedBy(func(b cal.EventBody) bool {
		return b.Summary == "Mario Rossi"
	})).Return("evt-1", nil).Once()

	resp, body := h.do(t, "POST", "/calendar/sync", SyncRequest{Month: 5, Year: 2025})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	id, _ := body["job_id"].(string)
	require.NotEmpty(t, id)

	h.registry.Wait()

	resp, job := h.do(t, "GET", "/calendar/sync/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", job["status"])
	assert.Equal(t, "sync", job["kind"])
	assert.EqualValues(t, 100, job["progress"])
	result := job["result"].(map[string]any)
	assert.EqualValues(t, 1, result["changed"])
	h.gw.AssertExpectations(t)

	state := h.store.Load(context.Background())
	assert.Len(t, state, 1)
}

func TestSync_DefaultsToCurrentMonth(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, "POST", "/calendar/sync", nil)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	h.registry.Wait()

	job, err := h.feature.Service().SyncStatus(body["job_id"].(string))
	require.NoError(t, err)
	res := job.Result.(*reconcile.Result)
	assert.Equal(t, 5, res.Month)
	assert.Equal(t, 2025, res.Year)
	assert.Equal(t, reconcile.NothingToSync, res.Message)
}

func TestSync_MissingStudioCalendarFailsJob(t *testing.T) {
	h := newHarness(t, record(12, 9, 0, 2, "Anna Verdi"))

	id, err := h.feature.Service().StartSync(context.Background(), 5, 2025, false)
	require.NoError(t, err)
	h.registry.Wait()

	job, err := h.feature.Service().SyncStatus(id)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "no calendar configured for studio 2")
	h.gw.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_InvalidPeriod(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, "POST", "/calendar/sync", SyncRequest{Month: 13, Year: 2025})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "month")
}

func TestSync_RunInProgress(t *testing.T) {
	h := newHarness(t)
	unlock, err := h.locker.TryLock(h.store.Key())
	require.NoError(t, err)
	defer unlock()

	resp, _ := h.do(t, "POST", "/calendar/sync", SyncRequest{Month: 5, Year: 2025})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// A dry run only reads.
	resp, _ = h.do(t, "POST", "/calendar/sync", SyncRequest{Month: 5, Year: 2025, DryRun: true})
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	h.registry.Wait()
}

func TestStatus_UnknownJob(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(t, "GET", "/calendar/sync/nope", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	id, err := h.feature.Service().StartSync(context.Background(), 5, 2025, true)
	require.NoError(t, err)
	h.registry.Wait()

	// A sync job is not visible as a purge.
	resp, _ = h.do(t, "GET", "/calendar/purge/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPurge_ManagedCalendar(t *testing.T) {
	h := newHarness(t)
	h.gw.On("ListEvents", mock.Anything, "archive@group", "").
		Return([]cal.Event{{ID: "a"}, {ID: "b"}}, "", nil)
	h.gw.On("DeleteEvent", mock.Anything, "archive@group", "a").Return(nil).Once()
	h.gw.On("DeleteEvent", mock.Anything, "archive@group", "b").Return(assert.AnError).Once()

	resp, body := h.do(t, "POST", "/calendar/purge", PurgeRequest{CalendarID: "archive@group"})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	h.registry.Wait()

	job, err := h.feature.Service().PurgeStatus(body["job_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, "Deleted 1 of 2 events, 1 could not be deleted", job.Message)
	assert.Len(t, job.Warnings, 1)
	res := job.Result.(*reconcile.PurgeResult)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Failed)
}

func TestPurge_ForgetsSyncState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Save(context.Background(), syncstate.State{
		"2025-05-12|09:00|1|Mario Rossi": {EventID: "a", CalendarID: "archive@group", Hash: "h", Month: 5, Year: 2025},
		"2025-05-13|09:00|1|Luca Bianchi": {EventID: "z", CalendarID: "blu@group", Hash: "h", Month: 5, Year: 2025},
	}))
	h.gw.On("ListEvents", mock.Anything, "archive@group", "").Return([]cal.Event{{ID: "a"}}, "", nil).Times(2)
	h.gw.On("ListEvents", mock.Anything, "archive@group", "").Return([]cal.Event{}, "", nil)
	h.gw.On("DeleteEvent", mock.Anything, "archive@group", "a").Return(nil).Once()

	id, err := h.feature.Service().StartPurge(context.Background(), "archive@group")
	require.NoError(t, err)
	h.registry.Wait()

	job, err := h.feature.Service().PurgeStatus(id)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, 1, job.Result.(*reconcile.PurgeResult).Forgotten)

	state := h.store.Load(context.Background())
	require.Len(t, state, 1)
	assert.Contains(t, state, "2025-05-13|09:00|1|Luca Bianchi")
}

func TestPurge_RunInProgress(t *testing.T) {
	h := newHarness(t)
	unlock, err := h.locker.TryLock(h.store.Key())
	require.NoError(t, err)
	defer unlock()

	resp, _ := h.do(t, "POST", "/calendar/purge", PurgeRequest{CalendarID: "archive@group"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	h.gw.AssertNotCalled(t, "ListEvents", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurge_UnmanagedCalendar(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, "POST", "/calendar/purge", PurgeRequest{CalendarID: "private@group"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "not managed")

	resp, _ = h.do(t, "POST", "/calendar/purge", PurgeRequest{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	h.gw.AssertNotCalled(t, "ListEvents", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurge_ListFailureFailsJob(t *testing.T) {
	h := newHarness(t)
	h.gw.On("ListEvents", mock.Anything, "blu@group", "").
		Return(nil, "", cal.NewError("list_events", cal.Permanent, assert.AnError))

	id, err := h.feature.Service().StartPurge(context.Background(), "blu@group")
	require.NoError(t, err)
	h.registry.Wait()

	job, err := h.feature.Service().PurgeStatus(id)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "failed to count events")
	assert.NotNil(t, job.Result)
}

func TestListCalendars(t *testing.T) {
	h := newHarness(t)

	resp, err := h.app.Test(httptest.NewRequest("GET", "/calendar/list?refresh=true", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cals []cal.CalendarInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cals))
	var ids []string
	for _, c := range cals {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"blu@group", "archive@group"}, ids)
}

func TestListCalendars_RemoteError(t *testing.T) {
	gw := new(mocks.Gateway)
	gw.On("ListCalendars", mock.Anything).Return(nil, cal.NewError("list_calendars", cal.Transient, assert.AnError))

	svc := NewService(Options{Directory: cal.NewDirectory(gw, cal.DirectoryOptions{})}, zap.NewNop())
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/calendar/list", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestExportICS(t *testing.T) {
	note := appointment.Record{Date: appointment.Date{Year: 2025, Month: time.May, Day: 3}, Description: "Order supplies"}
	undated := record(1, 9, 0, 1, "No Date")
	undated.Date = appointment.Date{}
	h := newHarness(t,
		record(12, 9, 0, 1, "Mario Rossi"),
		record(13, 10, 0, 2, "Anna Verdi"),
		note,
		undated,
	)

	resp, err := h.app.Test(httptest.NewRequest("GET", "/calendar/export.ics?month=5&year=2025", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "appointments-2025-05.ics")

	parsed, err := ical.ParseCalendar(resp.Body)
	require.NoError(t, err)
	events := parsed.Events()
	require.Len(t, events, 3)

	first := events[0]
	assert.Equal(t, "Mario Rossi", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, appointment.EventUID(record(12, 9, 0, 1, "Mario Rossi")), first.Id())
	start, err := first.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)))

	// Studio filter: the daily note belongs to the daily note studio.
	doc, err := h.feature.Service().ExportICS(context.Background(), 5, 2025, 1)
	require.NoError(t, err)
	parsed, err = ical.ParseCalendar(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, parsed.Events(), 2)
}

func TestExportICS_InvalidPeriod(t *testing.T) {
	h := newHarness(t)
	resp, err := h.app.Test(httptest.NewRequest("GET", "/calendar/export.ics?month=0&year=2025", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeature(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "calendar", h.feature.Name())
	assert.True(t, h.feature.IsEnabled())
	assert.False(t, NewFeature(Options{}, zap.NewNop()).IsEnabled())
}
