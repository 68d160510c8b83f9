package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"clinic-manager/core/appointment"
	"clinic-manager/core/calendar"
	"clinic-manager/core/retry"
	"clinic-manager/core/syncstate"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// fakeGateway is an in-memory remote calendar.
type fakeGateway struct {
	mu       sync.Mutex
	events   map[string]map[string]calendar.EventBody
	seq      int
	pageSize int
	calls    []string

	// insertErrs are returned, in order, by the next InsertEvent calls.
	insertErrs []error
	// deleteErrs are returned by DeleteEvent for the given event id.
	deleteErrs map[string]error
	// listErr is returned by every ListEvents call when set.
	listErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		events:     make(map[string]map[string]calendar.EventBody),
		deleteErrs: make(map[string]error),
		pageSize:   2,
	}
}

func (f *fakeGateway) InsertEvent(_ context.Context, calendarID string, body calendar.EventBody) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "insert:"+calendarID)
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.seq++
	id := fmt.Sprintf("evt-%d", f.seq)
	if f.events[calendarID] == nil {
		f.events[calendarID] = make(map[string]calendar.EventBody)
	}
	f.events[calendarID][id] = body
	return id, nil
}

func (f *fakeGateway) UpdateEvent(_ context.Context, calendarID, eventID string, body calendar.EventBody) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update:"+eventID)
	if _, ok := f.events[calendarID][eventID]; !ok {
		return "", calendar.NewError("update_event", calendar.NotFound, errors.New("404"))
	}
	f.events[calendarID][eventID] = body
	return eventID, nil
}

func (f *fakeGateway) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+eventID)
	if err, ok := f.deleteErrs[eventID]; ok {
		return err
	}
	if _, ok := f.events[calendarID][eventID]; !ok {
		return calendar.NewError("delete_event", calendar.NotFound, errors.New("404"))
	}
	delete(f.events[calendarID], eventID)
	return nil
}

func (f *fakeGateway) ListEvents(_ context.Context, calendarID, pageToken string) ([]calendar.Event, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list:"+pageToken)
	if f.listErr != nil {
		return nil, "", f.listErr
	}

	ids := make([]string, 0, len(f.events[calendarID]))
	for id := range f.events[calendarID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "page-%d", &start)
	}
	if start > len(ids) {
		start = len(ids)
	}
	end := start + f.pageSize
	next := fmt.Sprintf("page-%d", end)
	if end >= len(ids) {
		end = len(ids)
		next = ""
	}

	out := make([]calendar.Event, 0, end-start)
	for _, id := range ids[start:end] {
		body := f.events[calendarID][id]
		out = append(out, calendar.Event{ID: id, Summary: body.Summary, Start: body.Start, End: body.End})
	}
	return out, next, nil
}

func (f *fakeGateway) ListCalendars(context.Context) ([]calendar.CalendarInfo, error) {
	return []calendar.CalendarInfo{{ID: "blu@group", Name: "Studio Blu"}, {ID: "giallo@group", Name: "Studio Giallo"}}, nil
}

func (f *fakeGateway) count(calendarID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events[calendarID])
}

func (f *fakeGateway) body(calendarID, eventID string) (calendar.EventBody, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.events[calendarID][eventID]
	return b, ok
}

func (f *fakeGateway) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeGateway) resetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

// noSleep is a retry policy that never waits.
func noSleep(maxAttempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: maxAttempts,
		Cooldown:    5 * time.Second,
		Pacing:      50 * time.Millisecond,
		Sleep:       func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	}
}

// recordingObserver stores every update.
type recordingObserver struct {
	mu       sync.Mutex
	phases   []Phase
	progress []Progress
	onProg   func(Progress)
}

func (o *recordingObserver) OnPhase(p Phase, _ string) {
	o.mu.Lock()
	o.phases = append(o.phases, p)
	o.mu.Unlock()
}

func (o *recordingObserver) OnProgress(p Progress) {
	o.mu.Lock()
	o.progress = append(o.progress, p)
	o.mu.Unlock()
	if o.onProg != nil {
		o.onProg(p)
	}
}

var rome, _ = time.LoadLocation("Europe/Rome")

var fixedNow = time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		Location:        rome,
		DefaultDuration: 10 * time.Minute,
		DailyNoteStudio: 1,
		Now:             func() time.Time { return fixedNow },
	}
}

var studioCalendars = map[int]string{1: "blu@group", 2: "giallo@group"}

func mayRequest() RunRequest {
	return RunRequest{Month: 5, Year: 2025, StudioCalendars: studioCalendars}
}

func record(day, hour, minute, studio int, patient string) appointment.Record {
	return appointment.Record{
		Date:        appointment.Date{Year: 2025, Month: time.May, Day: day},
		Start:       appointment.At(hour, minute),
		End:         appointment.At(hour, minute+30),
		Studio:      studio,
		Doctor:      1,
		PatientName: patient,
		Description: "Visit",
		Notes:       "first notes",
		TypeCode:    "VIS",
	}
}

// harness wires an engine over the fake gateway and an in-memory state file.
type harness struct {
	gateway *fakeGateway
	fs      afero.Fs
	store   *syncstate.Store
	locker  *syncstate.Locker
	records []appointment.Record
	srcErr  error
	engine  *Engine
}

func newHarness(records ...appointment.Record) *harness {
	h := &harness{
		gateway: newFakeGateway(),
		fs:      afero.NewMemMapFs(),
		locker:  syncstate.NewLocker(),
		records: records,
	}
	h.store = syncstate.NewStore(syncstate.NewFileBackend(h.fs, "data/synced_events.json"), zap.NewNop())
	h.engine = h.build(calendar.NewRetryingGateway(h.gateway, noSleep(5), zap.NewNop()))
	return h
}

func (h *harness) build(gw calendar.Gateway) *Engine {
	source := SourceFunc(func(ctx context.Context, month, year int) ([]appointment.Record, error) {
		if h.srcErr != nil {
			return nil, h.srcErr
		}
		out := make([]appointment.Record, 0, len(h.records))
		for _, r := range h.records {
			if (int(r.Date.Month) == month && r.Date.Year == year) || r.Date.IsZero() {
				out = append(out, r)
			}
		}
		return out, nil
	})
	return NewEngine(source, gw, h.store, h.locker, testOptions(), zap.NewNop())
}

func (h *harness) state() syncstate.State {
	return h.store.Load(context.Background())
}

// purger returns a purger sharing the harness state and run lock.
func (h *harness) purger() *Purger {
	return NewPurger(h.gateway, h.store, h.locker, zap.NewNop())
}
