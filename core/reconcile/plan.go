package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"clinic-manager/core/appointment"
	"clinic-manager/core/syncstate"
)

// Item is the planned handling of one source appointment.
type Item struct {
	// Index is the position of the record in the source.
	Index      int                `json:"index"`
	ID         string             `json:"id"`
	Hash       string             `json:"hash"`
	CalendarID string             `json:"calendar_id"`
	Action     ActionType         `json:"action"`
	Reason     string             `json:"reason,omitempty"`
	Record     appointment.Record `json:"-"`
	Previous   *syncstate.Entry   `json:"-"`
}

// Stale is a state entry of the period whose appointment disappeared.
type Stale struct {
	ID    string          `json:"id"`
	Entry syncstate.Entry `json:"-"`
}

// AnalysisFailure is a source record that cannot be synchronized.
type AnalysisFailure struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Plan is the diff between a period's appointments and the sync state.
type Plan struct {
	Month    int               `json:"month"`
	Year     int               `json:"year"`
	Items    []Item            `json:"items"`
	Stale    []Stale           `json:"stale"`
	Failures []AnalysisFailure `json:"failures"`
	Summary  PlanSummary       `json:"summary"`
}

// PlanSummary provides aggregate counts for a plan.
type PlanSummary struct {
	// Records is the number of records yielded by the source.
	Records   int `json:"records"`
	Create    int `json:"create"`
	Recreate  int `json:"recreate"`
	Unchanged int `json:"unchanged"`
	Delete    int `json:"delete"`
	Failures  int `json:"failures"`
}

// Changes returns the number of remote mutations the plan implies.
func (s PlanSummary) Changes() int {
	return s.Create + s.Recreate + s.Delete
}

// ValidatePeriod checks month and year.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12, got %d", ErrConfiguration, month)
	}
	if year < 1900 || year > 9999 {
		return fmt.Errorf("%w: invalid year %d", ErrConfiguration, year)
	}
	return nil
}

// BuildPlan diffs records against state for req's period. It does not
// modify state. A studio used by a record but missing from
// req.StudioCalendars fails the whole plan with ErrConfiguration.
func BuildPlan(records []appointment.Record, state syncstate.State, req RunRequest, opts Options) (*Plan, error) {
	if err := ValidatePeriod(req.Month, req.Year); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	plan := &Plan{
		Month:    req.Month,
		Year:     req.Year,
		Items:    make([]Item, 0, len(records)),
		Stale:    []Stale{},
		Failures: []AnalysisFailure{},
	}
	plan.Summary.Records = len(records)

	missing := map[int]struct{}{}
	seen := make(map[string]struct{}, len(records))

	for i, r := range records {
		if r.Date.IsZero() {
			plan.Failures = append(plan.Failures, AnalysisFailure{Index: i, Reason: "missing date"})
			continue
		}
		if r.Studio < 0 {
			plan.Failures = append(plan.Failures, AnalysisFailure{Index: i, Reason: fmt.Sprintf("invalid studio %d", r.Studio)})
			continue
		}

		id := appointment.AppointmentID(r)
		if _, dup := seen[id]; dup {
			plan.Failures = append(plan.Failures, AnalysisFailure{Index: i, ID: id, Reason: "duplicate appointment"})
			continue
		}
		seen[id] = struct{}{}

		studio := StudioFor(r, opts.DailyNoteStudio)
		calendarID := req.StudioCalendars[studio]
		if calendarID == "" {
			missing[studio] = struct{}{}
			continue
		}

		item := Item{
			Index:      i,
			ID:         id,
			Hash:       appointment.ContentHash(r, opts.DefaultDuration),
			CalendarID: calendarID,
			Record:     r,
		}

		entry, known := state[id]
		switch {
		case !known:
			item.Action = ActionCreate
			plan.Summary.Create++
		case entry.Hash != item.Hash:
			prev := entry
			item.Action = ActionRecreate
			item.Reason = "content changed"
			item.Previous = &prev
			plan.Summary.Recreate++
		case entry.CalendarID != calendarID:
			prev := entry
			item.Action = ActionRecreate
			item.Reason = "calendar changed"
			item.Previous = &prev
			plan.Summary.Recreate++
		default:
			item.Action = ActionNone
			plan.Summary.Unchanged++
		}
		plan.Items = append(plan.Items, item)
	}

	if len(missing) > 0 {
		studios := make([]string, 0, len(missing))
		for s := range missing {
			studios = append(studios, fmt.Sprint(s))
		}
		sort.Strings(studios)
		return nil, fmt.Errorf("%w: no calendar configured for studio %s", ErrConfiguration, strings.Join(studios, ", "))
	}

	for id := range syncstate.EntriesForPeriod(state, req.Month, req.Year) {
		if _, ok := seen[id]; ok {
			continue
		}
		plan.Stale = append(plan.Stale, Stale{ID: id, Entry: state[id]})
	}
	sort.Slice(plan.Stale, func(i, j int) bool { return plan.Stale[i].ID < plan.Stale[j].ID })

	plan.Summary.Delete = len(plan.Stale)
	plan.Summary.Failures = len(plan.Failures)
	return plan, nil
}

// StudioFor returns the studio whose calendar receives r.
func StudioFor(r appointment.Record, dailyNoteStudio int) int {
	if r.Studio == 0 {
		return dailyNoteStudio
	}
	return r.Studio
}

// newEntry builds the state entry recorded after inserting item's event.
func newEntry(item Item, eventID string, month, year int, now time.Time) syncstate.Entry {
	return syncstate.Entry{
		EventID:    eventID,
		CalendarID: item.CalendarID,
		Hash:       item.Hash,
		Month:      month,
		Year:       year,
		LastSync:   now,
	}
}
