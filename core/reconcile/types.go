package reconcile

import (
	"context"
	"errors"
	"time"

	"clinic-manager/core/appointment"
	"clinic-manager/core/syncstate"
)

var (
	// ErrConfiguration fails a run whose configuration cannot be satisfied, e.g. a studio without calendar.
	ErrConfiguration = errors.New("configuration error")
	// ErrSourceRead fails a run whose appointments cannot be fetched.
	ErrSourceRead = errors.New("failed to read appointments")
	// ErrRunInProgress fails a run while another run uses the same state.
	ErrRunInProgress = syncstate.ErrRunInProgress
)

// Source yields the appointments of a period.
type Source interface {
	Appointments(ctx context.Context, month, year int) ([]appointment.Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, month, year int) ([]appointment.Record, error)

// Appointments calls f.
func (f SourceFunc) Appointments(ctx context.Context, month, year int) ([]appointment.Record, error) {
	return f(ctx, month, year)
}

// Phase is a stage of a synchronization run.
type Phase string

const (
	PhaseAnalyzing  Phase = "analyzing"
	PhaseApplying   Phase = "applying"
	PhasePruning    Phase = "pruning"
	PhasePersisting Phase = "persisting"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// Progress is reported after each applied appointment and each pruned entry.
type Progress struct {
	Processed int
	Changed   int
	Total     int
	Message   string
}

// Observer receives run updates. Implementations must return promptly; the
// engine calls them inline and does not wait on anything else.
type Observer interface {
	OnPhase(phase Phase, message string)
	OnProgress(p Progress)
}

type nopObserver struct{}

func (nopObserver) OnPhase(Phase, string) {}
func (nopObserver) OnProgress(Progress)   {}

// RunRequest selects the period to synchronize and where each studio goes.
type RunRequest struct {
	Month int
	Year  int
	// StudioCalendars maps studio numbers to remote calendar ids.
	StudioCalendars map[int]string
	// DryRun builds the plan without remote calls or state changes.
	DryRun bool
}

// Options tunes how appointments become events.
type Options struct {
	// Location is where appointment dates and times are interpreted. Nil means UTC.
	Location *time.Location
	// DefaultDuration is the length of appointments without a usable end.
	DefaultDuration time.Duration
	// DailyNoteStudio receives records without a studio.
	DailyNoteStudio int
	// Now returns the sync timestamp. Nil means time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = appointment.DefaultDuration
	}
	if o.DailyNoteStudio <= 0 {
		o.DailyNoteStudio = 1
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ActionType is what a run does for one appointment or state entry.
type ActionType string

const (
	// ActionNone leaves an unchanged appointment alone.
	ActionNone ActionType = "none"
	// ActionCreate inserts the event of a new appointment.
	ActionCreate ActionType = "create"
	// ActionRecreate deletes the old event of a changed appointment and inserts a new one.
	ActionRecreate ActionType = "recreate"
	// ActionDelete removes the event of an appointment that disappeared.
	ActionDelete ActionType = "delete"
)

// Result summarizes a run.
type Result struct {
	Month            int      `json:"month"`
	Year             int      `json:"year"`
	DryRun           bool     `json:"dry_run"`
	TotalProcessed   int      `json:"total_processed"`
	Changed          int      `json:"changed"`
	Created          int      `json:"created"`
	Recreated        int      `json:"recreated"`
	Deleted          int      `json:"deleted"`
	Unchanged        int      `json:"unchanged"`
	Skipped          int      `json:"skipped"`
	AnalysisFailures int      `json:"analysis_failures"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
	Message          string   `json:"message"`
}

// NothingToSync is the message of a run that changed and deleted nothing.
const NothingToSync = "Nothing to synchronize: all appointments are up to date."
