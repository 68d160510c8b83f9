package appointment

import (
	"fmt"
	"strings"
	"time"
)

// Category tags records that are not regular patient visits.
type Category string

const (
	// CategoryAppointment is a regular patient visit.
	CategoryAppointment Category = "appointment"
	// CategoryService is an internal slot booked for a doctor in a studio without a patient.
	CategoryService Category = "service"
	// CategoryDailyNote is a memo with neither patient, studio nor doctor.
	CategoryDailyNote Category = "daily_note"
)

// Record is a single appointment as yielded by the appointment source.
// It is read-only to the synchronization engine.
type Record struct {
	// Date is the calendar day of the appointment. A zero Date cannot be placed on a calendar.
	Date Date `json:"date"`
	// Start is the time of day the appointment begins.
	Start Clock `json:"start_time"`
	// End is the time of day the appointment ends. It may be invalid or not after Start.
	End Clock `json:"end_time"`
	// Studio identifies the physical location; it maps to one remote calendar.
	Studio int `json:"studio"`
	// Doctor identifies the practitioner, 0 when unknown.
	Doctor int `json:"doctor"`
	// PatientName is the display name of the patient, if any.
	PatientName string `json:"patient_name"`
	// Description is the free-text subject of the appointment.
	Description string `json:"description"`
	// Notes is the free-text body copied verbatim to the remote event.
	Notes string `json:"notes"`
	// TypeCode is the categorical appointment type used for the event color.
	TypeCode string `json:"type_code"`
}

// Category classifies the record.
func (r Record) Category() Category {
	patient := strings.TrimSpace(r.PatientName)
	switch {
	case patient == "" && r.Studio == 0 && r.Doctor == 0:
		return CategoryDailyNote
	case patient == "" && r.Studio > 0 && r.Doctor > 0:
		return CategoryService
	default:
		return CategoryAppointment
	}
}

// Title returns the remote event title: patient name, else description,
// else a placeholder. Daily notes and service slots get their own placeholder.
func (r Record) Title() string {
	if p := strings.TrimSpace(r.PatientName); p != "" {
		return p
	}
	if d := strings.TrimSpace(r.Description); d != "" {
		return d
	}
	switch r.Category() {
	case CategoryDailyNote:
		return "DAILY NOTE"
	case CategoryService:
		return fmt.Sprintf("SERVICE (Dr. %d, Studio %d)", r.Doctor, r.Studio)
	default:
		return "Appointment"
	}
}

// Date is a calendar day without time-of-day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String returns the ISO-8601 form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// In returns the instant the clock reading c happens on day d in loc.
func (d Date) In(c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock is an hour and minute reading. The zero Clock is invalid (unset).
type Clock struct {
	Hour   int
	Minute int
	Valid  bool
}

// At returns a valid Clock for the given hour and minute.
func At(hour, minute int) Clock {
	return Clock{Hour: hour, Minute: minute, Valid: true}
}

// String returns the "HH:MM" form, or "" when unset.
func (c Clock) String() string {
	if !c.Valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// After reports whether c is strictly later in the day than o.
func (c Clock) After(o Clock) bool {
	return c.Minutes() > o.Minutes()
}

// Add advances the clock by d. The result does not wrap: past midnight its
// Hour is 24 or more, and Date.In places it on the following day.
func (c Clock) Add(d time.Duration) Clock {
	total := c.Minutes() + int(d/time.Minute)
	if total < 0 {
		total = 0
	}
	return At(total/60, total%60)
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = Clock{}
		return nil
	}
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
