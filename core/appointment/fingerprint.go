package appointment

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	// Separator joins the fields of identities and hash inputs.
	Separator = "|"

	// DefaultDuration is the length given to appointments without a usable end time.
	DefaultDuration = 10 * time.Minute
)

// DefaultStart is used when the source carries no start time.
var DefaultStart = At(8, 0)

// EffectiveStart returns the start time, falling back to DefaultStart.
func EffectiveStart(r Record) Clock {
	if !r.Start.Valid {
		return DefaultStart
	}
	return r.Start
}

// EffectiveEnd returns the end time, synthesized as start + duration when the
// source end is missing or not after the start. A non-positive duration means
// DefaultDuration.
func EffectiveEnd(r Record, duration time.Duration) Clock {
	if duration <= 0 {
		duration = DefaultDuration
	}
	start := EffectiveStart(r)
	if !r.End.Valid || !r.End.After(start) {
		return start.Add(duration)
	}
	return r.End
}

// identity is the patient name or, failing that, the description.
func identity(r Record) string {
	if p := strings.TrimSpace(r.PatientName); p != "" {
		return p
	}
	return strings.TrimSpace(r.Description)
}

// AppointmentID derives the stable identity of a record. Notes and type code
// are deliberately absent: editing them changes the hash, not the identity.
func AppointmentID(r Record) string {
	return strings.Join([]string{
		r.Date.String(),
		EffectiveStart(r).String(),
		strconv.Itoa(r.Studio),
		identity(r),
	}, Separator)
}

// ContentHash returns the hex SHA-256 of the canonical form of every field
// that affects the remote event.
func ContentHash(r Record, duration time.Duration) string {
	fields := []string{
		r.Date.String(),
		EffectiveStart(r).String(),
		EffectiveEnd(r, duration).String(),
		strconv.Itoa(r.Studio),
		strings.TrimSpace(r.PatientName),
		strings.TrimSpace(r.Description),
		r.Notes,
		strings.TrimSpace(r.TypeCode),
		string(r.Category()),
	}
	// Service titles name the doctor.
	if r.Category() == CategoryService {
		fields = append(fields, strconv.Itoa(r.Doctor))
	}
	canonical := strings.Join(fields, Separator)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// EventUID returns an opaque identifier safe for use in exported calendars.
func EventUID(r Record) string {
	sum := sha256.Sum256([]byte(AppointmentID(r)))
	return hex.EncodeToString(sum[:16]) + "@clinic-manager"
}
