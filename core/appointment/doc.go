// Package appointment defines the appointment record read from the legacy
// record store and the fingerprints derived from it.
//
// # Canonical values
//
// The record store hands out dates and times in several shapes: structured
// timestamps, ISO strings, and legacy decimal hours where 8.4 means 08:40.
// ParseDate and ParseClock fold all of them into Date and Clock, whose
// String forms ("2006-01-02" and "15:04") are the only representation that
// ever reaches a fingerprint.
//
// # Fingerprints
//
//   - AppointmentID: stable identity (date, start, studio, patient or description).
//   - ContentHash: SHA-256 over every mutable field, used to detect changes.
//   - EffectiveEnd: the end time used both in the hash and in the remote event,
//     synthesized from the default duration when the source end is missing or
//     not after the start.
package appointment
