// Package appointments reads the clinic's legacy appointment records.
//
// The Source queries the appointments table for one month, resolves patient
// names from the patients table and normalizes every row into an
// appointment.Record: dates become calendar days and the legacy decimal hour
// columns (8.40 for 08:40) become clock times. It is the record source of the
// calendar synchronization and is also exposed read-only at GET /appointments.
// GET /appointments/year reports monthly counts of the last three years.
//
// Rows with unparsable fields are returned with those fields unset so the
// synchronization can report them individually instead of failing the run.
package appointments
