// Package calendar exposes the appointment to calendar synchronization over HTTP.
//
// Synchronizations and purges run as background jobs: the POST endpoints
// answer 202 with a job id and clients poll the matching status endpoint
// until the job is completed or failed. Job snapshots carry the engine phase,
// progress, warnings and the final result.
//
// # Routes
//
//   - GET  /calendar/list        managed calendars
//   - POST /calendar/sync        start a sync of {month, year}
//   - GET  /calendar/sync/:id    sync job status
//   - POST /calendar/purge       delete every event of {calendarId}
//   - GET  /calendar/purge/:id   purge job status
//   - GET  /calendar/export.ics  appointments of a month as iCalendar
//
// Only one non dry-run sync may hold the state at a time; a second request
// is answered with 409 while the first is running.
package calendar
