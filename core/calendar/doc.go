// Package calendar is the boundary to the remote calendar service.
//
// # Gateway
//
// Gateway is the capability set the synchronization engine and the purger
// use: insert, update, delete and list events on a calendar, and list the
// calendars the account can see. The engine never reaches the remote
// service any other way.
//
// GoogleGateway implements Gateway over the Google Calendar v3 API. Every
// call runs under a per-call timeout and every failure is classified once,
// here, into a Kind:
//
//   - RateLimited: HTTP 429, or 403 with reason rateLimitExceeded/userRateLimitExceeded
//   - NotFound:    HTTP 404 or 410
//   - Transient:   HTTP 5xx, timeouts and network errors
//   - Permanent:   everything else
//
// Callers inspect the classification with KindOf or IsRetryable instead of
// matching on error text. DeleteEvent treats NotFound as success.
//
// # Retries
//
// RetryingGateway decorates any Gateway with a retry.Policy so that every
// call shares the same bounded attempts, fixed cooldown and pacing delay.
//
// # Directory
//
// Directory caches ListCalendars for a configurable TTL, collapsing
// concurrent refreshes with singleflight, filters the result to the
// calendars this deployment manages, and resolves the studio to calendar
// mapping either from explicit configuration or from display-name keywords.
package calendar
