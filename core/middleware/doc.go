// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: accepts either the configured API key (X-API-Key header) or an
//     HS256 bearer token signed with the configured secret. With neither
//     configured the API is open.
//   - rayid: tags every request with a ray id, stored in the context under
//     "ray_id" and echoed in the X-Ray-ID response header, so request logs
//     and background job logs can be correlated.
//
// Both are registered globally by the start command, rayid first.
package middleware
