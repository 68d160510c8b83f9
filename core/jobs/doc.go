// Package jobs runs long operations in the background and publishes their
// status for polling.
//
// Registry.Start assigns a uuid, stores a queued Job and runs the work on its
// own goroutine. The work receives a Reporter, the only writer of that job's
// status. Every update replaces the stored Job with a new value under a
// write lock, so readers calling Get always receive a complete, consistent
// snapshot and never block the worker for longer than a map write.
//
// Finished jobs stay readable until Forget is called or Prune removes jobs
// that finished longer ago than the retention period.
package jobs
