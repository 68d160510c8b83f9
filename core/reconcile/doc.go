// Package reconcile keeps a remote calendar consistent with the appointment
// source across repeated runs.
//
// # Architecture
//
// A run is split into a plan and its application, the same way a dry run
// and a real run share one diff:
//
// 1. BuildPlan compares the appointments of a period with the persisted sync
//    state. Every appointment gets an identity and a content hash (see
//    package appointment) and one Action: ActionNone when the stored hash
//    matches, ActionCreate when no entry exists, ActionRecreate when the hash
//    or target calendar changed. Entries recorded for the same period whose
//    appointment disappeared become ActionDelete. Records without a usable
//    date, or whose identity repeats, are analysis failures.
//
// 2. Engine.Run drives the phases Analyzing, Applying, Pruning, Persisting
//    and ends Completed or Failed. Appointments are applied one at a time in
//    source order; the remote service rate limits per account, so there is no
//    parallelism inside a run.
//
// 3. Purger deletes every event of a calendar, counting first so progress is
//    meaningful, then deleting. It holds the run lock and forgets the state
//    entries of the events it removed.
//
// # Failure policy
//
// Per-item remote failures are logged, counted as skipped and never abort
// the run. A source that cannot be read or a studio without a calendar fails
// the run before any remote mutation. A failed save is reported as a
// warning: remote mutations already done are not rolled back, and the next
// run converges because unchanged content hashes identically.
//
// Changed content is always applied as delete followed by insert, never as a
// partial update, so the remote event is always the full canonical body.
//
// # Concurrency
//
// Runs sharing a state location are serialized by a syncstate.Locker; a
// second run fails fast with ErrRunInProgress. The context is checked
// between appointments: a cancelled run stops applying, skips pruning and
// still persists what it already did.
package reconcile
