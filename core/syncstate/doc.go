// Package syncstate persists the link between appointments and the remote
// events they produced.
//
// The state is a single JSON document mapping an appointment id to an
// Entry (remote event id, calendar id, content hash, period and last sync
// time). It is loaded once at the start of a run and saved once at the end.
//
// Load never fails: a missing, unreadable or corrupt document is logged and
// treated as an empty state. Save always reports failures, since losing the
// state duplicates remote events on the next run.
//
// Two backends are available:
//
//   - FileBackend writes through an afero filesystem, to a temporary file in
//     the target directory that is then renamed over the target.
//   - ObjectBackend keeps the document as one object in a bucket; a single
//     PUT replaces it atomically.
//
// Locker guards a state location so that two runs never load and save the
// same document concurrently.
package syncstate
