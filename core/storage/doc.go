// Package storage wraps the MinIO client for S3 compatible object stores.
//
// Only the operations needed to keep the sync state as one JSON object are
// exposed: bucket existence and creation, and single object get and put.
// The Client interface is mocked in core/storage/mocks for the state backend
// tests.
//
// NewClient builds a client with bounded dial, TLS and response header
// timeouts taken from the configuration.
//
//	client, err := storage.NewClient(cfg.Storage)
//	backend := syncstate.NewObjectBackend(client, cfg.Storage.Bucket, cfg.State.ObjectName)
package storage
