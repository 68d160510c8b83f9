package syncstate

import (
	"fmt"

	"clinic-manager/core/storage"

	"github.com/spf13/afero"
)

const (
	// BackendFile stores the state on the local filesystem.
	BackendFile = "file"
	// BackendS3 stores the state in the object storage bucket.
	BackendS3 = "s3"
)

// Config holds configuration for the sync state location.
type Config struct {
	// Backend selects where the state lives (file, s3).
	Backend string `mapstructure:"backend" default:"file"`
	// Path is the state file path for the file backend.
	Path string `mapstructure:"path" default:"data/synced_events.json"`
	// ObjectName is the object key for the s3 backend.
	ObjectName string `mapstructure:"object_name" default:"state/synced_events.json"`
}

// NewBackend builds the configured backend. client and bucket are only used by the s3 backend.
func NewBackend(cfg Config, fs afero.Fs, client storage.Client, bucket string) (Backend, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("state path is required for the file backend")
		}
		return NewFileBackend(fs, cfg.Path), nil
	case BackendS3:
		if client == nil {
			return nil, fmt.Errorf("storage client is required for the s3 backend")
		}
		if bucket == "" || cfg.ObjectName == "" {
			return nil, fmt.Errorf("bucket and object name are required for the s3 backend")
		}
		return NewObjectBackend(client, bucket, cfg.ObjectName), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
