package syncstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"clinic-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"
)

// ErrNotExist is returned by backends when no document has been saved yet.
var ErrNotExist = errors.New("sync state does not exist")

// Backend reads and atomically replaces the raw state document.
type Backend interface {
	// Read returns the document, or ErrNotExist.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the document; readers never observe a partial write.
	Write(ctx context.Context, data []byte) error
	// Location identifies the document, e.g. its path.
	Location() string
}

// FileBackend stores the document as a file.
type FileBackend struct {
	fs   afero.Fs
	path string
}

// NewFileBackend creates a file backend for path on fs.
func NewFileBackend(fs afero.Fs, path string) *FileBackend {
	return &FileBackend{fs: fs, path: filepath.Clean(path)}
}

// Location returns the file path.
func (b *FileBackend) Location() string {
	return "file://" + b.path
}

// Read loads the file.
func (b *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, nil
}

// Write writes data to a temporary file next to the target and renames it into place.
func (b *FileBackend) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := afero.TempFile(b.fs, dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := b.fs.Rename(tmpName, b.path); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// ObjectBackend stores the document as an object in a bucket.
type ObjectBackend struct {
	client storage.Client
	bucket string
	object string
}

// NewObjectBackend creates an object backend.
func NewObjectBackend(client storage.Client, bucket, object string) *ObjectBackend {
	return &ObjectBackend{client: client, bucket: bucket, object: strings.TrimPrefix(object, "/")}
}

// Location returns the object URL.
func (b *ObjectBackend) Location() string {
	return "s3://" + b.bucket + "/" + b.object
}

// EnsureBucket creates the bucket when it does not exist.
func (b *ObjectBackend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", b.bucket, err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", b.bucket, err)
	}
	return nil
}

// Read downloads the object.
func (b *ObjectBackend) Read(ctx context.Context) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, objectError(b.object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, objectError(b.object, err)
	}
	return data, nil
}

// Write uploads data, replacing the object.
func (b *ObjectBackend) Write(ctx context.Context, data []byte) error {
	_, err := b.client.PutObject(ctx, b.bucket, b.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", b.object, err)
	}
	return nil
}

func objectError(object string, err error) error {
	if code := minio.ToErrorResponse(err).Code; code == "NoSuchKey" || code == "NoSuchBucket" {
		return ErrNotExist
	}
	return fmt.Errorf("failed to download %s: %w", object, err)
}
