// Package storage archives generated exports in an S3-compatible object store
// and hands out time-limited download links for them.
package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions describe an archive upload. Size is -1 when unknown.
// FileName is recorded as object metadata and reused as the download name.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	FileName    string
}

// ObjectInfo is what the store reports back after an upload.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

// Storage is the object store used for export archives.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object; used to roll back an archive whose link could not be signed.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that downloads key without credentials until
	// expiry, saved as fileName (the key's base name when empty).
	PresignGet(ctx context.Context, key, fileName string, expiry time.Duration) (string, error)
}
