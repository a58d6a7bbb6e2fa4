package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobdash/internal/export"
	"jobdash/internal/storage"
)

// ArchiveLinkExpiry bounds how long a presigned export link stays valid.
const ArchiveLinkExpiry = 15 * time.Minute

var ErrArchiveUnavailable = errors.New("export archiving is not configured")

// ExportResult carries either the rendered bytes or, when archived, a link
// to the stored object.
type ExportResult struct {
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	URL         string    `json:"url,omitempty"`
	Key         string    `json:"key,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Archived reports whether the export was uploaded instead of returned inline.
func (r *ExportResult) Archived() bool { return r.URL != "" }

// exporter renders tables and optionally uploads them. store may be nil.
type exporter struct {
	store storage.Storage
	now   func() time.Time
}

func (e exporter) render(ctx context.Context, t export.Table, format export.Format, base string, archive bool) (*ExportResult, error) {
	if archive && e.store == nil {
		return nil, ErrArchiveUnavailable
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, t); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	res := &ExportResult{
		FileName:    format.FileName(base),
		ContentType: format.ContentType(),
	}
	if !archive {
		res.Data = buf.Bytes()
		return res, nil
	}

	key := "exports/" + uuid.New().String() + "-" + res.FileName
	size := int64(buf.Len())
	if _, err := e.store.Put(ctx, key, &buf, storage.PutObjectOptions{
		Size:        size,
		ContentType: res.ContentType,
		FileName:    res.FileName,
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	url, err := e.store.PresignGet(ctx, key, res.FileName, ArchiveLinkExpiry)
	if err != nil {
		if delErr := e.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("presign failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("presign failed: %w", err)
	}
	res.URL = url
	res.Key = key
	res.ExpiresAt = e.now().Add(ArchiveLinkExpiry)
	return res, nil
}
