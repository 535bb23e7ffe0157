package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUploadFailed wraps any attachment upload failure during a batch build.
var ErrUploadFailed = errors.New("ledger: file upload failed")

// Uploader stores a file and returns its URL.
type Uploader interface {
	UploadFile(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}

// BatchRow is one record ready to be written, with its positional row.
type BatchRow struct {
	Record Record
	Row    []any
}

// BuildBatch resolves pending uploads and renders one row per selected
// record in selection order. Uploads run concurrently, each bounded by
// timeout; resolved URLs are written back into the session so a retry does
// not upload the same file again.
func BuildBatch(ctx context.Context, s *Session, up Uploader, timeout time.Duration) ([]BatchRow, error) {
	selected := s.Selected()

	if up == nil {
		for _, rec := range selected {
			if rec.Upload.Kind() == UploadPending {
				return nil, fmt.Errorf("%w: no uploader configured", ErrUploadFailed)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range selected {
		blob, ok := selected[i].Upload.Blob()
		if !ok {
			continue
		}
		g.Go(func() error {
			uctx := gctx
			if timeout > 0 {
				var cancel context.CancelFunc
				uctx, cancel = context.WithTimeout(gctx, timeout)
				defer cancel()
			}
			url, err := up.UploadFile(uctx, blob.FileName, blob.MIMEType, blob.Data)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrUploadFailed, blob.FileName, err)
			}
			if url == "" {
				return fmt.Errorf("%w: %s: empty file url", ErrUploadFailed, blob.FileName)
			}
			selected[i].Upload = RemoteUpload(url)
			s.replace(selected[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]BatchRow, 0, len(selected))
	for _, rec := range selected {
		rec.Recompute()
		rows = append(rows, BatchRow{Record: rec, Row: rec.Row()})
	}
	return rows, nil
}
