package storage

import (
	"context"
	"io"
)

// ObjectStorage moves raw bytes to and from pre-signed object URLs. Signed
// URLs carry their own authorization, so implementations must not add any.
type ObjectStorage interface {
	// PutObject uploads size bytes from body to url. size may be -1 when
	// unknown.
	PutObject(ctx context.Context, url string, body io.Reader, size int64) error
	// GetObject streams the object at url into w and returns the byte count.
	GetObject(ctx context.Context, url string, w io.Writer) (int64, error)
}
