package blobstore

import (
	"context"
	"io"
)

// Store is the external image host. Handlers only ever see the public URL.
type Store interface {
	Upload(ctx context.Context, key string, contentType string, r io.Reader, size int64) (string, error)
}
