// Package storage abstracts the blob store holding profile photos and
// residence documents. Keys are opaque handles; DownloadURL turns a handle
// into a URL a client can fetch directly.
package storage

import (
	"context"
	"io"
)

// Store is the blob store contract.
type Store interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	DownloadURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
