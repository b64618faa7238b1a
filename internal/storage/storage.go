// Package storage abstracts the object store holding uploaded registration
// documents. Production uses S3 (or any S3-compatible endpoint); tests and
// unconfigured deployments use the in-memory implementation.
package storage

import (
	"context"
	"time"
)

// SignedURLTTL is how long a download link handed to the back office stays
// valid.
const SignedURLTTL = 10 * time.Minute

// ObjectStore stores document blobs under opaque keys.
type ObjectStore interface {
	// Put writes content under key with the given content type.
	Put(ctx context.Context, key string, content []byte, contentType string) error

	// Remove deletes the object. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// SignedURL returns a time-limited download URL for the object.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
