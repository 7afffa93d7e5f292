// Package objectstore is the gateway to the blob store holding recording
// objects. Every operation is a single round trip with no built-in retry;
// callers decide how failures propagate.
package objectstore

import (
	"context"
	"io"
	"time"
)

// DefaultPresignTTL bounds playback URLs unless the deployment overrides it.
const DefaultPresignTTL = time.Hour

// Store abstracts the blob store operations the recording lifecycle needs.
type Store interface {
	// Put writes an object. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// PutFile uploads a local file as an object.
	PutFile(ctx context.Context, key, path, contentType string) error

	// Copy duplicates srcKey under dstKey. Combined with Delete it
	// implements rename; the pair is not atomic.
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Delete removes an object. Deleting a missing key is success.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key currently names an object.
	Exists(ctx context.Context, key string) (bool, error)

	// ListPrefix returns every key starting with prefix, in store listing
	// order.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// PresignedGet returns a time-bounded unauthenticated read URL.
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
