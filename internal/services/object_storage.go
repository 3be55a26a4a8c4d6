package services

import (
	"context"
	"time"
)

// ObjectStorage is the object-store surface the image core needs: grant a
// time-limited write URL for a key, and release a key. Implementations are
// injected at startup; the S3 one is the default.
type ObjectStorage interface {
	// PresignPut returns a write-capable URL for key, valid for ttl.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}
