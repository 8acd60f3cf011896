package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache stores encoded image payloads keyed by image ID
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, pattern string) error
	Close() error
}

// ImagePrefix namespaces image payload keys
const ImagePrefix = "image:"

// ImageKey builds the cache key for an image ID. Image IDs embed arbitrary
// URLs, so they are hashed to keep keys short and free of glob characters.
func ImageKey(imageID string) string {
	sum := sha1.Sum([]byte(imageID))
	return ImagePrefix + hex.EncodeToString(sum[:])
}
