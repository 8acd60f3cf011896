package imageloader

import (
	"context"
	"errors"
	"time"

	"github.com/otcheredev/dicom-standalone-viewer/internal/cache"
	"github.com/otcheredev/dicom-standalone-viewer/internal/metrics"
	"github.com/rs/zerolog/log"
)

// CachedLoader puts a payload cache in front of a Loader. A nil cache
// passes every load through.
type CachedLoader struct {
	loader Loader
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedLoader creates a new caching loader
func NewCachedLoader(loader Loader, c cache.Cache, ttl time.Duration) *CachedLoader {
	return &CachedLoader{
		loader: loader,
		cache:  c,
		ttl:    ttl,
	}
}

// LoadAndCacheImage returns the cached payload for imageID, loading and
// storing it on a miss. Cache failures are logged and never fail the load.
func (c *CachedLoader) LoadAndCacheImage(ctx context.Context, imageID string) (*Image, error) {
	if c.cache == nil {
		return c.loader.LoadImage(ctx, imageID)
	}
	key := cache.ImageKey(imageID)

	data, err := c.cache.Get(ctx, key)
	if err == nil {
		metrics.ImageCache.WithLabelValues("hit").Inc()
		return &Image{ImageID: imageID, ContentType: "application/dicom", Data: data}, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("image_id", imageID).Msg("Image cache lookup failed")
	}
	metrics.ImageCache.WithLabelValues("miss").Inc()

	img, err := c.loader.LoadImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, img.Data, c.ttl); err != nil {
		log.Warn().Err(err).Str("image_id", imageID).Msg("Failed to cache image")
	}
	return img, nil
}

// LoadImage satisfies Loader
func (c *CachedLoader) LoadImage(ctx context.Context, imageID string) (*Image, error) {
	return c.LoadAndCacheImage(ctx, imageID)
}

// Close closes the wrapped loader
func (c *CachedLoader) Close() error {
	return c.loader.Close()
}
