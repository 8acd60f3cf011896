package imageloader

import (
	"context"
	"fmt"
	"sync"
)

// Registry dispatches image IDs to the loader registered for their scheme
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader // keyed by scheme
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
	}
}

// Register binds a loader to a scheme, replacing any previous one
func (r *Registry) Register(scheme string, loader Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[scheme] = loader
}

// LoadImage loads an image with the loader registered for its scheme
func (r *Registry) LoadImage(ctx context.Context, imageID string) (*Image, error) {
	scheme, _, err := SplitImageID(imageID)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", imageID, err)
	}

	r.mu.RLock()
	loader, ok := r.loaders[scheme]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", scheme, ErrUnsupportedScheme)
	}
	return loader.LoadImage(ctx, imageID)
}

// Close closes every registered loader once, even when shared by schemes
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := make(map[Loader]bool)
	var errors []error
	for scheme, loader := range r.loaders {
		if !closed[loader] {
			closed[loader] = true
			if err := loader.Close(); err != nil {
				errors = append(errors, fmt.Errorf("failed to close loader for %s: %w", scheme, err))
			}
		}
		delete(r.loaders, scheme)
	}

	if len(errors) > 0 {
		return fmt.Errorf("encountered %d errors while closing loaders", len(errors))
	}
	return nil
}
