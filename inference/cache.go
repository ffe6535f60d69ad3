package inference

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/models/model"
)

// BuildFunc constructs the handle for a cache miss.
type BuildFunc func(ctx context.Context) (*Handle, error)

// ModelCache is a process-wide store of loaded handles keyed by (kind, weights URL).
//
// Each key is constructed at most once, including under concurrent callers. Failed
// builds are not stored.
type ModelCache struct {
	store  *lru.Cache[Key, *Handle]
	group  singleflight.Group
	builds atomic.Int64
	logger common.Logger
}

// NewModelCache creates a cache holding up to size handles.
//
// size must cover every configured dataset so handles are never evicted.
func NewModelCache(size int, logger common.Logger) (*ModelCache, error) {
	if logger == nil {
		logger = common.NopLogger{}
	}
	if size < 1 {
		size = 1
	}
	store, err := lru.NewWithEvict[Key, *Handle](size, func(k Key, _ *Handle) {
		logger.Printf("model cache dropped %s", k)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create model cache")
	}
	return &ModelCache{store: store, logger: logger}, nil
}

// Get returns the cached handle for key, building it once on a miss.
//
// Arguments:
//   - ctx: Request context. A build outlives the cancellation of the caller that started it.
//   - key: The cache key.
//   - build: Constructs the handle on a miss.
//
// Returns:
//   - *Handle: The shared handle.
//   - error: The build error, unmodified.
func (c *ModelCache) Get(ctx context.Context, key Key, build BuildFunc) (*Handle, error) {
	if h, ok := c.store.Get(key); ok {
		return h, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A concurrent flight may have finished between the lookup and Do.
		if h, ok := c.store.Get(key); ok {
			return h, nil
		}
		c.builds.Add(1)
		c.logger.Printf("model cache miss for %s", key)
		h, err := build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store.Add(key, h)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Len returns the number of cached handles.
func (c *ModelCache) Len() int {
	return c.store.Len()
}

// Builds returns how many constructions ran.
func (c *ModelCache) Builds() int64 {
	return c.builds.Load()
}

// Purge closes and drops every handle. Used at shutdown only.
func (c *ModelCache) Purge() {
	for _, k := range c.store.Keys() {
		if h, ok := c.store.Peek(k); ok {
			if err := h.Close(); err != nil {
				c.logger.Printf("closing %s: %v", k, err)
			}
		}
	}
	c.store.Purge()
}

// ModelLoader builds handles.
type ModelLoader interface {
	Load(ctx context.Context, kind model.Kind, classCount int, weightsURL string) (*Handle, error)
}

// Models is the cached model loading service injected into request handling.
type Models struct {
	cache  *ModelCache
	loader ModelLoader
}

// NewModels binds a cache to a loader.
func NewModels(cache *ModelCache, loader ModelLoader) *Models {
	return &Models{cache: cache, loader: loader}
}

// Load returns the shared handle for (kind, weightsURL), loading it on first use.
func (m *Models) Load(ctx context.Context, kind model.Kind, classCount int, weightsURL string) (*Handle, error) {
	key := Key{Kind: kind, WeightsURL: weightsURL}
	return m.cache.Get(ctx, key, func(ctx context.Context) (*Handle, error) {
		return m.loader.Load(ctx, kind, classCount, weightsURL)
	})
}

// Cache returns the underlying cache.
func (m *Models) Cache() *ModelCache {
	return m.cache
}
