package marquee

import (
	"context"
	"sync"
	"time"
)

// BlogCache is the transient cached view of the blogs collection. It is
// invalidated on every admin mutation, so reads never diverge from the store
// for longer than the TTL.
type BlogCache struct {
	mu      sync.RWMutex
	blogs   []BlogPost
	fetched time.Time
	ttl     time.Duration
	store   RecordStore
}

// NewBlogCache creates a BlogCache backed by the given store.
func NewBlogCache(store RecordStore, ttl time.Duration) *BlogCache {
	return &BlogCache{store: store, ttl: ttl}
}

func (c *BlogCache) valid() bool {
	return c.blogs != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *BlogCache) Invalidate() {
	c.mu.Lock()
	c.blogs = nil
	c.mu.Unlock()
}

// ensureLoaded returns the cached blogs, reloading from the store when the
// cache is stale. It tries a read lock first and only takes the write lock
// when a reload is needed.
func (c *BlogCache) ensureLoaded(ctx context.Context) ([]BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		blogs := c.blogs
		c.mu.RUnlock()
		return blogs, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.blogs, nil
	}
	blogs, err := c.store.ListBlogs(ctx)
	if err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []BlogPost{}
	}
	c.blogs = blogs
	c.fetched = time.Now()
	return c.blogs, nil
}

// List returns all blogs newest first.
func (c *BlogCache) List(ctx context.Context) ([]BlogPost, error) {
	return c.ensureLoaded(ctx)
}

// Get returns a single blog by id from the cached view.
func (c *BlogCache) Get(ctx context.Context, id string) (BlogPost, error) {
	blogs, err := c.ensureLoaded(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	for _, b := range blogs {
		if b.ID == id {
			return b, nil
		}
	}
	return BlogPost{}, ErrNotFound
}
