package blogkit

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// PostCache is an in-memory TTL cache of every post: the database rows merged
// with the local markdown directory. Database posts win on id collisions.
type PostCache struct {
	mu       sync.RWMutex
	posts    []Post
	fetched  time.Time
	ttl      time.Duration
	store    ContentStore
	localDir string
	logger   *slog.Logger
}

// NewPostCache creates a PostCache backed by the given store and local directory.
func NewPostCache(s ContentStore, localDir string, ttl time.Duration, logger *slog.Logger) *PostCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostCache{store: s, localDir: localDir, ttl: ttl, logger: logger}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	stored, err := c.store.ListPosts(ctx, ListOptions{})
	if err != nil {
		return err
	}
	local, err := LoadLocalPosts(c.localDir)
	if err != nil {
		c.logger.Warn("blogkit: some local posts were skipped", "dir", c.localDir, "err", err)
	}
	c.posts = mergePosts(stored, local)
	c.fetched = time.Now()
	return nil
}

func mergePosts(stored, local []Post) []Post {
	merged := make([]Post, 0, len(stored)+len(local))
	seen := make(map[string]struct{}, len(stored))
	for _, p := range stored {
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range local {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		merged = append(merged, p)
	}
	SortByDate(merged)
	return merged
}

// ensureLoaded returns cached posts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.posts, nil
}

// ListPosts returns all posts newest first, optionally filtered by category.
// The returned slice is shared; callers must not modify it.
func (c *PostCache) ListPosts(ctx context.Context, category string) ([]Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(category) == "" {
		return posts, nil
	}
	return FilterCategory(posts, category), nil
}

// GetPost returns a single post by id from the cache.
func (c *PostCache) GetPost(ctx context.Context, id string) (Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// Categories returns the distinct tags used by cached posts.
func (c *PostCache) Categories(ctx context.Context) ([]string, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return DistinctTags(posts), nil
}
