package folio

import (
	"context"
	"sync"
	"time"

	"github.com/kabuchi/folio/post"
)

// PostCache is an in-memory cache of every post with a TTL. Pages read
// through it; writes go to the store and call Invalidate.
type PostCache struct {
	mu      sync.RWMutex
	posts   []post.Post
	fetched time.Time
	ttl     time.Duration
	store   post.Store
}

// NewPostCache creates a PostCache backed by the given store. A ttl <= 0
// disables caching: every read goes to the store.
func NewPostCache(s post.Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.ttl > 0 && c.posts != nil && time.Since(c.fetched) < c.ttl
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
	posts, err := c.store.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []post.Post{}
	}
	c.posts = posts
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]post.Post, error) {
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

// ListPosts returns posts in category ordered by date descending. An empty
// category returns every post.
func (c *PostCache) ListPosts(ctx context.Context, category post.Category) ([]post.Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return posts, nil
	}
	filtered := []post.Post{}
	for _, p := range posts {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetPostBySlug returns the most recently created post with slug in category.
func (c *PostCache) GetPostBySlug(ctx context.Context, category post.Category, slug string) (post.Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return post.Post{}, err
	}
	var (
		found post.Post
		ok    bool
	)
	for _, p := range posts {
		if p.Category != category || p.Slug != slug {
			continue
		}
		if !ok || p.CreatedAt.After(found.CreatedAt) {
			found, ok = p, true
		}
	}
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	return found, nil
}
