package folio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kabuchi/folio/post"
)

// countingStore counts ListPosts calls against the wrapped store.
type countingStore struct {
	post.Store
	lists int
}

func (s *countingStore) ListPosts(ctx context.Context, c post.Category) ([]post.Post, error) {
	s.lists++
	return s.Store.ListPosts(ctx, c)
}

func TestPostCacheServesFromMemory(t *testing.T) {
	s := &countingStore{Store: setupTestStore(t)}
	c := NewPostCache(s, time.Minute)
	ctx := context.Background()
	mustCreate(t, s, post.Post{Title: "A", Slug: "a", Content: "c", Category: post.CategoryTravel, Date: day(1)})

	for i := 0; i < 3; i++ {
		if _, err := c.ListPosts(ctx, ""); err != nil {
			t.Fatalf("ListPosts() error: %v", err)
		}
	}
	if s.lists != 1 {
		t.Errorf("store listed %d times, want 1", s.lists)
	}

	mustCreate(t, s, post.Post{Title: "B", Slug: "b", Content: "c", Category: post.CategoryWork, Date: day(2)})
	posts, _ := c.ListPosts(ctx, "")
	if len(posts) != 1 {
		t.Errorf("expected stale cache with 1 post, got %d", len(posts))
	}

	c.Invalidate()
	posts, _ = c.ListPosts(ctx, "")
	if len(posts) != 2 {
		t.Errorf("expected 2 posts after invalidate, got %d", len(posts))
	}
	if s.lists != 2 {
		t.Errorf("store listed %d times, want 2", s.lists)
	}
}

func TestPostCacheExpires(t *testing.T) {
	s := &countingStore{Store: setupTestStore(t)}
	c := NewPostCache(s, time.Nanosecond)
	ctx := context.Background()

	c.ListPosts(ctx, "")
	time.Sleep(time.Millisecond)
	c.ListPosts(ctx, "")
	if s.lists != 2 {
		t.Errorf("store listed %d times, want 2", s.lists)
	}
}

func TestPostCacheDisabled(t *testing.T) {
	s := &countingStore{Store: setupTestStore(t)}
	c := NewPostCache(s, -1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.ListPosts(ctx, ""); err != nil {
			t.Fatalf("ListPosts() error: %v", err)
		}
	}
	if s.lists != 3 {
		t.Errorf("store listed %d times, want 3", s.lists)
	}
}

func TestPostCacheFilterAndSlug(t *testing.T) {
	s := setupTestStore(t)
	c := NewPostCache(s, time.Minute)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mustCreate(t, s, post.Post{Title: "Old", Slug: "dup", Content: "c", Category: post.CategoryTravel, Date: day(5), CreatedAt: base})
	mustCreate(t, s, post.Post{Title: "New", Slug: "dup", Content: "c", Category: post.CategoryTravel, Date: day(1), CreatedAt: base.Add(time.Minute)})
	mustCreate(t, s, post.Post{Title: "Work", Slug: "dup", Content: "c", Category: post.CategoryWork, Date: day(3), CreatedAt: base.Add(time.Hour)})

	travel, err := c.ListPosts(ctx, post.CategoryTravel)
	if err != nil {
		t.Fatalf("ListPosts() error: %v", err)
	}
	if len(travel) != 2 || travel[0].Title != "Old" {
		t.Errorf("travel = %+v", travel)
	}

	got, err := c.GetPostBySlug(ctx, post.CategoryTravel, "dup")
	if err != nil {
		t.Fatalf("GetPostBySlug() error: %v", err)
	}
	if got.Title != "New" {
		t.Errorf("Title = %q, want New", got.Title)
	}

	if _, err := c.GetPostBySlug(ctx, post.CategoryPersonal, "dup"); !errors.Is(err, post.ErrNotFound) {
		t.Errorf("expected post.ErrNotFound, got %v", err)
	}
	if empty, _ := c.ListPosts(ctx, post.CategoryPersonal); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}
