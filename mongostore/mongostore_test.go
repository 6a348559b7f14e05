package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kabuchi/folio/post"
)

// testStore connects to FOLIO_TEST_MONGO_URI and skips the test when it is unset.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("FOLIO_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FOLIO_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db := fmt.Sprintf("folio_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, uri, db, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() {
		s.client.Database(db).Drop(context.Background()) //nolint:errcheck
		s.Close()
	})
	return s
}

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := post.Post{
		Title:    "Lisbon",
		Slug:     "lisbon",
		Content:  "<p>Tiles</p>",
		Category: post.CategoryTravel,
		Date:     now,
	}
	d := fromPost(p)
	if d.Tags == nil {
		t.Error("nil tags should be stored as an empty array")
	}
	got := d.toPost()
	if got.Title != p.Title || got.Category != p.Category || !got.Date.Equal(now) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestCreateListDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := post.Post{Title: "Old", Slug: "old", Category: post.CategoryTravel, Date: time.Now().Add(-time.Hour), CreatedAt: time.Now()}
	newer := post.Post{Title: "New", Slug: "new", Category: post.CategoryTravel, Date: time.Now(), CreatedAt: time.Now()}
	work := post.Post{Title: "Work", Slug: "work", Category: post.CategoryWork, Date: time.Now(), CreatedAt: time.Now()}

	var ids []string
	for _, p := range []post.Post{older, newer, work} {
		id, err := s.CreatePost(ctx, p)
		if err != nil {
			t.Fatalf("CreatePost() error: %v", err)
		}
		ids = append(ids, id)
	}

	posts, err := s.ListPosts(ctx, post.CategoryTravel)
	if err != nil {
		t.Fatalf("ListPosts() error: %v", err)
	}
	if len(posts) != 2 || posts[0].Slug != "new" {
		t.Fatalf("ListPosts() = %+v", posts)
	}

	got, err := s.GetPostBySlug(ctx, post.CategoryWork, "work")
	if err != nil || got.ID != ids[2] {
		t.Fatalf("GetPostBySlug() = %+v, %v", got, err)
	}

	if err := s.DeletePost(ctx, ids[2]); err != nil {
		t.Fatalf("DeletePost() error: %v", err)
	}
	if _, err := s.GetPostBySlug(ctx, post.CategoryWork, "work"); !errors.Is(err, post.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeletePost(ctx, "not-an-object-id"); err != nil {
		t.Errorf("DeletePost(invalid) error: %v", err)
	}
}
