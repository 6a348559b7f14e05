// Package post holds the blog post model shared by the stores, the HTTP
// handlers and the views.
package post

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("post: not found")

// Category groups posts by sub-brand.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryTravel   Category = "travel"
	CategoryPersonal Category = "personal"
)

// Categories lists every category accepted on create, in display order.
var Categories = []Category{CategoryTravel, CategoryWork, CategoryPersonal}

// ParseCategory returns the category named by s, or false if s is not one of Categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Post is the core content type stored in the document store and rendered by the views.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Excerpt    string    `json:"excerpt"`
	CoverImage string    `json:"coverImage"`
	Location   string    `json:"location"`
	Category   Category  `json:"category"`
	Tags       []string  `json:"tags"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
}

// URL returns the canonical path of the post.
func (p Post) URL() string {
	return CanonicalURL(p.Category, p.Slug)
}

// Store is the document store holding posts. Implementations do not enforce
// slug uniqueness and DeletePost does not check that the post exists.
type Store interface {
	// ListPosts returns posts ordered by date descending. An empty category lists every post.
	ListPosts(ctx context.Context, category Category) ([]Post, error)
	// GetPostBySlug returns the most recently created post with slug in category.
	GetPostBySlug(ctx context.Context, category Category, slug string) (Post, error)
	// CreatePost inserts p and returns the generated identifier.
	CreatePost(ctx context.Context, p Post) (string, error)
	// DeletePost removes the post with id. Deleting a missing id is not an error.
	DeletePost(ctx context.Context, id string) error
	Close() error
}
