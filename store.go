package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/kabuchi/folio/post"
)

// timeLayout is fixed width so stored timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const postColumns = `id, title, slug, content, excerpt, cover_image, location, category, tags, date, created_at`

// Store wraps a SQLite database and implements post.Store.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

var _ post.Store = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string, log zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL,
    content TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    cover_image TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT ',',
    date TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_category_date ON posts (category, date DESC);
CREATE INDEX IF NOT EXISTS idx_posts_slug ON posts (slug);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (post.Post, error) {
	var (
		p               post.Post
		category, tags  string
		date, createdAt string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CoverImage,
		&p.Location, &category, &tags, &date, &createdAt); err != nil {
		return post.Post{}, err
	}
	p.Category = post.Category(category)
	p.Tags = ParseTags(tags)
	var err error
	if p.Date, err = time.Parse(timeLayout, date); err != nil {
		return post.Post{}, fmt.Errorf("post %s: date: %w", p.ID, err)
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return post.Post{}, fmt.Errorf("post %s: created_at: %w", p.ID, err)
	}
	return p, nil
}

// ListPosts returns posts in category ordered by date descending. An empty
// category lists every post.
func (s *Store) ListPosts(ctx context.Context, category post.Category) ([]post.Post, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY date DESC, created_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE category = ? ORDER BY date DESC, created_at DESC`, string(category))
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []post.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPostBySlug returns the most recently created post with slug in category.
func (s *Store) GetPostBySlug(ctx context.Context, category post.Category, slug string) (post.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE category = ? AND slug = ? ORDER BY created_at DESC LIMIT 1`,
		string(category), slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return post.Post{}, post.ErrNotFound
	}
	if err != nil {
		return post.Post{}, fmt.Errorf("get post %q: %w", slug, err)
	}
	return p, nil
}

// CreatePost inserts p under a new UUID. Duplicate slugs are allowed.
func (s *Store) CreatePost(ctx context.Context, p post.Post) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Title, p.Slug, p.Content, p.Excerpt, p.CoverImage, p.Location, string(p.Category),
		FormatTags(p.Tags), p.Date.UTC().Format(timeLayout), p.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// DeletePost removes the post with id. A missing id is logged, not reported.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.log.Warn().Str("id", id).Msg("delete matched no post")
	}
	return nil
}

// FormatTags stores tags as a comma-delimited string with leading and
// trailing commas (e.g. ",go,web,"). No tags is ",".
func FormatTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ReplaceAll(t, ",", " "))
		if t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return ","
	}
	return "," + strings.Join(clean, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return []string{}
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
