package folio

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kabuchi/folio/post"
)

func TestPagesRender(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	mustCreate(t, a.Store, post.Post{Title: "Build Log", Slug: "build-log", Content: "c", Category: post.CategoryWork, Date: day(2)})
	mustCreate(t, a.Store, post.Post{Title: "Porto Walks", Slug: "porto", Content: "c", Category: post.CategoryTravel, Date: day(1)})

	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"Test Folio", "Build Log", "Porto Walks", "application/ld+json"}},
		{"/ai/", []string{"Build Log", `action="/ai/contact/`}},
		{"/dj/", []string{`action="/dj/book/`, `name="_csrf"`}},
		{"/travel/", []string{"Porto Walks", "Step 1 of 4"}},
		{"/blog/", []string{"No posts yet."}},
		{"/ai/build-log/", []string{"Build Log"}},
	}
	for _, tt := range tests {
		rec := serve(a, getRequest(tt.path))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tt.path, rec.Code)
			continue
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: Content-Type = %q", tt.path, ct)
		}
		body := rec.Body.String()
		for _, w := range tt.want {
			if !strings.Contains(body, w) {
				t.Errorf("%s: body missing %q", tt.path, w)
			}
		}
		if strings.Contains(tt.path, "/ai/") && strings.Contains(body, "Porto Walks") {
			t.Errorf("%s: travel post listed on the AI page", tt.path)
		}
	}
}

func TestTrailingSlashRedirect(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	rec := serve(a, getRequest("/dj"))
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/dj/" {
		t.Errorf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestNotFound(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := serve(a, getRequest("/travel/nowhere/"))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("missing post: status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = serve(a, getRequest("/no/such/page/"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown page: status = %d", rec.Code)
	}

	rec = serve(a, getRequest("/api/nothing"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown api route: status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got == nil || got == "" {
		t.Errorf("expected a JSON error, got %s", rec.Body.String())
	}
}

// failingStore fails every read.
type failingStore struct{ post.Store }

func (failingStore) ListPosts(context.Context, post.Category) ([]post.Post, error) {
	return nil, errors.New("store unavailable")
}

func TestPagesDegradeWhenStoreFails(t *testing.T) {
	a := newTestApp(t, testConfig(t), WithPostStore(failingStore{}))

	for _, path := range []string{"/", "/ai/", "/travel/", "/blog/"} {
		rec := serve(a, getRequest(path))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
	if rec := serve(a, getRequest("/api/posts")); rec.Code != http.StatusInternalServerError {
		t.Errorf("/api/posts: status = %d, want 500", rec.Code)
	}
}

func TestSitemapAndFeed(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	mustCreate(t, a.Store, post.Post{Title: "Porto <Walks>", Slug: "porto", Content: "c", Excerpt: "Hills", Category: post.CategoryTravel, Date: day(9)})

	rec := serve(a, getRequest("/sitemap.xml"))
	if rec.Code != http.StatusOK {
		t.Fatalf("sitemap: status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<loc>https://example.com</loc>",
		"<loc>https://example.com/dj/</loc>",
		"<loc>https://example.com/travel/porto/</loc>",
		"<lastmod>2024-01-09</lastmod>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}

	rec = serve(a, getRequest("/feed.xml"))
	if rec.Code != http.StatusOK {
		t.Fatalf("feed: status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("feed Content-Type = %q", ct)
	}
	body = rec.Body.String()
	for _, want := range []string{"<title>Porto &lt;Walks&gt;</title>", "<category>travel</category>", "<description>Hills</description>"} {
		if !strings.Contains(body, want) {
			t.Errorf("feed missing %q", want)
		}
	}
}

func TestRobotsAndHealth(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	rec := serve(a, getRequest("/robots.txt"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("generated robots: %d %q", rec.Code, rec.Body.String())
	}

	if err := os.WriteFile(filepath.Join(cfg.StaticDir, "robots.txt"), []byte("User-agent: *\nAllow: /\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec = serve(a, getRequest("/robots.txt"))
	if !strings.Contains(rec.Body.String(), "Allow: /") {
		t.Errorf("static robots not served: %q", rec.Body.String())
	}

	rec = serve(a, getRequest("/healthz"))
	if rec.Code != http.StatusOK || decodeBody(t, rec)["status"] != "ok" {
		t.Errorf("healthz: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCustomRoutes(t *testing.T) {
	a := newTestApp(t, testConfig(t), WithCustomRoutes(func(a *App) {
		a.Echo.GET("/uses/", func(c echo.Context) error {
			return c.String(http.StatusOK, "gear list")
		})
	}))
	rec := serve(a, getRequest("/uses/"))
	if rec.Code != http.StatusOK || rec.Body.String() != "gear list" {
		t.Errorf("custom route: %d %q", rec.Code, rec.Body.String())
	}
}
