package folio

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kabuchi/folio/post"
	"github.com/kabuchi/folio/views"
	"github.com/kabuchi/folio/wizard"
)

const recentPosts = 3

// listOrEmpty reads a category through the cache. Store failures are logged
// and the page renders with no posts.
func (a *App) listOrEmpty(c echo.Context, category post.Category) []post.Post {
	posts, err := a.Cache.ListPosts(c.Request().Context(), category)
	if err != nil {
		a.Log.Error().Err(err).Str("category", string(category)).Msg("list posts for page")
		return []post.Post{}
	}
	return posts
}

func (a *App) handleHome(c echo.Context) error {
	posts := a.listOrEmpty(c, "")
	if len(posts) > recentPosts {
		posts = posts[:recentPosts]
	}
	return Render(c, a.Views.Home(a.site(), posts))
}

func (a *App) handleAI(c echo.Context) error {
	posts := a.listOrEmpty(c, post.CategoryWork)
	return Render(c, a.Views.AI(a.site(), posts, views.FormState{}, CsrfToken(c)))
}

func (a *App) handleDJ(c echo.Context) error {
	return Render(c, a.Views.DJ(a.site(), views.FormState{}, CsrfToken(c)))
}

func (a *App) handleTravel(c echo.Context) error {
	posts := a.listOrEmpty(c, post.CategoryTravel)
	wz := wizard.New()
	return Render(c, a.Views.Travel(a.site(), posts, wz.Step(), views.FormState{}, CsrfToken(c)))
}

func (a *App) handleBlog(c echo.Context) error {
	posts := a.listOrEmpty(c, post.CategoryPersonal)
	return Render(c, a.Views.Blog(a.site(), posts))
}

// handlePost serves a single post from category.
func (a *App) handlePost(category post.Category) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := a.Cache.GetPostBySlug(c.Request().Context(), category, c.Param("slug"))
		if err != nil {
			if errors.Is(err, post.ErrNotFound) {
				return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
			}
			return err
		}
		return Render(c, a.Views.Post(a.site(), p))
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.svg"))
}

// handleRobots serves robots.txt from the static dir, falling back to a
// generated file that points crawlers at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\nSitemap: " + a.Config.URL + "/sitemap.xml\n")
	return c.String(http.StatusOK, b.String())
}

// httpErrorHandler answers JSON under /api/ and renders the styled error
// pages everywhere else.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if isAPIRequest(c) {
		msg := http.StatusText(code)
		if he != nil {
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if code >= 500 {
			a.Log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("api error")
		}
		_ = c.JSON(code, apiError{Error: msg})
		return
	}

	if code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
		return
	}
	if code >= 500 {
		a.Log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
