package folio

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/kabuchi/folio/post"
	"github.com/kabuchi/folio/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.site(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, http.StatusOK, views.FormState{}, c.QueryParam("msg"))
}

// checkPassword accepts either a bcrypt hash or a plain password in config.
func checkPassword(configured, given string) bool {
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(configured)) == 1
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	if checkPassword(a.Config.AdminPassword, c.FormValue("password")) {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		a.Log.Info().Str("ip", ip).Msg("admin login")
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Log.Warn().Str("ip", ip).Msg("failed admin login")
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

var adminPostFields = []string{"title", "slug", "category", "date", "location", "coverImage", "tags", "excerpt", "content", "markdown"}

// handleAdminCreatePost publishes a post from the dashboard form through the
// same path as the JSON intake. A blank slug is derived from the title.
func (a *App) handleAdminCreatePost(c echo.Context) error {
	form := views.FormState{Values: formValues(c, adminPostFields...)}
	v := form.Values

	content := v["content"]
	if v["markdown"] != "" && strings.TrimSpace(content) != "" {
		html, err := post.MarkdownToHTML(content)
		if err != nil {
			form.Errors = map[string]string{"content": "Could not render Markdown."}
			return a.renderAdminDashboard(c, http.StatusUnprocessableEntity, form, "")
		}
		content = html
	}
	slug := strings.TrimSpace(v["slug"])
	if slug == "" {
		slug = post.Slugify(v["title"])
	}

	errs := map[string]string{}
	for _, name := range missingFields(map[string]string{
		"title": v["title"], "content": v["content"], "category": v["category"], "slug": slug,
	}, "title", "content", "category", "slug") {
		errs[name] = "This field is required."
	}
	if _, ok := post.ParseCategory(v["category"]); !ok && v["category"] != "" {
		errs["category"] = "Please select one of the options."
	}
	if len(errs) > 0 {
		form.Errors = errs
		return a.renderAdminDashboard(c, http.StatusUnprocessableEntity, form, "")
	}

	in := PostInput{
		Title:      v["title"],
		Content:    content,
		Category:   v["category"],
		Excerpt:    v["excerpt"],
		CoverImage: v["coverImage"],
		Location:   v["location"],
	}
	if d := strings.TrimSpace(v["date"]); d != "" {
		in.Date, _ = json.Marshal(d)
	}
	p, err := buildPost(in, slug, postDefaults{CoverImage: adminCoverImage}, time.Now().UTC())
	if err != nil {
		form.Errors = map[string]string{"date": "Use YYYY-MM-DD."}
		return a.renderAdminDashboard(c, http.StatusUnprocessableEntity, form, "")
	}
	p.Tags = post.SplitTags(v["tags"])
	if p.Tags == nil {
		p.Tags = []string{}
	}

	if _, err := a.savePost(c, p); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape("Published "+p.URL()))
}

func (a *App) handleAdminDeletePost(c echo.Context) error {
	id := c.Param("id")
	if err := a.Store.DeletePost(c.Request().Context(), id); err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.Log.Info().Str("id", id).Msg("post deleted from dashboard")
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=Post+deleted.")
}

// renderAdminDashboard reads straight from the store so the list reflects
// writes immediately.
func (a *App) renderAdminDashboard(c echo.Context, code int, form views.FormState, msg string) error {
	posts, err := a.Store.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return RenderStatus(c, code, a.Views.AdminDashboard(a.site(), posts, form, msg, CsrfToken(c)))
}
