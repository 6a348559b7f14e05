package folio

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kabuchi/folio/post"
)

const (
	adminCoverImage      = "/placeholder-image.jpg"
	automationCoverImage = "https://images.unsplash.com/photo-1451187580459-43490279c0fa?q=80&w=2072&auto=format&fit=crop"
	automationLocation   = "Remote"
)

// PostInput is a create request as sent by the dashboard or the automation
// webhook. Tags and Date are kept raw because clients send them loosely typed.
type PostInput struct {
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Category   string          `json:"category"`
	Slug       string          `json:"slug"`
	Excerpt    string          `json:"excerpt"`
	CoverImage string          `json:"coverImage"`
	Location   string          `json:"location"`
	Tags       json.RawMessage `json:"tags"`
	Date       json.RawMessage `json:"date"`
}

// tags returns the tags when they were sent as an array of strings, else empty.
func (in PostInput) tags() []string {
	var tags []string
	if len(in.Tags) == 0 || json.Unmarshal(in.Tags, &tags) != nil {
		return []string{}
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// date returns the date field as text, accepting JSON strings and numbers.
func (in PostInput) date() string {
	raw := strings.TrimSpace(string(in.Date))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(in.Date, &s) == nil {
		return s
	}
	return raw
}

// postDefaults are the values used for optional fields left blank.
type postDefaults struct {
	CoverImage string
	Location   string
}

// buildPost validates nothing beyond the date; callers check required
// fields and the category first.
func buildPost(in PostInput, slug string, d postDefaults, now time.Time) (post.Post, error) {
	date, err := ParseDate(in.date(), now)
	if err != nil {
		return post.Post{}, err
	}
	p := post.Post{
		Title:      strings.TrimSpace(in.Title),
		Slug:       slug,
		Content:    in.Content,
		Excerpt:    in.Excerpt,
		CoverImage: strings.TrimSpace(in.CoverImage),
		Location:   strings.TrimSpace(in.Location),
		Category:   post.Category(in.Category),
		Tags:       in.tags(),
		Date:       date,
		CreatedAt:  now,
	}
	if strings.TrimSpace(p.Excerpt) == "" {
		p.Excerpt = post.Excerpt(p.Content)
	}
	if p.CoverImage == "" {
		p.CoverImage = d.CoverImage
	}
	if p.Location == "" {
		p.Location = d.Location
	}
	return p, nil
}

// missingFields returns the names in required whose values are blank.
func missingFields(values map[string]string, required ...string) []string {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// savePost writes p and drops the page cache.
func (a *App) savePost(c echo.Context, p post.Post) (string, error) {
	id, err := a.Store.CreatePost(c.Request().Context(), p)
	if err != nil {
		return "", err
	}
	a.Cache.Invalidate()
	a.Log.Info().
		Str("id", id).
		Str("slug", p.Slug).
		Str("category", string(p.Category)).
		Msg("post created")
	return id, nil
}

func decodePostInput(c echo.Context) (PostInput, error) {
	var in PostInput
	if err := json.NewDecoder(c.Request().Body).Decode(&in); err != nil {
		return PostInput{}, err
	}
	return in, nil
}

type createPostResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  string `json:"postId"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
}

// handleCreatePost is the dashboard intake. Every field is client supplied,
// including the slug.
func (a *App) handleCreatePost(c echo.Context) error {
	in, err := decodePostInput(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid JSON body")
	}

	required := []string{"title", "content", "category", "slug"}
	if missingFields(map[string]string{
		"title": in.Title, "content": in.Content, "category": in.Category, "slug": in.Slug,
	}, required...) != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: "Missing required fields", Required: required})
	}
	if _, ok := post.ParseCategory(in.Category); !ok {
		return c.JSON(http.StatusBadRequest, apiError{Error: "Invalid category", ValidCategories: categoryNames()})
	}

	p, err := buildPost(in, strings.TrimSpace(in.Slug), postDefaults{CoverImage: adminCoverImage}, time.Now().UTC())
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid date")
	}
	id, err := a.savePost(c, p)
	if err != nil {
		a.Log.Error().Err(err).Msg("create post")
		return jsonFailure(c, "Failed to create post", err)
	}
	return c.JSON(http.StatusCreated, createPostResponse{
		Success: true,
		Message: "Post created successfully",
		PostID:  id,
		Slug:    p.Slug,
		URL:     p.URL(),
	})
}

type automationPostResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
}

// bearerMatches compares the Authorization header with "Bearer <key>" in
// constant time.
func bearerMatches(header, key string) bool {
	return subtle.ConstantTimeCompare([]byte(header), []byte("Bearer "+key)) == 1
}

// handleAutomationCreatePost is the webhook intake for automation tools.
// The slug is always derived from the title.
func (a *App) handleAutomationCreatePost(c echo.Context) error {
	key := a.Config.AutomationAPIKey
	if key == "" {
		a.Log.Error().Msg("AUTOMATION_API_KEY is not set, rejecting automation request")
		return jsonError(c, http.StatusInternalServerError, "Server Configuration Error")
	}
	if !bearerMatches(c.Request().Header.Get(echo.HeaderAuthorization), key) {
		return jsonError(c, http.StatusUnauthorized, "Unauthorized")
	}

	in, err := decodePostInput(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid JSON body")
	}
	required := []string{"title", "content", "category"}
	if missingFields(map[string]string{
		"title": in.Title, "content": in.Content, "category": in.Category,
	}, required...) != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: "Missing required fields: title, content, category", Required: required})
	}
	if _, ok := post.ParseCategory(in.Category); !ok {
		return c.JSON(http.StatusBadRequest, apiError{Error: "Invalid category", ValidCategories: categoryNames()})
	}
	slug := post.Slugify(in.Title)
	if slug == "" {
		return jsonError(c, http.StatusBadRequest, "Title must contain letters or digits")
	}

	p, err := buildPost(in, slug, postDefaults{CoverImage: automationCoverImage, Location: automationLocation}, time.Now().UTC())
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid date")
	}
	id, err := a.savePost(c, p)
	if err != nil {
		a.Log.Error().Err(err).Msg("automation create post")
		return jsonFailure(c, "Internal Server Error", err)
	}
	return c.JSON(http.StatusCreated, automationPostResponse{Success: true, ID: id, Slug: slug, URL: p.URL()})
}

type deletePostResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	DeletedID string `json:"deletedId"`
}

// handleDeletePost removes a post by id without checking that it exists.
func (a *App) handleDeletePost(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return jsonError(c, http.StatusBadRequest, "Post ID is required")
	}
	if err := a.Store.DeletePost(c.Request().Context(), id); err != nil {
		a.Log.Error().Err(err).Str("id", id).Msg("delete post")
		return jsonFailure(c, "Failed to delete post", err)
	}
	a.Cache.Invalidate()
	a.Log.Info().Str("id", id).Msg("post deleted")
	return c.JSON(http.StatusOK, deletePostResponse{
		Success:   true,
		Message:   "Post deleted successfully",
		DeletedID: id,
	})
}

type listPostsResponse struct {
	Posts []post.Post `json:"posts"`
}

// handleListPosts reads straight from the store so API clients never see
// stale cache entries.
func (a *App) handleListPosts(c echo.Context) error {
	var category post.Category
	if raw := c.QueryParam("category"); raw != "" {
		cat, ok := post.ParseCategory(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, apiError{Error: "Invalid category", ValidCategories: categoryNames()})
		}
		category = cat
	}
	posts, err := a.Store.ListPosts(c.Request().Context(), category)
	if err != nil {
		a.Log.Error().Err(err).Msg("list posts")
		return jsonFailure(c, "Failed to list posts", err)
	}
	if posts == nil {
		posts = []post.Post{}
	}
	return c.JSON(http.StatusOK, listPostsResponse{Posts: posts})
}
