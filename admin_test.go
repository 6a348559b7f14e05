package folio

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kabuchi/folio/post"
)

func TestCheckPassword(t *testing.T) {
	if !checkPassword("secret", "secret") {
		t.Error("plain password should match")
	}
	if checkPassword("secret", "Secret") {
		t.Error("plain password should be case sensitive")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if !checkPassword(string(hash), "secret") {
		t.Error("bcrypt hash should match")
	}
	if checkPassword(string(hash), "wrong") {
		t.Error("bcrypt hash should reject a wrong password")
	}
	if checkPassword(string(hash), string(hash)) {
		t.Error("the hash itself is not the password")
	}
}

func TestAdminLogin(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	b := newBrowser(t, a)

	rec := b.get("/admin/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Fatalf("expected login form, got %d", rec.Code)
	}

	rec = b.postForm("/admin/login/", url.Values{"password": {"nope"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid password.") {
		t.Error("error message missing")
	}

	b.login()
	rec = b.get("/admin/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/admin/posts/") {
		t.Fatalf("expected dashboard after login, got %d", rec.Code)
	}

	rec = b.postForm("/admin/logout/", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout: status = %d, want 303", rec.Code)
	}
	var expired *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			expired = c
		}
	}
	if expired == nil || expired.MaxAge >= 0 {
		t.Fatalf("logout did not expire the session cookie: %+v", expired)
	}
	rec = b.postForm("/admin/posts/", url.Values{"title": {"T"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/" {
		t.Errorf("after logout: status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}

	// A client that ignores the expiry and replays the cookie stays logged out.
	req := httptest.NewRequest(http.MethodGet, "/admin/images/", nil)
	req.AddCookie(&http.Cookie{Name: sessionName, Value: expired.Value})
	if rec := serve(a, req); rec.Code != http.StatusSeeOther {
		t.Errorf("replayed logout cookie: status = %d, want 303", rec.Code)
	}
}

func TestAdminLoginLimited(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	b := newBrowser(t, a)

	for i := 0; i < 5; i++ {
		if rec := b.postForm("/admin/login/", url.Values{"password": {"nope"}}); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i, rec.Code)
		}
	}
	rec := b.postForm("/admin/login/", url.Values{"password": {testPassword}})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	b := newBrowser(t, a)

	for _, target := range []string{"/admin/posts/", "/admin/posts/abc/delete/", "/admin/images/delete/"} {
		rec := b.postForm(target, nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/" {
			t.Errorf("%s: status = %d location = %q", target, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestAdminCreateMarkdownPost(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	b := newBrowser(t, a)
	b.login()

	rec := b.postForm("/admin/posts/", url.Values{
		"title":    {"Notes From Kyoto"},
		"category": {"travel"},
		"date":     {"2024-04-02"},
		"tags":     {"japan, food ,"},
		"content":  {"# Day one\n\nWe ate **ramen**."},
		"markdown": {"on"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/admin/?msg=") || !strings.Contains(loc, url.QueryEscape("/travel/notes-from-kyoto")) {
		t.Errorf("Location = %q", loc)
	}

	posts := listAll(t, a)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	p := posts[0]
	if p.Slug != "notes-from-kyoto" || p.Category != post.CategoryTravel {
		t.Errorf("post = %+v", p)
	}
	if !strings.Contains(p.Content, "<h1>Day one</h1>") || !strings.Contains(p.Content, "<strong>ramen</strong>") {
		t.Errorf("Content = %q", p.Content)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "japan" || p.Tags[1] != "food" {
		t.Errorf("Tags = %v", p.Tags)
	}
	if p.Date.Format("2006-01-02") != "2024-04-02" {
		t.Errorf("Date = %v", p.Date)
	}

	rec = b.get(loc)
	if !strings.Contains(rec.Body.String(), "Published /travel/notes-from-kyoto") {
		t.Error("dashboard does not show the publish notice")
	}
}

func TestAdminCreateValidation(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	b := newBrowser(t, a)
	b.login()

	rec := b.postForm("/admin/posts/", url.Values{"title": {"Draft"}, "category": {"music"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "This field is required.") || !strings.Contains(body, "Please select one of the options.") {
		t.Error("field errors missing")
	}
	if !strings.Contains(body, `value="Draft"`) {
		t.Error("submitted title not kept")
	}

	rec = b.postForm("/admin/posts/", url.Values{
		"title": {"Dated"}, "category": {"work"}, "content": {"c"}, "date": {"soon"},
	})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Use YYYY-MM-DD.") {
		t.Errorf("bad date: status = %d", rec.Code)
	}
	if n := len(listAll(t, a)); n != 0 {
		t.Errorf("expected nothing inserted, found %d posts", n)
	}
}

func TestAdminDeletePost(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	b := newBrowser(t, a)
	id := mustCreate(t, a.Store, post.Post{Title: "Bye", Slug: "bye", Content: "c", Category: post.CategoryPersonal, Date: day(1)})
	b.login()

	rec := b.postForm("/admin/posts/"+id+"/delete/", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if n := len(listAll(t, a)); n != 0 {
		t.Errorf("expected post deleted, found %d", n)
	}
	if rec := b.get("/blog/bye/"); rec.Code != http.StatusNotFound {
		t.Errorf("deleted post page: status = %d, want 404", rec.Code)
	}
}
