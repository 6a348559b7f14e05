package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kabuchi/folio/mailer"
)

const (
	testPassword      = "correct horse"
	testAutomationKey = "automation-secret"
)

// fakeMailer records every message and fails with err when set.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func testConfig(t *testing.T) SiteConfig {
	t.Helper()
	dir := t.TempDir()
	return SiteConfig{
		Name:             "Test Folio",
		URL:              "https://example.com",
		DatabasePath:     filepath.Join(dir, "data", "folio.db"),
		StaticDir:        filepath.Join(dir, "public"),
		AdminPassword:    testPassword,
		SessionSecret:    "test-session-secret-0123456789abcdef",
		AutomationAPIKey: testAutomationKey,
		NotifyEmail:      "owner@example.com",
	}
}

// newTestApp builds a fully set up App on a temp SQLite database.
func newTestApp(t *testing.T, cfg SiteConfig, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	a := New(cfg, opts...)
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func getRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func doJSON(t *testing.T, a *App, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return serve(a, req)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// browser carries cookies between requests the way a real client would.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, a *App) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := serve(b.app, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

// csrf returns the token issued by a GET of any page.
func (b *browser) csrf() string {
	b.t.Helper()
	if c, ok := b.cookies["_csrf"]; ok {
		return c.Value
	}
	b.get("/dj/")
	c, ok := b.cookies["_csrf"]
	if !ok {
		b.t.Fatal("no _csrf cookie issued")
	}
	return c.Value
}

func (b *browser) postForm(target string, values url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	if values == nil {
		values = url.Values{}
	}
	values.Set("_csrf", b.csrf())
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login() {
	b.t.Helper()
	rec := b.postForm("/admin/login/", url.Values{"password": {testPassword}})
	if rec.Code != http.StatusSeeOther {
		b.t.Fatalf("login status = %d, want 303; body %s", rec.Code, rec.Body.String())
	}
}
