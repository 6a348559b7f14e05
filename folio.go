// Package folio is the web server behind a personal site with three
// sub-brands: AI consulting, DJ bookings and travel writing. It serves the
// marketing pages, a small post API backed by a document store, and contact
// and booking forms that notify the owner by email.
//
// Pages are rendered through the ViewFuncs struct, so templates can be
// swapped without touching handler logic.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kabuchi/folio/mailer"
	"github.com/kabuchi/folio/mongostore"
	"github.com/kabuchi/folio/objectstore"
	"github.com/kabuchi/folio/post"
	"github.com/kabuchi/folio/views"
	"github.com/kabuchi/folio/wizard"
)

// ViewFuncs holds the components the handlers render. DefaultViews returns
// the built-in set.
type ViewFuncs struct {
	Home           func(site views.Site, recent []post.Post) templ.Component
	AI             func(site views.Site, posts []post.Post, form views.FormState, csrf string) templ.Component
	DJ             func(site views.Site, form views.FormState, csrf string) templ.Component
	Travel         func(site views.Site, posts []post.Post, step wizard.Step, form views.FormState, csrf string) templ.Component
	Blog           func(site views.Site, posts []post.Post) templ.Component
	Post           func(site views.Site, p post.Post) templ.Component
	AdminLogin     func(site views.Site, showError bool, csrf string) templ.Component
	AdminDashboard func(site views.Site, posts []post.Post, form views.FormState, msg, csrf string) templ.Component
	AdminImages    func(site views.Site, images []objectstore.Object, msg, csrf string) templ.Component
	NotFound       func(site views.Site) templ.Component
	ServerError    func(site views.Site) templ.Component
}

// DefaultViews returns the templates shipped in the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           views.HomePage,
		AI:             views.AIPage,
		DJ:             views.DJPage,
		Travel:         views.TravelPage,
		Blog:           views.BlogPage,
		Post:           views.PostPage,
		AdminLogin:     views.AdminLoginPage,
		AdminDashboard: views.AdminDashboardPage,
		AdminImages:    views.AdminImagesPage,
		NotFound:       views.NotFoundPage,
		ServerError:    views.ServerErrorPage,
	}
}

// App is the central folio application. It wires together the stores,
// cache, email relay, handlers, middleware and templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  post.Store
	Cache  *PostCache
	Bucket objectstore.Bucket
	Mailer mailer.Sender
	Views  ViewFuncs
	Log    zerolog.Logger

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	ownsStore    bool
	ownsBucket   bool
	ready        bool
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:    cfg,
		Echo:      e,
		Views:     DefaultViews(),
		Log:       zerolog.Nop(),
		staticDir: cfg.StaticDir,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the configuration, opens the default backends for any
// that were not injected, and registers middleware and routes. It is
// called by Start and may be called directly to serve through a.Echo.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("folio: %w", err)
	}

	if a.Store == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		store, err := OpenStore(ctx, a.Config, a.Log)
		cancel()
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}

	if a.Bucket == nil {
		bucket, err := a.openBucket()
		if err != nil {
			return fmt.Errorf("folio: init bucket: %w", err)
		}
		a.Bucket = bucket
		a.ownsBucket = true
	}

	if a.Mailer == nil {
		a.Log.Warn().Msg("email relay not configured, booking notifications are disabled")
	}

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.ready = true
	return nil
}

// Start sets the app up and serves HTTP until Shutdown is called.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Log.Info().Str("addr", a.Config.Addr).Str("store", a.Config.StoreDriver).Msg("server starting")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", handleHealth)

	// Public pages
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/ai/", a.handleAI)
	e.GET("/dj/", a.handleDJ)
	e.GET("/travel/", a.handleTravel)
	e.GET("/blog/", a.handleBlog)
	e.GET("/ai/:slug/", a.handlePost(post.CategoryWork))
	e.GET("/travel/:slug/", a.handlePost(post.CategoryTravel))
	e.GET("/blog/:slug/", a.handlePost(post.CategoryPersonal))

	// Forms
	formLimit := formRateLimit()
	e.POST("/dj/book/", a.handleDJBooking, formLimit)
	e.POST("/ai/contact/", a.handleAIContact, formLimit)
	e.POST("/travel/plan/", a.handleTravelPlan, formLimit)

	// JSON API
	apiLimit := apiRateLimit()
	e.GET("/api/posts", a.handleListPosts)
	e.POST("/api/posts", a.handleAutomationCreatePost, apiLimit)
	e.POST("/api/posts/create", a.handleCreatePost, apiLimit)
	e.DELETE("/api/posts/:id", a.handleDeletePost)
	e.POST("/api/booking", a.handleBooking, formLimit)
	e.POST("/api/upload-image", a.handleUploadImage, apiLimit)

	// Admin
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/posts/", a.handleAdminCreatePost, requireAdmin)
	e.POST("/admin/posts/:id/delete/", a.handleAdminDeletePost, requireAdmin)
	e.GET("/admin/images/", a.handleImageList, requireAdmin)
	e.POST("/admin/images/upload/", a.handleImageUpload, requireAdmin)
	e.POST("/admin/images/delete/", a.handleImageDelete, requireAdmin)
}

// OpenStore opens the document store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg SiteConfig, log zerolog.Logger) (post.Store, error) {
	switch cfg.StoreDriver {
	case DriverMongo:
		s, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite, "":
		s, err := NewStore(cfg.DatabasePath, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openBucket opens BucketURL when configured, else a directory under the
// static root served at /public/uploads.
func (a *App) openBucket() (*objectstore.Store, error) {
	if a.Config.BucketURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return objectstore.Open(ctx, a.Config.BucketURL, a.Config.BucketPublicURL)
	}
	return objectstore.OpenDir(filepath.Join(a.staticDir, uploadsSubdir), "/public/"+uploadsSubdir)
}

// Close releases backends opened by Setup.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	var errs []error
	if a.ownsBucket {
		if c, ok := a.Bucket.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	if a.ownsStore && a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

func (a *App) site() views.Site {
	return views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}
