package folio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/kabuchi/folio/mailer"
	"github.com/kabuchi/folio/objectstore"
	"github.com/kabuchi/folio/post"
)

// Store drivers accepted in SiteConfig.StoreDriver.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string // Site name (default "Folio")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr          string // Listen address (default ":3000")
	StoreDriver   string // "sqlite" (default) or "mongo"
	DatabasePath  string // SQLite path (default "data/folio.db")
	MongoURI      string // Required when StoreDriver is "mongo"
	MongoDatabase string // Mongo database name (default "folio")
	StaticDir     string // Static assets and uploads (default "public")

	BucketURL       string // Upload bucket URL such as "gs://bucket"; uploads go under StaticDir when empty
	BucketPublicURL string // Public base URL of BucketURL objects

	ResendAPIKey  string // Email relay key; email is skipped when empty
	ResendBaseURL string // Email relay endpoint override
	NotifyEmail   string // Owner address booking notifications go to (default "delivered@resend.dev")
	MailFrom      string // Sender address (default "Booking Request <onboarding@resend.dev>")

	AutomationAPIKey string // Bearer token for POST /api/posts

	AdminPassword string // Required: admin login password, plain or bcrypt hash
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PostCacheTTL time.Duration // Post cache TTL (default 5min, negative disables caching)

	LogLevel  string // debug, info, warn, error (default info)
	LogFormat string // json (default) or pretty
}

// Relay defaults usable before a sending domain is verified.
const (
	defaultMailFrom    = "Booking Request <onboarding@resend.dev>"
	defaultNotifyEmail = "delivered@resend.dev"
)

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Folio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.StoreDriver == "" {
		c.StoreDriver = DriverSQLite
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "folio"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.MailFrom == "" {
		c.MailFrom = defaultMailFrom
	}
	if c.NotifyEmail == "" {
		c.NotifyEmail = defaultNotifyEmail
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// Validate reports configuration that prevents the server from starting.
func (c SiteConfig) Validate() error {
	var errs []error
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.BucketURL != "" && c.BucketPublicURL == "" {
		errs = append(errs, errors.New("BUCKET_PUBLIC_URL is required with BUCKET_URL"))
	}
	switch c.StoreDriver {
	case DriverSQLite, "":
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	return errors.Join(errs...)
}

// envKeys maps each config key to the environment variables it reads, in
// priority order.
var envKeys = map[string][]string{
	"site_name":          {"SITE_NAME"},
	"site_url":           {"SITE_URL"},
	"site_description":   {"SITE_DESCRIPTION"},
	"site_author":        {"SITE_AUTHOR"},
	"addr":               {"ADDR"},
	"store_driver":       {"STORE_DRIVER"},
	"database_path":      {"DATABASE_PATH"},
	"mongo_uri":          {"MONGO_URI"},
	"mongo_database":     {"MONGO_DATABASE"},
	"static_dir":         {"STATIC_DIR"},
	"bucket_url":         {"BUCKET_URL"},
	"bucket_public_url":  {"BUCKET_PUBLIC_URL"},
	"resend_api_key":     {"RESEND_API_KEY"},
	"resend_base_url":    {"RESEND_BASE_URL"},
	"notify_email":       {"NOTIFY_EMAIL", "MY_EMAIL"},
	"mail_from":          {"MAIL_FROM"},
	"automation_api_key": {"AUTOMATION_API_KEY", "N8N_API_KEY"},
	"admin_password":     {"ADMIN_PASSWORD"},
	"session_secret":     {"SESSION_SECRET"},
	"cookie_secure":      {"COOKIE_SECURE"},
	"post_cache_ttl":     {"POST_CACHE_TTL"},
	"log_level":          {"LOG_LEVEL"},
	"log_format":         {"LOG_FORMAT"},
}

// LoadConfig reads configuration from the environment and, when path is
// non-empty, from a YAML, TOML or JSON file. Environment variables win.
func LoadConfig(path string) (SiteConfig, error) {
	v := viper.New()
	for key, envs := range envKeys {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return SiteConfig{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return SiteConfig{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := SiteConfig{
		Name:             v.GetString("site_name"),
		URL:              v.GetString("site_url"),
		Description:      v.GetString("site_description"),
		Author:           v.GetString("site_author"),
		Addr:             v.GetString("addr"),
		StoreDriver:      strings.ToLower(v.GetString("store_driver")),
		DatabasePath:     v.GetString("database_path"),
		MongoURI:         v.GetString("mongo_uri"),
		MongoDatabase:    v.GetString("mongo_database"),
		StaticDir:        v.GetString("static_dir"),
		BucketURL:        v.GetString("bucket_url"),
		BucketPublicURL:  v.GetString("bucket_public_url"),
		ResendAPIKey:     v.GetString("resend_api_key"),
		ResendBaseURL:    v.GetString("resend_base_url"),
		NotifyEmail:      v.GetString("notify_email"),
		MailFrom:         v.GetString("mail_from"),
		AutomationAPIKey: v.GetString("automation_api_key"),
		AdminPassword:    v.GetString("admin_password"),
		SessionSecret:    v.GetString("session_secret"),
		CookieSecure:     v.GetBool("cookie_secure"),
		PostCacheTTL:     v.GetDuration("post_cache_ttl"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
	}
	if v.IsSet("post_cache_ttl") && cfg.PostCacheTTL == 0 {
		// An explicit zero turns the cache off rather than picking the default.
		cfg.PostCacheTTL = -1
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets (default SiteConfig.StaticDir).
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithPostStore injects the document store. The App does not close an
// injected store.
func WithPostStore(s post.Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithBucket injects the object store used for image uploads.
func WithBucket(b objectstore.Bucket) Option {
	return func(a *App) {
		a.Bucket = b
	}
}

// WithMailer injects the email relay. Without one, notifications are skipped.
func WithMailer(m mailer.Sender) Option {
	return func(a *App) {
		a.Mailer = m
	}
}

// WithLogger sets the application logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithViews replaces the built-in page templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
