package linkpress

import (
	"time"

	"github.com/eringen/linkpress/events"
	"github.com/eringen/linkpress/filestore"
	"github.com/eringen/linkpress/store"
)

// SiteConfig holds all configuration for a linkpress site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr           string // Listen address (default ":3000")
	DatabaseDriver string // "sqlite" (default) or "postgres"
	DatabaseDSN    string // SQLite path (default "data/linkpress.db") or PostgreSQL DSN

	AdminUser     string        // Name shown for the signed-in admin (default "admin")
	AdminPassword string        // Required: admin login password
	SessionSecret string        // Required: session encryption secret
	JWTSecret     string        // API token signing key (default SessionSecret)
	TokenTTL      time.Duration // API token lifetime (default 12h)
	CookieSecure  bool          // Set true for HTTPS

	NATSURL string // Publish post events to NATS when set

	UploadDir  string // Local upload directory (default "public/uploads")
	S3Bucket   string // Store uploads in this bucket instead of UploadDir
	S3Region   string // Bucket region (default "us-east-1")
	S3Endpoint string // Custom endpoint for S3-compatible services
	S3BaseURL  string // Public URL uploads are served from

	PreviewTimeout  time.Duration // Article preview fetch timeout (default 10s)
	PreviewMaxBytes int64         // Largest article page fetched for preview (default 2MB)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = store.DriverSQLite
	}
	if c.DatabaseDSN == "" && c.DatabaseDriver == store.DriverSQLite {
		c.DatabaseDSN = "data/linkpress.db"
	}
	if c.AdminUser == "" {
		c.AdminUser = "admin"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = c.SessionSecret
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
	if c.UploadDir == "" {
		c.UploadDir = "public/uploads"
	}
	if c.S3Region == "" {
		c.S3Region = "us-east-1"
	}
	if c.PreviewTimeout == 0 {
		c.PreviewTimeout = 10 * time.Second
	}
	if c.PreviewMaxBytes == 0 {
		c.PreviewMaxBytes = 2 << 20
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithStore uses st instead of opening the configured database. The App
// closes it on Close.
func WithStore(st store.Store) Option {
	return func(a *App) {
		a.Store = st
	}
}

// WithPublisher sends post events to p instead of the configured NATS server.
func WithPublisher(p events.Publisher) Option {
	return func(a *App) {
		a.events = p
	}
}

// WithImageStore keeps uploads in fs instead of the configured location.
func WithImageStore(fs filestore.Store) Option {
	return func(a *App) {
		a.images = fs
	}
}
