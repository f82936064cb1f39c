// Package linkpress is a blog front-end built with Go, Echo, and templ. Posts
// are short cards linking to articles published elsewhere; readers browse
// them by category, tag or search, and an admin adds new ones.
//
// The App wires together the store, the blog service, image uploads, article
// previews, middleware and routes.
package linkpress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/events"
	"github.com/eringen/linkpress/filestore"
	"github.com/eringen/linkpress/preview"
	"github.com/eringen/linkpress/store"
	"github.com/eringen/linkpress/views"
)

// App is the central linkpress application.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  store.Store
	Blog   *blog.Service

	events       events.Publisher
	images       filestore.Store
	previews     *preview.Fetcher
	loginLimiter *LoginLimiter
	metrics      *prometheus.Registry
	customRoutes []func(*App)
	staticDir    string
	ready        bool
}

// New creates a new linkpress App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the store and the optional collaborators and registers
// middleware and routes. Start calls it; tests call it directly.
func (a *App) Init(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return errors.New("linkpress: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("linkpress: SessionSecret is required")
	}

	if a.Store == nil {
		st, err := store.Open(ctx, store.Config{Driver: a.Config.DatabaseDriver, DSN: a.Config.DatabaseDSN})
		if err != nil {
			return fmt.Errorf("linkpress: init store: %w", err)
		}
		a.Store = st
	}

	if a.events == nil {
		a.events = events.Nop{}
		if a.Config.NATSURL != "" {
			nc, err := events.Connect(a.Config.NATSURL)
			if err != nil {
				return fmt.Errorf("linkpress: init events: %w", err)
			}
			a.events = nc
		}
	}

	if a.images == nil {
		if a.Config.S3Bucket != "" {
			s3, err := filestore.NewS3(ctx, filestore.S3Config{
				Bucket:   a.Config.S3Bucket,
				Region:   a.Config.S3Region,
				Prefix:   "uploads/",
				BaseURL:  a.Config.S3BaseURL,
				Endpoint: a.Config.S3Endpoint,
			})
			if err != nil {
				return fmt.Errorf("linkpress: init image store: %w", err)
			}
			a.images = s3
		} else {
			a.images = filestore.NewLocal(a.Config.UploadDir, "/public/uploads")
		}
	}

	if a.previews == nil {
		a.previews = preview.NewFetcher(a.Config.PreviewTimeout, a.Config.PreviewMaxBytes)
	}

	a.Blog = blog.NewService(a.Store, a.Echo.Logger, blog.WithPublisher(a.events))
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.metrics = prometheus.NewRegistry()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets are served under /public/ ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/linkpress.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/linkpress.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/metrics", a.metricsHandler())

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)

	// JSON API
	api := e.Group("/api")
	api.GET("/posts", a.handleAPIPosts)
	api.GET("/categories", a.handleAPICategories)
	api.GET("/tags", a.handleAPITags)
	api.POST("/auth/token", a.handleAPIToken)
	api.POST("/admin/posts", a.handleAPICreatePost, a.requireToken)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	admin := e.Group("/admin", requireAdmin)
	admin.POST("/posts/", a.handleAdminCreatePost)
	admin.GET("/preview/", a.handleAdminPreview)
	admin.POST("/images/upload/", a.handleImageUpload)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var err error
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.events != nil {
		err = a.events.Close()
	}
	if a.Store != nil {
		if cerr := a.Store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}
