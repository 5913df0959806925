// Package marquee is a marketing and blog site engine built with Go, Echo,
// and templ. It serves the public pages, a newsletter signup, and an
// authenticated admin dashboard with CRUD over blogs, link posts, and site
// metadata.
//
// Users provide their own templ components via the ViewFuncs struct;
// marquee owns the handler logic, middleware, storage, and uploads.
package marquee

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/hollis-dev/marquee/newsletter"
	"github.com/hollis-dev/marquee/views"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Home    func(blogs []views.BlogCard, flash views.Flash, siteURL string) templ.Component
	Blogs   func(blogs []views.BlogCard) templ.Component
	Blog    func(detail views.BlogDetail, siteURL string) templ.Component
	Posts   func(posts []views.LinkCard, logoURL string) templ.Component
	Website func(links []views.SocialLink) templ.Component

	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(d views.Dashboard, csrfToken string) templ.Component
	AdminEdit      func(form views.FormView, csrfToken string) templ.Component

	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central marquee application. It wires together the store,
// cache, buckets, handlers, middleware, and user-provided templates.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Store      ContentStore
	Cache      *BlogCache
	Buckets    BucketStore
	Views      ViewFuncs
	Newsletter *newsletter.Service

	watcher          *AuthWatcher
	loginLimiter     *LoginLimiter
	subscribeHandler *newsletter.Handler
	customRoutes     []func(*App)
	staticDir        string
}

// New creates a marquee App with the given configuration and view functions.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     v,
		watcher:   NewAuthWatcher(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Watcher exposes the auth observable so callers can react to sign-in and
// sign-out without polling the session.
func (a *App) Watcher() *AuthWatcher {
	return a.watcher
}

// Start initializes storage, cache, middleware, and routes, then starts the
// server. It blocks until the server stops.
func (a *App) Start() error {
	if a.Config.AdminEmail == "" {
		return fmt.Errorf("marquee: AdminEmail is required")
	}
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("marquee: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("marquee: SessionSecret is required")
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("marquee: init store: %w", err)
		}
		a.Store = store
	}
	if a.Buckets == nil {
		a.Buckets = NewDiskBucketStore(a.staticDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := SeedAdmin(ctx, a.Store, a.Config.AdminEmail, a.Config.AdminPassword); err != nil {
		return fmt.Errorf("marquee: seed admin: %w", err)
	}

	a.Cache = NewBlogCache(a.Store, a.Config.BlogCacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.Newsletter = newsletter.NewService(a.Store)
	a.subscribeHandler = newsletter.NewHandler(a.Newsletter)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets plus uploaded files.
	e.Static("/public", a.staticDir)
	e.GET("/favicon.ico", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public pages
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/blogs/", a.handleBlogs)
	e.GET("/blog/:id/", a.handleBlog)
	e.GET("/posts/", a.handlePosts)
	e.GET("/website/", a.handleWebsite)

	// Newsletter: site form plus the JSON endpoint.
	e.POST("/subscribe/", a.handleSubscribe)
	a.subscribeHandler.Register(e)

	// Admin
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", a.handleAdminLogout)
	e.POST("/admin/reset/", a.handleAdminReset)
	e.GET("/admin/:kind/:id/edit/", a.handleAdminEdit)
	e.POST("/admin/:kind/", a.handleAdminCreate)
	e.POST("/admin/:kind/:id/", a.handleAdminUpdate)
	e.DELETE("/admin/collections/:collection/:id/", a.handleAdminDelete)
	e.POST("/admin/collections/:collection/:id/delete/", a.handleAdminDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("marquee: required environment variable %s is not set", key)
	}
	return v
}
