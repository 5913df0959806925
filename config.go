package marquee

import "time"

// SiteConfig holds all configuration for a marquee site.
type SiteConfig struct {
	Name        string // Site name (default "Marquee")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Default author name for blog posts

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/site.db")

	AdminEmail    string // Required: admin login email
	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	BlogCacheTTL time.Duration // Blog list cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Marquee"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.BlogCacheTTL == 0 {
		c.BlogCacheTTL = 5 * time.Minute
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

// WithStore injects a prebuilt content store instead of opening SQLite.
func WithStore(s ContentStore) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithBuckets injects a prebuilt bucket store for uploaded assets.
func WithBuckets(b BucketStore) Option {
	return func(a *App) {
		a.Buckets = b
	}
}
