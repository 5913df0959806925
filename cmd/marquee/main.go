package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/hollis-dev/marquee"
	"github.com/hollis-dev/marquee/newsletter"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "serve":
		runServe()
	case "subscribe":
		runSubscribeOnly()
	case "version":
		fmt.Println("marquee", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", mode)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println(`usage: marquee [command]

commands:
  serve      run the full site (default)
  subscribe  run only the newsletter JSON endpoint
  version    print the version`)
}

func configFromEnv() marquee.SiteConfig {
	cfg := marquee.SiteConfig{
		Name:        marquee.EnvOr("SITE_NAME", "Marquee"),
		URL:         marquee.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: os.Getenv("SITE_DESCRIPTION"),
		Author:      os.Getenv("SITE_AUTHOR"),

		Addr:         marquee.EnvOr("ADDR", ":3000"),
		DatabasePath: marquee.EnvOr("DATABASE_PATH", "data/site.db"),

		AdminEmail:    marquee.MustEnv("ADMIN_EMAIL"),
		AdminPassword: marquee.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: marquee.MustEnv("SESSION_SECRET"),
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",
	}
	if ttl, err := strconv.Atoi(os.Getenv("BLOG_CACHE_TTL_SECONDS")); err == nil && ttl > 0 {
		cfg.BlogCacheTTL = time.Duration(ttl) * time.Second
	}
	return cfg
}

func runServe() {
	app := marquee.New(
		configFromEnv(),
		marquee.DefaultViews(),
		marquee.WithStaticDir(marquee.EnvOr("STATIC_DIR", "public")),
	)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatalf("marquee: %v", err)
	}
}

// runSubscribeOnly serves just POST /api/subscribe, for deployments that
// keep the public site static and only need the signup endpoint.
func runSubscribeOnly() {
	store, err := marquee.NewStore(marquee.EnvOr("DATABASE_PATH", "data/site.db"))
	if err != nil {
		log.Fatalf("marquee: init store: %v", err)
	}
	defer store.Close()

	e := echo.New()
	newsletter.NewHandler(newsletter.NewService(store)).Register(e)

	addr := marquee.EnvOr("ADDR", ":3000")
	if err := e.Start(addr); err != nil {
		log.Fatalf("marquee: %v", err)
	}
}
