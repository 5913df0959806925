package marquee

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hollis-dev/marquee/newsletter"
	"github.com/hollis-dev/marquee/views"
)

func (a *App) handleHome(c echo.Context) error {
	blogs, err := a.Cache.List(c.Request().Context())
	if err != nil {
		return err
	}
	kind, text := takeFlash(c)
	return Render(c, a.Views.Home(blogCards(blogs), views.Flash{Kind: kind, Text: text}, a.Config.URL))
}

func (a *App) handleBlogs(c echo.Context) error {
	blogs, err := a.Cache.List(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Blogs(blogCards(blogs)))
}

func (a *App) handleBlog(c echo.Context) error {
	b, err := a.Cache.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	detail := views.BlogDetail{
		BlogCard:        blogCard(b),
		FullDescription: b.FullDescription,
	}
	return Render(c, a.Views.Blog(detail, a.Config.URL))
}

func (a *App) handlePosts(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Store.ListLinkPosts(ctx)
	if err != nil {
		return err
	}
	cards := make([]views.LinkCard, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, views.LinkCard{ID: p.ID, Title: p.Title, URL: p.URL, Image: p.Image()})
	}
	entries, err := a.Store.ListMetadata(ctx)
	if err != nil {
		return err
	}
	logo := StringMetadata(MetadataValues(entries), "logo_url")
	return Render(c, a.Views.Posts(cards, logo))
}

func (a *App) handleWebsite(c echo.Context) error {
	var links []views.SocialLink
	entry, err := a.Store.GetMetadataByKey(c.Request().Context(), "social_links")
	switch {
	case err == nil:
		if jerr := json.Unmarshal(entry.Value, &links); jerr != nil {
			c.Logger().Errorf("social_links metadata malformed: %v", jerr)
		}
	case errors.Is(err, ErrNotFound):
		// Page renders without links.
	default:
		return err
	}
	return Render(c, a.Views.Website(links))
}

// handleSubscribe is the site form variant of newsletter signup. Outcomes
// surface as a one-shot flash on the page the visitor came from.
func (a *App) handleSubscribe(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))

	kind, text := "error", ""
	if email == "" {
		text = "Email is required"
	} else {
		switch err := a.Newsletter.Subscribe(c.Request().Context(), email); {
		case err == nil:
			kind, text = "success", newsletter.ConfirmationMessage
		case errors.Is(err, newsletter.ErrInvalidEmail):
			text = "Invalid email format"
		case errors.Is(err, newsletter.ErrAlreadySubscribed):
			text = "This email is already subscribed."
		default:
			c.Logger().Errorf("subscribe: %v", err)
			text = "Something went wrong. Please try again later."
		}
	}
	setFlash(c, kind, text)

	back := c.Request().Referer()
	if back == "" {
		back = "/"
	}
	return c.Redirect(http.StatusSeeOther, back)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.ico")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func blogCard(b BlogPost) views.BlogCard {
	return views.BlogCard{
		ID:       b.ID,
		Title:    b.Title,
		Excerpt:  b.Subtitle,
		Image:    b.Image(),
		Author:   b.Author,
		Date:     views.FormatDate(b.Date),
		ReadTime: views.ReadTimeLabel(b.ReadTime),
		Link:     "/blog/" + b.ID + "/",
	}
}

func blogCards(blogs []BlogPost) []views.BlogCard {
	cards := make([]views.BlogCard, 0, len(blogs))
	for _, b := range blogs {
		cards = append(cards, blogCard(b))
	}
	return cards
}
