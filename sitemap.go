package marquee

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	blogs, err := a.Cache.List(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, blogs)
}

func (a *App) renderSitemap(c echo.Context, blogs []BlogPost) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "blogs")},
		{Loc: BuildURL(base, "posts")},
		{Loc: BuildURL(base, "website")},
	}
	for _, b := range blogs {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", b.ID),
			LastMod: b.Date,
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
