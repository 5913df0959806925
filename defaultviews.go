package marquee

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/hollis-dev/marquee/markdown"
	"github.com/hollis-dev/marquee/views"
)

// DefaultViews returns a plain HTML rendition of every page. It exists so a
// site is servable before the user supplies their own templ components, and
// it is what cmd/marquee runs with.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           defaultHome,
		Blogs:          defaultBlogs,
		Blog:           defaultBlog,
		Posts:          defaultPosts,
		Website:        defaultWebsite,
		AdminLogin:     defaultAdminLogin,
		AdminDashboard: defaultAdminDashboard,
		AdminEdit:      defaultAdminEdit,
		NotFound:       defaultNotFound,
		ServerError:    defaultServerError,
	}
}

func page(title string, body func(p func(string, ...any))) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var err error
		p := func(format string, args ...any) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(w, format, args...)
		}
		p("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		p("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		p("<title>%s</title></head><body>", html.EscapeString(title))
		body(p)
		p("</body></html>")
		return err
	})
}

func writeFlash(p func(string, ...any), flash views.Flash) {
	if flash.Text == "" {
		return
	}
	p(`<p class="flash flash-%s">%s</p>`, html.EscapeString(flash.Kind), html.EscapeString(flash.Text))
}

func writeBlogCard(p func(string, ...any), b views.BlogCard) {
	p(`<article class="blog-card">`)
	p(`<img src="%s" alt="">`, html.EscapeString(b.Image))
	p(`<h2><a href="%s">%s</a></h2>`, html.EscapeString(b.Link), html.EscapeString(b.Title))
	p(`<p>%s</p>`, html.EscapeString(b.Excerpt))
	p(`<p class="meta">%s · %s · %s</p>`,
		html.EscapeString(b.Author), html.EscapeString(b.Date), html.EscapeString(b.ReadTime))
	p(`</article>`)
}

func subscribeForm(p func(string, ...any)) {
	p(`<form method="post" action="/subscribe/" class="subscribe">`)
	p(`<input type="email" name="email" placeholder="you@example.com">`)
	p(`<button type="submit">Subscribe</button></form>`)
}

func defaultHome(blogs []views.BlogCard, flash views.Flash, siteURL string) templ.Component {
	return page("Home", func(p func(string, ...any)) {
		writeFlash(p, flash)
		p("<h1>Latest writing</h1>")
		for i, b := range blogs {
			if i == 3 {
				break
			}
			writeBlogCard(p, b)
		}
		p(`<p><a href="/blogs/">All blogs</a></p>`)
		subscribeForm(p)
	})
}

func defaultBlogs(blogs []views.BlogCard) templ.Component {
	return page("Blogs", func(p func(string, ...any)) {
		p("<h1>Blogs</h1>")
		for _, b := range blogs {
			writeBlogCard(p, b)
		}
	})
}

func defaultBlog(detail views.BlogDetail, siteURL string) templ.Component {
	return page(detail.Title, func(p func(string, ...any)) {
		p("<article>")
		p(`<img src="%s" alt="">`, html.EscapeString(detail.Image))
		p("<h1>%s</h1>", html.EscapeString(detail.Title))
		p(`<p class="meta">%s · %s · %s</p>`,
			html.EscapeString(detail.Author), html.EscapeString(detail.Date), html.EscapeString(detail.ReadTime))
		p("%s", renderMarkdown(detail.FullDescription))
		p("</article>")
		subscribeForm(p)
	})
}

func renderMarkdown(md string) string {
	var buf bytes.Buffer
	markdown.Render(&buf, md)
	return buf.String()
}

func defaultPosts(posts []views.LinkCard, logoURL string) templ.Component {
	return page("Posts", func(p func(string, ...any)) {
		if logoURL != "" {
			p(`<img class="logo" src="%s" alt="">`, html.EscapeString(logoURL))
		}
		p("<h1>Posts</h1><ul>")
		for _, post := range posts {
			p(`<li><a href="%s">`, html.EscapeString(post.URL))
			if post.Image != "" {
				p(`<img src="%s" alt="">`, html.EscapeString(post.Image))
			}
			p("%s</a></li>", html.EscapeString(post.Title))
		}
		p("</ul>")
	})
}

func defaultWebsite(links []views.SocialLink) templ.Component {
	return page("Website", func(p func(string, ...any)) {
		p("<h1>Find me elsewhere</h1><ul>")
		for _, l := range links {
			p(`<li><a href="%s">%s</a></li>`, html.EscapeString(l.URL), html.EscapeString(l.Name))
		}
		p("</ul>")
	})
}

func defaultAdminLogin(showError bool, csrfToken string) templ.Component {
	return page("Admin", func(p func(string, ...any)) {
		p("<h1>Sign in</h1>")
		if showError {
			p(`<p class="flash flash-error">Invalid email or password.</p>`)
		}
		p(`<form method="post" action="/admin/login/">`)
		p(`<input type="hidden" name="_csrf" value="%s">`, html.EscapeString(csrfToken))
		p(`<label>Email<input type="email" name="email" required></label>`)
		p(`<label>Password<input type="password" name="password" required></label>`)
		p(`<button type="submit">Sign in</button></form>`)
		p(`<form method="post" action="/admin/reset/">`)
		p(`<input type="hidden" name="_csrf" value="%s">`, html.EscapeString(csrfToken))
		p(`<label>Forgot password<input type="email" name="email"></label>`)
		p(`<button type="submit">Request reset</button></form>`)
	})
}

func writeSection(p func(string, ...any), title string, s views.Section, csrfToken string) {
	p("<section><h2>%s</h2>", html.EscapeString(title))
	if s.Err != "" {
		p(`<p class="flash flash-error">%s</p>`, html.EscapeString(s.Err))
		p("</section>")
		return
	}
	p("<ul>")
	for _, r := range s.Records {
		p("<li>")
		switch {
		case r.Key != "":
			p("<strong>%s</strong> <pre>%s</pre>", html.EscapeString(r.Key), html.EscapeString(r.Value))
		case r.URL != "":
			p(`<strong>%s</strong> <a href="%s">%s</a>`,
				html.EscapeString(r.Title), html.EscapeString(r.URL), html.EscapeString(r.URL))
		default:
			p("<strong>%s</strong> %s", html.EscapeString(r.Title), html.EscapeString(r.Subtitle))
		}
		p(` <a href="%s">Edit</a>`, html.EscapeString(r.EditPath))
		p(` <form method="post" action="/admin/collections/%s/%s/delete/" style="display:inline">`,
			html.EscapeString(r.DeleteCollection), html.EscapeString(r.ID))
		p(`<input type="hidden" name="_csrf" value="%s">`, html.EscapeString(csrfToken))
		p(`<button type="submit">Delete</button></form>`)
		p("</li>")
	}
	p("</ul></section>")
}

func defaultAdminDashboard(d views.Dashboard, csrfToken string) templ.Component {
	return page("Dashboard", func(p func(string, ...any)) {
		p("<h1>Dashboard</h1>")
		p(`<p>%s <form method="post" action="/admin/logout/" style="display:inline">`+
			`<input type="hidden" name="_csrf" value="%s"><button type="submit">Sign out</button></form></p>`,
			html.EscapeString(d.Email), html.EscapeString(csrfToken))
		if d.Message != "" {
			p(`<p class="flash flash-success">%s</p>`, html.EscapeString(d.Message))
		}
		writeSection(p, "Blogs", d.Blogs, csrfToken)
		_ = views.RenderForm(d.BlogForm, csrfToken).Render(context.Background(), discardErr{p})
		writeSection(p, "Posts", d.Posts, csrfToken)
		_ = views.RenderForm(d.PostForm, csrfToken).Render(context.Background(), discardErr{p})
		writeSection(p, "Metadata", d.Metadata, csrfToken)
		_ = views.RenderForm(d.MetadataForm, csrfToken).Render(context.Background(), discardErr{p})
	})
}

// discardErr adapts the page printer into an io.Writer for nested components.
type discardErr struct{ p func(string, ...any) }

func (d discardErr) Write(b []byte) (int, error) {
	d.p("%s", string(b))
	return len(b), nil
}

func defaultAdminEdit(form views.FormView, csrfToken string) templ.Component {
	return page("Edit", func(p func(string, ...any)) {
		p("<h1>Edit</h1>")
		_ = views.RenderForm(form, csrfToken).Render(context.Background(), discardErr{p})
		p(`<p><a href="/admin/">Back to dashboard</a></p>`)
	})
}

func defaultNotFound() templ.Component {
	return page("Not Found", func(p func(string, ...any)) {
		p(`<h1>404</h1><p>Page not found.</p><p><a href="/">Home</a></p>`)
	})
}

func defaultServerError() templ.Component {
	return page("Server Error", func(p func(string, ...any)) {
		p(`<h1>500</h1><p>Something went wrong.</p><p><a href="/">Home</a></p>`)
	})
}
