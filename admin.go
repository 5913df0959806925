package marquee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/hollis-dev/marquee/forms"
	"github.com/hollis-dev/marquee/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if _, ok := CurrentSession(c); !ok {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	_, msg := takeFlash(c)
	return a.renderAdminDashboard(c, msg, nil, 0)
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	s, err := SignIn(c.Request().Context(), a.Store, email, password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
		}
		return err
	}
	if err := setAdminSession(c, s); err != nil {
		return err
	}
	a.watcher.Notify(s, true)
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	a.watcher.Notify(Session{}, false)
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminReset(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	if err := RequestPasswordReset(c.Request().Context(), a.Store, email); err != nil {
		return err
	}
	// Same response for known and unknown accounts.
	setFlash(c, "success", "If that account exists, a reset link has been created.")
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminCreate(c echo.Context) error {
	if _, ok := CurrentSession(c); !ok {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	k, ok := KindFromLabel(c.Param("kind"))
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	f := k.NewForm()
	if err := f.Parse(c.Request()); err != nil {
		return err
	}
	if !a.saveRecord(c.Request().Context(), k, f, "") {
		return a.renderAdminDashboard(c, "", f, k)
	}
	if k == KindBlog {
		a.Cache.Invalidate()
	}
	setFlash(c, "success", "Saved "+k.Label()+".")
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminUpdate(c echo.Context) error {
	if _, ok := CurrentSession(c); !ok {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	k, ok := KindFromLabel(c.Param("kind"))
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	f := k.NewForm()
	if err := f.Parse(c.Request()); err != nil {
		return err
	}
	if !a.saveRecord(c.Request().Context(), k, f, c.Param("id")) {
		return a.renderAdminDashboard(c, "", f, k)
	}
	if k == KindBlog {
		a.Cache.Invalidate()
	}
	setFlash(c, "success", "Saved "+k.Label()+".")
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminEdit(c echo.Context) error {
	if _, ok := CurrentSession(c); !ok {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	k, ok := KindFromLabel(c.Param("kind"))
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	id := c.Param("id")
	values, err := a.recordValues(c.Request().Context(), k, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	fv := views.FormView{
		Action: "/admin/" + k.Label() + "/" + id + "/",
		Submit: "Save changes",
		Fields: k.Fields(),
		Values: values,
		Errors: map[string]string{},
	}
	return Render(c, a.Views.AdminEdit(fv, CsrfToken(c)))
}

// handleAdminDelete removes one record. Routes carry the storage collection
// name; metadata rows are addressed by key and resolved to an id here.
func (a *App) handleAdminDelete(c echo.Context) error {
	if _, ok := CurrentSession(c); !ok {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	k, ok := KindFromCollection(c.Param("collection"))
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	var err error
	switch k {
	case KindBlog:
		err = a.Store.DeleteBlog(ctx, id)
	case KindPost:
		err = a.Store.DeleteLinkPost(ctx, id)
	case KindMetadata:
		var entry MetadataEntry
		entry, err = a.Store.GetMetadataByKey(ctx, id)
		if err == nil {
			err = a.Store.DeleteMetadata(ctx, entry.ID)
		}
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	if k == KindBlog {
		a.Cache.Invalidate()
	}
	return a.renderAdminDashboard(c, "Deleted "+k.Label()+".", nil, 0)
}

// saveRecord validates f and persists it as kind k, inserting when id is
// empty and updating otherwise. It reports false when the form carries
// errors the caller should re-render.
func (a *App) saveRecord(ctx context.Context, k Kind, f *forms.Form, id string) bool {
	verb := "create"
	if id != "" {
		verb = "update"
	}

	assetURL := ""
	if fh := f.File("image"); fh != nil {
		url, err := UploadAsset(a.Buckets, k.Bucket(), fh, k.AllowedMIME())
		if err != nil {
			if errors.Is(err, ErrInvalidFileType) {
				f.SetError("image", "Unsupported file type")
			} else {
				f.SetGeneral(fmt.Sprintf("Failed to %s %s: %v", verb, k.Label(), err))
			}
			return false
		}
		assetURL = url
	}

	// An uploaded asset can stand in for the metadata value.
	if k == KindMetadata && assetURL != "" && strings.TrimSpace(f.Value("value")) == "" {
		f.SetValues(map[string]string{"value": strconv.Quote(assetURL)})
	}

	if !f.Validate() {
		return false
	}

	var err error
	switch k {
	case KindBlog:
		err = a.saveBlog(ctx, f, id, assetURL)
	case KindPost:
		err = a.saveLinkPost(ctx, f, id, assetURL)
	case KindMetadata:
		err = a.saveMetadata(ctx, f, id)
	}
	if err == nil {
		return true
	}
	if errors.Is(err, errFormInvalid) {
		return false
	}

	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		for name, msg := range verr {
			f.SetError(name, msg)
		}
	case errors.Is(err, ErrNotFound):
		f.SetGeneral("Record not found.")
	default:
		f.SetGeneral(fmt.Sprintf("Failed to %s %s: %v", verb, k.Label(), err))
	}
	return false
}

// errFormInvalid signals that field errors were already set on the form.
var errFormInvalid = errors.New("form invalid")

func (a *App) saveBlog(ctx context.Context, f *forms.Form, id, assetURL string) error {
	readTime, err := f.IntValue("read_time")
	if err != nil {
		f.SetError("read_time", "Read time must be a number")
		return errFormInvalid
	}
	b := BlogPost{
		ID:              id,
		Title:           f.Value("title"),
		Subtitle:        f.Value("subtitle"),
		ImageURL:        assetURL,
		Author:          f.Value("author"),
		Date:            f.Value("date"),
		ReadTime:        readTime,
		FullDescription: f.Value("full_description"),
	}
	if id == "" {
		_, err = a.Store.InsertBlog(ctx, b)
		return err
	}
	prev, err := a.Store.GetBlog(ctx, id)
	if err != nil {
		return err
	}
	if assetURL == "" {
		b.ImageURL = prev.ImageURL
	}
	return a.Store.UpdateBlog(ctx, b)
}

func (a *App) saveLinkPost(ctx context.Context, f *forms.Form, id, assetURL string) error {
	p := LinkPost{
		ID:       id,
		Title:    f.Value("title"),
		URL:      f.Value("url"),
		ImageURL: assetURL,
	}
	if id == "" {
		_, err := a.Store.InsertLinkPost(ctx, p)
		return err
	}
	prev, err := a.Store.GetLinkPost(ctx, id)
	if err != nil {
		return err
	}
	if assetURL == "" {
		p.ImageURL = prev.ImageURL
	}
	return a.Store.UpdateLinkPost(ctx, p)
}

// saveMetadata persists a metadata entry. Updates address the row by key,
// matching how the record list and delete routes identify metadata.
func (a *App) saveMetadata(ctx context.Context, f *forms.Form, key string) error {
	raw := strings.TrimSpace(f.Value("value"))
	if !json.Valid([]byte(raw)) {
		f.SetError("value", "Value must be valid JSON")
		return errFormInvalid
	}
	m := MetadataEntry{
		Key:   f.Value("key"),
		Value: json.RawMessage(raw),
	}
	if key == "" {
		_, err := a.Store.InsertMetadata(ctx, m)
		return err
	}
	prev, err := a.Store.GetMetadataByKey(ctx, key)
	if err != nil {
		return err
	}
	m.ID = prev.ID
	return a.Store.UpdateMetadata(ctx, m)
}

// recordValues loads one record as form values for the edit view.
func (a *App) recordValues(ctx context.Context, k Kind, id string) (map[string]string, error) {
	switch k {
	case KindBlog:
		b, err := a.Store.GetBlog(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"title":            b.Title,
			"subtitle":         b.Subtitle,
			"author":           b.Author,
			"date":             b.Date,
			"read_time":        strconv.Itoa(b.ReadTime),
			"full_description": b.FullDescription,
		}, nil
	case KindPost:
		p, err := a.Store.GetLinkPost(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"title": p.Title,
			"url":   p.URL,
		}, nil
	default:
		m, err := a.Store.GetMetadataByKey(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"key":   m.Key,
			"value": string(m.Value),
		}, nil
	}
}

// loadCollections fetches the three dashboard collections concurrently.
// A failure in one collection surfaces as that section's error banner and
// never hides the others.
func (a *App) loadCollections(ctx context.Context) (blogs, posts, metadata views.Section) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		items, err := a.Store.ListBlogs(ctx)
		if err != nil {
			blogs.Err = "Failed to load blogs."
			return
		}
		for _, b := range items {
			blogs.Records = append(blogs.Records, views.BlogRecord(b.ID, b.Title, b.Subtitle, b.Image()))
		}
	}()
	go func() {
		defer wg.Done()
		items, err := a.Store.ListLinkPosts(ctx)
		if err != nil {
			posts.Err = "Failed to load posts."
			return
		}
		for _, p := range items {
			posts.Records = append(posts.Records, views.PostRecord(p.ID, p.Title, p.URL, p.Image()))
		}
	}()
	go func() {
		defer wg.Done()
		items, err := a.Store.ListMetadata(ctx)
		if err != nil {
			metadata.Err = "Failed to load metadata."
			return
		}
		for _, m := range items {
			metadata.Records = append(metadata.Records, views.MetadataRecord(m.Key, m.Value))
		}
	}()

	wg.Wait()
	return blogs, posts, metadata
}

func (a *App) kindFormView(k Kind, f *forms.Form) views.FormView {
	fv := views.FormView{
		Action: "/admin/" + k.Label() + "/",
		Submit: "Save",
		Fields: k.Fields(),
		Values: map[string]string{},
		Errors: map[string]string{},
	}
	if f != nil {
		fv.Values = f.Values
		fv.Errors = f.Errors
		fv.General = f.General()
	}
	return fv
}

// renderAdminDashboard renders the full dashboard. When failed is non-nil
// its kind's form re-renders with the submitted values and errors intact.
func (a *App) renderAdminDashboard(c echo.Context, msg string, failed *forms.Form, failedKind Kind) error {
	sess, _ := CurrentSession(c)
	blogs, posts, metadata := a.loadCollections(c.Request().Context())

	d := views.Dashboard{
		Email:        sess.Email,
		Message:      msg,
		Blogs:        blogs,
		Posts:        posts,
		Metadata:     metadata,
		BlogForm:     a.kindFormView(KindBlog, nil),
		PostForm:     a.kindFormView(KindPost, nil),
		MetadataForm: a.kindFormView(KindMetadata, nil),
	}
	if failed != nil {
		switch failedKind {
		case KindBlog:
			d.BlogForm = a.kindFormView(KindBlog, failed)
		case KindPost:
			d.PostForm = a.kindFormView(KindPost, failed)
		case KindMetadata:
			d.MetadataForm = a.kindFormView(KindMetadata, failed)
		}
	}
	return Render(c, a.Views.AdminDashboard(d, CsrfToken(c)))
}
