package marquee

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/hollis-dev/marquee/forms"
	"github.com/hollis-dev/marquee/newsletter"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	store := newTestStore(t)
	a := New(SiteConfig{
		AdminEmail:    "admin@example.com",
		AdminPassword: "hunter2",
		SessionSecret: "secret",
	}, DefaultViews(), WithStore(store))
	a.Cache = NewBlogCache(store, time.Minute)
	a.Buckets = &countingBucketStore{}
	return a
}

func blogFormValues() map[string]string {
	return map[string]string{
		"title":            "First",
		"subtitle":         "A beginning",
		"author":           "Hollis",
		"date":             "2025-06-01",
		"read_time":        "7",
		"full_description": "Body text.",
	}
}

func TestSaveBlogCoercesReadTime(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	f := KindBlog.NewForm()
	values := blogFormValues()
	values["read_time"] = " 7 "
	f.SetValues(values)

	if !a.saveRecord(ctx, KindBlog, f, "") {
		t.Fatalf("saveRecord failed: errors=%v general=%q", f.Errors, f.General())
	}
	blogs, err := a.Store.ListBlogs(ctx)
	if err != nil {
		t.Fatalf("ListBlogs: %v", err)
	}
	if len(blogs) != 1 || blogs[0].ReadTime != 7 {
		t.Errorf("blogs = %+v", blogs)
	}
}

func TestSaveBlogRejectsNonNumericReadTime(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	f := KindBlog.NewForm()
	values := blogFormValues()
	values["read_time"] = "seven"
	f.SetValues(values)

	if a.saveRecord(ctx, KindBlog, f, "") {
		t.Fatal("saveRecord accepted non-numeric read time")
	}
	if f.Errors["read_time"] == "" {
		t.Errorf("no read_time error: %v", f.Errors)
	}
	if n, _ := a.Store.(*Store).countRows(ctx, "blogs"); n != 0 {
		t.Errorf("invalid blog written, count = %d", n)
	}
}

func TestSaveBlogMissingFieldsKeepValues(t *testing.T) {
	a := newTestApp(t)

	f := KindBlog.NewForm()
	f.SetValues(map[string]string{"title": "Only a title"})

	if a.saveRecord(context.Background(), KindBlog, f, "") {
		t.Fatal("saveRecord accepted incomplete blog")
	}
	if f.Errors["subtitle"] != "Subtitle is required" {
		t.Errorf("errors = %v", f.Errors)
	}
	if f.Value("title") != "Only a title" {
		t.Errorf("submitted value lost: %q", f.Value("title"))
	}
}

func TestSaveBlogWithoutImageUsesFallback(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	f := KindBlog.NewForm()
	f.SetValues(blogFormValues())
	if !a.saveRecord(ctx, KindBlog, f, "") {
		t.Fatalf("saveRecord failed: %v", f.Errors)
	}

	blogs, _ := a.Store.ListBlogs(ctx)
	if blogs[0].ImageURL != "" {
		t.Errorf("stored image url = %q, want empty", blogs[0].ImageURL)
	}
	if blogs[0].Image() != FallbackImageURL {
		t.Errorf("Image() = %q, want fallback", blogs[0].Image())
	}
}

func TestUpdateBlogKeepsImageWhenNoneUploaded(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	b := testBlog()
	b.ImageURL = "/public/uploads/blog-images/old.jpg"
	id, err := a.Store.InsertBlog(ctx, b)
	if err != nil {
		t.Fatalf("InsertBlog: %v", err)
	}

	f := KindBlog.NewForm()
	values := blogFormValues()
	values["title"] = "Retitled"
	f.SetValues(values)
	if !a.saveRecord(ctx, KindBlog, f, id) {
		t.Fatalf("saveRecord failed: %v", f.Errors)
	}

	got, _ := a.Store.GetBlog(ctx, id)
	if got.Title != "Retitled" {
		t.Errorf("title = %q", got.Title)
	}
	if got.ImageURL != "/public/uploads/blog-images/old.jpg" {
		t.Errorf("image dropped on update: %q", got.ImageURL)
	}
}

func TestSaveMetadataRejectsInvalidJSON(t *testing.T) {
	a := newTestApp(t)

	f := KindMetadata.NewForm()
	f.SetValues(map[string]string{"key": "links", "value": "{not json"})

	if a.saveRecord(context.Background(), KindMetadata, f, "") {
		t.Fatal("saveRecord accepted invalid JSON")
	}
	if f.Errors["value"] != "Value must be valid JSON" {
		t.Errorf("errors = %v", f.Errors)
	}
}

func TestSaveMetadataUpdatesByKey(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if _, err := a.Store.InsertMetadata(ctx, MetadataEntry{Key: "logo", Value: json.RawMessage(`"old"`)}); err != nil {
		t.Fatalf("InsertMetadata: %v", err)
	}

	f := KindMetadata.NewForm()
	f.SetValues(map[string]string{"key": "logo", "value": `"new"`})
	if !a.saveRecord(ctx, KindMetadata, f, "logo") {
		t.Fatalf("saveRecord failed: %v general=%q", f.Errors, f.General())
	}

	entry, err := a.Store.GetMetadataByKey(ctx, "logo")
	if err != nil {
		t.Fatalf("GetMetadataByKey: %v", err)
	}
	if string(entry.Value) != `"new"` {
		t.Errorf("value = %s", entry.Value)
	}
	if n, _ := a.Store.(*Store).countRows(ctx, "website_metadata"); n != 1 {
		t.Errorf("metadata rows = %d, want 1", n)
	}
}

func TestSaveLinkPostRequiresURL(t *testing.T) {
	a := newTestApp(t)

	f := KindPost.NewForm()
	f.SetValues(map[string]string{"title": "Talk"})

	if a.saveRecord(context.Background(), KindPost, f, "") {
		t.Fatal("saveRecord accepted post without url")
	}
	if f.Errors["url"] != "URL is required" {
		t.Errorf("errors = %v", f.Errors)
	}
}

// newRouterApp wires sessions and the route table so tests can drive the
// admin surface through the echo router, cookies and all.
func newRouterApp(t *testing.T) *App {
	t.Helper()
	a := newTestApp(t)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.Newsletter = newsletter.NewService(a.Store)
	a.subscribeHandler = newsletter.NewHandler(a.Newsletter)
	a.Echo.Use(session.Middleware(a.newSessionStore()))
	a.setupRoutes()
	return a
}

func adminRequest(t *testing.T, a *App, method, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func adminLogin(t *testing.T, a *App) []*http.Cookie {
	t.Helper()
	if err := SeedAdmin(context.Background(), a.Store, a.Config.AdminEmail, a.Config.AdminPassword); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	form := url.Values{
		"email":    {a.Config.AdminEmail},
		"password": {a.Config.AdminPassword},
	}
	rec := adminRequest(t, a, http.MethodPost, "/admin/login/", form, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	return rec.Result().Cookies()
}

var editLinkPattern = regexp.MustCompile(`href="(/admin/[^"]+/edit/)"`)

func TestAdminEditRoutesMatchRenderedLinks(t *testing.T) {
	a := newRouterApp(t)
	ctx := context.Background()

	if _, err := a.Store.InsertBlog(ctx, testBlog()); err != nil {
		t.Fatalf("InsertBlog: %v", err)
	}
	if _, err := a.Store.InsertLinkPost(ctx, LinkPost{Title: "Talk", URL: "https://example.com/talk"}); err != nil {
		t.Fatalf("InsertLinkPost: %v", err)
	}
	if _, err := a.Store.InsertMetadata(ctx, MetadataEntry{Key: "logo_url", Value: json.RawMessage(`"x"`)}); err != nil {
		t.Fatalf("InsertMetadata: %v", err)
	}

	cookies := adminLogin(t, a)
	rec := adminRequest(t, a, http.MethodGet, "/admin/", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", rec.Code)
	}

	links := editLinkPattern.FindAllStringSubmatch(rec.Body.String(), -1)
	if len(links) != 3 {
		t.Fatalf("dashboard renders %d edit links, want 3:\n%s", len(links), rec.Body.String())
	}
	// Every link the dashboard renders must resolve on the route table.
	for _, m := range links {
		got := adminRequest(t, a, http.MethodGet, m[1], nil, cookies)
		if got.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", m[1], got.Code)
		}
	}
}

func TestAdminEditRouteRequiresSession(t *testing.T) {
	a := newRouterApp(t)
	ctx := context.Background()

	id, err := a.Store.InsertBlog(ctx, testBlog())
	if err != nil {
		t.Fatalf("InsertBlog: %v", err)
	}
	rec := adminRequest(t, a, http.MethodGet, "/admin/blog/"+id+"/edit/", nil, nil)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303 redirect to login", rec.Code)
	}
}

func TestAdminDeleteRoutes(t *testing.T) {
	a := newRouterApp(t)
	ctx := context.Background()

	blogID, err := a.Store.InsertBlog(ctx, testBlog())
	if err != nil {
		t.Fatalf("InsertBlog: %v", err)
	}
	postID, err := a.Store.InsertLinkPost(ctx, LinkPost{Title: "Talk", URL: "https://example.com/talk"})
	if err != nil {
		t.Fatalf("InsertLinkPost: %v", err)
	}
	if _, err := a.Store.InsertMetadata(ctx, MetadataEntry{Key: "logo_url", Value: json.RawMessage(`"x"`)}); err != nil {
		t.Fatalf("InsertMetadata: %v", err)
	}
	cookies := adminLogin(t, a)

	// The dashboard delete forms POST to the /delete/ route.
	rec := adminRequest(t, a, http.MethodPost, "/admin/collections/blogs/"+blogID+"/delete/", url.Values{}, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete blog status = %d, want 200", rec.Code)
	}
	if _, err := a.Store.GetBlog(ctx, blogID); !errors.Is(err, ErrNotFound) {
		t.Errorf("blog still present after delete: %v", err)
	}

	// Metadata rows are addressed by key under their storage collection name.
	rec = adminRequest(t, a, http.MethodPost, "/admin/collections/website_metadata/logo_url/delete/", url.Values{}, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete metadata status = %d, want 200", rec.Code)
	}
	if _, err := a.Store.GetMetadataByKey(ctx, "logo_url"); !errors.Is(err, ErrNotFound) {
		t.Errorf("metadata still present after delete: %v", err)
	}

	// The UI label is not a collection name.
	rec = adminRequest(t, a, http.MethodPost, "/admin/collections/metadata/logo_url/delete/", url.Values{}, cookies)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown collection status = %d, want 404", rec.Code)
	}

	// The DELETE method route stays available for script callers.
	rec = adminRequest(t, a, http.MethodDelete, "/admin/collections/posts/"+postID+"/", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE post status = %d, want 200", rec.Code)
	}
	if _, err := a.Store.GetLinkPost(ctx, postID); !errors.Is(err, ErrNotFound) {
		t.Errorf("post still present after delete: %v", err)
	}
}

type postsDownStore struct {
	ContentStore
}

func (postsDownStore) ListLinkPosts(ctx context.Context) ([]LinkPost, error) {
	return nil, errors.New("posts down")
}

func TestLoadCollectionsIsolatesFailures(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if _, err := a.Store.InsertBlog(ctx, testBlog()); err != nil {
		t.Fatalf("InsertBlog: %v", err)
	}
	a.Store = postsDownStore{a.Store}

	blogs, posts, metadata := a.loadCollections(ctx)
	if blogs.Err != "" || len(blogs.Records) != 1 {
		t.Errorf("blogs = %+v", blogs)
	}
	if posts.Err == "" {
		t.Error("posts failure not surfaced")
	}
	if metadata.Err != "" {
		t.Errorf("metadata = %+v", metadata)
	}
}

func TestRecordValues(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	id, err := a.Store.InsertBlog(ctx, testBlog())
	if err != nil {
		t.Fatalf("InsertBlog: %v", err)
	}
	values, err := a.recordValues(ctx, KindBlog, id)
	if err != nil {
		t.Fatalf("recordValues: %v", err)
	}
	if values["title"] != "First" || values["read_time"] != "5" {
		t.Errorf("values = %v", values)
	}

	if _, err := a.recordValues(ctx, KindBlog, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestKindFormViewCarriesState(t *testing.T) {
	a := newTestApp(t)

	f := forms.New(KindBlog.Fields())
	f.SetValues(map[string]string{"title": "Draft"})
	f.SetError("subtitle", "Subtitle is required")
	f.SetGeneral("Failed to create blog: store offline")

	fv := a.kindFormView(KindBlog, f)
	if fv.Values["title"] != "Draft" {
		t.Errorf("values = %v", fv.Values)
	}
	if fv.Errors["subtitle"] == "" || fv.General == "" {
		t.Errorf("errors not carried: %+v", fv)
	}
	if fv.Action != "/admin/blog/" {
		t.Errorf("action = %s", fv.Action)
	}
}
