package views

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hollis-dev/marquee/forms"
)

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2025-06-01"); got != "June 1, 2025" {
		t.Errorf("FormatDate = %q", got)
	}
	// Unparseable input passes through untouched.
	if got := FormatDate("yesterday"); got != "yesterday" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestReadTimeLabel(t *testing.T) {
	if got := ReadTimeLabel(5); got != "5 min read" {
		t.Errorf("ReadTimeLabel = %q", got)
	}
}

func TestPrettyJSON(t *testing.T) {
	got := PrettyJSON(json.RawMessage(`{"a":1}`))
	if !strings.Contains(got, "\n") {
		t.Errorf("not indented: %q", got)
	}
	if got := PrettyJSON(json.RawMessage(`{broken`)); got != "{broken" {
		t.Errorf("invalid input not passed through: %q", got)
	}
}

func TestMetadataRecordDeleteCollection(t *testing.T) {
	r := MetadataRecord("logo", json.RawMessage(`"x"`))
	if r.ID != "logo" || r.Key != "logo" {
		t.Errorf("record = %+v", r)
	}
	if r.DeleteCollection != "website_metadata" {
		t.Errorf("DeleteCollection = %q, want website_metadata", r.DeleteCollection)
	}
}

// The list kinds are plural but the admin routes use singular labels, so the
// records must carry ready-made edit paths.
func TestRecordEditPaths(t *testing.T) {
	if got := BlogRecord("b1", "t", "s", "i").EditPath; got != "/admin/blog/b1/edit/" {
		t.Errorf("blog EditPath = %q", got)
	}
	if got := PostRecord("p1", "t", "u", "i").EditPath; got != "/admin/post/p1/edit/" {
		t.Errorf("post EditPath = %q", got)
	}
	if got := MetadataRecord("logo_url", json.RawMessage(`"x"`)).EditPath; got != "/admin/metadata/logo_url/edit/" {
		t.Errorf("metadata EditPath = %q", got)
	}
}

func renderToString(t *testing.T, fv FormView, token string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderForm(fv, token).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestRenderForm(t *testing.T) {
	fv := FormView{
		Action: "/admin/blog/",
		Submit: "Save",
		Fields: []forms.Field{
			{Name: "title", Label: "Title", Type: forms.Text, Required: true},
			{Name: "image", Label: "Image", Type: forms.File, Accept: "image/*"},
			{Name: "full_description", Label: "Full Description", Type: forms.Textarea},
		},
		Values: map[string]string{"title": "Dra<ft"},
		Errors: map[string]string{"title": "Title is required"},
	}
	got := renderToString(t, fv, "tok123")

	for _, want := range []string{
		`action="/admin/blog/"`,
		`name="_csrf" value="tok123"`,
		`value="Dra&lt;ft"`,
		`<p class="field-error" id="title-error" role="alert">Title is required</p>`,
		`type="file"`,
		`accept="image/*"`,
		`<textarea id="full_description"`,
		`<button type="submit">Save</button>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderFormGeneralError(t *testing.T) {
	fv := FormView{
		Action:  "/admin/blog/",
		Fields:  []forms.Field{{Name: "title", Label: "Title", Type: forms.Text}},
		Values:  map[string]string{},
		Errors:  map[string]string{},
		General: "Failed to create blog: store offline",
	}
	got := renderToString(t, fv, "")
	if !strings.Contains(got, `<p class="form-error" role="alert">Failed to create blog: store offline</p>`) {
		t.Errorf("general error missing:\n%s", got)
	}
}
