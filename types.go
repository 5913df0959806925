package marquee

import (
	"encoding/json"
	"time"

	"github.com/hollis-dev/marquee/forms"
)

// FallbackImageURL is substituted when a record carries no image of its own.
const FallbackImageURL = "https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05?w=800&auto=format&fit=crop&q=60"

// BlogPost is a full article managed through the admin dashboard and
// rendered on the public blog pages, newest first.
type BlogPost struct {
	ID              string
	Title           string
	Subtitle        string
	ImageURL        string
	Author          string
	Date            string // YYYY-MM-DD
	ReadTime        int    // minutes
	FullDescription string // markdown
	CreatedAt       time.Time
}

// Image returns the post's image or the fallback.
func (b BlogPost) Image() string {
	if b.ImageURL == "" {
		return FallbackImageURL
	}
	return b.ImageURL
}

// LinkPost points at an externally hosted resource.
type LinkPost struct {
	ID        string
	Title     string
	URL       string
	ImageURL  string
	CreatedAt time.Time
}

// Image returns the post's image or the fallback.
func (p LinkPost) Image() string {
	if p.ImageURL == "" {
		return FallbackImageURL
	}
	return p.ImageURL
}

// MetadataEntry is one key/value row of free-form site configuration.
// Admin listings address entries by key; the row id stays internal and is
// resolved from the key before updates and deletes.
type MetadataEntry struct {
	ID    string
	Key   string
	Value json.RawMessage
}

// Subscription is one newsletter signup. Rows are never updated or deleted.
type Subscription struct {
	Email     string
	CreatedAt time.Time
}

// Admin is a stored dashboard credential.
type Admin struct {
	Email        string
	PasswordHash string
	ResetToken   string
	ResetExpires time.Time
}

// Session is the authenticated-identity value carried by the admin cookie.
type Session struct {
	Email      string
	LoggedInAt time.Time
}

// Kind tags the three record families the admin dashboard manages. Each kind
// carries its storage collection name, upload bucket, allowed upload types,
// and form schema as data, so nothing above this table switches on strings.
type Kind int

const (
	KindBlog Kind = iota
	KindPost
	KindMetadata
)

type kindSpec struct {
	label      string // controller-facing name
	collection string // storage collection name
	bucket     string
	mimeTypes  []string
	fields     []forms.Field
}

var kindSpecs = [...]kindSpec{
	KindBlog: {
		label:      "blog",
		collection: "blogs",
		bucket:     "blog-images",
		mimeTypes:  []string{"image/jpeg", "image/png"},
		fields: []forms.Field{
			{Name: "title", Label: "Title", Type: forms.Text, Required: true},
			{Name: "subtitle", Label: "Subtitle", Type: forms.Text, Required: true},
			{Name: "image", Label: "Image", Type: forms.File, Accept: "image/*"},
			{Name: "author", Label: "Author", Type: forms.Text, Required: true},
			{Name: "date", Label: "Date", Type: forms.Date, Required: true},
			{Name: "read_time", Label: "Read Time (minutes)", Type: forms.Number, Required: true},
			{Name: "full_description", Label: "Full Description", Type: forms.Textarea, Required: true},
		},
	},
	KindPost: {
		label:      "post",
		collection: "posts",
		bucket:     "post-images",
		mimeTypes:  []string{"image/jpeg", "image/png"},
		fields: []forms.Field{
			{Name: "title", Label: "Title", Type: forms.Text, Required: true},
			{Name: "url", Label: "URL", Type: forms.URL, Required: true},
			{Name: "image", Label: "Image", Type: forms.File, Accept: "image/*"},
		},
	},
	KindMetadata: {
		label:      "metadata",
		collection: "website_metadata",
		bucket:     "website-assets",
		mimeTypes:  []string{"image/jpeg", "image/png", "video/mp4"},
		fields: []forms.Field{
			{Name: "key", Label: "Key", Type: forms.Text, Required: true},
			{Name: "value", Label: "Value (JSON)", Type: forms.Textarea, Required: true},
			{Name: "image", Label: "Asset", Type: forms.File, Accept: "image/*,video/mp4"},
		},
	},
}

// Label is the controller-facing name of the kind.
func (k Kind) Label() string { return kindSpecs[k].label }

// Collection is the storage collection backing the kind.
func (k Kind) Collection() string { return kindSpecs[k].collection }

// Bucket is the object-storage bucket for the kind's uploads.
func (k Kind) Bucket() string { return kindSpecs[k].bucket }

// AllowedMIME lists the upload content types accepted for the kind.
func (k Kind) AllowedMIME() []string { return kindSpecs[k].mimeTypes }

// Fields returns a copy of the kind's form schema.
func (k Kind) Fields() []forms.Field {
	return append([]forms.Field(nil), kindSpecs[k].fields...)
}

// NewForm builds an empty form for the kind.
func (k Kind) NewForm() *forms.Form { return forms.New(kindSpecs[k].fields) }

// KindFromLabel resolves a controller-facing name ("blog", "post", "metadata").
func KindFromLabel(label string) (Kind, bool) {
	for k, spec := range kindSpecs {
		if spec.label == label {
			return Kind(k), true
		}
	}
	return 0, false
}

// KindFromCollection resolves a storage collection name. Delete requests carry
// the collection name rather than the label, so the record list stays the only
// place that knows the metadata/website_metadata remapping.
func KindFromCollection(collection string) (Kind, bool) {
	for k, spec := range kindSpecs {
		if spec.collection == collection {
			return Kind(k), true
		}
	}
	return 0, false
}
