// Package views holds the view models and rendering helpers handed to the
// caller-supplied templ components. It knows nothing about storage or HTTP.
package views

import "github.com/hollis-dev/marquee/forms"

// BlogCard is the public list/featured representation of a blog post.
type BlogCard struct {
	ID       string
	Title    string
	Excerpt  string
	Image    string
	Author   string
	Date     string // display form
	ReadTime string // e.g. "5 min read"
	Link     string
}

// BlogDetail is the full public representation of one blog post.
type BlogDetail struct {
	BlogCard
	FullDescription string // markdown source
}

// LinkCard is the public representation of a link post.
type LinkCard struct {
	ID    string
	Title string
	URL   string
	Image string
}

// SocialLink is one entry of the website/contact page.
type SocialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon,omitempty"`
}

// Record is one row of the admin record list. Exactly one field group is
// populated depending on Kind: blogs show title+subtitle, posts show
// title+url, metadata shows key+pretty-printed value.
type Record struct {
	Kind     string // "blogs", "posts", "metadata"
	ID       string // action identifier: row id, or the key for metadata
	Title    string
	Subtitle string
	URL      string
	Key      string
	Value    string // pretty-printed JSON
	Image    string // empty when the record has no image reference

	// EditPath is the admin route that edits this record. The list owns it
	// so templates never rebuild routes from the list kind, whose plural
	// names are not the route labels.
	EditPath string

	// DeleteCollection is the storage collection delete requests must carry.
	// The list owns the metadata→website_metadata remapping so the
	// controller stays kind-agnostic.
	DeleteCollection string
}

// Section is one collection's slice of the dashboard: its records, or the
// error banner shown when that fetch failed while the others succeeded.
type Section struct {
	Err     string
	Records []Record
}

// FormView carries a form's schema and current state into a template.
type FormView struct {
	Action  string
	Submit  string
	Fields  []forms.Field
	Values  map[string]string
	Errors  map[string]string
	General string
}

// Dashboard is everything the admin dashboard view renders.
type Dashboard struct {
	Email    string // signed-in admin
	Message  string // one-shot flash
	Blogs    Section
	Posts    Section
	Metadata Section

	BlogForm     FormView
	PostForm     FormView
	MetadataForm FormView
}

// Flash is a one-shot site message, e.g. the newsletter submit outcome.
type Flash struct {
	Kind string // "success" or "error"
	Text string
}
