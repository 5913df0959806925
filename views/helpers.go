package views

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// FormatDate turns a YYYY-MM-DD value into its display form.
func FormatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

// ReadTimeLabel renders a read-time minute count, e.g. "5 min read".
func ReadTimeLabel(minutes int) string {
	return strconv.Itoa(minutes) + " min read"
}

// PrettyJSON indents a raw JSON value for the metadata listing.
func PrettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// BlogRecord builds the admin list item for one blog post.
func BlogRecord(id, title, subtitle, image string) Record {
	return Record{
		Kind:             "blogs",
		ID:               id,
		Title:            title,
		Subtitle:         subtitle,
		Image:            image,
		EditPath:         "/admin/blog/" + id + "/edit/",
		DeleteCollection: "blogs",
	}
}

// PostRecord builds the admin list item for one link post.
func PostRecord(id, title, url, image string) Record {
	return Record{
		Kind:             "posts",
		ID:               id,
		Title:            title,
		URL:              url,
		Image:            image,
		EditPath:         "/admin/post/" + id + "/edit/",
		DeleteCollection: "posts",
	}
}

// MetadataRecord builds the admin list item for one metadata entry. The key
// is the action identifier; the storage name for deletion is
// "website_metadata", not the UI label.
func MetadataRecord(key string, value json.RawMessage) Record {
	return Record{
		Kind:             "metadata",
		ID:               key,
		Key:              key,
		Value:            PrettyJSON(value),
		EditPath:         "/admin/metadata/" + key + "/edit/",
		DeleteCollection: "website_metadata",
	}
}
