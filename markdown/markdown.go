// Package markdown renders the markdown subset used by blog descriptions
// (headings, emphasis, inline code, links, images, lists, quotes, fenced
// code blocks) to HTML, exposed as a templ component.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*|\b_([^_]+)_\b`)
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reImage      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	reOrdered    = regexp.MustCompile(`^\d+\.\s+`)
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, md)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of md to buf.
func Render(buf *bytes.Buffer, md string) {
	lines := strings.Split(md, "\n")

	var (
		inPara    bool
		inUList   bool
		inOList   bool
		inQuote   bool
		inCode    bool
	)

	closePara := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
	}
	closeLists := func() {
		if inUList {
			buf.WriteString("</ul>")
			inUList = false
		}
		if inOList {
			buf.WriteString("</ol>")
			inOList = false
		}
	}
	closeQuote := func() {
		if inQuote {
			buf.WriteString("</blockquote>")
			inQuote = false
		}
	}
	closeBlocks := func() {
		closePara()
		closeLists()
		closeQuote()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Fenced code: everything inside is escaped verbatim.
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				buf.WriteString("</code></pre>")
				inCode = false
			} else {
				closeBlocks()
				buf.WriteString("<pre><code>")
				inCode = true
			}
			continue
		}
		if inCode {
			buf.WriteString(html.EscapeString(line))
			buf.WriteString("\n")
			continue
		}

		switch {
		case trimmed == "":
			closeBlocks()

		case strings.HasPrefix(trimmed, "#"):
			closeBlocks()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' && level < 6 {
				level++
			}
			text := strings.TrimSpace(trimmed[level:])
			buf.WriteString("<h")
			buf.WriteByte(byte('0' + level))
			buf.WriteString(">")
			buf.WriteString(Inline(text))
			buf.WriteString("</h")
			buf.WriteByte(byte('0' + level))
			buf.WriteString(">")

		case strings.HasPrefix(trimmed, "> "):
			closePara()
			closeLists()
			if !inQuote {
				buf.WriteString("<blockquote>")
				inQuote = true
			}
			buf.WriteString("<p>")
			buf.WriteString(Inline(strings.TrimPrefix(trimmed, "> ")))
			buf.WriteString("</p>")

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			closePara()
			closeQuote()
			if inOList {
				buf.WriteString("</ol>")
				inOList = false
			}
			if !inUList {
				buf.WriteString("<ul>")
				inUList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(Inline(trimmed[2:]))
			buf.WriteString("</li>")

		case reOrdered.MatchString(trimmed):
			closePara()
			closeQuote()
			if inUList {
				buf.WriteString("</ul>")
				inUList = false
			}
			if !inOList {
				buf.WriteString("<ol>")
				inOList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(Inline(reOrdered.ReplaceAllString(trimmed, "")))
			buf.WriteString("</li>")

		default:
			closeLists()
			closeQuote()
			if !inPara {
				buf.WriteString("<p>")
				inPara = true
			} else {
				buf.WriteString(" ")
			}
			buf.WriteString(Inline(trimmed))
		}
	}

	if inCode {
		buf.WriteString("</code></pre>")
	}
	closeBlocks()
}

// Inline escapes text and applies inline markdown: images, links, bold,
// italic, and code spans.
func Inline(text string) string {
	out := html.EscapeString(text)

	out = reImage.ReplaceAllStringFunc(out, func(m string) string {
		sub := reImage.FindStringSubmatch(m)
		return `<img src="` + sub[2] + `" alt="` + sub[1] + `">`
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		sub := reLink.FindStringSubmatch(m)
		return `<a href="` + sub[2] + `">` + sub[1] + `</a>`
	})
	out = reInlineCode.ReplaceAllString(out, "<code>$1</code>")
	out = reBold.ReplaceAllStringFunc(out, func(m string) string {
		sub := reBold.FindStringSubmatch(m)
		body := sub[1]
		if body == "" {
			body = sub[2]
		}
		return "<strong>" + body + "</strong>"
	})
	out = reItalic.ReplaceAllStringFunc(out, func(m string) string {
		sub := reItalic.FindStringSubmatch(m)
		body := sub[1]
		if body == "" {
			body = sub[2]
		}
		return "<em>" + body + "</em>"
	})
	return out
}
