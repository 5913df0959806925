package views

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/hollis-dev/marquee/forms"
)

// RenderForm renders a FormView as an HTML form component. Field order
// follows the descriptor list; each violated field's message appears inline
// under its input, and a form-level message appears above the submit button.
func RenderForm(fv FormView, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var err error
		p := func(format string, args ...any) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(w, format, args...)
		}

		p(`<form method="post" action="%s" enctype="multipart/form-data">`, html.EscapeString(fv.Action))
		p(`<input type="hidden" name="_csrf" value="%s">`, html.EscapeString(csrfToken))
		for _, field := range fv.Fields {
			writeField(p, field, fv.Values[field.Name], fv.Errors[field.Name])
		}
		if fv.General != "" {
			p(`<p class="form-error" role="alert">%s</p>`, html.EscapeString(fv.General))
		}
		submit := fv.Submit
		if submit == "" {
			submit = "Submit"
		}
		p(`<button type="submit">%s</button>`, html.EscapeString(submit))
		p(`</form>`)
		return err
	})
}

func writeField(p func(string, ...any), field forms.Field, value, errMsg string) {
	name := html.EscapeString(field.Name)
	label := html.EscapeString(field.Label)
	p(`<div class="field">`)
	p(`<label for="%s">%s`, name, label)
	if field.Required {
		p(`<span class="required">*</span>`)
	}
	p(`</label>`)

	switch field.Type {
	case forms.Textarea:
		p(`<textarea id="%s" name="%s">%s</textarea>`, name, name, html.EscapeString(value))
	case forms.File:
		p(`<input id="%s" name="%s" type="file"`, name, name)
		if field.Accept != "" {
			p(` accept="%s"`, html.EscapeString(field.Accept))
		}
		p(`>`)
	default:
		p(`<input id="%s" name="%s" type="%s" value="%s">`,
			name, name, html.EscapeString(string(field.Type)), html.EscapeString(value))
	}

	if errMsg != "" {
		p(`<p class="field-error" id="%s-error" role="alert">%s</p>`, name, html.EscapeString(errMsg))
	}
	p(`</div>`)
}
