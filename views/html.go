package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

// raw writes trusted markup.
func (w *writer) raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

// text writes s HTML-escaped. It is safe in element content and in quoted
// attribute values.
func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// url writes s as an escaped URL attribute value. URLs with schemes other
// than http, https and mailto are replaced by a harmless placeholder.
func (w *writer) url(s string) {
	w.raw(templ.EscapeString(string(templ.URL(s))))
}

func (w *writer) render(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

// component adapts a writer function to templ.Component.
func component(fn func(ctx context.Context, w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		fn(ctx, w)
		return w.err
	})
}
