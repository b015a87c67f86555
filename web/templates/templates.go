// Package templates renders the HTML pages served by the web handlers.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed pages/*.html
var pagesFS embed.FS

var pages = template.Must(template.ParseFS(pagesFS, "pages/*.html"))

// PageData carries everything a page template can show.
type PageData struct {
	Title string
	Email string // email of the signed-in user, "" when anonymous
	Error string // form error message, "" when none
}

// Render writes the named page wrapped in the shared layout.
func Render(w io.Writer, page string, data PageData) error {
	tmpl := pages.Lookup(page)
	if tmpl == nil {
		return fmt.Errorf("template %q not found", page)
	}
	return tmpl.Execute(w, data)
}
