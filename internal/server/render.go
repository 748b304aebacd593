package server

import (
	"embed"
	"html/template"
	"io"

	"promptgate/internal/gateway"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Render writes the page for m. html/template escapes every interpolated
// value for the context it appears in.
func Render(w io.Writer, m gateway.PageModel) error {
	return pageTemplate.Execute(w, m)
}
