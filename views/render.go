package views

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

// Templates gibt das Template-Set für gin (SetHTMLTemplate) zurück.
func Templates() *template.Template {
	return templates
}

// Render führt ein benanntes Template aus.
func Render(w io.Writer, name string, data any) error {
	return templates.ExecuteTemplate(w, name, data)
}
