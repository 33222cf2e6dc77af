package index

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// Render produces the dashboard page for the given entries. The template
// contains nothing time- or host-dependent, which keeps rebuilds stable.
func Render(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, struct{ Entries []Entry }{entries}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
