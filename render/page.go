package render

import (
	"embed"
	"html/template"

	"github.com/use-agent/marsscrape/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// IndexTemplate is the name of the landing page template.
const IndexTemplate = "index.html"

// Templates returns the parsed template set for gin's SetHTMLTemplate.
func Templates() *template.Template {
	return templates
}

// Page is the data behind the landing page. Record is nil before the
// first successful scrape.
type Page struct {
	Record     *models.Record
	FactsTable template.HTML
}

// NewPage prepares rec for the templates.
func NewPage(rec *models.Record) Page {
	if rec == nil {
		return Page{}
	}
	return Page{Record: rec, FactsTable: FactsTable(rec.Facts)}
}
