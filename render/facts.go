// Package render presents a Record as HTML, Markdown or a terminal table.
package render

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/use-agent/marsscrape/models"
)

// Column headers of the facts table.
var factsHeader = table.Row{"Description", "Mars"}

var (
	prettyTableOpen = `<table class="` + table.DefaultHTMLCSSClass + `">`
	thOpen          = regexp.MustCompile(`<th([\s>])`)
)

// tablePolicy allows the facts table markup and nothing else.
var tablePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^table$`)).OnElements("table")
	p.AllowAttrs("scope").Matching(regexp.MustCompile(`^col$`)).OnElements("th")
	p.AllowAttrs("align").Matching(regexp.MustCompile(`^(left|center|right|justify)$`)).OnElements("th", "td")
	return p
}()

// FactsTable renders facts as a two-column HTML table with Bootstrap
// classes. Labels and values are escaped and the markup is sanitized, so
// the result is safe to embed.
func FactsTable(facts models.Facts) template.HTML {
	tw := table.NewWriter()
	tw.AppendHeader(factsHeader)
	for _, f := range facts {
		tw.AppendRow(table.Row{f.Label, f.Value})
	}
	return template.HTML(tablePolicy.Sanitize(Restyle(tw.RenderHTML())))
}

// Restyle swaps go-pretty's table class for Bootstrap's and marks header
// cells as column headers.
func Restyle(markup string) string {
	markup = strings.Replace(markup, prettyTableOpen, `<table class="table">`, 1)
	return thOpen.ReplaceAllString(markup, `<th scope="col"$1`)
}

// FactsText renders facts as a bordered terminal table.
func FactsText(facts models.Facts) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(factsHeader)
	for _, f := range facts {
		tw.AppendRow(table.Row{f.Label, f.Value})
	}
	return tw.Render()
}
