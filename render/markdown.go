package render

import (
	"bytes"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/use-agent/marsscrape/models"
)

// mdConverter is safe for concurrent use.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// Markdown renders the record section of the landing page as Markdown.
func Markdown(rec *models.Record) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "record", NewPage(rec)); err != nil {
		return "", fmt.Errorf("render: record template: %w", err)
	}
	return mdConverter.ConvertString(buf.String())
}
