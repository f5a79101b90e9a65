package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/marsscrape/models"
)

// marsColumn is the header text of the value column and the text that
// identifies the comparison table.
const marsColumn = "Mars"

// DocumentFetcher loads a page without a browser session.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// Facts reads the Mars column of the planet comparison table.
type Facts struct {
	URL     string
	Fetcher DocumentFetcher
}

// Extract fetches the facts page and reshapes its comparison table.
func (f Facts) Extract(ctx context.Context) (models.Facts, error) {
	doc, err := f.Fetcher.FetchDocument(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	return ReshapeFacts(doc)
}

// ReshapeFacts maps each row label of the first table mentioning Mars to
// that row's cell in the "Mars" column.
//
// Labels come from column 0 with trailing colons removed. Rows keep their
// source order; a repeated label keeps its first position and its last value.
// Other columns are never read.
func ReshapeFacts(doc *goquery.Document) (models.Facts, error) {
	table := marsTable(doc)
	if table == nil {
		return nil, reshapeError("no table containing %q", marsColumn)
	}

	header := headerRow(table)
	if header == nil {
		return nil, reshapeError("table has no header row")
	}

	col := -1
	header.ChildrenMatcher(tableCellSel).EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if strings.TrimSpace(cell.Text()) == marsColumn {
			col = i
			return false
		}
		return true
	})
	if col < 0 {
		return nil, reshapeError("header has no %q column", marsColumn)
	}
	if col == 0 {
		return nil, reshapeError("%q is the label column", marsColumn)
	}

	var facts models.Facts
	var err error
	index := make(map[string]int)
	headerNode := header.Get(0)
	table.FindMatcher(rowSel).EachWithBreak(func(i int, row *goquery.Selection) bool {
		if row.Get(0) == headerNode {
			return true
		}
		cells := row.ChildrenMatcher(tableCellSel)
		if cells.Length() <= col {
			err = reshapeError("row %d has %d cells, %q is column %d", i, cells.Length(), marsColumn, col)
			return false
		}

		label := strings.TrimRight(strings.TrimSpace(cells.Eq(0).Text()), ": \t\n")
		if label == "" {
			err = reshapeError("row %d has an empty label", i)
			return false
		}
		value := strings.TrimSpace(cells.Eq(col).Text())
		if value == "" {
			err = reshapeError("row %d (%s) has an empty %q cell", i, label, marsColumn)
			return false
		}

		if pos, ok := index[label]; ok {
			facts[pos].Value = value
			return true
		}
		index[label] = len(facts)
		facts = append(facts, models.Fact{Label: label, Value: value})
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, reshapeError("table has no fact rows")
	}
	return facts, nil
}

// marsTable returns the first table whose text mentions Mars.
func marsTable(doc *goquery.Document) *goquery.Selection {
	var table *goquery.Selection
	doc.FindMatcher(tableSel).EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if strings.Contains(t.Text(), marsColumn) {
			table = t
			return false
		}
		return true
	})
	return table
}

// headerRow returns the thead row, or the first row when it holds <th> cells.
func headerRow(table *goquery.Selection) *goquery.Selection {
	if row := first(table, headRowSel); row.Length() > 0 {
		return row
	}
	row := first(table, rowSel)
	if row.Length() == 0 || row.ChildrenMatcher(headerCellSel).Length() == 0 {
		return nil
	}
	return row
}

func reshapeError(format string, args ...any) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeReshape, fmt.Sprintf(format, args...), nil)
}
