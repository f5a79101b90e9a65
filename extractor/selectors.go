// Package extractor turns the scraped pages into the fields of a Record.
//
// Each extractor owns one page. Extractors that need interaction drive a
// scraper.Session; the facts table is static and is fetched without one.
package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Page structure the extractors depend on.
var (
	newsTitleSel  = cascadia.MustCompile(".content_title")
	newsTeaserSel = cascadia.MustCompile(".article_teaser_body")
	fullImageSel  = cascadia.MustCompile(".fancybox-image")
	hemiItemSel   = cascadia.MustCompile(".result-list .item")
	hemiTitleSel  = cascadia.MustCompile("h3")
	wideImageSel  = cascadia.MustCompile(".wide-image")
	tableSel      = cascadia.MustCompile("table")
	headRowSel    = cascadia.MustCompile("thead tr")
	rowSel        = cascadia.MustCompile("tr")
	headerCellSel = cascadia.MustCompile("th")
	tableCellSel  = cascadia.MustCompile("th, td")
)

// first returns the first match of m under s.
func first(s *goquery.Selection, m goquery.Matcher) *goquery.Selection {
	return s.FindMatcher(goquery.SingleMatcher(m))
}

// text returns the trimmed text of the first match of m under s.
func text(s *goquery.Selection, m goquery.Matcher) (string, bool) {
	sel := first(s, m)
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// resolve makes src absolute against base. Absolute sources are returned as-is.
func resolve(base, src string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
