package extractor

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/scraper"
)

// News reads the headline of the latest article on the news listing.
type News struct {
	URL string
}

// Extract loads the news listing in s and returns the first title and teaser.
func (n News) Extract(ctx context.Context, s scraper.Session) (title, summary string, err error) {
	doc, err := scraper.Fetch(ctx, s, n.URL)
	if err != nil {
		return "", "", err
	}
	return ParseNews(doc)
}

// ParseNews returns the text of the first .content_title and the first
// .article_teaser_body. Later articles are ignored.
func ParseNews(doc *goquery.Document) (title, summary string, err error) {
	page := pageName(doc, "news")

	title, ok := text(doc.Selection, newsTitleSel)
	if !ok || title == "" {
		return "", "", models.MissingElement(page, ".content_title")
	}
	summary, ok = text(doc.Selection, newsTeaserSel)
	if !ok || summary == "" {
		return "", "", models.MissingElement(page, ".article_teaser_body")
	}
	return title, summary, nil
}

// pageName identifies doc in error messages.
func pageName(doc *goquery.Document, fallback string) string {
	if doc.Url != nil {
		return doc.Url.String()
	}
	return fallback
}
