package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/marsscrape/models"
	"golang.org/x/net/html"
)

// Fetch navigates s to target and returns a snapshot of the loaded page.
func Fetch(ctx context.Context, s Session, target string) (*goquery.Document, error) {
	if err := Navigate(ctx, s, target); err != nil {
		return nil, err
	}
	doc, err := Snapshot(ctx, s)
	if err != nil {
		return nil, err
	}
	doc.Url, _ = url.Parse(target)
	return doc, nil
}

// Navigate loads target in s. Untyped failures become NAVIGATION_FAILED or
// SCRAPE_TIMEOUT.
func Navigate(ctx context.Context, s Session, target string) error {
	if err := s.Navigate(ctx, target); err != nil {
		return asNavigationError(err, "navigation to "+target+" failed")
	}
	return nil
}

// Snapshot parses the session's current page into a document tree.
func Snapshot(ctx context.Context, s Session) (*goquery.Document, error) {
	src, err := s.HTML(ctx)
	if err != nil {
		return nil, asNavigationError(err, "failed to read page HTML")
	}
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "failed to parse page HTML", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// asNavigationError keeps typed errors and categorizes everything else.
func asNavigationError(err error, msg string) error {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return err
	}
	return categorizeError(err, msg)
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
