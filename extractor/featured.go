package extractor

import (
	"context"

	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/scraper"
)

// fullImageLink is the visible text of the control that enlarges the
// featured image.
const fullImageLink = "FULL IMAGE"

// FeaturedImage finds the full-size featured image on the gallery page.
type FeaturedImage struct {
	URL string
}

// Extract opens the gallery, reveals the enlarged image and returns its
// absolute URL. The gallery is left in its revealed state.
func (f FeaturedImage) Extract(ctx context.Context, s scraper.Session) (string, error) {
	if err := scraper.Navigate(ctx, s, f.URL); err != nil {
		return "", err
	}
	if err := s.ClickLink(ctx, fullImageLink); err != nil {
		return "", err
	}

	doc, err := scraper.Snapshot(ctx, s)
	if err != nil {
		return "", err
	}
	src, ok := first(doc.Selection, fullImageSel).Attr("src")
	if !ok || src == "" {
		return "", models.MissingElement(f.URL, ".fancybox-image src")
	}

	abs, err := resolve(f.URL, src)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeMissingElement, "invalid image src "+src, err)
	}
	return abs, nil
}
