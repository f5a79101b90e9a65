package extractor

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/scraper"
)

// Hemispheres walks the hemisphere listing, opening each entry's detail page
// to read the full-resolution image.
type Hemispheres struct {
	// ListingURL is the search results page.
	ListingURL string

	// BaseURL is the site root that image sources are resolved against.
	BaseURL string
}

// walkState is where the session is while walking the listing.
type walkState int

const (
	atListing walkState = iota
	atDetail
)

func (s walkState) String() string {
	if s == atDetail {
		return "AtDetail"
	}
	return "AtListing"
}

// walker tracks the session state so every detail visit is paired with a
// return to the listing.
type walker struct {
	s       scraper.Session
	state   walkState
	listing string
}

func (w *walker) expect(want walkState, op string) error {
	if w.state != want {
		return models.NewScrapeError(models.ErrCodeInternal,
			fmt.Sprintf("hemisphere walker: %s in state %s", op, w.state), nil)
	}
	return nil
}

// open follows the listing link for title to its detail page.
func (w *walker) open(ctx context.Context, title string) error {
	if err := w.expect(atListing, "open"); err != nil {
		return err
	}
	if err := w.s.FollowLink(ctx, title); err != nil {
		return err
	}
	w.state = atDetail
	return nil
}

// back returns from a detail page and only reports AtListing once the
// listing items are on screen again.
func (w *walker) back(ctx context.Context) error {
	if err := w.expect(atDetail, "back"); err != nil {
		return err
	}
	if err := w.s.Back(ctx); err != nil {
		return err
	}
	doc, err := scraper.Snapshot(ctx, w.s)
	if err != nil {
		return err
	}
	if doc.FindMatcher(hemiItemSel).Length() == 0 {
		return models.NewScrapeError(models.ErrCodeNavigation,
			"back navigation did not return to "+w.listing, nil)
	}
	w.state = atListing
	return nil
}

// Extract returns one entry per listing item, in listing order. Any failure
// aborts the walk and nothing is returned.
func (h Hemispheres) Extract(ctx context.Context, s scraper.Session) ([]models.Hemisphere, error) {
	doc, err := scraper.Fetch(ctx, s, h.ListingURL)
	if err != nil {
		return nil, err
	}
	titles, err := listingTitles(doc, h.ListingURL)
	if err != nil {
		return nil, err
	}

	w := &walker{s: s, state: atListing, listing: h.ListingURL}
	out := make([]models.Hemisphere, 0, len(titles))
	for _, title := range titles {
		if err := w.open(ctx, title); err != nil {
			return nil, err
		}
		img, err := h.detailImage(ctx, s, title)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Hemisphere{Title: title, ImageURL: img})
		if err := w.back(ctx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (h Hemispheres) detailImage(ctx context.Context, s scraper.Session, title string) (string, error) {
	doc, err := scraper.Snapshot(ctx, s)
	if err != nil {
		return "", err
	}
	src, ok := first(doc.Selection, wideImageSel).Attr("src")
	if !ok || src == "" {
		return "", models.MissingElement(title, ".wide-image src")
	}
	abs, err := resolve(h.BaseURL, src)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeMissingElement, "invalid image src "+src, err)
	}
	return abs, nil
}

// listingTitles returns the h3 text of every listing item.
func listingTitles(doc *goquery.Document, page string) ([]string, error) {
	items := doc.FindMatcher(hemiItemSel)
	if items.Length() == 0 {
		return nil, models.MissingElement(page, ".result-list .item")
	}

	titles := make([]string, 0, items.Length())
	var err error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		title, ok := text(item, hemiTitleSel)
		if !ok || title == "" {
			err = models.MissingElement(page, fmt.Sprintf("title of item %d", i))
			return false
		}
		titles = append(titles, title)
		return true
	})
	if err != nil {
		return nil, err
	}
	return titles, nil
}
