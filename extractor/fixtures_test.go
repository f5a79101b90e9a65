package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/marsscrape/scraper/scrapertest"
)

const (
	newsURL    = "http://news.test/news/"
	galleryURL = "http://images.test/spaceimages/index.html"
	listingURL = "http://astro.test/search/results?q=hemisphere+enhanced"
	astroBase  = "http://astro.test"
)

const newsPage = `<html><body>
<ul class="item_list">
  <li class="slide"><div class="content_title"><a href="/news/8716/">
    NASA's Perseverance Rover Gets a Head Start
  </a></div>
  <div class="article_teaser_body">The rover will arrive at Jezero Crater next year.</div></li>
  <li class="slide"><div class="content_title"><a href="/news/8715/">Older story</a></div>
  <div class="article_teaser_body">Not this one.</div></li>
</ul></body></html>`

const galleryPage = `<html><body>
<div class="header"><a class="showimg fancybox-thumbs" href="#fullimage"> FULL IMAGE</a></div>
</body></html>`

const galleryRevealed = `<html><body>
<div class="fancybox-wrap"><img class="fancybox-image" src="image/featured/mars2.jpg" alt=""></div>
</body></html>`

const listingPage = `<html><body><div class="collapsible results"><div class="result-list">
  <div class="item"><a href="/search/map/Mars/Viking/cerberus_enhanced" class="itemLink product-item">
    <h3>Cerberus Hemisphere Enhanced</h3></a></div>
  <div class="item"><a href="/search/map/Mars/Viking/schiaparelli_enhanced" class="itemLink product-item">
    <h3>Schiaparelli Hemisphere Enhanced</h3></a></div>
</div></div></body></html>`

func detailPage(src string) string {
	return `<html><body><div class="wide-image-wrapper"><img class="wide-image" src="` + src + `"></div></body></html>`
}

// marsSite is a fixture of every page that needs a browser.
func marsSite() scrapertest.Site {
	site := scrapertest.Site{
		newsURL:    newsPage,
		galleryURL: galleryPage,
		listingURL: listingPage,
	}
	site[galleryURL+"#fullimage"] = galleryRevealed
	site[astroBase+"/search/map/Mars/Viking/cerberus_enhanced"] = detailPage("/cache/images/cerberus_enhanced.tif_full.jpg")
	site[astroBase+"/search/map/Mars/Viking/schiaparelli_enhanced"] = detailPage("/cache/images/schiaparelli_enhanced.tif_full.jpg")
	return site
}

func parse(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}
