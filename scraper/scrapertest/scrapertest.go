// Package scrapertest provides an in-memory scraper.Session for tests.
//
// A Site maps absolute URLs to markup. Clicking or following a link resolves
// its href against the current URL and loads that entry, so in-place reveals
// are modelled as fragment URLs ("index.html#full").
package scrapertest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/scraper"
)

// Site maps absolute URLs to HTML documents.
type Site map[string]string

// Session is a fake browser tab over a Site. It records every call in Events.
type Session struct {
	Site Site

	// NavigateErr forces Navigate to fail for the given URL.
	NavigateErr map[string]error

	// CloseErr is returned by Close.
	CloseErr error

	// StaleBack makes Back report success while the current page stays
	// loaded, like a history entry that never finished loading.
	StaleBack bool

	Events []string
	Closed int

	current string
	history []string
}

// NewSession returns a session over site.
func NewSession(site Site) *Session {
	return &Session{Site: site}
}

// Current returns the URL of the loaded page.
func (s *Session) Current() string { return s.current }

func (s *Session) Navigate(ctx context.Context, target string) error {
	s.Events = append(s.Events, "navigate "+target)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.NavigateErr[target]; err != nil {
		return err
	}
	return s.load(target)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.current == "" {
		return "", fmt.Errorf("scrapertest: no page loaded")
	}
	return s.Site[s.current], nil
}

func (s *Session) ClickLink(ctx context.Context, text string) error {
	s.Events = append(s.Events, "click "+text)
	return s.activate(ctx, text)
}

func (s *Session) FollowLink(ctx context.Context, text string) error {
	s.Events = append(s.Events, "follow "+text)
	return s.activate(ctx, text)
}

func (s *Session) activate(ctx context.Context, text string) error {
	src, err := s.HTML(ctx)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return err
	}

	var href string
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(a.Text(), text) {
			href, found = a.Attr("href")
		}
		return !found
	})
	if !found {
		return models.MissingElement(s.current, fmt.Sprintf("link containing %q", text))
	}

	base, err := url.Parse(s.current)
	if err != nil {
		return err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return err
	}
	return s.load(base.ResolveReference(ref).String())
}

func (s *Session) Back(ctx context.Context) error {
	s.Events = append(s.Events, "back")
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.history) == 0 {
		return fmt.Errorf("scrapertest: no history")
	}
	if s.StaleBack {
		return nil
	}
	s.current = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return nil
}

func (s *Session) Close() error {
	s.Events = append(s.Events, "close")
	s.Closed++
	return s.CloseErr
}

func (s *Session) load(target string) error {
	if _, ok := s.Site[target]; !ok {
		return models.NewScrapeError(models.ErrCodeNavigation, "no such page: "+target, nil)
	}
	if s.current != "" {
		s.history = append(s.history, s.current)
	}
	s.current = target
	return nil
}

// Launcher hands out one Session and counts acquisitions.
type Launcher struct {
	Session    *Session
	AcquireErr error
	Acquired   int
}

// NewLauncher returns a launcher over site.
func NewLauncher(site Site) *Launcher {
	return &Launcher{Session: NewSession(site)}
}

func (l *Launcher) Acquire(ctx context.Context) (scraper.Session, error) {
	l.Acquired++
	if l.AcquireErr != nil {
		return nil, l.AcquireErr
	}
	return l.Session, nil
}
