package scraper

import (
	"context"
	"log/slog"

	"github.com/use-agent/marsscrape/models"
)

// Session is one live browser handle. It is driven by a single goroutine:
// every call blocks until the page has settled.
type Session interface {
	// Navigate loads url in the session's tab.
	Navigate(ctx context.Context, url string) error

	// HTML returns the rendered markup of the current page.
	HTML(ctx context.Context) (string, error)

	// ClickLink clicks the first <a> whose visible text contains text
	// (case-sensitive) and waits for the page to settle in place.
	ClickLink(ctx context.Context, text string) error

	// FollowLink is ClickLink for links that load a new document. It returns
	// once that document has fired its load event.
	FollowLink(ctx context.Context, text string) error

	// Back returns to the previous history entry and waits for it to load.
	Back(ctx context.Context) error

	// Close terminates the browser. It is called exactly once per Acquire.
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)
}

// WithSession acquires a session, runs fn with it and releases it on every
// exit path, panics included. fn's error is returned unchanged; a release
// failure is only logged.
func WithSession(ctx context.Context, l Launcher, fn func(Session) error) (err error) {
	s, err := l.Acquire(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			relErr := models.NewScrapeError(models.ErrCodeSessionRelease, "failed to release browser session", closeErr)
			slog.Warn("browser session release failed",
				"error", relErr,
				"runFailed", err != nil,
			)
		}
	}()

	return fn(s)
}
