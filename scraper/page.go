package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/marsscrape/models"
	"github.com/ysmood/gson"
)

// rodSession drives the single tab of a launched browser.
type rodSession struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	router     *rod.HijackRouter
	navTimeout time.Duration
	url        string
}

// bind returns the page bound to a per-operation deadline.
func (s *rodSession) bind(ctx context.Context) (*rod.Page, context.CancelFunc) {
	if s.navTimeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, s.navTimeout)
		return s.page.Context(ctx), cancel
	}
	ctx, cancel := context.WithCancel(ctx)
	return s.page.Context(ctx), cancel
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p, cancel := s.bind(ctx)
	defer cancel()

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to "+url+" failed")
	}
	s.url = url
	settle(p)
	return nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	p, cancel := s.bind(ctx)
	defer cancel()

	src, err := p.HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return src, nil
}

func (s *rodSession) ClickLink(ctx context.Context, text string) error {
	p, cancel := s.bind(ctx)
	defer cancel()

	el, err := s.findLink(p, text)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, fmt.Sprintf("click on link %q failed", text))
	}
	settle(p)
	return nil
}

func (s *rodSession) FollowLink(ctx context.Context, text string) error {
	p, cancel := s.bind(ctx)
	defer cancel()

	el, err := s.findLink(p, text)
	if err != nil {
		return err
	}
	return s.awaitNavigation(p, fmt.Sprintf("link %q", text), func() error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (s *rodSession) Back(ctx context.Context) error {
	p, cancel := s.bind(ctx)
	defer cancel()

	return s.awaitNavigation(p, "back navigation", p.NavigateBack)
}

// findLink looks up the first <a> containing text. HasR does not wait for
// the element, so an absent link fails fast.
func (s *rodSession) findLink(p *rod.Page, text string) (*rod.Element, error) {
	found, el, err := p.HasR("a", regexp.QuoteMeta(text))
	if err != nil {
		return nil, categorizeError(err, fmt.Sprintf("lookup of link %q failed", text))
	}
	if !found {
		return nil, models.MissingElement(s.url, fmt.Sprintf("link containing %q", text))
	}
	return el, nil
}

// awaitNavigation runs trigger and blocks until the document it starts has
// fired its load event. The listener is installed before trigger runs so a
// fast load is not missed. WaitNavigation gives up silently when the page
// context ends, so the context is checked afterwards.
func (s *rodSession) awaitNavigation(p *rod.Page, what string, trigger func() error) error {
	wait := p.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := trigger(); err != nil {
		return categorizeError(err, what+" failed")
	}
	wait()
	if err := p.GetContext().Err(); err != nil {
		return categorizeError(err, what+" did not finish loading")
	}

	if info, err := p.Info(); err == nil {
		s.url = info.URL
	}
	settle(p)
	return nil
}

// Close stops request hijacking, closes the browser and kills the process.
// The process is killed even when the CDP close call fails.
func (s *rodSession) Close() error {
	var errs []error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop hijack router: %w", err))
		}
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
	return errors.Join(errs...)
}

// settle waits for the load event and a stable DOM. Both are best-effort:
// pages that never go quiet are read as they are.
func settle(p *rod.Page) {
	if err := p.WaitLoad(); err != nil {
		slog.Debug("WaitLoad did not complete, proceeding with current DOM",
			"error", err,
		)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}
}

// setExtraHeaders sends headers with every request of the tab.
func setExtraHeaders(page *rod.Page, headers map[string]string) {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: m}).Call(page); err != nil {
		slog.Debug("failed to set extra headers", "error", err)
	}
}
