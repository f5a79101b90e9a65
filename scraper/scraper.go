package scraper

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/models"
)

// RodLauncher starts one dedicated Chromium process per session.
type RodLauncher struct {
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
}

// NewRodLauncher creates a launcher; no browser is started until Acquire.
func NewRodLauncher(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) *RodLauncher {
	return &RodLauncher{browserCfg: browserCfg, scraperCfg: scraperCfg}
}

// Acquire launches a browser, connects to it and opens the session tab.
//
// Steps that must precede the first navigation (stealth script, request
// hijacking, extra headers) are installed here.
func (r *RodLauncher) Acquire(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.browserCfg.Headless).
		NoSandbox(r.browserCfg.NoSandbox)

	if r.browserCfg.BrowserBin != "" {
		l = l.Bin(r.browserCfg.BrowserBin)
	}
	if r.browserCfg.Proxy != "" {
		l = l.Proxy(r.browserCfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI,BackForwardCache")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open session tab",
			err,
		)
	}

	if r.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}
	setExtraHeaders(page, map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
	})

	return &rodSession{
		launcher:   l,
		browser:    browser,
		page:       page,
		router:     setupHijack(page, r.scraperCfg.BlockedResourceTypes, r.scraperCfg.BlockAds),
		navTimeout: r.scraperCfg.NavigationTimeout,
	}, nil
}
