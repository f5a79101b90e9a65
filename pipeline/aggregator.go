// Package pipeline assembles a Record from the extractors and publishes it.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/extractor"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/scraper"
	"github.com/use-agent/marsscrape/store"
)

// Aggregator runs every extractor in order against one browser session.
type Aggregator struct {
	launcher   scraper.Launcher
	fetcher    extractor.DocumentFetcher
	targets    config.TargetsConfig
	runTimeout time.Duration
	now        func() time.Time
}

// NewAggregator creates an aggregator. fetcher loads the facts page, which
// needs no browser. A zero runTimeout leaves runs unbounded.
func NewAggregator(l scraper.Launcher, fetcher extractor.DocumentFetcher, targets config.TargetsConfig, runTimeout time.Duration) *Aggregator {
	return &Aggregator{
		launcher:   l,
		fetcher:    fetcher,
		targets:    targets,
		runTimeout: runTimeout,
		now:        time.Now,
	}
}

// Run produces one complete Record or an error. The browser session is
// released before Run returns, whatever the outcome.
func (a *Aggregator) Run(ctx context.Context) (*models.Record, error) {
	if a.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.runTimeout)
		defer cancel()
	}

	start := time.Now()
	rec := &models.Record{}

	err := scraper.WithSession(ctx, a.launcher, func(s scraper.Session) error {
		news := extractor.News{URL: a.targets.NewsURL}
		featured := extractor.FeaturedImage{URL: a.targets.FeaturedImageURL}
		facts := extractor.Facts{URL: a.targets.FactsURL, Fetcher: a.fetcher}
		hemispheres := extractor.Hemispheres{
			ListingURL: a.targets.HemispheresURL,
			BaseURL:    a.targets.HemisphereBaseURL,
		}

		steps := []struct {
			name string
			run  func() error
		}{
			{"news", func() (err error) {
				rec.NewsTitle, rec.NewsSummary, err = news.Extract(ctx, s)
				return err
			}},
			{"featured_image", func() (err error) {
				rec.FeaturedImageURL, err = featured.Extract(ctx, s)
				return err
			}},
			{"facts", func() (err error) {
				rec.Facts, err = facts.Extract(ctx)
				return err
			}},
			{"hemispheres", func() (err error) {
				rec.Hemispheres, err = hemispheres.Extract(ctx, s)
				return err
			}},
		}
		for _, st := range steps {
			if err := runStep(st.name, st.run); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("scrape run failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	rec.ScrapedAt = a.now().UTC()
	if err := rec.Validate(); err != nil {
		slog.Error("scrape run produced an incomplete record", "error", err)
		return nil, err
	}

	slog.Info("scrape run completed",
		"facts", len(rec.Facts),
		"hemispheres", len(rec.Hemispheres),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

func runStep(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if err != nil {
		slog.Warn("scrape step failed",
			"step", name,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
	slog.Debug("scrape step completed",
		"step", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// NewFromConfig wires the Rod launcher and the plain HTTP fetcher into an
// aggregator, and the aggregator into a Service over st.
func NewFromConfig(cfg *config.Config, st store.Store) *Service {
	launcher := scraper.NewRodLauncher(cfg.Browser, cfg.Scraper)
	fetcher := scraper.NewHTTPFetcher(cfg.Browser.Proxy, cfg.Scraper.NavigationTimeout)
	agg := NewAggregator(launcher, fetcher, cfg.Targets, cfg.Scraper.RunTimeout)
	return NewService(agg, st, cfg.Webhook)
}
