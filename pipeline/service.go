package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/store"
	"github.com/use-agent/marsscrape/webhook"
	"golang.org/x/sync/singleflight"
)

// Runner produces one Record per call.
type Runner interface {
	Run(ctx context.Context) (*models.Record, error)
}

// Service is the single entry point for triggering runs and reading the
// current snapshot. The HTTP API, the scheduler and the CLI all go through it.
type Service struct {
	runner Runner
	store  store.Store
	hook   config.WebhookConfig
	group  singleflight.Group

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

// NewService wires a runner to a store. Webhook delivery is skipped when
// hook.URL is empty.
func NewService(runner Runner, st store.Store, hook config.WebhookConfig) *Service {
	return &Service{runner: runner, store: st, hook: hook}
}

// Scrape runs the pipeline and, on success, replaces the stored snapshot.
// On failure the stored snapshot is left as it was.
//
// Concurrent calls share one run. The run is not cancelled when a caller
// gives up; it stays bounded by the aggregator's run timeout.
func (s *Service) Scrape(ctx context.Context) (*models.Record, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("scrape", func() (interface{}, error) {
		if !s.track() {
			return nil, models.NewScrapeError(models.ErrCodeInternal, "service is shutting down", nil)
		}
		defer s.inflight.Done()
		return s.scrapeOnce(runCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("joined in-flight scrape run")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Record).Clone(), nil
	case <-ctx.Done():
		return nil, models.NewScrapeError(models.ErrCodeTimeout, "gave up waiting for scrape run", ctx.Err())
	}
}

func (s *Service) scrapeOnce(ctx context.Context) (*models.Record, error) {
	rec, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, rec); err != nil {
		slog.Error("failed to store snapshot", "error", err)
		return nil, err
	}
	slog.Info("snapshot replaced", "scraped_at", rec.ScrapedAt)

	if s.hook.URL != "" {
		// The run already holds inflight, so this Add cannot race Drain.
		s.inflight.Add(1)
		done := webhook.DeliverAsync(s.hook.URL, s.hook.Secret, &webhook.Event{
			Type:      webhook.EventSnapshotReplaced,
			Timestamp: time.Now().Unix(),
			Data:      rec,
		})
		go func() {
			<-done
			s.inflight.Done()
		}()
	}
	return rec, nil
}

func (s *Service) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.inflight.Add(1)
	return true
}

// Drain refuses new runs and waits for the running one and its webhook
// delivery to finish. Call it before closing the store.
func (s *Service) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the stored snapshot. Before the first successful run the
// error carries NOT_FOUND and wraps store.ErrNotFound.
func (s *Service) Latest(ctx context.Context) (*models.Record, error) {
	rec, err := s.store.Latest(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewScrapeError(models.ErrCodeNotFound, "no snapshot has been scraped yet", err)
	}
	return rec, err
}

// RunEvery scrapes immediately and then once per interval until ctx is done.
// Failed runs are logged and the schedule continues.
func (s *Service) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Scrape(ctx); err != nil {
			slog.Warn("scheduled scrape failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
