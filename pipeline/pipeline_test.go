package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/scraper/scrapertest"
	"github.com/use-agent/marsscrape/store"
)

var targets = config.TargetsConfig{
	NewsURL:           "http://news.test/news/",
	FeaturedImageURL:  "http://images.test/index.html",
	FactsURL:          "http://facts.test/mars/",
	HemispheresURL:    "http://astro.test/search",
	HemisphereBaseURL: "http://astro.test",
}

func fixtureSite() scrapertest.Site {
	site := scrapertest.Site{}
	site["http://news.test/news/"] = `<div class="content_title">Dust storm season</div>
<div class="article_teaser_body">Orbiters are watching.</div>`
	site["http://images.test/index.html"] = `<a href="#full">FULL IMAGE</a>`
	site["http://images.test/index.html#full"] = `<img class="fancybox-image" src="image/featured/mars1.jpg">`
	site["http://astro.test/search"] = `<div class="result-list"><div class="item"><a href="/cerberus"><h3>Cerberus Hemisphere</h3></a></div></div>`
	site["http://astro.test/cerberus"] = `<img class="wide-image" src="/cache/cerberus.jpg">`
	return site
}

const factsTable = `<table><thead><tr><th>Mars - Earth Comparison</th><th>Mars</th><th>Earth</th></tr></thead>
<tbody><tr><td>Mass:</td><td>6.39 × 10^23 kg</td><td>5.97 × 10^24 kg</td></tr></tbody></table>`

type staticFetcher struct {
	html string
	err  error
}

func (f staticFetcher) FetchDocument(_ context.Context, _ string) (*goquery.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newAggregator(l *scrapertest.Launcher, f staticFetcher) *Aggregator {
	a := NewAggregator(l, f, targets, time.Minute)
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestAggregator_Run(t *testing.T) {
	l := scrapertest.NewLauncher(fixtureSite())

	rec, err := newAggregator(l, staticFetcher{html: factsTable}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &models.Record{
		NewsTitle:        "Dust storm season",
		NewsSummary:      "Orbiters are watching.",
		FeaturedImageURL: "http://images.test/image/featured/mars1.jpg",
		Facts:            models.Facts{{Label: "Mass", Value: "6.39 × 10^23 kg"}},
		Hemispheres: []models.Hemisphere{
			{Title: "Cerberus Hemisphere", ImageURL: "http://astro.test/cache/cerberus.jpg"},
		},
		ScrapedAt: fixedNow,
	}, rec)
	assert.Equal(t, 1, l.Acquired)
	assert.Equal(t, 1, l.Session.Closed)
}

func TestAggregator_FailureReleasesOnceAndReturnsNoRecord(t *testing.T) {
	site := fixtureSite()
	site["http://images.test/index.html"] = `<p>gallery moved</p>`
	l := scrapertest.NewLauncher(site)

	rec, err := newAggregator(l, staticFetcher{html: factsTable}).Run(context.Background())

	assert.Nil(t, rec)
	assert.True(t, models.IsCode(err, models.ErrCodeMissingElement))
	assert.Equal(t, 1, l.Session.Closed)
	assert.NotContains(t, l.Session.Events, "navigate http://astro.test/search")
}

func TestAggregator_FactsFailureAborts(t *testing.T) {
	l := scrapertest.NewLauncher(fixtureSite())

	rec, err := newAggregator(l, staticFetcher{html: `<table><tr><td>no header</td></tr></table>`}).Run(context.Background())

	assert.Nil(t, rec)
	assert.True(t, models.IsCode(err, models.ErrCodeReshape))
	assert.Equal(t, 1, l.Session.Closed)
}

func TestAggregator_ReleaseFailureKeepsRecord(t *testing.T) {
	l := scrapertest.NewLauncher(fixtureSite())
	l.Session.CloseErr = errors.New("browser already exited")

	rec, err := newAggregator(l, staticFetcher{html: factsTable}).Run(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 1, l.Session.Closed)
}

func TestAggregator_AcquireFailure(t *testing.T) {
	l := scrapertest.NewLauncher(fixtureSite())
	l.AcquireErr = models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", nil)

	rec, err := newAggregator(l, staticFetcher{html: factsTable}).Run(context.Background())

	assert.Nil(t, rec)
	assert.True(t, models.IsCode(err, models.ErrCodeBrowserCrash))
	assert.Equal(t, 0, l.Session.Closed)
}

type runnerFunc func(ctx context.Context) (*models.Record, error)

func (f runnerFunc) Run(ctx context.Context) (*models.Record, error) { return f(ctx) }

func validRecord(title string) *models.Record {
	return &models.Record{
		NewsTitle:        title,
		NewsSummary:      "s",
		FeaturedImageURL: "http://images.test/a.jpg",
		Facts:            models.Facts{{Label: "Mass", Value: "1"}},
		Hemispheres:      []models.Hemisphere{{Title: "h", ImageURL: "http://astro.test/h.jpg"}},
		ScrapedAt:        fixedNow,
	}
}

func TestService_ScrapeReplacesSnapshot(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		return validRecord("fresh"), nil
	}), st, config.WebhookConfig{})

	rec, err := svc.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", rec.NewsTitle)

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec, latest)
}

func TestService_FailedRunLeavesSnapshotUnchanged(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Replace(ctx, validRecord("previous")))
	before, err := st.Latest(ctx)
	require.NoError(t, err)

	runErr := models.MissingElement("gallery", `link containing "FULL IMAGE"`)
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		return nil, runErr
	}), st, config.WebhookConfig{})

	rec, err := svc.Scrape(ctx)
	assert.Nil(t, rec)
	assert.Same(t, runErr, err)

	after, err := st.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_LatestBeforeFirstRun(t *testing.T) {
	svc := NewService(runnerFunc(nil), store.NewMemory(), config.WebhookConfig{})

	_, err := svc.Latest(context.Background())

	assert.True(t, models.IsCode(err, models.ErrCodeNotFound))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_ConcurrentTriggersShareOneRun(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		runs.Add(1)
		<-release
		return validRecord("shared"), nil
	}), store.NewMemory(), config.WebhookConfig{})

	var wg sync.WaitGroup
	results := make([]*models.Record, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.Scrape(context.Background())
			assert.NoError(t, err)
			results[i] = rec
		}()
	}

	// Give every caller time to join the in-flight run.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	for _, rec := range results {
		require.NotNil(t, rec)
		assert.Equal(t, "shared", rec.NewsTitle)
	}
}

func TestService_CallerGivesUp(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		<-release
		return validRecord("late"), nil
	}), store.NewMemory(), config.WebhookConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Scrape(ctx)
	assert.True(t, models.IsCode(err, models.ErrCodeTimeout))
}

func TestService_RunEveryStopsWithContext(t *testing.T) {
	var runs atomic.Int32
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		runs.Add(1)
		return validRecord("tick"), nil
	}), store.NewMemory(), config.WebhookConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunEvery(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunEvery did not return after cancel")
	}
}

func TestService_DrainWaitsForRunAndWebhook(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := store.NewMemory()
	started := make(chan struct{})
	release := make(chan struct{})
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		close(started)
		<-release
		return validRecord("scheduled"), nil
	}), st, config.WebhookConfig{URL: srv.URL})

	// The caller gives up at once; the run keeps going in the background.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	go svc.Scrape(ctx)
	<-started

	drained := make(chan error, 1)
	go func() { drained <- svc.Drain(context.Background()) }()

	select {
	case <-drained:
		t.Fatal("Drain returned while a run was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-drained:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Drain did not return after the run finished")
	}

	assert.Equal(t, int32(1), hits.Load())
	rec, err := st.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "scheduled", rec.NewsTitle)
}

func TestService_DrainRefusesNewRuns(t *testing.T) {
	var runs atomic.Int32
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		runs.Add(1)
		return validRecord("late"), nil
	}), store.NewMemory(), config.WebhookConfig{})

	require.NoError(t, svc.Drain(context.Background()))

	_, err := svc.Scrape(context.Background())
	assert.True(t, models.IsCode(err, models.ErrCodeInternal))
	assert.Zero(t, runs.Load())
}

func TestService_DrainGivesUpWithContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	svc := NewService(runnerFunc(func(context.Context) (*models.Record, error) {
		close(started)
		<-release
		return validRecord("slow"), nil
	}), store.NewMemory(), config.WebhookConfig{})

	go svc.Scrape(context.Background())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Drain(ctx), context.DeadlineExceeded)
}
