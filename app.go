package feedcrawler

import (
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/temoto/robotstxt"
)

// defaultUserAgent identifies the crawler to the sites it visits. USER_AGENT
// overrides it per deployment.
const defaultUserAgent = "Mozilla/5.0 (compatible; feedcrawler/1.0; +https://github.com/joyandco/feedcrawler)"

// maxErrorSamples caps the crawl errors quoted in the run summary.
const maxErrorSamples = 10

type Crawler struct {
	Name            string
	Url             string
	BaseUrl         string
	RunId           string
	Config          *configService
	Logger          *defaultLogger
	ProductSelector ProductSelector
	FeedInfo        FeedInfo

	engine     Engine
	store      *memoryStore
	collection string
	parsedUrl  *url.URL
	robotsData *robotstxt.RobotsData

	pw          *playwright.Playwright
	browser     playwright.Browser
	rodBrowser  *rod.Browser
	rodLauncher *launcher.Launcher

	isLocalEnv bool
	startedAt  time.Time

	reqCount int32
	crawled  int32
	skipped  int32

	mu          sync.Mutex
	runErr      error
	errorNotes  []string
	feedCounts  map[string]int
	feedSkipped map[string]int
}

// NewCrawler builds a crawler for one site. name tags logs, debug snapshots
// and bucket paths; rawUrl is the listing entry point. An optional Engine
// overlays the defaults.
func NewCrawler(name, rawUrl string, engines ...Engine) *Crawler {
	config := newConfig()

	engine := defaultEngine()
	if len(engines) > 0 {
		engine.merge(engines[0])
	}
	if ua := config.GetString("USER_AGENT"); ua != "" {
		engine.UserAgent = ua
	}

	parsed, err := url.Parse(rawUrl)
	if err != nil || parsed.Host == "" {
		log.Fatalf("invalid site url %q: %v", rawUrl, err)
	}

	crawler := &Crawler{
		Name:        name,
		Url:         rawUrl,
		RunId:       uuid.New().String(),
		Config:      config,
		engine:      engine,
		store:       newMemoryStore(),
		parsedUrl:   parsed,
		collection:  Products,
		startedAt:   time.Now(),
		feedCounts:  make(map[string]int),
		feedSkipped: make(map[string]int),
	}
	crawler.isLocalEnv = isLocalEnv(config.GetString("APP_ENV"))
	crawler.Logger = newDefaultLogger(crawler, name)
	crawler.BaseUrl = crawler.getBaseUrl(rawUrl)
	return crawler
}

// Start runs the pre-crawl checks, seeds the listing collection with the
// entry URL and warms up the configured browser. It must succeed before
// Handle dispatches the site handlers.
func (app *Crawler) Start() error {
	app.startedAt = time.Now()
	app.Logger.Info("Crawler Started! 🚀")

	if err := app.bootstrap(); err != nil {
		return err
	}

	app.insert(Listings, []UrlCollection{{Url: app.Url}})

	if app.engine.isDynamic() {
		switch app.engine.Adapter {
		case PlaywrightAdapter:
			if err := app.launchPlaywright(); err != nil {
				return err
			}
		case RodAdapter:
			if err := app.launchRod(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stop releases browser resources and flushes the logger. Safe to call when
// Start failed halfway.
func (app *Crawler) Stop() {
	defer func() {
		if r := recover(); r != nil {
			app.Logger.Error("Recovered in Stop: %v", r)
		}
	}()

	if app.browser != nil {
		app.browser.Close()
		app.browser = nil
	}
	if app.pw != nil {
		app.pw.Stop()
		app.pw = nil
	}
	if app.rodBrowser != nil {
		app.rodBrowser.Close()
		app.rodBrowser = nil
	}
	if app.rodLauncher != nil {
		app.rodLauncher.Cleanup()
		app.rodLauncher = nil
	}

	app.Logger.Info("Crawler stopped in ⚡ %v", time.Since(app.startedAt))
	app.Logger.close()
}

// GetBaseCollection returns the collection seeded with the site entry URL.
func (app *Crawler) GetBaseCollection() string {
	return Listings
}

// Collection sets the destination for URLs discovered by the next crawl
// stage.
func (app *Crawler) Collection(collection string) *Crawler {
	if collection == "" {
		app.Logger.Fatal("collection name must not be empty")
	}
	app.collection = collection
	return app
}

// Handle runs a full crawl: Start, the site handlers, feed generation and the
// end-of-run reporting. The returned error is the run verdict; the feed files
// on disk are only replaced when it is nil.
func (app *Crawler) Handle(handler Handler) error {
	defer app.Stop()

	if err := app.Start(); err != nil {
		app.Logger.Error(err.Error())
		return err
	}

	if handler.UrlHandler != nil {
		handler.UrlHandler(app)
		if err := app.runError(); err != nil {
			return err
		}
	}
	if handler.ProductHandler != nil {
		handler.ProductHandler(app)
		if err := app.runError(); err != nil {
			return err
		}
	}

	if err := app.GenerateFeeds(); err != nil {
		app.Logger.Error(err.Error())
		return err
	}

	if err := app.UploadFeeds(); err != nil {
		app.Logger.Error("Feed upload failed: %v", err)
	}

	summary := app.buildSummary()
	app.Logger.Summary("Run %s finished: %d extracted, %d skipped, %d failed, %d duplicates",
		summary.RunId, summary.Extracted, summary.Skipped, summary.Failed, summary.Duplicates)
	if err := app.SubmitRunReport(summary); err != nil {
		app.Logger.Error("Failed to submit run report: %v", err)
	}

	app.StopInstanceIfRunningFromGCP()
	return nil
}

// fail records a fatal run error. The first error wins; Handle aborts once
// the current handler returns.
func (app *Crawler) fail(err error) {
	if err == nil {
		return
	}
	app.Logger.Error(err.Error())
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.runErr == nil {
		app.runErr = err
	}
}

func (app *Crawler) runError() error {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.runErr
}

// noteError keeps a bounded sample of crawl errors for the run summary.
func (app *Crawler) noteError(err error) {
	if err == nil {
		return
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	if len(app.errorNotes) < maxErrorSamples {
		app.errorNotes = append(app.errorNotes, err.Error())
	}
}

func (app *Crawler) buildSummary() RunSummary {
	app.mu.Lock()
	notes := make([]string, len(app.errorNotes))
	copy(notes, app.errorNotes)
	feedCounts := make(map[string]int, len(app.feedCounts))
	for k, v := range app.feedCounts {
		feedCounts[k] = v
	}
	feedSkipped := make(map[string]int, len(app.feedSkipped))
	for k, v := range app.feedSkipped {
		feedSkipped[k] = v
	}
	app.mu.Unlock()

	return RunSummary{
		SiteName:    app.Name,
		RunId:       app.RunId,
		StartedAt:   app.startedAt,
		FinishedAt:  time.Now(),
		Discovered:  app.store.count(Products),
		Extracted:   app.store.recordCount(),
		Skipped:     int(atomic.LoadInt32(&app.skipped)),
		Failed:      app.store.failedCount(Products, app.engine.MaxRetryAttempts),
		Duplicates:  app.store.duplicateCount(),
		FeedCounts:  feedCounts,
		FeedSkipped: feedSkipped,
		Errors:      notes,
	}
}
