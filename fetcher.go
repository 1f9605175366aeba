package feedcrawler

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/playwright-community/playwright-go"
)

// workerSession is one worker's crawling client: an HTTP client under the
// http adapter, a dedicated browser page under the dynamic ones.
type workerSession struct {
	httpClient *http.Client
	pwPage     playwright.Page
	rodPage    *rod.Page
}

// openSession prepares the crawling client for worker index i. Proxies are
// assigned round-robin by worker index.
func (app *Crawler) openSession(i int) (*workerSession, error) {
	switch app.engine.Adapter {
	case PlaywrightAdapter:
		page, err := app.newPlaywrightPage()
		if err != nil {
			return nil, err
		}
		return &workerSession{pwPage: page}, nil
	case RodAdapter:
		page, err := app.newRodPage()
		if err != nil {
			return nil, err
		}
		return &workerSession{rodPage: page}, nil
	default:
		client, err := app.buildHttpClient(app.pickProxy(i))
		if err != nil {
			return nil, err
		}
		return &workerSession{httpClient: client}, nil
	}
}

func (s *workerSession) close() {
	if s.pwPage != nil {
		_ = s.pwPage.Close()
	}
	if s.rodPage != nil {
		_ = s.rodPage.Close()
	}
	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}
}

func (app *Crawler) pickProxy(i int) *Proxy {
	if len(app.engine.ProxyServers) == 0 {
		return nil
	}
	return &app.engine.ProxyServers[i%len(app.engine.ProxyServers)]
}

// navigate fetches target through the session's adapter and returns the
// parsed DOM plus the raw HTML for snapshots.
func (app *Crawler) navigate(s *workerSession, target, stage string) (*goquery.Document, string, error) {
	app.Logger.Info("Crawling :%s: %s", stage, target)
	app.throttle()

	switch {
	case s.pwPage != nil:
		return app.navigatePlaywright(s.pwPage, target, stage)
	case s.rodPage != nil:
		return app.navigateRod(s.rodPage, target, stage)
	default:
		ctx, cancel := context.WithTimeout(context.Background(), app.engine.Timeout*2)
		defer cancel()
		return app.fetchStatic(ctx, s.httpClient, target, stage)
	}
}

// throttle pauses the calling worker once every SleepAfter requests, keeping
// the crawl polite to the storefront.
func (app *Crawler) throttle() {
	count := atomic.AddInt32(&app.reqCount, 1)
	if app.engine.SleepAfter > 0 && count%int32(app.engine.SleepAfter) == 0 {
		app.Logger.Info("Sleeping %s after %d requests", app.engine.SleepDuration, app.engine.SleepAfter)
		time.Sleep(app.engine.SleepDuration)
	}
}
