package feedcrawler

import (
	"strings"
	"time"
)

// Adapter names selectable on Engine.Adapter.
const (
	HttpAdapter       = "http"
	PlaywrightAdapter = "playwright"
	RodAdapter        = "rod"
)

// Browser types for the dynamic adapters.
const (
	Chromium = "chromium"
	Firefox  = "firefox"
	Webkit   = "webkit"
)

// LoadMoreAction drives listing pagination. Dynamic adapters click Selector
// until it stops appearing; the http adapter follows the element's Attr
// (default "href") instead.
type LoadMoreAction struct {
	Selector  string
	Attr      string
	WaitAfter time.Duration
}

// Engine collects the crawl knobs a site setup may override. Zero values
// fall back to defaultEngine.
type Engine struct {
	Adapter           string
	BrowserType       string
	ConcurrentLimit   int
	Timeout           time.Duration
	WaitForSelector   *string
	LoadMore          *LoadMoreAction
	MaxLoadMoreRounds int
	CookieConsent     *CookieAction
	BlockResources    bool
	BlockedURLs       []string
	ProxyServers      []Proxy
	MaxRetryAttempts  int
	RetryBackoff      time.Duration
	SleepAfter        int
	SleepDuration     time.Duration
	DevCrawlLimit     int
	UserAgent         string
}

func defaultEngine() Engine {
	return Engine{
		Adapter:           HttpAdapter,
		BrowserType:       Chromium,
		ConcurrentLimit:   1,
		Timeout:           30 * time.Second,
		MaxLoadMoreRounds: 50,
		MaxRetryAttempts:  2,
		RetryBackoff:      2 * time.Second,
		SleepAfter:        10,
		SleepDuration:     time.Second,
		UserAgent:         defaultUserAgent,
	}
}

// merge overlays the non-zero fields of o onto e.
func (e *Engine) merge(o Engine) {
	if o.Adapter != "" {
		e.Adapter = o.Adapter
	}
	if o.BrowserType != "" {
		e.BrowserType = o.BrowserType
	}
	if o.ConcurrentLimit > 0 {
		e.ConcurrentLimit = o.ConcurrentLimit
	}
	if o.Timeout > 0 {
		e.Timeout = o.Timeout
	}
	if o.WaitForSelector != nil {
		e.WaitForSelector = o.WaitForSelector
	}
	if o.LoadMore != nil {
		e.LoadMore = o.LoadMore
	}
	if o.MaxLoadMoreRounds > 0 {
		e.MaxLoadMoreRounds = o.MaxLoadMoreRounds
	}
	if o.CookieConsent != nil {
		e.CookieConsent = o.CookieConsent
	}
	if o.BlockResources {
		e.BlockResources = true
	}
	if len(o.BlockedURLs) > 0 {
		e.BlockedURLs = o.BlockedURLs
	}
	if len(o.ProxyServers) > 0 {
		e.ProxyServers = o.ProxyServers
	}
	if o.MaxRetryAttempts > 0 {
		e.MaxRetryAttempts = o.MaxRetryAttempts
	}
	if o.RetryBackoff > 0 {
		e.RetryBackoff = o.RetryBackoff
	}
	if o.SleepAfter > 0 {
		e.SleepAfter = o.SleepAfter
	}
	if o.SleepDuration > 0 {
		e.SleepDuration = o.SleepDuration
	}
	if o.DevCrawlLimit > 0 {
		e.DevCrawlLimit = o.DevCrawlLimit
	}
	if o.UserAgent != "" {
		e.UserAgent = o.UserAgent
	}
}

func (e *Engine) isDynamic() bool {
	return e.Adapter == PlaywrightAdapter || e.Adapter == RodAdapter
}

func (e *Engine) loadMoreWait() time.Duration {
	if e.LoadMore != nil && e.LoadMore.WaitAfter > 0 {
		return e.LoadMore.WaitAfter
	}
	return 1500 * time.Millisecond
}

func (app *Crawler) SetAdapter(adapter string) *Crawler {
	app.engine.Adapter = adapter
	return app
}

func (app *Crawler) SetBrowserType(browserType string) *Crawler {
	app.engine.BrowserType = browserType
	return app
}

func (app *Crawler) SetConcurrentLimit(concurrentLimit int) *Crawler {
	app.engine.ConcurrentLimit = concurrentLimit
	return app
}

func (app *Crawler) SetCrawlLimit(crawlLimit int) *Crawler {
	app.engine.DevCrawlLimit = crawlLimit
	return app
}

func (app *Crawler) SetBlockResources(block bool) *Crawler {
	app.engine.BlockResources = block
	return app
}

func (app *Crawler) SetCookieConsent(action *CookieAction) *Crawler {
	app.engine.CookieConsent = action
	return app
}

func (app *Crawler) SetTimeout(timeout time.Duration) *Crawler {
	app.engine.Timeout = timeout
	return app
}

func (app *Crawler) SetWaitForSelector(selector string) *Crawler {
	app.engine.WaitForSelector = &selector
	return app
}

func (app *Crawler) SetLoadMore(action *LoadMoreAction) *Crawler {
	app.engine.LoadMore = action
	return app
}

func (app *Crawler) SetSleepAfter(sleepAfter int) *Crawler {
	app.engine.SleepAfter = sleepAfter
	return app
}

func (app *Crawler) SetUserAgent(userAgent string) *Crawler {
	app.engine.UserAgent = userAgent
	return app
}

// EnableProxyRotation loads the PROXY_SERVERS config value, a comma
// separated server list, into the engine.
func (app *Crawler) EnableProxyRotation() *Crawler {
	app.engine.ProxyServers = app.getProxyList()
	return app
}

func (app *Crawler) getProxyList() []Proxy {
	proxyEnv := app.Config.GetString("PROXY_SERVERS")
	if proxyEnv == "" {
		return nil
	}

	var proxies []Proxy
	for _, server := range strings.Split(proxyEnv, ",") {
		server = strings.TrimSpace(server)
		if server != "" {
			proxies = append(proxies, Proxy{Server: server})
		}
	}
	return proxies
}
