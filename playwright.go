package feedcrawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

// launchPlaywright starts the driver and one browser of the configured type,
// installing the browser bundle on first run when needed.
func (app *Crawler) launchPlaywright() error {
	pw, err := playwright.Run()
	if err != nil {
		app.Logger.Info("Installing playwright browsers")
		if installErr := playwright.Install(&playwright.RunOptions{Browsers: []string{app.engine.BrowserType}}); installErr != nil {
			return fmt.Errorf("playwright install: %w", installErr)
		}
		if pw, err = playwright.Run(); err != nil {
			return fmt.Errorf("playwright run: %w", err)
		}
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!app.isLocalEnv),
	}
	if len(app.engine.ProxyServers) > 0 {
		proxy := app.engine.ProxyServers[0]
		opts.Proxy = &playwright.Proxy{
			Server:   ensureScheme(proxy.Server),
			Username: playwright.String(proxy.Username),
			Password: playwright.String(proxy.Password),
		}
	}

	var browser playwright.Browser
	switch app.engine.BrowserType {
	case Chromium:
		browser, err = pw.Chromium.Launch(opts)
	case Firefox:
		browser, err = pw.Firefox.Launch(opts)
	case Webkit:
		browser, err = pw.WebKit.Launch(opts)
	default:
		_ = pw.Stop()
		return fmt.Errorf("unsupported browser type: %s", app.engine.BrowserType)
	}
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	app.pw = pw
	app.browser = browser
	return nil
}

// newPlaywrightPage opens a page in a fresh context, with resource blocking
// wired in when the engine asks for it.
func (app *Crawler) newPlaywrightPage() (playwright.Page, error) {
	context, err := app.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(app.engine.UserAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	page, err := context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(app.engine.Timeout.Milliseconds()))

	if app.engine.BlockResources {
		err := page.Route("**/*", func(route playwright.Route) {
			req := route.Request()
			if app.shouldBlockResource(req.ResourceType(), req.URL()) {
				_ = route.Abort()
				return
			}
			_ = route.Continue()
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up request interception: %w", err)
		}
	}
	return page, nil
}

// navigatePlaywright loads target and returns its rendered DOM. A missing
// WaitForSelector is only warned about: extraction decides what is actually
// absent from the page.
func (app *Crawler) navigatePlaywright(page playwright.Page, target, stage string) (*goquery.Document, string, error) {
	res, err := page.Goto(target, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(app.engine.Timeout.Milliseconds())),
	})
	if err != nil {
		return nil, "", crawlFailed(stage, target, err)
	}
	if res != nil && !res.Ok() {
		return nil, "", crawlRejected(stage, target, res.Status())
	}

	if sel := app.engine.WaitForSelector; sel != nil {
		if _, err := page.WaitForSelector(*sel, playwright.PageWaitForSelectorOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(float64(app.engine.Timeout.Milliseconds())),
		}); err != nil {
			app.Logger.Warn("wait for %q on %s: %v", *sel, target, err)
		}
	}

	if err := app.handleCookieConsent(page); err != nil {
		app.Logger.Warn("cookie consent on %s: %v", target, err)
	}

	html := app.pageHTML(page)
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", &CrawlError{Stage: stage, Url: target, Err: fmt.Errorf("parse html: %w", err)}
	}
	return document, html, nil
}

// handleCookieConsent clicks the configured consent button when the banner
// is present. An absent banner is not an error.
func (app *Crawler) handleCookieConsent(page playwright.Page) error {
	action := app.engine.CookieConsent
	if action == nil {
		return nil
	}
	locator := page.Locator(action.Selector).First()
	if err := locator.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(3000)}); err != nil {
		return nil
	}
	app.Logger.Info("cookie consent dismissed")
	if action.MustHaveSelectorAfterAction != "" {
		if _, err := page.WaitForSelector(action.MustHaveSelectorAfterAction); err != nil {
			return fmt.Errorf("%q never appeared after consent: %w", action.MustHaveSelectorAfterAction, err)
		}
	}
	return nil
}

// clickLoadMorePlaywright presses the load-more control once. It reports
// false when the control is gone or no longer clickable, which ends
// pagination.
func (app *Crawler) clickLoadMorePlaywright(page playwright.Page, action *LoadMoreAction) bool {
	scrollToBottomPlaywright(page)
	locator := page.Locator(action.Selector).First()
	if err := locator.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)}); err != nil {
		return false
	}
	time.Sleep(app.engine.loadMoreWait())
	return true
}

func (app *Crawler) pageHTML(page playwright.Page) string {
	html, err := page.Content()
	if err != nil {
		app.Logger.Error("failed to read page content: %v", err)
		return ""
	}
	return html
}
