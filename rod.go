package feedcrawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// launchRod boots a managed Chromium through the rod launcher.
func (app *Crawler) launchRod() error {
	l := launcher.New().Headless(!app.isLocalEnv).Devtools(app.isLocalEnv).NoSandbox(!app.isLocalEnv)

	var auth *Proxy
	if len(app.engine.ProxyServers) > 0 {
		proxy := app.engine.ProxyServers[0]
		l = l.Set(flags.ProxyServer, proxy.Server)
		if proxy.Username != "" && proxy.Password != "" {
			auth = &proxy
		}
	}

	controlUrl, err := l.Launch()
	if err != nil {
		return fmt.Errorf("rod launch: %w", err)
	}
	browser := rod.New().ControlURL(controlUrl)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("rod connect: %w", err)
	}
	if auth != nil {
		go browser.MustHandleAuth(auth.Username, auth.Password)()
	}

	app.rodBrowser = browser
	app.rodLauncher = l
	return nil
}

// newRodPage opens a page with the engine's user agent and resource
// blocking applied.
func (app *Crawler) newRodPage() (*rod.Page, error) {
	page, err := app.rodBrowser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("rod page: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: app.engine.UserAgent}); err != nil {
		return nil, fmt.Errorf("error setting user agent: %w", err)
	}

	if app.engine.BlockResources {
		router := page.HijackRequests()
		err := router.Add("*", "", func(ctx *rod.Hijack) {
			if app.shouldBlockResource(strings.ToLower(string(ctx.Request.Type())), ctx.Request.URL().String()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
			ctx.ContinueRequest(&proto.FetchContinueRequest{})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up request interception: %w", err)
		}
		go router.Run()
	}

	return page, nil
}

// navigateRod loads target and returns its rendered DOM. Status comes off
// the first network response for the navigation.
func (app *Crawler) navigateRod(page *rod.Page, target, stage string) (*goquery.Document, string, error) {
	e := proto.NetworkResponseReceived{}
	wait := page.Timeout(app.engine.Timeout).WaitEvent(&e)
	if err := page.Timeout(app.engine.Timeout).Navigate(target); err != nil {
		return nil, "", crawlFailed(stage, target, err)
	}
	wait()
	if e.Response != nil && !statusOk(e.Response.Status) {
		return nil, "", crawlRejected(stage, target, e.Response.Status)
	}

	if err := page.Timeout(app.engine.Timeout).WaitLoad(); err != nil {
		app.Logger.Warn("wait load on %s: %v", target, err)
	}
	if sel := app.engine.WaitForSelector; sel != nil {
		if _, err := page.Timeout(app.engine.Timeout).Element(*sel); err != nil {
			app.Logger.Warn("wait for %q on %s: %v", *sel, target, err)
		}
	}

	if err := app.handleRodCookieConsent(page); err != nil {
		app.Logger.Warn("cookie consent on %s: %v", target, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, "", &CrawlError{Stage: stage, Url: target, Err: fmt.Errorf("read html: %w", err)}
	}
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", &CrawlError{Stage: stage, Url: target, Err: fmt.Errorf("parse html: %w", err)}
	}
	return document, html, nil
}

func (app *Crawler) handleRodCookieConsent(page *rod.Page) error {
	action := app.engine.CookieConsent
	if action == nil {
		return nil
	}
	button, err := page.Timeout(3 * time.Second).Element(action.Selector)
	if err != nil {
		return nil
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("consent click: %w", err)
	}
	app.Logger.Info("cookie consent dismissed")
	if action.MustHaveSelectorAfterAction != "" {
		if _, err := page.Timeout(app.engine.Timeout).Element(action.MustHaveSelectorAfterAction); err != nil {
			return fmt.Errorf("%q never appeared after consent: %w", action.MustHaveSelectorAfterAction, err)
		}
	}
	return nil
}

// clickLoadMoreRod presses the load-more control once, reporting false when
// the control is gone.
func (app *Crawler) clickLoadMoreRod(page *rod.Page, action *LoadMoreAction) bool {
	scrollToBottomRod(page)
	button, err := page.Timeout(5 * time.Second).Element(action.Selector)
	if err != nil {
		return false
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false
	}
	time.Sleep(app.engine.loadMoreWait())
	return true
}

func statusOk(status int) bool {
	return status == 0 || (status >= 200 && status <= 299)
}
