package feedcrawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// errCrawlLimitReached stops the worker pool once the dev crawl limit is hit.
var errCrawlLimitReached = errors.New("crawl limit reached")

// CrawlListing walks every pending URL in origin, follows the configured
// "load more" control until it stops producing new product links, and inserts
// the discovered links into the current collection. Listing pages that stay
// unreachable after the retry rounds fail the run.
func (app *Crawler) CrawlListing(origin string, selector UrlSelector) {
	app.Logger.Summary("Starting :%s: crawler", origin)

	for round := 0; ; round++ {
		listings := app.getUrlCollections(origin)
		if len(listings) == 0 {
			break
		}
		if round > 0 {
			app.Logger.Info("Retrying %d :%s: urls, round %d", len(listings), origin, round)
			time.Sleep(app.engine.RetryBackoff)
		}

		session, err := app.openSession(0)
		if err != nil {
			app.fail(err)
			return
		}
		for _, listing := range listings {
			app.crawlListingPage(session, listing, origin, selector)
		}
		session.close()
	}

	if failed := app.store.failedCount(origin, app.engine.MaxRetryAttempts); failed > 0 {
		app.fail(&CrawlError{
			Stage: StageListing,
			Url:   app.Url,
			Err:   fmt.Errorf("%d listing page(s) unreachable after %d attempts", failed, app.engine.MaxRetryAttempts+1),
		})
		return
	}

	app.Logger.Summary("[Total (%d) :%s: found from :%s:]", app.store.count(app.collection), app.collection, origin)
}

func (app *Crawler) crawlListingPage(session *workerSession, listing UrlCollection, origin string, selector UrlSelector) {
	doc, _, err := app.navigate(session, listing.Url, StageListing)
	if err != nil {
		app.handleCrawlFailure(listing.Url, origin, err)
		return
	}

	pageUrl := listing.Url
	for round := 0; ; round++ {
		links := app.processDocument(doc, selector, UrlCollection{Url: pageUrl, Parent: listing.Parent})
		inserted := app.insert(app.collection, links)
		app.Logger.Info("(%d) :%s: found from [%s => %s]", inserted, app.collection, origin, pageUrl)

		// A round that adds nothing means the site is re-serving content we
		// already have, even if the control is still present.
		if round > 0 && inserted == 0 {
			break
		}
		if round+1 >= app.engine.MaxLoadMoreRounds {
			app.Logger.Warn("Load more round limit (%d) reached on %s", app.engine.MaxLoadMoreRounds, listing.Url)
			break
		}

		next, ok := app.advanceListing(session, doc, pageUrl)
		if !ok {
			break
		}
		doc, pageUrl = next.doc, next.url
	}

	app.markAsComplete(listing.Url, origin)
}

type listingPage struct {
	doc *goquery.Document
	url string
}

// advanceListing moves one pagination step: clicking the load-more control on
// dynamic pages, following its link on static ones. ok is false when the
// control is gone or the step failed, which ends the walk.
func (app *Crawler) advanceListing(session *workerSession, doc *goquery.Document, pageUrl string) (listingPage, bool) {
	action := app.engine.LoadMore
	if action == nil {
		return listingPage{}, false
	}

	switch app.engine.Adapter {
	case PlaywrightAdapter:
		if session.pwPage == nil || !app.clickLoadMorePlaywright(session.pwPage, action) {
			return listingPage{}, false
		}
		next, err := app.GetPageDom(session.pwPage)
		if err != nil {
			app.Logger.Error("Failed to read page after load more: %v", err)
			return listingPage{}, false
		}
		return listingPage{next, pageUrl}, true

	case RodAdapter:
		if session.rodPage == nil || !app.clickLoadMoreRod(session.rodPage, action) {
			return listingPage{}, false
		}
		html, err := session.rodPage.HTML()
		if err != nil {
			app.Logger.Error("Failed to read page after load more: %v", err)
			return listingPage{}, false
		}
		next, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			app.Logger.Error("Failed to parse page after load more: %v", err)
			return listingPage{}, false
		}
		return listingPage{next, pageUrl}, true

	default:
		attr := action.Attr
		if attr == "" {
			attr = "href"
		}
		href, ok := doc.Find(action.Selector).First().Attr(attr)
		if !ok || strings.TrimSpace(href) == "" {
			return listingPage{}, false
		}
		nextUrl := app.GetFullUrl(strings.TrimSpace(href))
		if nextUrl == "" || nextUrl == pageUrl {
			return listingPage{}, false
		}
		next, _, err := app.navigate(session, nextUrl, StageListing)
		if err != nil {
			app.Logger.Warn("Stopping load more walk, %v", err)
			return listingPage{}, false
		}
		return listingPage{next, nextUrl}, true
	}
}

// CrawlProducts drains the pending URLs of origin through a bounded worker
// pool and extracts a ProductRecord from every reachable page. URLs failing
// with a retryable error go back to the pool for the next round; extraction
// rejects are logged, counted and never retried.
func (app *Crawler) CrawlProducts(origin string) {
	app.Logger.Summary("Starting :%s: crawler", origin)

	for round := 0; ; round++ {
		pending := app.getUrlCollections(origin)
		if len(pending) == 0 {
			break
		}
		if round > 0 {
			app.Logger.Info("Retrying %d :%s: urls, round %d", len(pending), origin, round)
			time.Sleep(app.engine.RetryBackoff)
		}

		if err := app.crawlProductPool(pending, origin); err != nil {
			if errors.Is(err, errCrawlLimitReached) {
				app.Logger.Warn("Dev crawl limit (%d) reached, stopping :%s: crawler", app.engine.DevCrawlLimit, origin)
				break
			}
			app.fail(err)
			return
		}
	}

	if failed := app.store.failedCount(origin, app.engine.MaxRetryAttempts); failed > 0 {
		app.Logger.Summary("Error count: %d", failed)
	}
	app.Logger.Summary("[Total (%d) products found from :%s:]", app.store.recordCount(), origin)
}

func (app *Crawler) crawlProductPool(urls []UrlCollection, origin string) error {
	g, ctx := errgroup.WithContext(context.Background())

	urlChan := make(chan UrlCollection, len(urls))
	for _, urlCollection := range urls {
		urlChan <- urlCollection
	}
	close(urlChan)

	workers := app.engine.ConcurrentLimit
	if workers < 1 {
		workers = 1
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	for i := 0; i < workers; i++ {
		workerId := i
		g.Go(func() error {
			session, err := app.openSession(workerId)
			if err != nil {
				return err
			}
			defer session.close()

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case urlCollection, more := <-urlChan:
					if !more {
						return nil
					}
					if err := app.crawlProductPage(session, urlCollection, origin); err != nil {
						return err
					}
				}
			}
		})
	}

	return g.Wait()
}

func (app *Crawler) crawlProductPage(session *workerSession, urlCollection UrlCollection, origin string) error {
	if app.isLocalEnv && app.engine.DevCrawlLimit > 0 &&
		int(atomic.LoadInt32(&app.crawled)) >= app.engine.DevCrawlLimit {
		return errCrawlLimitReached
	}

	if !app.isAllowedByRobots(urlCollection.Url) {
		app.Logger.Warn("Robots disallowed: %s", urlCollection.Url)
		app.markAsFailed(urlCollection.Url, origin, "disallowed by robots.txt")
		return nil
	}

	doc, html, err := app.navigate(session, urlCollection.Url, StageProduct)
	if err != nil {
		app.handleCrawlFailure(urlCollection.Url, origin, err)
		return nil
	}

	ctx := CrawlerContext{
		App:           app,
		Document:      doc,
		UrlCollection: urlCollection,
		Page:          session.pwPage,
		RodPage:       session.rodPage,
	}

	record, err := app.extractProduct(ctx)
	if err != nil {
		atomic.AddInt32(&app.skipped, 1)
		app.noteError(err)
		app.Logger.Html(html, urlCollection.Url, err.Error())
		app.markAsComplete(urlCollection.Url, origin)
		return nil
	}

	if !app.store.saveRecord(record) {
		app.Logger.Warn("Duplicate product id %s at %s, keeping the first record", record.Id, urlCollection.Url)
	}
	atomic.AddInt32(&app.crawled, 1)
	app.markAsComplete(urlCollection.Url, origin)
	return nil
}

// handleCrawlFailure books the failed URL for another round when the error is
// retryable, and takes it out of rotation otherwise.
func (app *Crawler) handleCrawlFailure(url, collection string, err error) {
	app.Logger.Error("Error crawling %s: %v", url, err)
	app.noteError(err)
	if IsRetryable(err) {
		app.markAsError(url, collection, err.Error())
		return
	}
	app.markAsFailed(url, collection, err.Error())
}
