package feedcrawler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newShopServer serves a two-page listing with three products, the shape the
// whole pipeline is built for.
func newShopServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `<html><body>
<div class="product-card"><a href="/product/gamma">Gamma</a></div>
</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>
<div class="product-card"><a href="/product/alpha">Alpha</a></div>
<div class="product-card"><a href="/product/beta">Beta</a></div>
<a class="view-more" href="/products?page=2">View more</a>
</body></html>`)
	})
	for _, p := range []struct{ slug, sku, title, price string }{
		{"alpha", "sku-alpha", "Alpha Lamp", "AED 199.00"},
		{"beta", "sku-beta", "Beta Rug", "AED 349.00"},
		{"gamma", "sku-gamma", "Gamma Vase", "AED 89.00"},
	} {
		p := p
		mux.HandleFunc("/product/"+p.slug, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, productPageHTML(p.sku, p.title, p.price))
		})
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func shopHandler() Handler {
	return Handler{
		UrlHandler: func(c *Crawler) {
			c.Collection(Products).CrawlListing(c.GetBaseCollection(), cardSelector())
		},
		ProductHandler: func(c *Crawler) {
			c.CrawlProducts(Products)
		},
	}
}

func TestHandleEndToEnd(t *testing.T) {
	server := newShopServer(t)

	crawler := newTestCrawler(t, server.URL+"/products", quickEngine(Engine{
		ConcurrentLimit: 2,
		LoadMore:        &LoadMoreAction{Selector: "a.view-more"},
	}))
	crawler.ProductSelector = testProductSelector()
	crawler.FeedInfo = FeedInfo{Title: "Shop Feed", Link: server.URL}

	require.NoError(t, crawler.Handle(shopHandler()))

	feedDir := crawler.Config.GetString("FEED_DIR")
	for _, name := range []string{GoogleFeedXML, GoogleFeedCSV, MetaFeedXML} {
		_, err := os.Stat(filepath.Join(feedDir, name))
		assert.NoError(t, err, "expected %s to be written", name)
	}

	googleXML := readFeed(t, feedDir, GoogleFeedXML)
	for _, sku := range []string{"sku-alpha", "sku-beta", "sku-gamma"} {
		assert.Contains(t, googleXML, "<g:id>"+sku+"</g:id>")
	}

	summary := crawler.buildSummary()
	assert.Equal(t, 3, summary.Discovered)
	assert.Equal(t, 3, summary.Extracted)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 3, summary.FeedCounts["google"])
	assert.Equal(t, 3, summary.FeedCounts["meta"])
	assert.Empty(t, summary.Errors)
}

func TestHandleMixedOutcomes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div class="product-card"><a href="/product/good-1">One</a></div>
<div class="product-card"><a href="/product/good-2">Two</a></div>
<div class="product-card"><a href="/product/broken">Three</a></div>
<div class="product-card"><a href="/product/missing">Four</a></div>
</body></html>`)
	})
	mux.HandleFunc("/product/good-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPageHTML("sku-1", "Product One", "AED 10.00"))
	})
	mux.HandleFunc("/product/good-2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPageHTML("sku-2", "Product Two", "AED 20.00"))
	})
	mux.HandleFunc("/product/broken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1 class="title">No price here</h1></body></html>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	crawler := newTestCrawler(t, server.URL+"/products", quickEngine(Engine{
		ConcurrentLimit:  2,
		MaxRetryAttempts: 1,
	}))
	crawler.ProductSelector = testProductSelector()

	// Skips and per-product failures still make a successful run.
	require.NoError(t, crawler.Handle(shopHandler()))

	summary := crawler.buildSummary()
	assert.Equal(t, 4, summary.Discovered)
	assert.Equal(t, 2, summary.Extracted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.NotEmpty(t, summary.Errors)

	googleXML := readFeed(t, crawler.Config.GetString("FEED_DIR"), GoogleFeedXML)
	assert.Contains(t, googleXML, "sku-1")
	assert.Contains(t, googleXML, "sku-2")
	assert.NotContains(t, googleXML, "broken")
}

func TestHandleFailsWhenListingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	crawler := newTestCrawler(t, server.URL+"/products", quickEngine(Engine{
		MaxRetryAttempts: 1,
	}))
	crawler.ProductSelector = testProductSelector()

	err := crawler.Handle(shopHandler())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")

	// No feeds from a failed run.
	_, statErr := os.Stat(filepath.Join(crawler.Config.GetString("FEED_DIR"), GoogleFeedXML))
	assert.True(t, os.IsNotExist(statErr))
}

func TestHandleReturnsErrNoProducts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div class="product-card"><a href="/product/empty">Empty</a></div>
</body></html>`)
	})
	mux.HandleFunc("/product/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>nothing here yet</p></body></html>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	crawler := newTestCrawler(t, server.URL+"/products", quickEngine(Engine{}))
	crawler.ProductSelector = testProductSelector()

	err := crawler.Handle(shopHandler())
	require.ErrorIs(t, err, ErrNoProducts)

	summary := crawler.buildSummary()
	assert.Equal(t, 1, summary.Discovered)
	assert.Equal(t, 0, summary.Extracted)
	assert.Equal(t, 1, summary.Skipped)
}

func TestNewCrawlerEngineOverrides(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{
		Adapter:         HttpAdapter,
		ConcurrentLimit: 7,
	})

	assert.Equal(t, HttpAdapter, crawler.engine.Adapter)
	assert.Equal(t, 7, crawler.engine.ConcurrentLimit)
	// Untouched knobs keep their defaults.
	assert.Equal(t, 2, crawler.engine.MaxRetryAttempts)
	assert.Equal(t, 50, crawler.engine.MaxLoadMoreRounds)
	assert.Equal(t, defaultUserAgent, crawler.engine.UserAgent)
}

func TestNewCrawlerUserAgentFromEnv(t *testing.T) {
	t.Setenv("USER_AGENT", "feedbot/9.9")
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})
	assert.Equal(t, "feedbot/9.9", crawler.engine.UserAgent)
}

func TestCrawlerFailKeepsFirstError(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	first := fmt.Errorf("first failure")
	crawler.fail(first)
	crawler.fail(fmt.Errorf("second failure"))

	assert.Equal(t, first, crawler.runError())
}

func TestNoteErrorBounded(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	for i := 0; i < maxErrorSamples+5; i++ {
		crawler.noteError(fmt.Errorf("boom %d", i))
	}

	summary := crawler.buildSummary()
	assert.Len(t, summary.Errors, maxErrorSamples)
	assert.Equal(t, "boom 0", summary.Errors[0])
}
