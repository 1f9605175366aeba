package feedcrawler

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

func isLocalEnv(env string) bool {
	return env == "local" || env == "test"
}

// processDocument walks doc with the urlSelector and returns the discovered
// URL collections. sourcePage is the listing entry the links were found on.
func (app *Crawler) processDocument(doc *goquery.Document, selector UrlSelector, sourcePage UrlCollection) []UrlCollection {
	if selector.SingleResult {
		selection := doc.Find(selector.Selector).First()
		return app.processSelection(selection, selector, sourcePage)
	}

	var items []UrlCollection
	doc.Find(selector.Selector).Each(func(i int, selection *goquery.Selection) {
		items = append(items, app.processSelection(selection, selector, sourcePage)...)
	})
	return items
}

// processSelection extracts link values from one matched element. With no
// FindSelector the element itself is the link carrier.
func (app *Crawler) processSelection(selection *goquery.Selection, selector UrlSelector, sourcePage UrlCollection) []UrlCollection {
	var items []UrlCollection

	attr := selector.Attr
	if attr == "" {
		attr = "href"
	}

	scan := selection
	if selector.FindSelector != "" {
		scan = selection.Find(selector.FindSelector)
	}

	scan.Each(func(j int, s *goquery.Selection) {
		attrValue, ok := s.Attr(attr)
		if !ok {
			return
		}
		fullUrl := app.GetFullUrl(attrValue)
		if fullUrl == "" {
			return
		}
		if selector.Handler != nil {
			handled, meta := selector.Handler(sourcePage, fullUrl, s)
			if handled == "" {
				return
			}
			items = append(items, UrlCollection{Url: handled, MetaData: meta, Parent: sourcePage.Url})
			return
		}
		items = append(items, UrlCollection{Url: fullUrl, Parent: sourcePage.Url})
	})

	return items
}

func (app *Crawler) GetPageDom(page playwright.Page) (*goquery.Document, error) {
	html, err := page.Content()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// GetFullUrl resolves href against the crawl's entry URL. Absolute URLs pass
// through untouched; malformed ones come back empty.
func (app *Crawler) GetFullUrl(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		app.Logger.Warn("malformed url %q: %v", href, err)
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	return app.parsedUrl.ResolveReference(ref).String()
}

// generateFilename builds a safe snapshot filename from a page URL. The hash
// suffix keeps two URLs that sanitize identically from colliding.
func generateFilename(rawURL string) string {
	name := rawURL
	for _, char := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "&", "="} {
		name = strings.ReplaceAll(name, char, "_")
	}
	if len(name) > 80 {
		name = name[:80]
	}
	h := fnv.New32a()
	h.Write([]byte(rawURL))
	return fmt.Sprintf("%s_%s_%08x.html", time.Now().Format("2006-01-02"), name, h.Sum32())
}

// shouldBlockResource reports whether a browser request is skippable weight:
// images, fonts and media, plus anything on the engine's blocklist.
func (app *Crawler) shouldBlockResource(resourceType string, url string) bool {
	switch resourceType {
	case "image", "font", "media":
		return true
	}
	for _, blockedURL := range app.engine.BlockedURLs {
		if strings.Contains(url, blockedURL) {
			return true
		}
	}
	return false
}

func (app *Crawler) getBaseUrl(urlString string) string {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		app.Logger.Error("failed to parse url %q: %v", urlString, err)
		return ""
	}
	return parsedURL.Scheme + "://" + parsedURL.Host
}

// LastPathSegment returns the final path element of a URL, used as a product
// identifier fallback.
func LastPathSegment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
