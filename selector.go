package feedcrawler

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/playwright-community/playwright-go"
)

// UrlSelector describes how product links are pulled off a listing page.
// Selector matches the repeating card element, FindSelector the anchor
// inside it, Attr the attribute holding the link (default "href"). Handler,
// when set, can rewrite or veto each URL and attach metadata; returning an
// empty URL drops the link.
type UrlSelector struct {
	Selector     string `json:"selector"`
	SingleResult bool   `json:"single_result"`
	FindSelector string `json:"find_selector"`
	Attr         string `json:"attr"`
	Handler      func(urlCollection UrlCollection, fullUrl string, a *goquery.Selection) (string, map[string]interface{})
}

// SingleSelector yields the trimmed text of the first node matching the
// comma-separated query list.
type SingleSelector struct {
	Selector string
}

// Selector is one query/attribute pair inside MultiSelectors. An empty Attr
// takes the node text instead of an attribute.
type Selector struct {
	Query string
	Attr  string
}

// MultiSelectors yields every value matched by its selectors, in document
// order, deduplicated. Attribute values are resolved to absolute URLs;
// ExcludeString drops values containing any of the given substrings.
type MultiSelectors struct {
	Selectors     []Selector
	ExcludeString []string
}

// ProductSelector maps each ProductRecord field to one of:
//
//	string                            a literal value
//	*SingleSelector                   first matching node's text
//	*MultiSelectors                   every matching value ([]string fields)
//	func(CrawlerContext) string       computed single value
//	func(CrawlerContext) []string     computed list value
//
// A nil field stays empty; a nil Url falls back to the crawled page URL.
type ProductSelector struct {
	Id           interface{}
	Title        interface{}
	Description  interface{}
	Url          interface{}
	Images       interface{}
	Categories   interface{}
	Price        interface{}
	Currency     interface{}
	Availability interface{}
	Condition    interface{}
	Brand        interface{}
}

// Handler wires a site's stage functions into Crawler.Handle.
type Handler struct {
	UrlHandler     func(c *Crawler)
	ProductHandler func(c *Crawler)
}

type Proxy struct {
	Server   string
	Username string
	Password string
}

// CookieAction dismisses a consent banner before the first page is read.
// Selector locates the accept button; MustHaveSelectorAfterAction, when set,
// is waited on after the click.
type CookieAction struct {
	Selector                    string
	MustHaveSelectorAfterAction string
}

// CrawlerContext carries one crawled page through selector handlers. Page
// and RodPage are set only under the matching dynamic adapter.
type CrawlerContext struct {
	App           *Crawler
	Document      *goquery.Document
	UrlCollection UrlCollection
	Page          playwright.Page
	RodPage       *rod.Page
}
