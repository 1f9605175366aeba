package joyandco

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/joyandco/feedcrawler"
)

// UrlHandler walks the listing, clicking "view more" until the site stops
// producing new cards, and collects every product page link.
func UrlHandler(crawler *feedcrawler.Crawler) {
	productLinkSelector := feedcrawler.UrlSelector{
		Selector:     ".product-card, .product-item",
		FindSelector: "a",
		Attr:         "href",
		Handler:      filterProductLink,
	}

	crawler.SetWaitForSelector(".product-card, .product-item")
	crawler.Collection(feedcrawler.Products).CrawlListing(crawler.GetBaseCollection(), productLinkSelector)
}

// filterProductLink drops card links that do not point at a product page.
func filterProductLink(_ feedcrawler.UrlCollection, fullUrl string, _ *goquery.Selection) (string, map[string]interface{}) {
	if !strings.Contains(fullUrl, "/product/") {
		return "", nil
	}
	return fullUrl, nil
}
