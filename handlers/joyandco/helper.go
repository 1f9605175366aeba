package joyandco

import (
	"strings"

	"github.com/joyandco/feedcrawler"
)

const defaultBrand = "Joy and Co"

// productId prefers the explicit data-product-id attribute and falls back to
// the last path segment of the product URL.
func productId(ctx feedcrawler.CrawlerContext) string {
	if id, ok := ctx.Document.Find("[data-product-id]").First().Attr("data-product-id"); ok {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			return trimmed
		}
	}
	return feedcrawler.LastPathSegment(ctx.UrlCollection.Url)
}

// brandOrDefault reads the page brand, defaulting to the shop's own label.
func brandOrDefault(ctx feedcrawler.CrawlerContext) string {
	if brand := strings.TrimSpace(ctx.Document.Find(".brand").First().Text()); brand != "" {
		return brand
	}
	return defaultBrand
}
