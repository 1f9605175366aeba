package joyandco

import (
	"github.com/joyandco/feedcrawler"
)

// ProductHandler extracts the catalog fields from every discovered product
// page. Prices on the site carry no currency marker, so AED is assumed.
func ProductHandler(crawler *feedcrawler.Crawler) {
	crawler.ProductSelector = feedcrawler.ProductSelector{
		Id: productId,
		Title: &feedcrawler.SingleSelector{
			Selector: "h1.product-title, .product-details h1",
		},
		Description: &feedcrawler.SingleSelector{
			Selector: ".product-description, .description",
		},
		Price: &feedcrawler.SingleSelector{
			Selector: ".product-price, .price",
		},
		Currency: "AED",
		Images: &feedcrawler.MultiSelectors{
			Selectors: []feedcrawler.Selector{
				{Query: ".product-image img", Attr: "src"},
				{Query: ".product-gallery img", Attr: "src"},
			},
		},
		Availability: &feedcrawler.SingleSelector{
			Selector: ".stock-status, .availability",
		},
		Condition: feedcrawler.ConditionNew,
		Brand:     brandOrDefault,
	}

	crawler.SetWaitForSelector(".product-details, h1.product-title")
	crawler.CrawlProducts(feedcrawler.Products)
}
