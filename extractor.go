package feedcrawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractProduct builds a ProductRecord from a fetched product page using
// app.ProductSelector. A required field that resolves empty aborts the record
// with an ExtractionError naming the field.
func (app *Crawler) extractProduct(ctx CrawlerContext) (ProductRecord, error) {
	selector := app.ProductSelector
	record := ProductRecord{}

	record.Url = app.fieldString(ctx, selector.Url)
	if record.Url == "" {
		record.Url = ctx.UrlCollection.Url
	}

	record.Id = app.fieldString(ctx, selector.Id)
	if record.Id == "" {
		return record, missingField(record.Url, "id")
	}

	record.Title = app.fieldString(ctx, selector.Title)
	if record.Title == "" {
		return record, missingField(record.Url, "title")
	}

	record.Description = app.fieldString(ctx, selector.Description)

	priceText := app.fieldString(ctx, selector.Price)
	if priceText == "" {
		return record, missingField(record.Url, "price")
	}
	price, err := ParsePrice(priceText, app.fieldString(ctx, selector.Currency))
	if err != nil {
		return record, invalidField(record.Url, "price", err)
	}
	record.Price = price

	record.Images = app.fieldStrings(ctx, selector.Images)
	record.Categories = app.fieldStrings(ctx, selector.Categories)

	record.Availability = normalizeAvailability(app.fieldString(ctx, selector.Availability))

	record.Condition = app.fieldString(ctx, selector.Condition)
	if record.Condition == "" {
		record.Condition = ConditionNew
	}

	record.Brand = app.fieldString(ctx, selector.Brand)

	return record, nil
}

// fieldString resolves a ProductSelector field to a single trimmed string. It
// accepts a literal value, a *SingleSelector or a func(CrawlerContext) string;
// nil resolves to "".
func (app *Crawler) fieldString(ctx CrawlerContext, field interface{}) string {
	switch v := field.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case *SingleSelector:
		return strings.TrimSpace(ctx.Document.Find(v.Selector).First().Text())
	case func(CrawlerContext) string:
		return strings.TrimSpace(v(ctx))
	default:
		app.Logger.Error("Invalid %T selector, expected string, *SingleSelector or func(CrawlerContext) string", v)
		return ""
	}
}

// fieldStrings resolves a ProductSelector field to a de-duplicated list. It
// accepts a literal value, a *MultiSelectors or a func(CrawlerContext) []string.
func (app *Crawler) fieldStrings(ctx CrawlerContext, field interface{}) []string {
	var values []string
	switch v := field.(type) {
	case nil:
		return nil
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			values = append(values, trimmed)
		}
	case *MultiSelectors:
		values = app.handleMultiSelectors(ctx.Document, v)
	case func(CrawlerContext) []string:
		values = v(ctx)
	default:
		app.Logger.Error("Invalid %T selector, expected string, *MultiSelectors or func(CrawlerContext) []string", v)
		return nil
	}
	return dedupeStrings(values)
}

// handleMultiSelectors collects values for every query in order. Attribute
// values are resolved against the site base URL; text values are kept as-is.
func (app *Crawler) handleMultiSelectors(document *goquery.Document, selectors *MultiSelectors) []string {
	var items []string

	appendMatches := func(selection *goquery.Selection, attr string) {
		selection.Each(func(_ int, s *goquery.Selection) {
			var value string
			if attr == "" {
				value = strings.TrimSpace(s.Text())
			} else if raw, ok := s.Attr(attr); ok {
				value = app.GetFullUrl(strings.TrimSpace(raw))
			}
			if value == "" {
				return
			}
			for _, excluded := range selectors.ExcludeString {
				if excluded != "" && strings.Contains(value, excluded) {
					return
				}
			}
			items = append(items, value)
		})
	}

	for _, selector := range selectors.Selectors {
		appendMatches(document.Find(selector.Query), selector.Attr)
	}
	return items
}

func dedupeStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
