package feedcrawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const cushionPage = `<html><body>
<span class="sku">SKU-42</span>
<h1 class="title">Velvet Cushion</h1>
<div class="description">A soft velvet cushion for the sofa.</div>
<div class="price">AED 149.00</div>
<div class="hero"><img src="/media/cushion-front.jpg"></div>
<div class="gallery">
  <img src="/media/cushion-front.jpg">
  <img src="/media/cushion-side.jpg">
  <img src="/media/placeholder.png">
</div>
<nav class="crumbs"><span>Home</span><span>Living</span><span>Cushions</span></nav>
<span class="stock">In Stock</span>
<span class="maker">Joy and Co</span>
</body></html>`

func TestExtractProduct(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})
	crawler.ProductSelector = ProductSelector{
		Id:          &SingleSelector{".sku"},
		Title:       &SingleSelector{".title"},
		Description: &SingleSelector{".description"},
		Price:       &SingleSelector{".price"},
		Images: &MultiSelectors{
			Selectors: []Selector{
				{Query: ".hero img", Attr: "src"},
				{Query: ".gallery img", Attr: "src"},
			},
			ExcludeString: []string{"placeholder"},
		},
		Categories: func(ctx CrawlerContext) []string {
			var crumbs []string
			ctx.Document.Find(".crumbs span").Each(func(_ int, s *goquery.Selection) {
				crumbs = append(crumbs, strings.TrimSpace(s.Text()))
			})
			return crumbs
		},
		Availability: &SingleSelector{".stock"},
		Brand:        &SingleSelector{".maker"},
	}

	ctx := CrawlerContext{
		App:           crawler,
		Document:      parseDocument(t, cushionPage),
		UrlCollection: UrlCollection{Url: "https://shop.example.com/product/velvet-cushion"},
	}

	record, err := crawler.extractProduct(ctx)
	require.NoError(t, err)

	assert.Equal(t, "SKU-42", record.Id)
	assert.Equal(t, "Velvet Cushion", record.Title)
	assert.Equal(t, "A soft velvet cushion for the sofa.", record.Description)
	assert.Equal(t, "https://shop.example.com/product/velvet-cushion", record.Url,
		"page url fills in when no Url selector is set")
	assert.Equal(t, "149.00 AED", record.Price.String())
	assert.Equal(t, []string{
		"https://shop.example.com/media/cushion-front.jpg",
		"https://shop.example.com/media/cushion-side.jpg",
	}, record.Images, "images are absolutized, deduplicated and filtered")
	assert.Equal(t, []string{"Home", "Living", "Cushions"}, record.Categories)
	assert.Equal(t, InStock, record.Availability)
	assert.Equal(t, ConditionNew, record.Condition, "condition defaults to new")
	assert.Equal(t, "Joy and Co", record.Brand)
}

func TestExtractProductRequiredFields(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	tests := []struct {
		name      string
		html      string
		wantField string
	}{
		{
			name:      "missing id",
			html:      `<html><body><h1 class="title">Thing</h1><div class="price">AED 5</div></body></html>`,
			wantField: "id",
		},
		{
			name:      "missing title",
			html:      `<html><body><span class="sku">S1</span><div class="price">AED 5</div></body></html>`,
			wantField: "title",
		},
		{
			name:      "missing price",
			html:      `<html><body><span class="sku">S1</span><h1 class="title">Thing</h1></body></html>`,
			wantField: "price",
		},
		{
			name:      "unparsable price",
			html:      `<html><body><span class="sku">S1</span><h1 class="title">Thing</h1><div class="price">call us</div></body></html>`,
			wantField: "price",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			crawler.ProductSelector = testProductSelector()
			ctx := CrawlerContext{
				App:           crawler,
				Document:      parseDocument(t, tt.html),
				UrlCollection: UrlCollection{Url: "https://shop.example.com/product/thing"},
			}

			_, err := crawler.extractProduct(ctx)
			require.Error(t, err)

			var extractionErr *ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, tt.wantField, extractionErr.Field)
			assert.Equal(t, "https://shop.example.com/product/thing", extractionErr.Url)
		})
	}
}

func TestExtractProductLiteralAndFuncSelectors(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})
	crawler.ProductSelector = ProductSelector{
		Id: func(ctx CrawlerContext) string {
			return LastPathSegment(ctx.UrlCollection.Url)
		},
		Title:    &SingleSelector{".title"},
		Price:    &SingleSelector{".price"},
		Currency: "AED",
		Brand:    "House Brand",
	}

	page := `<html><body><h1 class="title">Rattan Chair</h1><div class="price">1,299.00</div></body></html>`
	ctx := CrawlerContext{
		App:           crawler,
		Document:      parseDocument(t, page),
		UrlCollection: UrlCollection{Url: "https://shop.example.com/product/rattan-chair"},
	}

	record, err := crawler.extractProduct(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rattan-chair", record.Id)
	assert.Equal(t, "1299.00 AED", record.Price.String(), "currency literal backs an unlabeled price")
	assert.Equal(t, "House Brand", record.Brand)
	assert.Equal(t, InStock, record.Availability, "no availability selector means in stock")
}

func TestExtractProductOutOfStock(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})
	crawler.ProductSelector = testProductSelector()

	page := `<html><body>
<span class="sku">S9</span>
<h1 class="title">Wall Clock</h1>
<div class="price">AED 75</div>
<span class="stock">Sold out</span>
</body></html>`
	ctx := CrawlerContext{
		App:           crawler,
		Document:      parseDocument(t, page),
		UrlCollection: UrlCollection{Url: "https://shop.example.com/product/wall-clock"},
	}

	record, err := crawler.extractProduct(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutOfStock, record.Availability)
}

func TestDedupeStrings(t *testing.T) {
	t.Parallel()

	assert.Nil(t, dedupeStrings(nil))
	assert.Equal(t, []string{"a"}, dedupeStrings([]string{"a"}))
	assert.Equal(t, []string{"a", "b", "c"}, dedupeStrings([]string{"a", "b", "a", "c", "b"}))
}
