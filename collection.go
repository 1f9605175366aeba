package feedcrawler

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection names used by the pipeline. Listings is seeded with the site's
// listing entry URL when the crawler starts; Products receives every product
// page URL discovered on the listing walk.
const (
	Listings = "listings"
	Products = "products"
)

// UrlCollection is one URL tracked during a run. Status marks a URL whose
// page has been processed. Error, ErrorLog and Attempts drive the retry
// rounds; Permanent takes a URL out of rotation regardless of attempts.
type UrlCollection struct {
	Url       string                 `json:"url"`
	Parent    string                 `json:"parent"`
	Status    bool                   `json:"status"`
	Error     bool                   `json:"error"`
	ErrorLog  string                 `json:"error_log,omitempty"`
	Permanent bool                   `json:"permanent,omitempty"`
	Attempts  int                    `json:"attempts"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt *time.Time             `json:"updated_at,omitempty"`
}

// Availability values carried by ProductRecord. Feed schemas render them
// verbatim.
const (
	InStock    = "in stock"
	OutOfStock = "out of stock"
)

// Condition values accepted by the feed schemas.
const (
	ConditionNew         = "new"
	ConditionRefurbished = "refurbished"
	ConditionUsed        = "used"
)

// Money is a price amount with its ISO 4217 currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// String renders the form shopping feeds expect, e.g. "1234.50 AED".
func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}

func (m Money) IsZero() bool {
	return m.Currency == "" && m.Amount.IsZero()
}

// ProductRecord is one extracted product, validated and ready for feed
// serialization. Images and Categories keep page order.
type ProductRecord struct {
	Id           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Url          string   `json:"url"`
	Images       []string `json:"images,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Price        Money    `json:"price"`
	Availability string   `json:"availability"`
	Condition    string   `json:"condition"`
	Brand        string   `json:"brand,omitempty"`
}

// Image returns the primary image link, empty when the page had none.
func (p ProductRecord) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// RunSummary is the end-of-run accounting logged locally and posted to the
// summary webhook. Discovered counts unique product URLs, Extracted the
// records that passed validation, Skipped the reachable pages rejected by
// extraction, Failed the pages still unreachable after retries.
type RunSummary struct {
	SiteName    string         `json:"site_name"`
	RunId       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Discovered  int            `json:"discovered"`
	Extracted   int            `json:"extracted"`
	Skipped     int            `json:"skipped"`
	Failed      int            `json:"failed"`
	Duplicates  int            `json:"duplicates"`
	FeedCounts  map[string]int `json:"feed_counts,omitempty"`
	FeedSkipped map[string]int `json:"feed_skipped,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
}
