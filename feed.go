package feedcrawler

// Feed file names, written under FEED_DIR.
const (
	GoogleFeedCSV = "google_shopping_feed.csv"
	GoogleFeedXML = "google_shopping_feed.xml"
	MetaFeedXML   = "meta_shopping_feed.xml"
)

// FeedInfo describes the channel header of the generated feeds.
type FeedInfo struct {
	Title       string
	Link        string
	Description string
}

// GenerateFeeds renders every record extracted during the run into the Google
// Shopping feeds and the Meta catalog feed. Records come out of the store
// sorted by id and files are replaced atomically, so two runs over the same
// pages produce byte-identical output and a failing run leaves the previous
// files untouched.
func (app *Crawler) GenerateFeeds() error {
	records := app.Records()
	if len(records) == 0 {
		return ErrNoProducts
	}

	feedDir := app.Config.GetString("FEED_DIR")
	if err := ensureDir(feedDir); err != nil {
		return formatFailed("feeds", err)
	}

	if err := app.writeGoogleFeeds(feedDir, records); err != nil {
		return err
	}
	return app.writeMetaFeed(feedDir, records)
}

// feedHeader returns the configured FeedInfo with site defaults filled in.
func (app *Crawler) feedHeader() FeedInfo {
	info := app.FeedInfo
	if info.Title == "" {
		info.Title = app.Name + " product feed"
	}
	if info.Link == "" {
		info.Link = app.BaseUrl
	}
	return info
}

// eligibleRecords drops records missing a field the schema requires, logging
// every skip with the fields that caused it.
func (app *Crawler) eligibleRecords(feed string, records []ProductRecord, missing func(ProductRecord) []string) []ProductRecord {
	eligible := make([]ProductRecord, 0, len(records))
	skipped := 0
	for _, record := range records {
		if fields := missing(record); len(fields) > 0 {
			skipped++
			app.Logger.Warn("%v", schemaSkip(feed, record.Id, fields))
			continue
		}
		eligible = append(eligible, record)
	}
	app.feedCounts[feed] = len(eligible)
	app.feedSkipped[feed] = skipped
	return eligible
}
