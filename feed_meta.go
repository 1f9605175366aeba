package feedcrawler

import (
	"encoding/xml"
	"path/filepath"
)

// Meta catalog feed. Flat XML, no namespace; Commerce Manager maps the tag
// names directly.

type metaFeed struct {
	XMLName xml.Name   `xml:"feed"`
	Title   string     `xml:"title"`
	Link    string     `xml:"link"`
	Items   []metaItem `xml:"item"`
}

type metaItem struct {
	Id           string `xml:"id"`
	Title        string `xml:"title"`
	Description  string `xml:"description"`
	Link         string `xml:"link"`
	ImageLink    string `xml:"image_link"`
	Price        string `xml:"price"`
	Availability string `xml:"availability"`
	Condition    string `xml:"condition"`
	Brand        string `xml:"brand,omitempty"`
}

// metaMissing lists the catalog mandatory fields record lacks. Meta requires
// everything Google does plus condition.
func metaMissing(record ProductRecord) []string {
	fields := googleMissing(record)
	if record.Condition == "" {
		fields = append(fields, "condition")
	}
	return fields
}

func (app *Crawler) writeMetaFeed(dir string, records []ProductRecord) error {
	eligible := app.eligibleRecords("meta", records, metaMissing)

	info := app.feedHeader()
	feed := metaFeed{
		Title: info.Title,
		Link:  info.Link,
	}
	for _, record := range eligible {
		feed.Items = append(feed.Items, metaItem{
			Id:           record.Id,
			Title:        record.Title,
			Description:  record.Description,
			Link:         record.Url,
			ImageLink:    record.Image(),
			Price:        record.Price.String(),
			Availability: record.Availability,
			Condition:    record.Condition,
			Brand:        record.Brand,
		})
	}

	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return formatFailed("meta_xml", err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')

	path := filepath.Join(dir, MetaFeedXML)
	if err := app.writeFileAtomic(path, data); err != nil {
		return formatFailed("meta_xml", err)
	}
	app.Logger.Info("Wrote %d items to %s", len(eligible), path)
	return nil
}
