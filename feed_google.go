package feedcrawler

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"path/filepath"
	"strings"
)

// googleNamespace is the Merchant Center content namespace; product
// attributes render under its g: prefix.
const googleNamespace = "http://base.google.com/ns/1.0"

type googleRss struct {
	XMLName xml.Name      `xml:"rss"`
	Version string        `xml:"version,attr"`
	XmlnsG  string        `xml:"xmlns:g,attr"`
	Channel googleChannel `xml:"channel"`
}

type googleChannel struct {
	Title       string       `xml:"title"`
	Link        string       `xml:"link"`
	Description string       `xml:"description"`
	Items       []googleItem `xml:"item"`
}

type googleItem struct {
	Id           string `xml:"g:id"`
	Title        string `xml:"title"`
	Description  string `xml:"description"`
	Link         string `xml:"link"`
	ImageLink    string `xml:"g:image_link"`
	Price        string `xml:"g:price"`
	Availability string `xml:"g:availability"`
	Condition    string `xml:"g:condition"`
	Brand        string `xml:"g:brand,omitempty"`
	ProductType  string `xml:"g:product_type,omitempty"`
}

// googleMissing lists the Merchant Center mandatory fields record lacks.
func googleMissing(record ProductRecord) []string {
	var fields []string
	if record.Id == "" {
		fields = append(fields, "id")
	}
	if record.Title == "" {
		fields = append(fields, "title")
	}
	if record.Description == "" {
		fields = append(fields, "description")
	}
	if record.Url == "" {
		fields = append(fields, "link")
	}
	if record.Image() == "" {
		fields = append(fields, "image_link")
	}
	if record.Price.IsZero() {
		fields = append(fields, "price")
	}
	if record.Availability == "" {
		fields = append(fields, "availability")
	}
	return fields
}

func (app *Crawler) writeGoogleFeeds(dir string, records []ProductRecord) error {
	eligible := app.eligibleRecords("google", records, googleMissing)

	if err := app.writeGoogleXML(filepath.Join(dir, GoogleFeedXML), eligible); err != nil {
		return err
	}
	return app.writeGoogleCSV(filepath.Join(dir, GoogleFeedCSV), eligible)
}

func (app *Crawler) writeGoogleXML(path string, records []ProductRecord) error {
	info := app.feedHeader()
	rss := googleRss{
		Version: "2.0",
		XmlnsG:  googleNamespace,
		Channel: googleChannel{
			Title:       info.Title,
			Link:        info.Link,
			Description: info.Description,
		},
	}
	for _, record := range records {
		rss.Channel.Items = append(rss.Channel.Items, googleItem{
			Id:           record.Id,
			Title:        record.Title,
			Description:  record.Description,
			Link:         record.Url,
			ImageLink:    record.Image(),
			Price:        record.Price.String(),
			Availability: record.Availability,
			Condition:    record.Condition,
			Brand:        record.Brand,
			ProductType:  strings.Join(record.Categories, " > "),
		})
	}

	body, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return formatFailed("google_xml", err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')

	if err := app.writeFileAtomic(path, data); err != nil {
		return formatFailed("google_xml", err)
	}
	app.Logger.Info("Wrote %d items to %s", len(records), path)
	return nil
}

var googleCsvHeader = []string{
	"id", "title", "description", "link", "image_link",
	"price", "currency", "availability", "condition", "brand",
}

func (app *Crawler) writeGoogleCSV(path string, records []ProductRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(googleCsvHeader); err != nil {
		return formatFailed("google_csv", err)
	}
	for _, record := range records {
		row := []string{
			record.Id,
			record.Title,
			record.Description,
			record.Url,
			record.Image(),
			record.Price.Amount.StringFixed(2),
			record.Price.Currency,
			record.Availability,
			record.Condition,
			record.Brand,
		}
		if err := w.Write(row); err != nil {
			return formatFailed("google_csv", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return formatFailed("google_csv", err)
	}

	if err := app.writeFileAtomic(path, buf.Bytes()); err != nil {
		return formatFailed("google_csv", err)
	}
	app.Logger.Info("Wrote %d rows to %s", len(records), path)
	return nil
}
