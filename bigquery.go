package feedcrawler

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/compute/metadata"
	"google.golang.org/api/option"
)

type htmlSnapshotRow struct {
	SiteName  string    `bigquery:"site_name"`
	RunId     string    `bigquery:"run_id"`
	URL       string    `bigquery:"url"`
	HTMLData  string    `bigquery:"html_data"`
	CreatedAt time.Time `bigquery:"created_at"`
}

// sendHtmlToBigquery inserts a page snapshot into the configured BigQuery
// table. CreatedAt doubles as the table's partitioning column.
func (app *Crawler) sendHtmlToBigquery(html, url string) error {
	dataset := app.Config.GetString("BIGQUERY_DATASET")
	table := app.Config.GetString("BIGQUERY_TABLE")
	if dataset == "" || table == "" {
		return fmt.Errorf("BIGQUERY_DATASET and BIGQUERY_TABLE must be set")
	}

	projectID := app.Config.GetString("GCP_PROJECT_ID")
	if projectID == "" {
		id, err := metadata.ProjectID()
		if err != nil {
			return fmt.Errorf("failed to get project ID: %w", err)
		}
		projectID = id
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var opts []option.ClientOption
	if credentials := app.Config.GetString("GCP_CREDENTIALS_PATH"); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return fmt.Errorf("failed to create BigQuery client: %w", err)
	}
	defer client.Close()

	rows := []*htmlSnapshotRow{
		{
			SiteName:  app.Name,
			RunId:     app.RunId,
			URL:       url,
			HTMLData:  html,
			CreatedAt: time.Now(),
		},
	}

	inserter := client.Dataset(dataset).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("failed to insert snapshot into %s.%s: %w", dataset, table, err)
	}
	return nil
}
