package feedcrawler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const reportContentType = "application/json"

// SubmitRunReport posts the run summary to SUMMARY_WEBHOOK_URL so the ops
// channel sees every finished crawl. Runs without a webhook configured skip
// the call.
func (app *Crawler) SubmitRunReport(summary RunSummary) error {
	endpoint := app.Config.GetString("SUMMARY_WEBHOOK_URL")
	if endpoint == "" {
		return nil
	}

	jsonPayload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("json conversion error: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", reportContentType)
	if username := app.Config.GetString("WEBHOOK_USERNAME"); username != "" {
		req.SetBasicAuth(username, app.Config.GetString("WEBHOOK_PASSWORD"))
	}

	client := &http.Client{Timeout: 30 * time.Second}
	response, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit run report: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusMultipleChoices {
		bodyBytes, _ := io.ReadAll(response.Body)
		return fmt.Errorf("webhook error: status %d, body: %s", response.StatusCode, string(bodyBytes))
	}
	return nil
}
