package feedcrawler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunReport(t *testing.T) {
	var (
		gotBody        []byte
		gotContentType string
		gotUser        string
		gotPass        string
		gotAuth        bool
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		gotUser, gotPass, gotAuth = r.BasicAuth()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	t.Setenv("SUMMARY_WEBHOOK_URL", server.URL+"/hooks/crawl")
	t.Setenv("WEBHOOK_USERNAME", "reporter")
	t.Setenv("WEBHOOK_PASSWORD", "hunter2")

	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	summary := RunSummary{
		SiteName:   "testsite",
		RunId:      "run-1",
		StartedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC),
		Discovered: 12,
		Extracted:  10,
		Skipped:    1,
		Failed:     1,
	}
	require.NoError(t, crawler.SubmitRunReport(summary))

	assert.Equal(t, "application/json", gotContentType)
	assert.True(t, gotAuth)
	assert.Equal(t, "reporter", gotUser)
	assert.Equal(t, "hunter2", gotPass)

	var decoded RunSummary
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "testsite", decoded.SiteName)
	assert.Equal(t, 10, decoded.Extracted)
	assert.Equal(t, 1, decoded.Failed)
}

func TestSubmitRunReportNoWebhookConfigured(t *testing.T) {
	t.Setenv("SUMMARY_WEBHOOK_URL", "")
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})
	require.NoError(t, crawler.SubmitRunReport(RunSummary{SiteName: "testsite"}))
}

func TestSubmitRunReportServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "queue full")
	}))
	t.Cleanup(server.Close)

	t.Setenv("SUMMARY_WEBHOOK_URL", server.URL)

	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	err := crawler.SubmitRunReport(RunSummary{SiteName: "testsite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "queue full")
}

func TestSubmitRunReportWithoutAuth(t *testing.T) {
	var gotAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotAuth = r.BasicAuth()
	}))
	t.Cleanup(server.Close)

	t.Setenv("SUMMARY_WEBHOOK_URL", server.URL)
	t.Setenv("WEBHOOK_USERNAME", "")

	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	require.NoError(t, crawler.SubmitRunReport(RunSummary{SiteName: "testsite"}))
	assert.False(t, gotAuth, "no credentials configured means no auth header")
}
