package feedcrawler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesSiteLogFile(t *testing.T) {
	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	crawler.Logger.Info("listing fetched %d links", 12)
	crawler.Logger.Warn("slow response from %s", "shop.example.com")
	crawler.Logger.Error("giving up on %s", "/product/x")
	crawler.Logger.Summary("run done")

	logFile := filepath.Join(
		crawler.Config.GetString("LOG_DIR"),
		"testsite",
		time.Now().Format("2006-01-02")+"_application.log",
	)
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "INFO: listing fetched 12 links")
	assert.Contains(t, content, "WARN: slow response from shop.example.com")
	assert.Contains(t, content, "ERROR: giving up on /product/x")
	assert.Contains(t, content, "SUMMARY: run done")
}

func TestLoggerHtmlSnapshot(t *testing.T) {
	t.Setenv("STORE_HTML", "true")
	t.Setenv("DEBUG_DIR", filepath.Join(t.TempDir(), "debug"))

	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	crawler.Logger.Html("<html><body>broken page</body></html>", "https://shop.example.com/product/x", "extract failed")

	snapshotDir := filepath.Join(crawler.Config.GetString("DEBUG_DIR"), "testsite", crawler.RunId)
	entries, err := os.ReadDir(snapshotDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(snapshotDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "broken page")
}

func TestLoggerHtmlSnapshotDisabled(t *testing.T) {
	t.Setenv("STORE_HTML", "false")
	t.Setenv("DEBUG_DIR", filepath.Join(t.TempDir(), "debug"))

	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	assert.Empty(t, crawler.SaveHtml("<html></html>", "https://shop.example.com/product/x"))
	_, err := os.Stat(filepath.Join(crawler.Config.GetString("DEBUG_DIR"), "testsite"))
	assert.True(t, os.IsNotExist(err))
}
