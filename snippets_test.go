package feedcrawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTrackingSnippets(t *testing.T) {
	target := filepath.Join(t.TempDir(), "snippets", "tracking_snippets.html")
	t.Setenv("SNIPPETS_FILE", target)
	t.Setenv("GOOGLE_TAG_ID", "G-TEST123")
	t.Setenv("META_PIXEL_ID", "424242")

	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	path, err := crawler.WriteTrackingSnippets()
	require.NoError(t, err)
	assert.Equal(t, target, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "googletagmanager.com/gtag/js?id=G-TEST123")
	assert.Contains(t, html, "gtag('config', 'G-TEST123')")
	assert.Contains(t, html, "fbq('init', '424242')")
	assert.Contains(t, html, "facebook.com/tr?id=424242")
	assert.Contains(t, html, "<noscript>")
}

func TestWriteTrackingSnippetsDefaultIds(t *testing.T) {
	t.Setenv("SNIPPETS_FILE", filepath.Join(t.TempDir(), "tracking_snippets.html"))

	crawler := newTestCrawler(t, "https://shop.example.com/products", Engine{})

	path, err := crawler.WriteTrackingSnippets()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "YOUR-GOOGLE-TAG-ID", "placeholder ids survive until configured")
}
