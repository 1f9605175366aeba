package feedcrawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlErrorRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "service unavailable", err: crawlRejected(StageProduct, "http://x/p", http.StatusServiceUnavailable), want: true},
		{name: "too many requests", err: crawlRejected(StageProduct, "http://x/p", http.StatusTooManyRequests), want: true},
		{name: "request timeout", err: crawlRejected(StageProduct, "http://x/p", http.StatusRequestTimeout), want: true},
		{name: "gateway timeout", err: crawlRejected(StageProduct, "http://x/p", http.StatusGatewayTimeout), want: true},
		{name: "not found", err: crawlRejected(StageProduct, "http://x/p", http.StatusNotFound), want: false},
		{name: "forbidden", err: crawlRejected(StageProduct, "http://x/p", http.StatusForbidden), want: false},
		{name: "transport failure", err: crawlFailed(StageListing, "http://x", errors.New("connection refused")), want: true},
		{name: "canceled run", err: crawlFailed(StageListing, "http://x", context.Canceled), want: false},
		{name: "extraction error", err: missingField("http://x/p", "title"), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestCrawlErrorMessage(t *testing.T) {
	t.Parallel()

	withStatus := crawlRejected(StageProduct, "http://x/p", http.StatusBadGateway)
	assert.Equal(t, "crawl product http://x/p: status 502", withStatus.Error())

	wrapped := crawlFailed(StageListing, "http://x", errors.New("dial tcp: refused"))
	assert.Equal(t, "crawl listing http://x: dial tcp: refused", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "dial tcp: refused")
}

func TestExtractionErrorMessage(t *testing.T) {
	t.Parallel()

	missing := missingField("http://x/p", "title")
	assert.Equal(t, `extract http://x/p: field "title" missing`, missing.Error())

	invalid := invalidField("http://x/p", "price", errors.New("no digits"))
	assert.Equal(t, `extract http://x/p: field "price": no digits`, invalid.Error())

	// The type is recoverable through wrapping.
	var extractionErr *ExtractionError
	wrapped := fmt.Errorf("page rejected: %w", invalid)
	require.ErrorAs(t, wrapped, &extractionErr)
	assert.Equal(t, "price", extractionErr.Field)
}

func TestFormatErrorMessage(t *testing.T) {
	t.Parallel()

	skip := schemaSkip("meta", "sku-9", []string{"image_link", "condition"})
	assert.Equal(t, "format meta: record sku-9 missing image_link, condition", skip.Error())

	failed := formatFailed("google_xml", errors.New("disk full"))
	assert.Equal(t, "format google_xml: disk full", failed.Error())
	assert.EqualError(t, errors.Unwrap(failed), "disk full")
}
