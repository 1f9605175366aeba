package feedcrawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Stage names carried by CrawlError.
const (
	StageListing = "listing"
	StageProduct = "product"
)

// ErrNoProducts is returned by Handle when a finished crawl produced zero
// valid records. A run that ends this way writes no feed files, so the
// previously published feeds stay in place.
var ErrNoProducts = errors.New("no products extracted")

// CrawlError reports a page that could not be fetched or navigated.
// Retryable separates transient failures (timeouts, 429, 5xx) from permanent
// ones (4xx, malformed URLs, canceled runs).
type CrawlError struct {
	Stage      string
	Url        string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *CrawlError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("crawl %s %s: status %d", e.Stage, e.Url, e.StatusCode)
	}
	return fmt.Sprintf("crawl %s %s: %v", e.Stage, e.Url, e.Err)
}

func (e *CrawlError) Unwrap() error { return e.Err }

func crawlFailed(stage, url string, err error) *CrawlError {
	retryable := !errors.Is(err, context.Canceled)
	return &CrawlError{Stage: stage, Url: url, Retryable: retryable, Err: err}
}

func crawlRejected(stage, url string, status int) *CrawlError {
	return &CrawlError{Stage: stage, Url: url, StatusCode: status, Retryable: retryableStatus(status)}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsRetryable reports whether err may succeed on a later attempt.
func IsRetryable(err error) bool {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// ExtractionError reports a reachable product page that did not yield a
// valid record. Field names the selector that came back empty or invalid.
type ExtractionError struct {
	Url   string
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: field %q: %v", e.Url, e.Field, e.Err)
	}
	return fmt.Sprintf("extract %s: field %q missing", e.Url, e.Field)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func missingField(url, field string) *ExtractionError {
	return &ExtractionError{Url: url, Field: field}
}

func invalidField(url, field string, err error) *ExtractionError {
	return &ExtractionError{Url: url, Field: field, Err: err}
}

// FormatError reports a record that cannot satisfy a feed schema's mandatory
// fields, or a feed file that could not be produced.
type FormatError struct {
	Feed     string
	RecordId string
	Fields   []string
	Err      error
}

func (e *FormatError) Error() string {
	if e.RecordId != "" {
		return fmt.Sprintf("format %s: record %s missing %s", e.Feed, e.RecordId, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("format %s: %v", e.Feed, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatFailed(feed string, err error) *FormatError {
	return &FormatError{Feed: feed, Err: err}
}

func schemaSkip(feed, recordId string, fields []string) *FormatError {
	return &FormatError{Feed: feed, RecordId: recordId, Fields: fields}
}
