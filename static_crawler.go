package feedcrawler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// buildHttpClient returns the http adapter's client, routed through proxy
// when the worker has one assigned.
func (app *Crawler) buildHttpClient(proxy *Proxy) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 15 * time.Second,
		MaxIdleConns:        20,
		IdleConnTimeout:     60 * time.Second,
	}

	if proxy != nil && proxy.Server != "" {
		proxyURL, err := url.Parse(ensureScheme(proxy.Server))
		if err != nil {
			return nil, fmt.Errorf("proxy server %q: %w", proxy.Server, err)
		}
		if proxy.Username != "" && proxy.Password != "" {
			proxyURL.User = url.UserPassword(proxy.Username, proxy.Password)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{Timeout: app.engine.Timeout, Transport: transport}, nil
}

// fetchStatic downloads target and parses it into a document, decoding
// legacy charsets from the Content-Type header. The raw HTML comes back
// alongside for snapshots. Failures are typed CrawlErrors; timeouts map to
// status 408 so the retry classification treats them as transient.
func (app *Crawler) fetchStatic(ctx context.Context, client *http.Client, target, stage string) (*goquery.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", &CrawlError{Stage: stage, Url: target, Err: err}
	}
	req.Header.Set("User-Agent", app.engine.UserAgent)
	req.Header.Set("Referer", app.BaseUrl)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, "", crawlRejected(stage, target, http.StatusRequestTimeout)
		}
		return nil, "", crawlFailed(stage, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", crawlRejected(stage, target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", crawlFailed(stage, target, fmt.Errorf("read body: %w", err))
	}

	reader, err := charset.NewReader(strings.NewReader(string(body)), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", &CrawlError{Stage: stage, Url: target, Err: fmt.Errorf("charset reader: %w", err)}
	}
	document, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, "", &CrawlError{Stage: stage, Url: target, Err: fmt.Errorf("parse html: %w", err)}
	}

	return document, string(body), nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}

func ensureScheme(server string) string {
	if strings.Contains(server, "://") {
		return server
	}
	return "http://" + server
}
