package feedcrawler

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// bootstrap runs the pre-crawl checks. A robots.txt that disallows the entry
// path aborts the run; an unreachable or missing robots.txt allows it, by
// crawling convention.
func (app *Crawler) bootstrap() error {
	app.Logger.Info("Checking robots.txt")
	data, err := fetchRobotsTxt(app.BaseUrl, app.engine.UserAgent)
	if err != nil {
		app.Logger.Warn("could not fetch robots.txt: %v", err)
		return nil
	}
	app.robotsData = data

	if !app.isAllowedByRobots(app.Url) {
		return fmt.Errorf("robots.txt disallows crawling %s", app.Url)
	}
	return nil
}

// isAllowedByRobots checks rawUrl's path against the site's robots rules.
// URLs are allowed when no rules were loaded.
func (app *Crawler) isAllowedByRobots(rawUrl string) bool {
	if app.robotsData == nil {
		return true
	}
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return true
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return app.robotsData.FindGroup(app.Name).Test(path)
}

func fetchRobotsTxt(baseUrl, userAgent string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequest(http.MethodGet, baseUrl+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: 30 * time.Second}
	response, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return robotstxt.FromResponse(response)
}
