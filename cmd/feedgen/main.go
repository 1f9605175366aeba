package main

import (
	"flag"

	"github.com/joyandco/feedcrawler"
	"github.com/joyandco/feedcrawler/handlers/joyandco"
)

func main() {
	snippetsOnly := flag.Bool("snippets", false, "write the tracking snippets file and exit")
	flag.Parse()

	crawler := feedcrawler.NewCrawler("joyandco", "https://joyandco.com/product/", feedcrawler.Engine{
		Adapter:         feedcrawler.PlaywrightAdapter,
		ConcurrentLimit: 3,
		LoadMore: &feedcrawler.LoadMoreAction{
			Selector: "button.view-more, a.view-more",
		},
	})
	crawler.FeedInfo = feedcrawler.FeedInfo{
		Title:       "Joy and Co Product Feed",
		Link:        "https://joyandco.com",
		Description: "Product feed for Google Shopping",
	}

	if *snippetsOnly {
		if _, err := crawler.WriteTrackingSnippets(); err != nil {
			crawler.Logger.Fatal(err.Error())
		}
		return
	}

	if err := crawler.Handle(feedcrawler.Handler{
		UrlHandler:     joyandco.UrlHandler,
		ProductHandler: joyandco.ProductHandler,
	}); err != nil {
		crawler.Logger.Fatal(err.Error())
	}
}
