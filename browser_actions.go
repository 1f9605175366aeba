package feedcrawler

import (
	"github.com/go-rod/rod"
	"github.com/playwright-community/playwright-go"
)

// Listings lazy-render their last cards and the load-more control, so both
// adapters scroll to the bottom before each pagination click. Scroll
// failures are ignored; the click path reports the real outcome.

func scrollToBottomPlaywright(page playwright.Page) {
	_, _ = page.Evaluate("() => window.scrollTo(0, document.body.scrollHeight)")
}

func scrollToBottomRod(page *rod.Page) {
	_, _ = page.Eval("() => window.scrollTo(0, document.body.scrollHeight)")
}
