package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ariclear/backend/report"
)

// BrowserFetcher renders pages in headless Chrome so that content built by
// client-side scripts reaches the extractor.
type BrowserFetcher struct {
	allocOpts []chromedp.ExecAllocatorOption
	timeout   time.Duration
}

func NewBrowserFetcher(timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(UserAgent),
		chromedp.WindowSize(1280, 900),
	)
	return &BrowserFetcher{allocOpts: opts, timeout: timeout}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, f.timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return "", report.FetchFailed(0, err)
	}
	if resp != nil && (resp.Status < 200 || resp.Status > 299) {
		return "", report.FetchFailed(int(resp.Status), fmt.Errorf("navigate %s: %d %s", url, resp.Status, resp.StatusText))
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", report.FetchFailed(0, err)
	}
	return html, nil
}
