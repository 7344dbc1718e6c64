package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ariclear/backend/report"
)

const (
	// UserAgent identifies the crawler to the sites it reads.
	UserAgent = "AriClearBot/0.1 (+https://ariclear.com)"

	// maxBodyBytes bounds what is read and parsed. Only the head and the
	// first few thousand characters of text are ever used.
	maxBodyBytes = 2 << 20
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Fetcher retrieves the HTML of a page. Failures are *report.Error values of
// kind FetchFailure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with a pooled transport. Redirects are
// followed by the client.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return NewHTTPFetcherWithClient(&http.Client{
		Timeout:   timeout,
		Transport: transport,
	})
}

func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", report.FetchFailed(0, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", report.FetchFailed(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", report.FetchFailed(resp.StatusCode, fmt.Errorf("GET %s: %s", url, resp.Status))
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return "", report.FetchFailed(0, err)
	}
	return buf.String(), nil
}
