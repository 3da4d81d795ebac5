// Package fetch implements page retrieval for the pipeline.
// Two fetchers are available: a lightweight HTTP client and a rendered
// browser fetch. The Selector decides which one a stage actually uses.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rvalverde/rankpipe/core"
)

const (
	defaultTimeout = 30 * time.Second

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"
)

// HTTPFetcher fetches web pages with a plain HTTP client.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTP creates an HTTPFetcher with browser-like headers and a
// bounded timeout.
func NewHTTP() *HTTPFetcher {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("Accept-Language", acceptLanguage)
	return &HTTPFetcher{client: client}
}

// Fetch retrieves the page at url. Timeouts map to ErrFetchTimeout and
// non-2xx responses to ErrUnavailable.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("fetching %s: %w", url, ErrFetchTimeout)
		}
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: status %d for %s", ErrUnavailable, resp.StatusCode(), url)
	}

	final := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	return &core.FetchResult{
		URL:        url,
		FinalURL:   final,
		StatusCode: resp.StatusCode(),
		HTML:       string(resp.Body()),
		Strategy:   core.StrategyHTTP,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
