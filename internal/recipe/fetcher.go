// Package recipe fetches recipe pages and extracts their title and
// ingredient lines.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Fetcher = (*HTTPFetcher)(nil)
	_ domain.Scraper = (*HTMLScraper)(nil)
)

// DefaultUserAgent looks like a desktop browser; many recipe sites
// refuse obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

const (
	defaultTimeout  = 15 * time.Second
	defaultMaxBytes = 2 << 20
)

// FetcherOption configures the HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithTimeout sets the whole-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBytes caps how much of a page is read.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// HTTPFetcher downloads pages over HTTP, following redirects.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	log       *logger.Logger
}

// NewHTTPFetcher creates a fetcher with a 15 second timeout.
func NewHTTPFetcher(log *logger.Logger, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: DefaultUserAgent,
		maxBytes:  defaultMaxBytes,
		log:       log.Named("fetch"),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch returns the page body. Every failure is a *domain.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.FetchError{Reason: domain.FetchConnectError, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	f.log.Debug("GET %s", url)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{Reason: transportReason(err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	if ferr := classifyStatus(url, resp.StatusCode); ferr != nil {
		f.log.Warn("GET %s: %s", url, resp.Status)
		return "", ferr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", &domain.FetchError{Reason: transportReason(err), URL: url, Status: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		f.log.Warn("GET %s: page larger than %d bytes, truncated", url, f.maxBytes)
		body = body[:f.maxBytes]
	}

	f.log.Debug("GET %s: %d bytes in %s", url, len(body), time.Since(start).Round(time.Millisecond))
	return string(body), nil
}

func classifyStatus(url string, status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &domain.FetchError{Reason: domain.FetchPaywall, URL: url, Status: status}
	case status == http.StatusNotFound:
		return &domain.FetchError{Reason: domain.FetchNotFound, URL: url, Status: status}
	case status >= 400:
		return &domain.FetchError{Reason: domain.FetchHTTPError, URL: url, Status: status}
	}
	return nil
}

func transportReason(err error) domain.FetchReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FetchTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.FetchTimeout
	}
	return domain.FetchConnectError
}

// describe is used in log lines for fetch failures.
func describe(err error) string {
	var ferr *domain.FetchError
	if errors.As(err, &ferr) {
		return fmt.Sprintf("%s (%s)", ferr.Reason, ferr.URL)
	}
	return err.Error()
}
