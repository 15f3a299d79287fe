package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/webstitch/internal/config"
)

// StatusError is returned when a page responds with a non-2xx status code.
// It carries the status so callers can render it, and it is a distinct type
// so tests can assert on it with errors.As.
type StatusError struct {
	// URL is the requested page URL.
	URL string

	// StatusCode is the HTTP status code of the response.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Client fetches raw page bodies over HTTP.
// It implements crawler.Fetcher and is safe for concurrent use.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// headers are extra headers sent with every request.
	headers map[string]string

	// cookie is an optional Cookie header value (site authentication).
	cookie string

	// maxBodySize caps how many bytes of a response body are read.
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithCookie sets the Cookie header value sent with every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
// Larger bodies are truncated to prevent memory exhaustion.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithProxy routes all requests through the given proxy URL.
// An invalid proxy URL is ignored and requests go direct.
func WithProxy(rawURL string) Option {
	return func(c *Client) {
		proxyURL, err := url.Parse(rawURL)
		if err != nil {
			return
		}
		c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
// This allows tests to inject custom transports.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a page fetcher with sensible defaults: the default timeout,
// the webstitch User-Agent, and a capped body size.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: config.DefaultTimeout},
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch retrieves the body of pageURL, decoded to UTF-8.
// Non-2xx responses are returned as a *StatusError.
func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", pageURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on a read-only body

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	// Decode the (size-capped) body to UTF-8. charset.NewReader sniffs the
	// Content-Type header, a byte-order mark, and <meta charset> tags.
	limited := io.LimitReader(resp.Body, c.maxBodySize)
	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset for %s: %w", pageURL, err)
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", pageURL, err)
	}

	return body, nil
}
