// Package requester provides the HTTP client used to fetch monitored pages.
package requester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 10 << 20
	maxRedirects        = 10
)

// ErrBodyTooLarge is returned when a body exceeds the configured maximum.
// A truncated body would hide changes past the cut.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s", e.Code, http.StatusText(e.Code), e.URL)
}

// Page is the fetched body of a monitored URL.
type Page struct {
	URL          string
	StatusCode   int
	Body         []byte
	ETag         string
	LastModified string
	FetchedAt    time.Time
}

// Options configures an HTTPClient.
type Options struct {
	Timeout      time.Duration
	UserAgents   []string
	MaxBodyBytes int64
	// Transport overrides the default transport, mostly for tests.
	Transport http.RoundTripper
}

// HTTPClient is a wrapper around the standard http.Client that adds
// User-Agent rotation, a body size cap and a bounded redirect chain.
type HTTPClient struct {
	client       *http.Client
	userAgents   []string
	maxBodyBytes int64
	rand         *rand.Rand
	mu           sync.Mutex
}

// NewHTTPClient creates a new instance of our custom HTTPClient.
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", len(via))
				}
				return nil
			},
		},
		userAgents:   opts.UserAgents,
		maxBodyBytes: opts.MaxBodyBytes,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Do sends the request with a randomly chosen User-Agent from the configured list.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if len(c.userAgents) > 0 {
		c.mu.Lock()
		ua := c.userAgents[c.rand.Intn(len(c.userAgents))]
		c.mu.Unlock()
		req.Header.Set("User-Agent", ua)
	}
	return c.client.Do(req)
}

// Fetch issues a GET for rawURL and returns the page body. Transport errors
// (DNS, connection, TLS certificate) and non-2xx responses are returned as
// errors, as are bodies larger than the configured maximum.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := ReadBody(resp, c.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	return &Page{
		URL:          rawURL,
		StatusCode:   resp.StatusCode,
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		FetchedAt:    time.Now(),
	}, nil
}

// ReadBody reads the response body, failing with ErrBodyTooLarge when it is
// longer than limit bytes.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}
