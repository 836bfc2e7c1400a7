package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// Profile represents the HTTP header profile used for requests
type Profile string

const (
	// BrowserProfile uses browser-like headers to avoid 406 (Not Acceptable) errors
	BrowserProfile Profile = "browser"

	// CurlProfile uses simple headers (like curl) to avoid 403 (Forbidden) errors
	// from Cloudflare-protected sites that block browser-like User-Agents
	CurlProfile Profile = "curl"
)

// Options configures a Client.
type Options struct {
	Profile Profile
	// Timeout bounds every fetch so a slow host resolves to an error instead
	// of blocking a worker indefinitely.
	Timeout time.Duration
	// HostInterval is the minimum spacing between requests to one host.
	// Zero disables the limiter.
	HostInterval time.Duration
	// CacheSize is the number of responses kept in the in-memory cache.
	// Zero disables caching.
	CacheSize int
}

// Client wraps an http.Client with a header profile, a fetch timeout, a
// per-host politeness limiter, and a small response cache. Safe for
// concurrent use.
type Client struct {
	client  *http.Client
	profile Profile

	hostInterval time.Duration
	limiterMu    sync.Mutex
	limiters     map[string]*rate.Limiter

	cache *lru.Cache[string, []byte]
}

// New creates a Client from options.
func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		profile:      opts.Profile,
		hostInterval: opts.HostInterval,
		limiters:     make(map[string]*rate.Limiter),
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []byte](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create response cache: %w", err)
		}
		c.cache = cache
	}

	return c, nil
}

// Get fetches rawURL and returns the response body. Cached responses are
// served without a network round trip, so a URL referenced by several feeds
// costs one request per run.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(rawURL); ok {
			return body, nil
		}
	}

	if err := c.waitHost(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.cache != nil {
		c.cache.Add(rawURL, body)
	}
	return body, nil
}

// waitHost blocks until the per-host limiter allows another request.
func (c *Client) waitHost(ctx context.Context, rawURL string) error {
	if c.hostInterval <= 0 {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	c.limiterMu.Lock()
	limiter, ok := c.limiters[parsed.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.hostInterval), 1)
		c.limiters[parsed.Host] = limiter
	}
	c.limiterMu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return nil
}

// setHeaders sets the appropriate headers based on the client profile
func (c *Client) setHeaders(req *http.Request) {
	switch c.profile {
	case BrowserProfile:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Connection", "keep-alive")

	case CurlProfile:
		// Cloudflare allows simple tools like curl but blocks browser-like
		// User-Agents
		req.Header.Set("User-Agent", "curl/8.7.1")

	default:
		// Go's default User-Agent
	}
}
