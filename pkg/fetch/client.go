package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bblocks/bblocks/pkg/cache"
	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/httputil"
	"github.com/bblocks/bblocks/pkg/observability"
)

const (
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 10 * time.Second

	// DefaultCacheTTL is how long raw HTTP bodies stay in the cache backend.
	DefaultCacheTTL = 24 * time.Hour

	// maxBodySize caps the size of a fetched document.
	maxBodySize = 64 << 20

	acceptHeader = "application/json, application/yaml;q=0.9, text/turtle;q=0.8, */*;q=0.1"
)

// Options configures a [Client].
type Options struct {
	Cache      cache.Cache       // Response cache (default: NullCache)
	CacheTTL   time.Duration     // Cache entry lifetime (default: 24h)
	Refresh    bool              // Skip cache reads, still write fresh bodies
	Headers    map[string]string // Extra request headers
	HTTPClient *http.Client      // Default: 10s timeout client
	Attempts   int               // HTTP attempts for transient failures (default: 3)
	RetryDelay time.Duration     // Initial backoff delay (default: 1s)
	Logger     *log.Logger       // Default: discard
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}

// Client fetches documents over HTTP or from the local filesystem.
// It is safe for concurrent use.
type Client struct {
	opts Options
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	return &Client{opts: opts.WithDefaults()}
}

// Fetch retrieves loc and parses it as YAML/JSON.
func (c *Client) Fetch(ctx context.Context, loc string) (any, error) {
	body, err := c.get(ctx, loc)
	if err != nil {
		return nil, err
	}
	v, err := Parse(body)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "parse %s", loc)
	}
	return v, nil
}

// FetchText retrieves loc and returns its body as a string.
func (c *Client) FetchText(ctx context.Context, loc string) (string, error) {
	body, err := c.get(ctx, loc)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, loc string) ([]byte, error) {
	switch {
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return c.getHTTP(ctx, loc)
	case strings.HasPrefix(loc, "file://"):
		u, err := url.Parse(loc)
		if err != nil {
			return nil, bberrors.Wrap(bberrors.ErrCodeInvalidInput, err, "invalid file URL %q", loc)
		}
		return c.readFile(u.Path)
	case strings.Contains(loc, "://"):
		return nil, bberrors.New(bberrors.ErrCodeUnsupported, "unsupported location %q", loc)
	default:
		return c.readFile(loc)
	}
}

func (c *Client) readFile(path string) ([]byte, error) {
	c.opts.Logger.Debug("reading file", "path", path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, bberrors.Wrap(bberrors.ErrCodeNotFound, err, "read %s", path)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) getHTTP(ctx context.Context, loc string) ([]byte, error) {
	key := cache.Key("fetch", loc)
	if !c.opts.Refresh {
		if data, ok, err := c.opts.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "fetch")
			c.opts.Logger.Debug("fetch cache hit", "url", loc)
			return data, nil
		} else if err != nil {
			c.opts.Logger.Warn("fetch cache read failed", "url", loc, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "fetch")
	}

	c.opts.Logger.Debug("fetching", "url", loc)
	var body []byte
	err := httputil.Retry(ctx, c.opts.Attempts, c.opts.RetryDelay, func() error {
		var err error
		body, err = c.do(ctx, loc)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := c.opts.Cache.Set(ctx, key, body, c.opts.CacheTTL); err != nil {
		c.opts.Logger.Warn("fetch cache write failed", "url", loc, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "fetch", len(body))
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, loc string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidInput, err, "build request for %s", loc)
	}
	req.Header.Set("Accept", acceptHeader)
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.URL.Host, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(bberrors.Wrap(bberrors.ErrCodeNetwork, err, "GET %s", loc))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.URL.Host, resp.StatusCode, time.Since(start))

	if err := checkStatus(loc, resp.StatusCode); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, httputil.Retryable(bberrors.Wrap(bberrors.ErrCodeNetwork, err, "read body of %s", loc))
	}
	return body, nil
}

func checkStatus(loc string, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return bberrors.New(bberrors.ErrCodeNotFound, "GET %s: status %d", loc, code)
	case code >= 500:
		return httputil.Retryable(bberrors.New(bberrors.ErrCodeNetwork, "GET %s: status %d", loc, code))
	default:
		return bberrors.New(bberrors.ErrCodeNetwork, "GET %s: status %d", loc, code)
	}
}

// String describes the client for log output.
func (c *Client) String() string {
	return fmt.Sprintf("fetch.Client(ttl=%s, refresh=%t)", c.opts.CacheTTL, c.opts.Refresh)
}

var _ Fetcher = (*Client)(nil)
