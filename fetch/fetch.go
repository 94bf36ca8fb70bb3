// Package fetch retrieves raw HTML for candidate pages.
//
// Fetch failures are expected and frequent during discovery: dead links,
// slow hosts, bot walls. Errors are returned explicitly so callers can
// tell "no content" apart from "host misbehaved", but the intended
// handling is to skip the page and move on.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leadscout/mailhunt/httpcache"
)

const defaultTimeout = 10 * time.Second

// Client fetches pages with a browser-like identity.
type Client struct {
	httpClient *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*config)

type config struct {
	cache   httpcache.Cacher
	logger  *slog.Logger
	timeout time.Duration
}

// WithCache sets the HTTP cache.
func WithCache(cache httpcache.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates a page-fetching client.
func New(opts ...Option) *Client {
	cfg := &config{logger: slog.Default(), timeout: defaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // needed for corporate proxies
			},
		},
		cache:  cfg.cache,
		logger: cfg.logger,
	}
}

// HTML retrieves the raw HTML body of urlStr. Any failure (bad URL,
// timeout, non-200) returns an empty string and the error.
func (c *Client) HTML(ctx context.Context, urlStr string) (string, error) {
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		urlStr = "https://" + urlStr
	}
	if err := validateURL(urlStr); err != nil {
		return "", err
	}

	c.logger.DebugContext(ctx, "fetching page", "url", urlStr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", httpcache.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		c.logger.DebugContext(ctx, "page fetch failed", "url", urlStr, "error", err)
		return "", err
	}
	return string(body), nil
}

func validateURL(urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", urlStr)
	}
	return nil
}
