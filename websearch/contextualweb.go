package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/leadscout/mailhunt/httpcache"
)

const contextualWebEndpoint = "https://contextualwebsearch-websearch-v1.p.rapidapi.com/api/search/WebSearchAPI"

// ContextualWeb is the bulk provider, used for high-volume batch runs.
// It carries its own, much larger monthly quota.
type ContextualWeb struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// ContextualWebOption configures a ContextualWeb provider.
type ContextualWebOption func(*ContextualWeb)

// WithContextualWebEndpoint overrides the API endpoint, for tests.
func WithContextualWebEndpoint(endpoint string) ContextualWebOption {
	return func(p *ContextualWeb) { p.endpoint = endpoint }
}

// WithContextualWebLogger sets a custom logger.
func WithContextualWebLogger(logger *slog.Logger) ContextualWebOption {
	return func(p *ContextualWeb) { p.logger = logger }
}

// NewContextualWeb creates the provider. A missing key is a
// configuration error surfaced immediately.
func NewContextualWeb(apiKey string, opts ...ContextualWebOption) (*ContextualWeb, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	p := &ContextualWeb{
		apiKey:     apiKey,
		endpoint:   contextualWebEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements Provider.
func (*ContextualWeb) Name() string { return "contextualweb" }

type contextualWebResponse struct {
	Value []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"value"`
}

// Search implements Provider. A rate-limit response maps to
// ErrQuotaExhausted so the Searcher can fall back to the primary.
func (p *ContextualWeb) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("pageNumber", "1")
	q.Set("pageSize", strconv.Itoa(max(maxResults, 1)))
	q.Set("autoCorrect", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", p.apiKey)

	body, err := httpcache.FetchURL(ctx, nil, p.httpClient, req, p.logger)
	if err != nil {
		var httpErr *httpcache.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("contextualweb: %w", ErrQuotaExhausted)
		}
		return nil, fmt.Errorf("contextualweb request: %w", err)
	}

	var parsed contextualWebResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("contextualweb response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Value))
	for i, r := range parsed.Value {
		if maxResults > 0 && i >= maxResults {
			break
		}
		results = append(results, Result{Link: r.URL, Title: r.Title, Snippet: r.Description})
	}
	return results, nil
}

var _ Provider = (*ContextualWeb)(nil)
