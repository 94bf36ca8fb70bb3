package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/leadscout/mailhunt/httpcache"
)

const serpAPIEndpoint = "https://serpapi.com/search"

// SerpAPI is the primary provider: Google organic results via serpapi.com.
type SerpAPI struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// SerpAPIOption configures a SerpAPI provider.
type SerpAPIOption func(*SerpAPI)

// WithSerpAPIEndpoint overrides the API endpoint, for tests.
func WithSerpAPIEndpoint(endpoint string) SerpAPIOption {
	return func(p *SerpAPI) { p.endpoint = endpoint }
}

// WithSerpAPILogger sets a custom logger.
func WithSerpAPILogger(logger *slog.Logger) SerpAPIOption {
	return func(p *SerpAPI) { p.logger = logger }
}

// NewSerpAPI creates the provider. A missing key is a configuration
// error surfaced immediately.
func NewSerpAPI(apiKey string, opts ...SerpAPIOption) (*SerpAPI, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	p := &SerpAPI{
		apiKey:     apiKey,
		endpoint:   serpAPIEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements Provider.
func (*SerpAPI) Name() string { return "serpapi" }

type serpAPIResponse struct {
	OrganicResults []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search implements Provider.
func (p *SerpAPI) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("api_key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}

	body, err := httpcache.FetchURL(ctx, nil, p.httpClient, req, p.logger)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}

	var parsed serpAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("serpapi response: %w", err)
	}

	results := make([]Result, 0, len(parsed.OrganicResults))
	for i, r := range parsed.OrganicResults {
		if maxResults > 0 && i >= maxResults {
			break
		}
		results = append(results, Result{Link: r.Link, Title: r.Title, Snippet: r.Snippet})
	}
	return results, nil
}

var _ Provider = (*SerpAPI)(nil)
