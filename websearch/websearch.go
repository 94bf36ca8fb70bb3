// Package websearch issues name+company queries against external search
// APIs, normalizes the results, and tracks monthly usage with automatic
// fallback between providers.
package websearch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leadscout/mailhunt/quota"
)

// Result is one normalized search hit, regardless of provider.
type Result struct {
	Link    string
	Title   string
	Snippet string
}

// Status reports which provider served a call and where its quota stands.
type Status struct {
	API           string
	QuotaExceeded bool
	Fallback      bool
	Count         int
	Quota         int
}

// Provider is a single external search API.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Sentinel errors.
var (
	// ErrMissingCredentials is a configuration error: the caller must
	// supply a valid key before any discovery can run.
	ErrMissingCredentials = errors.New("missing search API credentials")
	// ErrQuotaExhausted signals a provider's rate-limit response. It
	// triggers fallback rather than failing the caller.
	ErrQuotaExhausted = errors.New("search provider quota exhausted")
)

// Searcher routes queries to a primary provider, with an optional bulk
// provider for high-volume runs that falls back to the primary when
// rate-limited.
type Searcher struct {
	primary Provider
	bulk    Provider
	store   quota.Store
	logger  *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithBulk sets the secondary bulk provider.
func WithBulk(p Provider) Option {
	return func(s *Searcher) { s.bulk = p }
}

// WithQuotaStore sets the usage counter store. Defaults to in-memory.
func WithQuotaStore(store quota.Store) Option {
	return func(s *Searcher) { s.store = store }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) { s.logger = logger }
}

// NewSearcher creates a Searcher around the primary provider.
func NewSearcher(primary Provider, opts ...Option) (*Searcher, error) {
	if primary == nil {
		return nil, ErrMissingCredentials
	}
	s := &Searcher{
		primary: primary,
		store:   quota.NewMemStore(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search runs the query against the appropriate provider. With useBulk
// set and a bulk provider configured, the bulk provider is tried first;
// quota exhaustion or any other bulk failure falls back to the primary,
// noted in the returned Status. Transient provider failures degrade to
// an empty result list, never an error: an empty list is a normal
// outcome a caller can distinguish from misconfiguration at construction
// time.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int, useBulk bool) ([]Result, Status) {
	provider := s.primary
	status := Status{}

	if useBulk && s.bulk != nil {
		results, err := s.run(ctx, s.bulk, query, maxResults)
		switch {
		case err == nil:
			status.API = s.bulk.Name()
			s.fillUsage(&status)
			return results, status
		case errors.Is(err, ErrQuotaExhausted):
			status.QuotaExceeded = true
			status.Fallback = true
			s.logger.InfoContext(ctx, "bulk provider quota exhausted, falling back",
				"bulk", s.bulk.Name(), "primary", s.primary.Name())
		default:
			status.Fallback = true
			s.logger.WarnContext(ctx, "bulk provider failed, falling back",
				"bulk", s.bulk.Name(), "error", err)
		}
	}

	results, err := s.run(ctx, provider, query, maxResults)
	status.API = provider.Name()
	s.fillUsage(&status)
	if err != nil {
		// Degrade to empty: a flaky provider should not abort discovery.
		s.logger.WarnContext(ctx, "search failed", "provider", provider.Name(), "error", err)
		return nil, status
	}
	return results, status
}

// run executes one provider call, deduplicates results, and counts usage.
func (s *Searcher) run(ctx context.Context, p Provider, query string, maxResults int) ([]Result, error) {
	s.logger.DebugContext(ctx, "searching", "provider", p.Name(), "query", query, "max", maxResults)
	results, err := p.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Increment(p.Name()); err != nil {
		s.logger.WarnContext(ctx, "quota increment failed", "provider", p.Name(), "error", err)
	}
	return Dedupe(results), nil
}

func (s *Searcher) fillUsage(status *Status) {
	if status.API == "" {
		return
	}
	count, err := s.store.Count(status.API)
	if err == nil {
		status.Count = count
	}
	status.Quota = s.store.Quota(status.API)
}

// Dedupe drops results with empty links and collapses repeated links,
// preserving first-seen order.
func Dedupe(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Link == "" || seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		out = append(out, r)
	}
	return out
}
