// Package sitescan ranks whole pages and single-page email candidates by
// semantic relevance. It is the free-query companion to the per-person
// discovery pipeline: no name matching, just topical scoring.
package sitescan

import (
	"context"
	"log/slog"
	"sort"

	"github.com/leadscout/mailhunt"
	"github.com/leadscout/mailhunt/extract"
)

// minTextLen is the smallest visible-text size worth scoring; shorter
// pages are parked pages, bot walls, or redirects.
const minTextLen = 300

// PageScore is one URL with its semantic relevance.
type PageScore struct {
	URL   string
	Score float64
}

// Scanner runs page-level scans. The fetcher and scorer are shared with
// the discovery pipeline.
type Scanner struct {
	fetcher mailhunt.Fetcher
	scorer  mailhunt.Scorer
	logger  *slog.Logger
	window  int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithContextWindow overrides the per-email context window.
func WithContextWindow(n int) Option {
	return func(s *Scanner) { s.window = n }
}

// New creates a Scanner.
func New(fetcher mailhunt.Fetcher, scorer mailhunt.Scorer, opts ...Option) *Scanner {
	s := &Scanner{
		fetcher: fetcher,
		scorer:  scorer,
		logger:  slog.Default(),
		window:  extract.DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RankQuery runs a free-text search and ranks the resulting pages by
// relevance. The search degrades to empty like everywhere else, so an
// unreachable provider yields an empty ranking, not an error.
func (s *Scanner) RankQuery(ctx context.Context, searcher mailhunt.Searcher, query string, maxResults int) []PageScore {
	results, status := searcher.Search(ctx, query, maxResults, false)
	s.logger.InfoContext(ctx, "ranking search results",
		"query", query, "results", len(results), "provider", status.API)

	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.Link != "" {
			urls = append(urls, r.Link)
		}
	}
	return s.RankURLs(ctx, urls)
}

// RankURLs fetches every URL, scores pages with enough visible text, and
// returns them ranked by relevance. Unreachable or near-empty pages are
// skipped.
func (s *Scanner) RankURLs(ctx context.Context, urls []string) []PageScore {
	var scored []PageScore
	for _, url := range urls {
		html, err := s.fetcher.HTML(ctx, url)
		if err != nil || html == "" {
			s.logger.DebugContext(ctx, "skipping page", "url", url, "error", err)
			continue
		}
		text := extract.Text(html)
		if len(text) < minTextLen {
			continue
		}
		score, err := s.scorer.Score(ctx, text)
		if err != nil {
			s.logger.DebugContext(ctx, "scoring failed", "url", url, "error", err)
			continue
		}
		scored = append(scored, PageScore{URL: url, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// ScanPage extracts every email occurrence on one page with its
// surrounding text and ranks the occurrences by semantic relevance.
// Repeated addresses keep their highest-scoring context.
func (s *Scanner) ScanPage(ctx context.Context, url string) ([]mailhunt.ScoredCandidate, error) {
	html, err := s.fetcher.HTML(ctx, url)
	if err != nil {
		return nil, err
	}

	var scored []mailhunt.ScoredCandidate
	for _, c := range extract.EmailsWithContext(html, s.window) {
		score, err := s.scorer.Score(ctx, c.Context)
		if err != nil {
			s.logger.DebugContext(ctx, "dropping candidate, scoring failed", "email", c.Email, "error", err)
			continue
		}
		scored = append(scored, mailhunt.ScoredCandidate{Email: c.Email, Context: c.Context, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	seen := make(map[string]bool, len(scored))
	out := scored[:0]
	for _, c := range scored {
		if seen[c.Email] {
			continue
		}
		seen[c.Email] = true
		out = append(out, c)
	}
	return out, nil
}
