// Package mailhunt discovers, deduplicates, and ranks candidate email
// addresses for named individuals at target companies, using web search
// results and on-page scraping as evidence.
//
// Basic usage:
//
//	searcher, _ := websearch.NewSearcher(primary)
//	scorer, _ := semantic.NewScorer(ctx, embedder)
//	pipeline, _ := mailhunt.New(mailhunt.WithSearcher(searcher), mailhunt.WithScorer(scorer))
//	report, err := pipeline.Discover(ctx, mailhunt.Query{First: "Jane", Last: "Doe", Company: "Acme Capital"})
//
// Every external call degrades gracefully: unreachable pages and flaky
// providers shrink the candidate set instead of aborting the run. A run
// with zero usable results is a normal outcome, distinct from the
// configuration errors New returns.
package mailhunt

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/leadscout/mailhunt/extract"
	"github.com/leadscout/mailhunt/fetch"
	"github.com/leadscout/mailhunt/namematch"
	"github.com/leadscout/mailhunt/websearch"
)

// DefaultMaxResults is how many search hits a discovery run scans.
const DefaultMaxResults = 7

// topWordCount is how many frequent words the diagnostic reports.
const topWordCount = 20

// Query identifies the target person. First, Last, and Company are
// required; Title is optional. Immutable value type.
type Query struct {
	First   string
	Last    string
	Company string
	Title   string
}

// Text builds the free-text search string: the quoted full name followed
// by company and title tokens, blank fields skipped.
func (q Query) Text() string {
	parts := []string{`"` + q.First + " " + q.Last + `"`}
	for _, p := range []string{q.Company, q.Title} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Name returns the target's full name.
func (q Query) Name() string {
	return q.First + " " + q.Last
}

// ScoredCandidate is a discovered email with its best supporting context
// and a semantic confidence score in [0, 1].
type ScoredCandidate struct {
	Email   string
	Context string
	Score   float64
}

// Summary aggregates statistics over a scored candidate set. The zero
// value represents the empty set.
type Summary struct {
	NumEmails int
	AvgScore  float64
	TopScore  float64
	MinScore  float64
}

// Empty reports whether the summary covers zero candidates.
func (s Summary) Empty() bool { return s.NumEmails == 0 }

// WordCount is one entry of the word-frequency diagnostic.
type WordCount struct {
	Word  string
	Count int
}

// Report is the result of one discovery run.
type Report struct {
	Candidates []ScoredCandidate
	Summary    Summary
	Words      []WordCount
	Search     websearch.Status
}

// Best returns the highest-scoring email, or "" when none were found.
func (r *Report) Best() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].Email
}

// Searcher finds candidate URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, useBulk bool) ([]websearch.Result, websearch.Status)
}

// Fetcher retrieves raw HTML for a URL.
type Fetcher interface {
	HTML(ctx context.Context, url string) (string, error)
}

// Scorer rates a context snippet's topical relevance in [0, 1].
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Configuration errors. These are the only failures Discover's caller
// must treat as fatal; everything downstream degrades to fewer results.
var (
	ErrNoSearcher      = errors.New("no searcher configured")
	ErrNoScorer        = errors.New("no scorer configured")
	ErrIncompleteQuery = errors.New("query requires first name, last name, and company")
)

// Pipeline drives the discovery sequence: search, fetch, extract, match,
// score, rank. Safe for concurrent use across distinct queries; the only
// shared mutable state is the searcher's quota store.
type Pipeline struct {
	searcher   Searcher
	fetcher    Fetcher
	scorer     Scorer
	logger     *slog.Logger
	maxResults int
	useBulk    bool
	window     int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSearcher sets the search layer. Required.
func WithSearcher(s Searcher) Option {
	return func(p *Pipeline) { p.searcher = s }
}

// WithFetcher sets the page fetcher. Defaults to a fresh fetch.Client.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithScorer sets the semantic scorer. Required.
func WithScorer(s Scorer) Option {
	return func(p *Pipeline) { p.scorer = s }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMaxResults caps how many search hits are scanned per run.
func WithMaxResults(n int) Option {
	return func(p *Pipeline) { p.maxResults = n }
}

// WithBulkProvider routes searches through the bulk provider when one is
// configured on the searcher.
func WithBulkProvider() Option {
	return func(p *Pipeline) { p.useBulk = true }
}

// WithContextWindow overrides the snippet window size in characters.
func WithContextWindow(n int) Option {
	return func(p *Pipeline) { p.window = n }
}

// New validates configuration and returns a ready Pipeline.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		logger:     slog.Default(),
		maxResults: DefaultMaxResults,
		window:     extract.DefaultWindow,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.searcher == nil {
		return nil, ErrNoSearcher
	}
	if p.scorer == nil {
		return nil, ErrNoScorer
	}
	if p.fetcher == nil {
		p.fetcher = fetch.New(fetch.WithLogger(p.logger))
	}
	return p, nil
}

// Discover runs the full pipeline for one person and returns ranked
// candidates, summary statistics, and a word-frequency diagnostic of the
// scanned pages.
func (p *Pipeline) Discover(ctx context.Context, q Query) (*Report, error) {
	if strings.TrimSpace(q.First) == "" || strings.TrimSpace(q.Last) == "" || strings.TrimSpace(q.Company) == "" {
		return nil, ErrIncompleteQuery
	}

	query := q.Text()
	p.logger.InfoContext(ctx, "starting discovery", "query", query)

	results, status := p.searcher.Search(ctx, query, p.maxResults, p.useBulk)

	var candidates []extract.Candidate
	var corpus []string

	for _, result := range results {
		if result.Link == "" {
			continue
		}
		html, err := p.fetcher.HTML(ctx, result.Link)
		if err != nil || html == "" {
			p.logger.DebugContext(ctx, "skipping page", "url", result.Link, "error", err)
			continue
		}

		snippets := extract.NamedSnippets(html, q.Name(), p.window)
		corpus = append(corpus, snippets...)

		for _, email := range extract.Emails(html) {
			username, _, found := strings.Cut(email, "@")
			if !found || !namematch.Matches(username, q.First, q.Last) {
				continue
			}
			candidates = append(candidates, extract.Candidate{
				Email:   email,
				Context: contextFor(username, snippets),
			})
		}
	}

	scored := p.score(ctx, candidates)
	report := &Report{
		Candidates: scored,
		Summary:    Summarize(scored),
		Words:      topWords(corpus, topWordCount),
		Search:     status,
	}
	p.logger.InfoContext(ctx, "discovery complete",
		"candidates", len(scored), "pages", len(results), "provider", status.API)
	return report, nil
}

// contextFor picks the first snippet mentioning the username, falling
// back to the first snippet available.
func contextFor(username string, snippets []string) string {
	username = strings.ToLower(username)
	for _, s := range snippets {
		if strings.Contains(strings.ToLower(s), username) {
			return s
		}
	}
	if len(snippets) > 0 {
		return snippets[0]
	}
	return ""
}

// score rates every candidate, drops the ones whose scoring fails, sorts
// descending, and collapses repeated emails keeping each one's
// highest-scoring context.
func (p *Pipeline) score(ctx context.Context, candidates []extract.Candidate) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		s, err := p.scorer.Score(ctx, c.Context)
		if err != nil {
			// Best-effort scoring: one bad candidate never aborts the run.
			p.logger.DebugContext(ctx, "dropping candidate, scoring failed", "email", c.Email, "error", err)
			continue
		}
		scored = append(scored, ScoredCandidate{Email: c.Email, Context: c.Context, Score: s})
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
	return out
}

// Summarize computes aggregate statistics over a scored set. The zero
// Summary is returned for an empty set.
func Summarize(candidates []ScoredCandidate) Summary {
	if len(candidates) == 0 {
		return Summary{}
	}
	sum := Summary{
		NumEmails: len(candidates),
		TopScore:  candidates[0].Score,
		MinScore:  candidates[0].Score,
	}
	total := 0.0
	for _, c := range candidates {
		total += c.Score
		if c.Score > sum.TopScore {
			sum.TopScore = c.Score
		}
		if c.Score < sum.MinScore {
			sum.MinScore = c.Score
		}
	}
	sum.AvgScore = total / float64(len(candidates))
	return sum
}

// topWords tokenizes the context corpus and returns the n most frequent
// tokens, ties broken alphabetically for stable output.
func topWords(corpus []string, n int) []WordCount {
	counts := map[string]int{}
	for _, block := range corpus {
		for _, w := range extract.Words(block) {
			counts[w]++
		}
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
