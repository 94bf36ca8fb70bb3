package mailhunt

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leadscout/mailhunt/websearch"
)

// fakeSearcher returns a fixed result set.
type fakeSearcher struct {
	results []websearch.Result
	status  websearch.Status
}

func (s *fakeSearcher) Search(context.Context, string, int, bool) ([]websearch.Result, websearch.Status) {
	return s.results, s.status
}

// fakeFetcher serves HTML from a map; missing URLs fail like dead links.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) HTML(_ context.Context, url string) (string, error) {
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("connection refused")
	}
	return html, nil
}

// keywordScorer is a deterministic scorer: fraction of domain keywords
// present in the context.
type keywordScorer struct{}

func (keywordScorer) Score(_ context.Context, text string) (float64, error) {
	keywords := []string{"wealth", "management", "advisor", "director"}
	lower := strings.ToLower(text)
	hits := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords)), nil
}

// failingScorer fails on contexts containing a marker substring.
type failingScorer struct{ marker string }

func (s *failingScorer) Score(_ context.Context, text string) (float64, error) {
	if strings.Contains(text, s.marker) {
		return 0, errors.New("embedding backend down")
	}
	return 0.5, nil
}

func newTestPipeline(t *testing.T, searcher Searcher, fetcher Fetcher, scorer Scorer) *Pipeline {
	t.Helper()
	p, err := New(WithSearcher(searcher), WithFetcher(fetcher), WithScorer(scorer))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestQueryText(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"full", Query{First: "Jane", Last: "Doe", Company: "Acme Capital", Title: "Managing Director"},
			`"Jane Doe" Acme Capital Managing Director`},
		{"no title", Query{First: "Jane", Last: "Doe", Company: "Acme Capital"},
			`"Jane Doe" Acme Capital`},
		{"blank title skipped", Query{First: "Jane", Last: "Doe", Company: "Acme", Title: "  "},
			`"Jane Doe" Acme`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiscoverFindsMatchingEmail(t *testing.T) {
	searcher := &fakeSearcher{
		results: []websearch.Result{{Link: "https://acmecapital.com/team"}},
		status:  websearch.Status{API: "serpapi", Count: 1, Quota: 100},
	}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acmecapital.com/team": `<html><body>
			<p>Jane Doe, Managing Director, Wealth Management</p>
			<p>Contact: jane.doe@acmecapital.com</p>
		</body></html>`,
	}}
	p := newTestPipeline(t, searcher, fetcher, keywordScorer{})

	report, err := p.Discover(context.Background(), Query{First: "Jane", Last: "Doe", Company: "Acme Capital"})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(report.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(report.Candidates), report.Candidates)
	}
	got := report.Candidates[0]
	if got.Email != "jane.doe@acmecapital.com" {
		t.Errorf("Email = %q, want jane.doe@acmecapital.com", got.Email)
	}
	if got.Score <= 0 {
		t.Errorf("Score = %v, want > 0", got.Score)
	}
	if report.Best() != "jane.doe@acmecapital.com" {
		t.Errorf("Best() = %q", report.Best())
	}
	if report.Search.API != "serpapi" {
		t.Errorf("Search.API = %q, want serpapi", report.Search.API)
	}
}

func TestDiscoverExcludesUnmatchedUsernames(t *testing.T) {
	searcher := &fakeSearcher{results: []websearch.Result{{Link: "https://acmecapital.com/contact"}}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acmecapital.com/contact": `<html><body>
			<p>Jane Doe works here. General inquiries: random123@acmecapital.com</p>
		</body></html>`,
	}}
	p := newTestPipeline(t, searcher, fetcher, keywordScorer{})

	report, err := p.Discover(context.Background(), Query{First: "Jane", Last: "Doe", Company: "Acme Capital"})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(report.Candidates) != 0 {
		t.Errorf("got %d candidates, want 0: %+v", len(report.Candidates), report.Candidates)
	}
}

func TestDiscoverSkipsDeadPages(t *testing.T) {
	searcher := &fakeSearcher{results: []websearch.Result{
		{Link: "https://dead.example/x"},
		{Link: "https://alive.example/team"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alive.example/team": `<p>Jane Doe, advisor. jdoe@alive.example</p>`,
	}}
	p := newTestPipeline(t, searcher, fetcher, keywordScorer{})

	report, err := p.Discover(context.Background(), Query{First: "Jane", Last: "Doe", Company: "Alive"})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(report.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(report.Candidates))
	}
	if report.Candidates[0].Email != "jdoe@alive.example" {
		t.Errorf("Email = %q", report.Candidates[0].Email)
	}
}

func TestDiscoverDeduplicatesAcrossPages(t *testing.T) {
	searcher := &fakeSearcher{results: []websearch.Result{
		{Link: "https://a.example/1"},
		{Link: "https://b.example/2"},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		// Same address on both pages; only the weak-context page mentions
		// nothing relevant, the strong one reads like an advisory bio.
		"https://a.example/1": `<p>Jane Doe archive page. jane.doe@acme.com</p>`,
		"https://b.example/2": `<p>Jane Doe, wealth management advisor and director. jane.doe@acme.com</p>`,
	}}
	p := newTestPipeline(t, searcher, fetcher, keywordScorer{})

	report, err := p.Discover(context.Background(), Query{First: "Jane", Last: "Doe", Company: "Acme"})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(report.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 distinct email", len(report.Candidates))
	}
	if !strings.Contains(report.Candidates[0].Context, "wealth management") {
		t.Errorf("kept context should be the highest-scoring one, got %q", report.Candidates[0].Context)
	}
}

func TestDiscoverDropsCandidatesWhoseScoringFails(t *testing.T) {
	searcher := &fakeSearcher{results: []websearch.Result{{Link: "https://a.example/1"}}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example/1": `<p>Jane Doe poison page. jane.doe@acme.com</p>`,
	}}
	p := newTestPipeline(t, searcher, fetcher, &failingScorer{marker: "poison"})

	report, err := p.Discover(context.Background(), Query{First: "Jane", Last: "Doe", Company: "Acme"})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(report.Candidates) != 0 {
		t.Errorf("got %d candidates, want 0 after scoring failure", len(report.Candidates))
	}
}

func TestDiscoverEmptyResultsIsNormal(t *testing.T) {
	p := newTestPipeline(t, &fakeSearcher{}, &fakeFetcher{}, keywordScorer{})

	report, err := p.Discover(context.Background(), Query{First: "Jane", Last: "Doe", Company: "Acme"})
	if err != nil {
		t.Fatalf("Discover() with zero results should not error, got %v", err)
	}
	if len(report.Candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(report.Candidates))
	}
	if !report.Summary.Empty() {
		t.Errorf("Summary = %+v, want empty", report.Summary)
	}
}

func TestDiscoverIncompleteQuery(t *testing.T) {
	p := newTestPipeline(t, &fakeSearcher{}, &fakeFetcher{}, keywordScorer{})
	_, err := p.Discover(context.Background(), Query{First: "Jane"})
	if !errors.Is(err, ErrIncompleteQuery) {
		t.Errorf("err = %v, want ErrIncompleteQuery", err)
	}
}

func TestDiscoverWordFrequencies(t *testing.T) {
	searcher := &fakeSearcher{results: []websearch.Result{{Link: "https://a.example/1"}}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example/1": `<p>Jane Doe wealth wealth wealth management management advisor</p>`,
	}}
	p := newTestPipeline(t, searcher, fetcher, keywordScorer{})

	report, err := p.Discover(context.Background(), Query{First: "Jane", Last: "Doe", Company: "Acme"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Words) == 0 {
		t.Fatal("want word frequencies from the context corpus")
	}
	if report.Words[0].Word != "wealth" || report.Words[0].Count != 3 {
		t.Errorf("top word = %+v, want {wealth 3}", report.Words[0])
	}
}

func TestNewRequiresSearcherAndScorer(t *testing.T) {
	if _, err := New(WithScorer(keywordScorer{})); !errors.Is(err, ErrNoSearcher) {
		t.Errorf("err = %v, want ErrNoSearcher", err)
	}
	if _, err := New(WithSearcher(&fakeSearcher{})); !errors.Is(err, ErrNoScorer) {
		t.Errorf("err = %v, want ErrNoScorer", err)
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); !got.Empty() {
		t.Errorf("Summarize(nil) = %+v, want empty", got)
	}

	candidates := []ScoredCandidate{
		{Email: "a@x.co", Score: 0.9},
		{Email: "b@x.co", Score: 0.5},
		{Email: "c@x.co", Score: 0.1},
	}
	got := Summarize(candidates)
	want := Summary{NumEmails: 3, AvgScore: 0.5, TopScore: 0.9, MinScore: 0.1}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b float64) bool {
		return math.Abs(a-b) < 1e-9
	})); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}
