package websearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerpAPISearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("engine"); got != "google" {
			t.Errorf("engine = %q, want google", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key = %q, want test-key", got)
		}
		w.Write([]byte(`{"organic_results": [
			{"link": "https://acmecapital.com/team", "title": "Our Team", "snippet": "Jane Doe leads..."},
			{"link": "https://example.org/profile", "title": "Profile", "snippet": "..."},
			{"link": "https://extra.example/3", "title": "Extra", "snippet": "..."}
		]}`))
	}))
	defer srv.Close()

	p, err := NewSerpAPI("test-key", WithSerpAPIEndpoint(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Search(context.Background(), `"Jane Doe" Acme Capital`, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []Result{
		{Link: "https://acmecapital.com/team", Title: "Our Team", Snippet: "Jane Doe leads..."},
		{Link: "https://example.org/profile", Title: "Profile", Snippet: "..."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestSerpAPIMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p, err := NewSerpAPI("test-key", WithSerpAPIEndpoint(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("Search() on malformed JSON should return an error")
	}
}

func TestSerpAPIMissingKey(t *testing.T) {
	if _, err := NewSerpAPI(""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("NewSerpAPI(\"\"): err = %v, want ErrMissingCredentials", err)
	}
}

func TestContextualWebQuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewContextualWeb("test-key", WithContextualWebEndpoint(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Search(context.Background(), "q", 5); !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("Search() on 429: err = %v, want ErrQuotaExhausted", err)
	}
}

func TestContextualWebSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-RapidAPI-Key"); got != "bulk-key" {
			t.Errorf("X-RapidAPI-Key = %q, want bulk-key", got)
		}
		w.Write([]byte(`{"value": [{"url": "https://a.example", "title": "A", "description": "da"}]}`))
	}))
	defer srv.Close()

	p, err := NewContextualWeb("bulk-key", WithContextualWebEndpoint(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []Result{{Link: "https://a.example", Title: "A", Snippet: "da"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}
