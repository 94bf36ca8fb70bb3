package batch

import (
	"context"
	"testing"

	"github.com/leadscout/mailhunt"
)

// stubDiscoverer returns canned reports keyed by last name.
type stubDiscoverer struct {
	reports map[string]*mailhunt.Report
}

func (d *stubDiscoverer) Discover(_ context.Context, q mailhunt.Query) (*mailhunt.Report, error) {
	if r, ok := d.reports[q.Last]; ok {
		return r, nil
	}
	if q.First == "" || q.Last == "" || q.Company == "" {
		return nil, mailhunt.ErrIncompleteQuery
	}
	return &mailhunt.Report{}, nil
}

func TestRun(t *testing.T) {
	d := &stubDiscoverer{reports: map[string]*mailhunt.Report{
		"Doe": {Candidates: []mailhunt.ScoredCandidate{{Email: "jane.doe@acme.com", Score: 0.8}}},
	}}
	records := []Record{
		{First: "Jane", Last: "Doe", Company: "Acme"},
		{First: "Bob", Last: "Nomail", Company: "Acme"},
		{First: "", Last: "Incomplete", Company: ""},
	}

	got := Run(context.Background(), d, records, nil)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if got[0].FoundEmail != "jane.doe@acme.com" {
		t.Errorf("record 0 FoundEmail = %q, want jane.doe@acme.com", got[0].FoundEmail)
	}
	if got[1].FoundEmail != "" {
		t.Errorf("record 1 FoundEmail = %q, want empty", got[1].FoundEmail)
	}
	if got[2].FoundEmail != "" {
		t.Errorf("record 2 FoundEmail = %q, want empty for incomplete record", got[2].FoundEmail)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []Record{{First: "Jane", Last: "Doe", Company: "Acme"}}
	got := Run(ctx, &stubDiscoverer{}, records, nil)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1 passthrough", len(got))
	}
	if got[0].FoundEmail != "" {
		t.Errorf("cancelled run should not fill FoundEmail, got %q", got[0].FoundEmail)
	}
}
