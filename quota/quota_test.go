package quota

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreIncrement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 5; i++ {
		n, err := s.Increment("serpapi")
		if err != nil {
			t.Fatal(err)
		}
		if n != i {
			t.Errorf("Increment #%d = %d, want %d", i, n, i)
		}
	}

	n, err := s.Count("serpapi")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	s1, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.Increment("serpapi"); err != nil {
		t.Fatal(err)
	}

	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	n, err := s2.Count("serpapi")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count after reopen = %d, want 1", n)
	}
}

func TestFileStoreMonthRollover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	s, err := NewFileStore(path, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}

	for range 3 {
		if _, err := s.Increment("serpapi"); err != nil {
			t.Fatal(err)
		}
	}

	now = now.AddDate(0, 1, 0)
	n, err := s.Increment("serpapi")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("first Increment after rollover = %d, want 1", n)
	}
}

func TestFileStoreIndependentProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Increment("serpapi"); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count("contextualweb")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("contextualweb count = %d, want 0", n)
	}
}

func TestQuotaDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	s, err := NewFileStore(path, WithQuota("serpapi", 250))
	if err != nil {
		t.Fatal(err)
	}
	if q := s.Quota("serpapi"); q != 250 {
		t.Errorf("Quota(serpapi) = %d, want 250", q)
	}
	if q := s.Quota("contextualweb"); q != ContextualWebQuota {
		t.Errorf("Quota(contextualweb) = %d, want %d", q, ContextualWebQuota)
	}
	if q := s.Quota("unknown"); q != 0 {
		t.Errorf("Quota(unknown) = %d, want 0", q)
	}
}
