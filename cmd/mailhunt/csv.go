package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/leadscout/mailhunt/batch"
)

// readRecords loads a batch CSV. The header row is matched
// case-insensitively; First Name, Last Name, and Company are required
// columns, Title is optional.
func readRecords(path string) ([]batch.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"first name", "last name", "company"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, required)
		}
	}

	records := make([]batch.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, batch.Record{
			First:   cell(row, cols, "first name"),
			Last:    cell(row, cols, "last name"),
			Company: cell(row, cols, "company"),
			Title:   cell(row, cols, "title"),
		})
	}
	return records, nil
}

// writeRecords writes the augmented batch results.
func writeRecords(path string, records []batch.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // flushed below

	w := csv.NewWriter(f)
	if err := w.Write([]string{"First Name", "Last Name", "Company", "Title", "Found Email", "Search API"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.First, rec.Last, rec.Company, rec.Title, rec.FoundEmail, rec.Search.API}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
