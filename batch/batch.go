// Package batch runs email discovery over many individuals, augmenting
// each input record with the best email found and the provider status.
package batch

import (
	"context"
	"log/slog"

	"github.com/leadscout/mailhunt"
	"github.com/leadscout/mailhunt/websearch"
)

// Record is one individual in a batch job. FoundEmail and Search are
// filled in by Run.
type Record struct {
	First      string
	Last       string
	Company    string
	Title      string
	FoundEmail string
	Search     websearch.Status
}

// Discoverer runs one discovery. *mailhunt.Pipeline satisfies it.
type Discoverer interface {
	Discover(ctx context.Context, q mailhunt.Query) (*mailhunt.Report, error)
}

// Run processes records sequentially, one discovery per record. Records
// with incomplete names are passed through with an empty FoundEmail.
// The context cancels the remaining records, not the one in flight.
func Run(ctx context.Context, d Discoverer, records []Record, logger *slog.Logger) []Record {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]Record, 0, len(records))
	for i, rec := range records {
		if ctx.Err() != nil {
			out = append(out, records[i:]...)
			break
		}

		report, err := d.Discover(ctx, mailhunt.Query{
			First:   rec.First,
			Last:    rec.Last,
			Company: rec.Company,
			Title:   rec.Title,
		})
		if err != nil {
			logger.WarnContext(ctx, "skipping record", "first", rec.First, "last", rec.Last, "error", err)
			out = append(out, rec)
			continue
		}

		rec.FoundEmail = report.Best()
		rec.Search = report.Search
		logger.InfoContext(ctx, "record processed",
			"first", rec.First, "last", rec.Last, "email", rec.FoundEmail)
		out = append(out, rec)
	}
	return out
}
