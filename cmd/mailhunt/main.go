// Command mailhunt discovers and ranks candidate email addresses for
// named individuals at target companies.
//
// Usage:
//
//	mailhunt -first Jane -last Doe -company "Acme Capital"
//	mailhunt -csv prospects.csv -out results.csv
//	mailhunt -scan-url https://acmecapital.com/team
//	mailhunt -rank-query "top wealth management firms 2024"
//	mailhunt -rank-urls https://a.example,https://b.example
//
// Credentials are read from the environment (SERPAPI_KEY, OPENAI_API_KEY,
// optional CONTEXTUALWEB_KEY), with a .env file honored if present.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leadscout/mailhunt"
	"github.com/leadscout/mailhunt/batch"
	"github.com/leadscout/mailhunt/fetch"
	"github.com/leadscout/mailhunt/httpcache"
	"github.com/leadscout/mailhunt/quota"
	"github.com/leadscout/mailhunt/semantic"
	"github.com/leadscout/mailhunt/sitescan"
	"github.com/leadscout/mailhunt/websearch"
)

func main() {
	first := flag.String("first", "", "target first name")
	last := flag.String("last", "", "target last name")
	company := flag.String("company", "", "target company")
	title := flag.String("title", "", "target title (optional)")
	csvIn := flag.String("csv", "", "batch mode: input CSV with First Name, Last Name, Company, Title columns")
	csvOut := flag.String("out", "results.csv", "batch mode: output CSV path")
	scanURL := flag.String("scan-url", "", "scan a single page for emails and rank them")
	rankURLs := flag.String("rank-urls", "", "comma-separated URLs to rank by topical relevance")
	rankQuery := flag.String("rank-query", "", "search query whose result pages are ranked by topical relevance")
	useBulk := flag.Bool("bulk", false, "use the bulk search provider (requires CONTEXTUALWEB_KEY)")
	maxResults := flag.Int("max-results", mailhunt.DefaultMaxResults, "search results to scan per person")
	noCache := flag.Bool("no-cache", false, "disable HTTP caching of fetched pages")
	cacheTTL := flag.Duration("cache-ttl", 24*time.Hour, "page cache time-to-live")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// A .env file is a convenience, not a requirement.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	ctx := context.Background()

	fetcher := newFetcher(logger, *noCache, *cacheTTL)
	scorer, err := newScorer(ctx, logger)
	if err != nil {
		fatal(logger, "scorer setup failed", err)
	}

	switch {
	case *scanURL != "":
		scanner := sitescan.New(fetcher, scorer, sitescan.WithLogger(logger))
		candidates, err := scanner.ScanPage(ctx, *scanURL)
		if err != nil {
			fatal(logger, "page scan failed", err)
		}
		printJSON(candidates)
		return

	case *rankURLs != "":
		scanner := sitescan.New(fetcher, scorer, sitescan.WithLogger(logger))
		printJSON(scanner.RankURLs(ctx, strings.Split(*rankURLs, ",")))
		return

	case *rankQuery != "":
		searcher, err := newSearcher(logger)
		if err != nil {
			fatal(logger, "searcher setup failed", err)
		}
		scanner := sitescan.New(fetcher, scorer, sitescan.WithLogger(logger))
		printJSON(scanner.RankQuery(ctx, searcher, *rankQuery, *maxResults))
		return
	}

	pipeline, err := newPipeline(logger, fetcher, scorer, *useBulk, *maxResults)
	if err != nil {
		fatal(logger, "pipeline setup failed", err)
	}

	switch {
	case *csvIn != "":
		records, err := readRecords(*csvIn)
		if err != nil {
			fatal(logger, "reading batch input failed", err)
		}
		logger.Info("starting batch run", "records", len(records))
		results := batch.Run(ctx, pipeline, records, logger)
		if err := writeRecords(*csvOut, results); err != nil {
			fatal(logger, "writing batch output failed", err)
		}
		logger.Info("batch complete", "output", *csvOut)

	case *first != "" && *last != "" && *company != "":
		report, err := pipeline.Discover(ctx, mailhunt.Query{
			First: *first, Last: *last, Company: *company, Title: *title,
		})
		if err != nil {
			fatal(logger, "discovery failed", err)
		}
		printJSON(report)

	default:
		fmt.Fprintln(os.Stderr, "Usage: mailhunt -first Jane -last Doe -company \"Acme Capital\"")
		fmt.Fprintln(os.Stderr, "       mailhunt -csv prospects.csv -out results.csv")
		fmt.Fprintln(os.Stderr, "       mailhunt -scan-url <url> | -rank-query <query> | -rank-urls <url,url,...>")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}
}

func newFetcher(logger *slog.Logger, noCache bool, ttl time.Duration) *fetch.Client {
	opts := []fetch.Option{fetch.WithLogger(logger)}
	if !noCache {
		cache, err := httpcache.New(ttl)
		if err != nil {
			logger.Warn("cache init failed, continuing without cache", "error", err)
		} else {
			opts = append(opts, fetch.WithCache(cache))
		}
	}
	return fetch.New(opts...)
}

func newScorer(ctx context.Context, logger *slog.Logger) (*semantic.Scorer, error) {
	var embOpts []semantic.EmbedderOption
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		embOpts = append(embOpts, semantic.WithBaseURL(base))
	}
	embedder, err := semantic.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), embOpts...)
	if err != nil {
		return nil, err
	}
	return semantic.NewScorer(ctx, embedder, semantic.WithLogger(logger))
}

func newSearcher(logger *slog.Logger) (*websearch.Searcher, error) {
	primary, err := websearch.NewSerpAPI(os.Getenv("SERPAPI_KEY"), websearch.WithSerpAPILogger(logger))
	if err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}

	searchOpts := []websearch.Option{websearch.WithLogger(logger)}
	if key := os.Getenv("CONTEXTUALWEB_KEY"); key != "" {
		bulk, err := websearch.NewContextualWeb(key, websearch.WithContextualWebLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("contextualweb: %w", err)
		}
		searchOpts = append(searchOpts, websearch.WithBulk(bulk))
	}
	if store, err := newQuotaStore(); err == nil {
		searchOpts = append(searchOpts, websearch.WithQuotaStore(store))
	} else {
		logger.Warn("quota store init failed, counters will not persist", "error", err)
	}

	return websearch.NewSearcher(primary, searchOpts...)
}

func newPipeline(logger *slog.Logger, fetcher *fetch.Client, scorer *semantic.Scorer, useBulk bool, maxResults int) (*mailhunt.Pipeline, error) {
	searcher, err := newSearcher(logger)
	if err != nil {
		return nil, err
	}

	opts := []mailhunt.Option{
		mailhunt.WithSearcher(searcher),
		mailhunt.WithFetcher(fetcher),
		mailhunt.WithScorer(scorer),
		mailhunt.WithLogger(logger),
		mailhunt.WithMaxResults(maxResults),
	}
	if useBulk {
		opts = append(opts, mailhunt.WithBulkProvider())
	}
	return mailhunt.New(opts...)
}

func newQuotaStore() (*quota.FileStore, error) {
	stateDir, err := os.UserCacheDir()
	if err != nil {
		stateDir = os.TempDir()
	}
	return quota.NewFileStore(filepath.Join(stateDir, "mailhunt", "search_counter.json"))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "encoding output:", err)
		os.Exit(1)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
