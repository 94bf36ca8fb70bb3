// Package semantic scores context snippets by embedding them into a
// shared vector space and comparing against curated reference phrases.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// DefaultReferencePhrases describe the target domain. A context snippet
// scores high when it reads like any one of these.
var DefaultReferencePhrases = []string{
	"wealth management",
	"institutional sales",
	"private client advisor",
	"financial advisor",
	"portfolio construction",
	"alternative investments",
}

// ErrNoReferences is returned when a Scorer is built with zero phrases.
var ErrNoReferences = errors.New("no reference phrases")

// Embedder maps texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Scorer holds reference embeddings, computed once and reused across all
// scoring calls. Safe for concurrent use: all state is read-only after
// construction.
type Scorer struct {
	embedder Embedder
	refs     [][]float32
	logger   *slog.Logger
}

// Option configures a Scorer.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	phrases []string
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithReferencePhrases replaces the default domain phrases.
func WithReferencePhrases(phrases ...string) Option {
	return func(c *config) { c.phrases = phrases }
}

// NewScorer embeds the reference phrases and returns a ready Scorer.
func NewScorer(ctx context.Context, embedder Embedder, opts ...Option) (*Scorer, error) {
	cfg := &config{logger: slog.Default(), phrases: DefaultReferencePhrases}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.phrases) == 0 {
		return nil, ErrNoReferences
	}

	refs, err := embedder.Embed(ctx, cfg.phrases)
	if err != nil {
		return nil, fmt.Errorf("embed reference phrases: %w", err)
	}
	cfg.logger.DebugContext(ctx, "reference embeddings ready", "phrases", len(cfg.phrases))

	return &Scorer{embedder: embedder, refs: refs, logger: cfg.logger}, nil
}

// Score embeds text and returns its best cosine similarity against the
// reference phrases, clamped to [0, 1] and rounded to 4 decimals. The
// maximum is deliberate: the single best supporting phrase determines
// relevance, not the average.
func (s *Scorer) Score(ctx context.Context, text string) (float64, error) {
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return 0, fmt.Errorf("embed context: %w", err)
	}
	if len(vecs) == 0 {
		return 0, errors.New("embedder returned no vectors")
	}

	best := 0.0
	for _, ref := range s.refs {
		if sim := cosine(vecs[0], ref); sim > best {
			best = sim
		}
	}
	return round4(min(best, 1.0)), nil
}

// Combine boosts a semantic score with pattern and rank evidence: +0.1
// when the username was a strong pattern match, plus a rank-decaying
// bonus of up to +0.1 (-0.01 per result position). Clipped to 1.0.
// A negative sourceRank means the rank is unknown.
func Combine(score float64, patternMatch bool, sourceRank int) float64 {
	base := score
	if patternMatch {
		base += 0.1
	}
	if sourceRank >= 0 {
		base += math.Max(0, 0.1-0.01*float64(sourceRank))
	}
	return round4(min(base, 1.0))
}

// cosine returns the cosine similarity of two vectors, or 0 when either
// has zero magnitude or the dimensions disagree.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
