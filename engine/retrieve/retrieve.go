// Package retrieve implements score-gated retrieval: a cheap probe that
// short-circuits hopeless questions before any generation, then a fan-out
// search over expanded queries with dedup and quality floors.
package retrieve

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/hackfolio/guidebot/engine/domain"
	"github.com/hackfolio/guidebot/pkg/fn"
)

// Searcher runs one semantic search query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// Reason explains why a retrieval attempt did or did not yield context.
type Reason int

const (
	// OK means enough relevant context was found.
	OK Reason = iota
	// NoMatch means the probe found nothing above the high-confidence bar.
	NoMatch
	// ThinContext means the merged context was too short to answer from.
	ThinContext
)

// Options holds the retrieval thresholds. All scores are cosine
// similarities in [0, 1].
type Options struct {
	// ProbeK is how many chunks the initial probe fetches.
	ProbeK int
	// HighConfidence is the score the probe's best hit must exceed to
	// proceed to the full pipeline.
	HighConfidence float32
	// PerQueryK is how many chunks each expanded query fetches.
	PerQueryK int
	// MergeFloor drops merged chunks at or below this score.
	MergeFloor float32
	// GoodFloor is the bar a chunk must clear to count as a good match.
	GoodFloor float32
	// MaxResults caps the chunks kept after merging.
	MaxResults int
	// MinContextLen is the shortest merged context worth answering from.
	MinContextLen int
	// Workers bounds the search fan-out concurrency.
	Workers int
}

// DefaultOptions returns the thresholds tuned for the documentation corpus.
func DefaultOptions() Options {
	return Options{
		ProbeK:         4,
		HighConfidence: 0.65,
		PerQueryK:      3,
		MergeFloor:     0.4,
		GoodFloor:      0.5,
		MaxResults:     4,
		MinContextLen:  200,
		Workers:        3,
	}
}

// contextSeparator joins chunk contents into the prompt context block.
const contextSeparator = "\n\n---\n\n"

// dedupPrefixLen is how many leading bytes of content identify a chunk
// when deduplicating across queries.
const dedupPrefixLen = 100

// Retriever turns a set of queries into a merged, deduplicated context.
type Retriever struct {
	searcher Searcher
	opts     Options
	logger   *slog.Logger
}

// New creates a Retriever.
func New(searcher Searcher, opts Options, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{searcher: searcher, opts: opts, logger: logger}
}

// Probe runs a single cheap search on the original question and reports
// whether the corpus plausibly covers it. A false return means the caller
// should escalate without spending any generation calls.
func (r *Retriever) Probe(ctx context.Context, question string) (bool, error) {
	chunks, err := r.searcher.Search(ctx, question, r.opts.ProbeK)
	if err != nil {
		return false, err
	}
	if len(chunks) == 0 {
		return false, nil
	}
	top := chunks[0].Score
	for _, c := range chunks[1:] {
		if c.Score > top {
			top = c.Score
		}
	}
	r.logger.Debug("retrieve: probe", "top_score", top, "threshold", r.opts.HighConfidence)
	return top > r.opts.HighConfidence, nil
}

// Result is the outcome of a full retrieval pass.
type Result struct {
	Chunks  []domain.ScoredChunk
	Context string
	Reason  Reason
}

// Retrieve fans the queries out over the searcher, merges the hits in
// query order, deduplicates by content prefix, applies the score floors,
// and keeps the best MaxResults chunks. Individual query failures are
// tolerated as long as at least one query succeeds.
func (r *Retriever) Retrieve(ctx context.Context, queries []string) (Result, error) {
	if len(queries) == 0 {
		return Result{Reason: NoMatch}, nil
	}
	results := fn.ParMapResult(queries, r.opts.Workers, func(q string) fn.Result[[]domain.ScoredChunk] {
		return fn.FromPair(r.searcher.Search(ctx, q, r.opts.PerQueryK))
	})

	var (
		merged   []domain.ScoredChunk
		firstErr error
		okCount  int
	)
	seen := make(map[string]bool)
	for i, res := range results {
		chunks, err := res.Unwrap()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			r.logger.Warn("retrieve: query failed", "query", queries[i], "error", err)
			continue
		}
		okCount++
		for _, c := range chunks {
			if c.Score <= r.opts.MergeFloor {
				continue
			}
			key := contentKey(c.Content)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, c)
		}
	}
	if okCount == 0 {
		return Result{}, domain.RetrievalError("all queries failed", firstErr)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	good := merged[:0]
	for _, c := range merged {
		if c.Score > r.opts.GoodFloor {
			good = append(good, c)
		}
	}
	if len(good) > r.opts.MaxResults {
		good = good[:r.opts.MaxResults]
	}
	if len(good) == 0 {
		return Result{Reason: NoMatch}, nil
	}

	contents := make([]string, len(good))
	for i, c := range good {
		contents[i] = c.Content
	}
	joined := strings.Join(contents, contextSeparator)
	if len(joined) < r.opts.MinContextLen {
		return Result{Chunks: good, Context: joined, Reason: ThinContext}, nil
	}

	r.logger.Debug("retrieve: merged", "queries", len(queries), "chunks", len(good), "context_len", len(joined))
	return Result{Chunks: good, Context: joined, Reason: OK}, nil
}

func contentKey(content string) string {
	if len(content) > dedupPrefixLen {
		return content[:dedupPrefixLen]
	}
	return content
}
