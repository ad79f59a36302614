// Package expand widens retrieval coverage by asking the Language Model for
// alternative phrasings of the user's question. Expansion is best-effort:
// any model failure degrades to the original query alone, never to an error.
package expand

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/hackfolio/guidebot/engine/domain"
)

// Completer is the single-turn completion slice of the Language Model.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

const queryGenTemplate = `You are an expert at generating search queries for a Hackfolio hackathon documentation knowledge base.

Given the user's original question, generate up to %d diverse but related search queries that would help retrieve comprehensive information to answer the question.

Make the queries:
1. More specific and focused on different aspects
2. Use different keywords and phrasings
3. Be concise but descriptive

Original Question: %s

Generate queries in this format:
1. [query 1]
2. [query 2]
3. [query 3]

Only generate the numbered list, no other text.`

// minQueryLen drops parsed lines too short to be meaningful queries.
const minQueryLen = 4

// Expander generates related search queries for one question.
type Expander struct {
	llm         Completer
	maxVariants int
	temperature float32
	logger      *slog.Logger
}

// New creates an Expander producing at most maxVariants generated queries.
func New(llm Completer, maxVariants int, temperature float32, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	if maxVariants <= 0 {
		maxVariants = 3
	}
	return &Expander{llm: llm, maxVariants: maxVariants, temperature: temperature, logger: logger}
}

// Expand returns the original query followed by up to maxVariants generated
// variants, deduplicated by exact text. It never fails: on any model error
// the original query is returned alone.
func (e *Expander) Expand(ctx context.Context, original string) []string {
	prompt := fmt.Sprintf(queryGenTemplate, e.maxVariants, original)

	raw, err := e.llm.Complete(ctx, prompt, e.temperature)
	if err != nil {
		e.logger.Warn("expand: query generation failed, using original only", "error", domain.GenerationError("query expansion", err))
		return []string{original}
	}

	variants := parseQueryList(raw, e.maxVariants)
	queries := make([]string, 0, len(variants)+1)
	queries = append(queries, original)
	for _, v := range variants {
		if v != original {
			queries = append(queries, v)
		}
	}
	e.logger.Debug("expand: generated queries", "count", len(queries))
	return queries
}

// parseQueryList extracts queries from a numbered or bulleted list. Only
// lines starting with a digit, bullet, or dash count; enumeration markers
// are stripped and lines shorter than minQueryLen are discarded. Free-text
// preambles and trailing chatter fall through silently.
func parseQueryList(raw string, max int) []string {
	var queries []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !listMarker(line) {
			continue
		}

		q := line
		// "1. query" and "1) query" forms.
		if unicode.IsDigit(rune(q[0])) {
			if idx := strings.IndexAny(q, ".)"); idx != -1 {
				q = q[idx+1:]
			}
		}
		q = strings.TrimSpace(strings.TrimLeft(q, "•-– "))
		q = strings.Trim(q, "[]")

		if len(q) < minQueryLen || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
		if len(queries) >= max {
			break
		}
	}
	return queries
}

func listMarker(line string) bool {
	r := rune(line[0])
	return unicode.IsDigit(r) || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "–")
}
