// Package confidence implements the second-stage gate: before composing an
// answer, the Language Model judges whether the retrieved context actually
// covers the question. The gate fails closed: any error reads as LOW.
package confidence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hackfolio/guidebot/engine/domain"
)

// Completer is the single-turn completion slice of the Language Model.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

const evalTemplate = `You are evaluating whether the provided documentation context can answer a user's question about the Hackfolio platform.

Question: %s

Context:
%s

Can the context above fully and accurately answer the question? Respond with exactly one word:
HIGH - the context directly and completely answers the question
MEDIUM - the context partially answers the question or requires inference
LOW - the context does not answer the question

Respond with only HIGH, MEDIUM, or LOW.`

// Gate asks the model to grade context coverage for a question.
type Gate struct {
	llm    Completer
	logger *slog.Logger
}

// New creates a Gate.
func New(llm Completer, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{llm: llm, logger: logger}
}

// Evaluate grades how well the context covers the question. The evaluation
// runs at temperature zero for repeatability. Any model failure or
// unparseable reply is reported as ConfidenceLow so the caller escalates
// rather than guessing.
func (g *Gate) Evaluate(ctx context.Context, question, contextBlock string) domain.ConfidenceLevel {
	prompt := fmt.Sprintf(evalTemplate, question, contextBlock)

	raw, err := g.llm.Complete(ctx, prompt, 0)
	if err != nil {
		g.logger.Warn("confidence: evaluation failed, treating as LOW", "error", domain.GenerationError("confidence evaluation", err))
		return domain.ConfidenceLow
	}

	level := domain.ParseConfidence(strings.ToUpper(strings.TrimSpace(raw)))
	g.logger.Debug("confidence: evaluated", "level", level)
	return level
}
