// Package assist wires the full question-answering pipeline: expansion,
// score-gated retrieval, confidence evaluation, answer composition, and
// audit delivery. Its entry point is total: it always returns a message,
// never an error, so chat adapters can relay the result verbatim.
package assist

import (
	"context"
	"log/slog"
	"time"

	"github.com/hackfolio/guidebot/engine/compose"
	"github.com/hackfolio/guidebot/engine/confidence"
	"github.com/hackfolio/guidebot/engine/conversation"
	"github.com/hackfolio/guidebot/engine/domain"
	"github.com/hackfolio/guidebot/engine/expand"
	"github.com/hackfolio/guidebot/engine/retrieve"
	"github.com/hackfolio/guidebot/pkg/audit"
	"github.com/hackfolio/guidebot/pkg/metrics"
)

// Completer is the single-turn completion slice of the Language Model.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Searcher runs one semantic search query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// Options configures the pipeline thresholds and formatting.
type Options struct {
	Retrieve retrieve.Options
	Compose  compose.Options
	// MaxVariants caps generated query variants per question.
	MaxVariants int
	// ExpandTemperature is used for query generation.
	ExpandTemperature float32
}

// DefaultOptions returns the tuned pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Retrieve:          retrieve.DefaultOptions(),
		Compose:           compose.DefaultOptions(),
		MaxVariants:       3,
		ExpandTemperature: 0.3,
	}
}

// Request is one question in its conversation context.
type Request struct {
	Question string
	Conv     conversation.Context
	UserName string
	UserID   string
	Metadata map[string]string
}

// Response is the composed reply plus the decision that produced it.
type Response struct {
	Text       string
	Decision   domain.Decision
	Confidence domain.ConfidenceLevel
	Sources    []domain.ScoredChunk
}

// Assistant owns one configured pipeline instance. Safe for concurrent use.
type Assistant struct {
	expander  *expand.Expander
	retriever *retrieve.Retriever
	gate      *confidence.Gate
	composer  *compose.Composer
	sink      audit.Sink
	opts      Options
	logger    *slog.Logger

	answered  *metrics.Counter
	escalated *metrics.Counter
	errored   *metrics.Counter
	latency   *metrics.Histogram
}

// New builds an Assistant from its collaborators. A nil sink disables
// auditing; a nil registry disables metrics.
func New(llm Completer, searcher Searcher, sink audit.Sink, reg *metrics.Registry, opts Options, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	if reg == nil {
		reg = metrics.New()
	}
	return &Assistant{
		expander:  expand.New(llm, opts.MaxVariants, opts.ExpandTemperature, logger),
		retriever: retrieve.New(searcher, opts.Retrieve, logger),
		gate:      confidence.New(llm, logger),
		composer:  compose.New(llm, opts.Compose, logger),
		sink:      sink,
		opts:      opts,
		logger:    logger,
		answered:  reg.Counter("guidebot_answers_total", "Questions answered from documentation."),
		escalated: reg.Counter("guidebot_escalations_total", "Questions escalated to a human."),
		errored:   reg.Counter("guidebot_errors_total", "Pipeline failures mapped to the error template."),
		latency:   reg.Histogram("guidebot_answer_seconds", "End-to-end answer latency.", nil),
	}
}

// Answer runs the whole pipeline for one question. It is total: every
// failure path maps to a decision and a polite message, and a recover
// guard turns even a panic into the error template.
func (a *Assistant) Answer(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("assist: pipeline panic", "question", req.Question, "panic", r)
			resp = Response{Text: a.composer.ErrorMessage(req.Conv), Decision: domain.DecisionError}
		}
		a.finish(ctx, req, resp, start)
	}()

	if err := domain.ValidateQuery(req.Question); err != nil {
		a.logger.Warn("assist: invalid question", "error", err)
		return Response{Text: a.composer.ErrorMessage(req.Conv), Decision: domain.DecisionError}
	}

	// Stage 1: cheap probe. A miss escalates before any generation call.
	covered, err := a.retriever.Probe(ctx, req.Question)
	if err != nil {
		a.logger.Error("assist: probe failed", "error", err)
		return Response{Text: a.composer.NoMatch(req.Conv), Decision: domain.DecisionNoMatch}
	}
	if !covered {
		return Response{Text: a.composer.NoMatch(req.Conv), Decision: domain.DecisionNoMatch}
	}

	// Stage 2: expansion and fan-out retrieval.
	queries := a.expander.Expand(ctx, req.Question)
	result, err := a.retriever.Retrieve(ctx, queries)
	if err != nil {
		a.logger.Error("assist: retrieval failed", "error", err)
		return Response{Text: a.composer.NoMatch(req.Conv), Decision: domain.DecisionNoMatch}
	}
	switch result.Reason {
	case retrieve.NoMatch:
		return Response{Text: a.composer.NoMatch(req.Conv), Decision: domain.DecisionNoMatch}
	case retrieve.ThinContext:
		return Response{Text: a.composer.ThinContext(req.Conv), Decision: domain.DecisionLowConfidence}
	}

	// Stage 3: confidence gate. LOW escalates before drafting an answer.
	level := a.gate.Evaluate(ctx, req.Question, result.Context)
	if level == domain.ConfidenceLow {
		return Response{
			Text:       a.composer.LowConfidence(req.Conv, req.Question),
			Decision:   domain.DecisionLowConfidence,
			Confidence: level,
		}
	}

	// Stage 4: final answer.
	ans := a.composer.Compose(ctx, req.Question, result.Context, result.Chunks, level, req.Conv)
	return Response{
		Text:       ans.Text,
		Decision:   ans.Decision,
		Confidence: level,
		Sources:    result.Chunks,
	}
}

func (a *Assistant) finish(ctx context.Context, req Request, resp Response, start time.Time) {
	a.latency.Since(start)
	switch {
	case resp.Decision == domain.DecisionError:
		a.errored.Inc()
	case resp.Decision.Escalated():
		a.escalated.Inc()
	default:
		a.answered.Inc()
	}
	a.logger.Info("assist: answered",
		"platform", req.Conv.Platform,
		"decision", resp.Decision,
		"confidence", resp.Confidence,
		"elapsed", time.Since(start))

	if err := a.sink.Log(ctx, domain.Interaction{
		Platform:   req.Conv.Platform,
		UserName:   req.UserName,
		UserID:     req.UserID,
		Query:      req.Question,
		Response:   resp.Text,
		Decision:   resp.Decision,
		Confidence: resp.Confidence,
		Metadata:   req.Metadata,
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		a.logger.Warn("assist: audit log failed", "error", err)
	}
}
