// Package domain holds the core data model and validation rules shared by
// the retrieval and answer pipeline.
package domain

import "time"

// Chunk is a contiguous span of documentation text stored in the vector
// index. Chunks are created at ingest time and are read-only on the query
// path.
type Chunk struct {
	Content     string `json:"content"`
	SourcePath  string `json:"source_path"`
	StartOffset int    `json:"start_offset"`
}

// ScoredChunk pairs a Chunk with its relevance score for one query.
// Scores are cosine similarities in [0,1], higher is more relevant.
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}

// ConfidenceLevel is the coarse three-tier judgment of whether retrieved
// context suffices to answer a question.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// ParseConfidence maps raw model output to a ConfidenceLevel. Anything that
// is not exactly HIGH or MEDIUM collapses to LOW: the gate never assumes
// confidence it cannot parse.
func ParseConfidence(s string) ConfidenceLevel {
	switch ConfidenceLevel(s) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Decision is the outcome of the answer pipeline. It selects the composer
// template used for the user-facing message.
type Decision string

const (
	DecisionConfident     Decision = "CONFIDENT_ANSWER"
	DecisionPartial       Decision = "PARTIAL_ANSWER"
	DecisionNoMatch       Decision = "ESCALATE_NO_MATCH"
	DecisionLowConfidence Decision = "ESCALATE_LOW_CONFIDENCE"
	DecisionUncertain     Decision = "ESCALATE_UNCERTAIN"
	DecisionError         Decision = "ERROR"
)

// Escalated reports whether the decision routes the question to a human.
func (d Decision) Escalated() bool {
	switch d {
	case DecisionNoMatch, DecisionLowConfidence, DecisionUncertain, DecisionError:
		return true
	}
	return false
}

// Interaction is the audit record emitted once per answered request.
// Delivery is fire-and-forget; audit failures never affect the response.
type Interaction struct {
	Platform   string            `json:"platform"`
	UserName   string            `json:"user_name"`
	UserID     string            `json:"user_id"`
	Query      string            `json:"query"`
	Response   string            `json:"response"`
	Decision   Decision          `json:"decision"`
	Confidence ConfidenceLevel   `json:"confidence,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
