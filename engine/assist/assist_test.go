package assist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hackfolio/guidebot/engine/conversation"
	"github.com/hackfolio/guidebot/engine/domain"
	"github.com/hackfolio/guidebot/pkg/audit"
)

// scriptedLLM routes completions by recognizable prompt fragments so one
// fake serves expansion, confidence evaluation, and answer generation.
type scriptedLLM struct {
	mu         sync.Mutex
	calls      int
	expansion  string
	confidence string
	answer     string
	err        error
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string, _ float32) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	switch {
	case strings.Contains(prompt, "Generate queries in this format"):
		return s.expansion, nil
	case strings.Contains(prompt, "Respond with only HIGH, MEDIUM, or LOW"):
		return s.confidence, nil
	default:
		return s.answer, nil
	}
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeSearcher struct {
	chunks []domain.ScoredChunk
	err    error
}

func (f *fakeSearcher) Search(context.Context, string, int) ([]domain.ScoredChunk, error) {
	return f.chunks, f.err
}

type panicSearcher struct{}

func (panicSearcher) Search(context.Context, string, int) ([]domain.ScoredChunk, error) {
	panic("searcher exploded")
}

type captureSink struct {
	mu   sync.Mutex
	recs []domain.Interaction
}

func (c *captureSink) Log(_ context.Context, rec domain.Interaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	return nil
}

func (c *captureSink) last() domain.Interaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recs[len(c.recs)-1]
}

var groupConv = conversation.Context{Platform: "discord", EscalationTarget: "<@845015423>"}

func richChunk(prefix string, score float32) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			Content:    prefix + " " + strings.Repeat("detailed documentation about judging. ", 8),
			SourcePath: "data/docs/judging/" + prefix + ".md",
		},
		Score: score,
	}
}

func newAssistant(llm Completer, s Searcher, sink audit.Sink) *Assistant {
	return New(llm, s, sink, nil, DefaultOptions(), nil)
}

func TestAnswerConfidentPath(t *testing.T) {
	llm := &scriptedLLM{
		expansion:  "1. adding judges to a hackathon\n2. judge invitation flow",
		confidence: "HIGH",
		answer:     "Hi Builder! 👋\n\nAdd judges from the judging tab.\n\n**Steps:**\n1. Open settings.",
	}
	sink := &captureSink{}
	a := newAssistant(llm, &fakeSearcher{chunks: []domain.ScoredChunk{
		richChunk("a", 0.72), richChunk("b", 0.68), richChunk("c", 0.55), richChunk("d", 0.42),
	}}, sink)

	resp := a.Answer(context.Background(), Request{Question: "How do I add judges?", Conv: groupConv, UserName: "asha", UserID: "1"})
	if resp.Decision != domain.DecisionConfident {
		t.Fatalf("decision = %v", resp.Decision)
	}
	if resp.Confidence != domain.ConfidenceHigh {
		t.Fatalf("confidence = %v", resp.Confidence)
	}
	// Scores 0.72/0.68/0.55 pass the good floor, 0.42 does not.
	if len(resp.Sources) != 3 {
		t.Fatalf("sources = %d, want 3", len(resp.Sources))
	}
	if !strings.Contains(resp.Text, "guide.hackfolio.co") {
		t.Error("missing citation link")
	}
	if sink.last().Decision != domain.DecisionConfident {
		t.Error("audit record missing")
	}
}

func TestAnswerProbeMissSkipsGeneration(t *testing.T) {
	llm := &scriptedLLM{}
	a := newAssistant(llm, &fakeSearcher{chunks: []domain.ScoredChunk{
		richChunk("a", 0.31), richChunk("b", 0.28),
	}}, nil)

	resp := a.Answer(context.Background(), Request{Question: "What is the weather?", Conv: groupConv})
	if resp.Decision != domain.DecisionNoMatch {
		t.Fatalf("decision = %v", resp.Decision)
	}
	if llm.callCount() != 0 {
		t.Fatalf("llm calls = %d, probe miss must not invoke the model", llm.callCount())
	}
	if !strings.Contains(resp.Text, "<@845015423>") {
		t.Error("group escalation should mention the organizer")
	}
}

func TestAnswerRetrievalFailureEscalates(t *testing.T) {
	llm := &scriptedLLM{}
	a := newAssistant(llm, &fakeSearcher{err: errors.New("qdrant down")}, nil)

	resp := a.Answer(context.Background(), Request{Question: "q", Conv: groupConv})
	if resp.Decision != domain.DecisionNoMatch {
		t.Fatalf("decision = %v", resp.Decision)
	}
	if llm.callCount() != 0 {
		t.Fatalf("llm calls = %d", llm.callCount())
	}
}

func TestAnswerThinContextEscalates(t *testing.T) {
	llm := &scriptedLLM{expansion: "1. short context query"}
	a := newAssistant(llm, &fakeSearcher{chunks: []domain.ScoredChunk{
		{Chunk: domain.Chunk{Content: "short"}, Score: 0.95},
	}}, nil)

	resp := a.Answer(context.Background(), Request{Question: "q", Conv: groupConv})
	if resp.Decision != domain.DecisionLowConfidence {
		t.Fatalf("decision = %v, even a high-score short context must escalate", resp.Decision)
	}
}

func TestAnswerLowConfidenceSkipsAnswerGeneration(t *testing.T) {
	llm := &scriptedLLM{
		expansion:  "1. judging setup details",
		confidence: "LOW",
		answer:     "should never be used",
	}
	a := newAssistant(llm, &fakeSearcher{chunks: []domain.ScoredChunk{richChunk("a", 0.8)}}, nil)

	resp := a.Answer(context.Background(), Request{Question: "q", Conv: groupConv})
	if resp.Decision != domain.DecisionLowConfidence {
		t.Fatalf("decision = %v", resp.Decision)
	}
	if strings.Contains(resp.Text, "should never be used") {
		t.Error("answer generation must be skipped on LOW confidence")
	}
}

func TestAnswerUncertainSentinel(t *testing.T) {
	llm := &scriptedLLM{
		expansion:  "1. judging setup details",
		confidence: "HIGH",
		answer:     "UNCERTAIN",
	}
	a := newAssistant(llm, &fakeSearcher{chunks: []domain.ScoredChunk{richChunk("a", 0.8)}}, nil)

	resp := a.Answer(context.Background(), Request{Question: "q", Conv: groupConv})
	if resp.Decision != domain.DecisionUncertain {
		t.Fatalf("decision = %v", resp.Decision)
	}
}

func TestAnswerTotalOnPanic(t *testing.T) {
	a := newAssistant(&scriptedLLM{}, panicSearcher{}, nil)
	resp := a.Answer(context.Background(), Request{Question: "q", Conv: groupConv})
	if resp.Decision != domain.DecisionError {
		t.Fatalf("decision = %v, want ERROR", resp.Decision)
	}
	if !strings.Contains(resp.Text, "encountered an error") {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	a := newAssistant(&scriptedLLM{}, &fakeSearcher{}, nil)
	resp := a.Answer(context.Background(), Request{Question: "   ", Conv: groupConv})
	if resp.Decision != domain.DecisionError {
		t.Fatalf("decision = %v", resp.Decision)
	}
}

func TestAnswerAuditRecordsEscalations(t *testing.T) {
	sink := &captureSink{}
	a := newAssistant(&scriptedLLM{}, &fakeSearcher{}, sink)

	a.Answer(context.Background(), Request{Question: "uncovered topic", Conv: groupConv, UserName: "lee", UserID: "7"})
	rec := sink.last()
	if rec.Decision != domain.DecisionNoMatch || rec.UserName != "lee" {
		t.Fatalf("record = %+v", rec)
	}
}
