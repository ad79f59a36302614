package compose

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hackfolio/guidebot/engine/conversation"
	"github.com/hackfolio/guidebot/engine/domain"
)

type fakeCompleter struct {
	resp string
	err  error
}

func (f *fakeCompleter) Complete(context.Context, string, float32) (string, error) {
	return f.resp, f.err
}

var groupConv = conversation.Context{Platform: "discord", EscalationTarget: "<@845015423>"}
var privateConv = conversation.Context{Platform: "telegram", Private: true}

func docChunk(path string) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: domain.Chunk{Content: "c", SourcePath: path}, Score: 0.8}
}

func TestComposeConfidentAnswer(t *testing.T) {
	llm := &fakeCompleter{resp: "Hi Builder! 👋\n\nYou can add judges from the dashboard.\n\n**Steps:**\n1. Open judging settings."}
	c := New(llm, DefaultOptions(), nil)

	ans := c.Compose(context.Background(), "how do I add judges", "ctx", []domain.ScoredChunk{docChunk("data/docs/judging/add-judges.md")}, domain.ConfidenceHigh, groupConv)
	if ans.Decision != domain.DecisionConfident {
		t.Fatalf("decision = %v", ans.Decision)
	}
	if !strings.Contains(ans.Text, "Refer documentation for more details") {
		t.Error("missing sources header")
	}
	if !strings.Contains(ans.Text, "https://guide.hackfolio.co/docs/judging/add-judges") {
		t.Errorf("missing source link:\n%s", ans.Text)
	}
	if strings.Contains(ans.Text, "Partial answer") {
		t.Error("unexpected partial banner on HIGH confidence")
	}
}

func TestComposeUncertainSentinel(t *testing.T) {
	c := New(&fakeCompleter{resp: "UNCERTAIN"}, DefaultOptions(), nil)
	ans := c.Compose(context.Background(), "q", "ctx", nil, domain.ConfidenceHigh, groupConv)
	if ans.Decision != domain.DecisionUncertain {
		t.Fatalf("decision = %v", ans.Decision)
	}
	if !strings.Contains(ans.Text, "<@845015423>") {
		t.Error("group escalation should mention the organizer")
	}
}

func TestComposePartialWithMediumConfidence(t *testing.T) {
	c := New(&fakeCompleter{resp: "PARTIAL: You might be able to do this from settings."}, DefaultOptions(), nil)
	ans := c.Compose(context.Background(), "q", "ctx", nil, domain.ConfidenceMedium, groupConv)
	if ans.Decision != domain.DecisionPartial {
		t.Fatalf("decision = %v", ans.Decision)
	}
	if !strings.HasPrefix(ans.Text, "⚠️ **Partial answer**") {
		t.Errorf("missing banner:\n%s", ans.Text)
	}
	if strings.Contains(ans.Text, "PARTIAL:") {
		t.Error("prefix not stripped")
	}
	if !strings.Contains(ans.Text, "💡 **Need more specific details?**") {
		t.Error("missing medium-confidence hint")
	}
}

func TestComposePartialPrefixIgnoredOnHigh(t *testing.T) {
	c := New(&fakeCompleter{resp: "PARTIAL: answer text"}, DefaultOptions(), nil)
	ans := c.Compose(context.Background(), "q", "ctx", nil, domain.ConfidenceHigh, groupConv)
	if ans.Decision != domain.DecisionConfident {
		t.Fatalf("decision = %v", ans.Decision)
	}
	if strings.Contains(ans.Text, "Partial answer") {
		t.Error("banner must only render on MEDIUM confidence")
	}
}

func TestComposeGenerationFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	c := New(&fakeCompleter{err: errors.New("model offline")}, DefaultOptions(), logger)
	ans := c.Compose(context.Background(), "q", "ctx", nil, domain.ConfidenceHigh, groupConv)
	if ans.Decision != domain.DecisionError {
		t.Fatalf("decision = %v", ans.Decision)
	}
	if !strings.Contains(ans.Text, "encountered an error") {
		t.Errorf("text = %q", ans.Text)
	}
	if !strings.Contains(logs.String(), domain.ErrGeneration.Error()) {
		t.Errorf("model failure not classified as generation error:\n%s", logs.String())
	}
}

func TestEscalationPrivateRedirectsToPublicChannels(t *testing.T) {
	c := New(&fakeCompleter{}, DefaultOptions(), nil)
	msg := c.NoMatch(privateConv)
	if strings.Contains(msg, "<@") {
		t.Error("private escalation must not mention an individual")
	}
	if !strings.Contains(msg, "public support channels") {
		t.Errorf("msg = %q", msg)
	}
}

func TestEscalationGroupNamesOrganizer(t *testing.T) {
	c := New(&fakeCompleter{}, DefaultOptions(), nil)
	for _, msg := range []string{
		c.NoMatch(groupConv),
		c.ThinContext(groupConv),
		c.LowConfidence(groupConv, "q"),
		c.Uncertain(groupConv, "q"),
		c.ErrorMessage(groupConv),
	} {
		if !strings.Contains(msg, "<@845015423>") {
			t.Errorf("missing organizer mention in %q", msg)
		}
	}
}

func TestSourceURLPure(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"data/docs/judging/add-judges.md", "https://guide.hackfolio.co/docs/judging/add-judges"},
		{"data/docs/submissions.mdx", "https://guide.hackfolio.co/docs/submissions"},
		{"docs/plain.md", "https://guide.hackfolio.co/docs/plain"},
	}
	for _, tt := range tests {
		if got := SourceURL("https://guide.hackfolio.co/", tt.path); got != tt.want {
			t.Errorf("SourceURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSourceTitle(t *testing.T) {
	if got := SourceTitle("data/docs/judging/add-judges.md"); got != "Add Judges" {
		t.Errorf("SourceTitle = %q", got)
	}
	if got := SourceTitle("data/docs/prize-track-setup.mdx"); got != "Prize Track Setup" {
		t.Errorf("SourceTitle = %q", got)
	}
	if got := SourceTitle("data/docs/équipe-guide.md"); got != "Équipe Guide" {
		t.Errorf("SourceTitle = %q", got)
	}
}

func TestFormatSourcesDedupAndCap(t *testing.T) {
	chunks := []domain.ScoredChunk{
		docChunk("data/docs/a.md"),
		docChunk("data/docs/a.md"),
		docChunk("data/docs/b.md"),
		docChunk("data/docs/c.md"),
		docChunk("data/docs/d.md"),
	}
	out := FormatSources("https://guide.hackfolio.co/", chunks, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d:\n%s", len(lines), out)
	}
	if strings.Count(out, "docs/a") != 1 {
		t.Error("duplicate source not collapsed")
	}
}
