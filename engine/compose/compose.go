// Package compose turns pipeline outcomes into user-facing messages: the
// final answer generation, the partial-answer and uncertainty sentinels,
// source citations, and the escalation templates.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hackfolio/guidebot/engine/conversation"
	"github.com/hackfolio/guidebot/engine/domain"
)

// Completer is the single-turn completion slice of the Language Model.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

const answerTemplate = `Answer the question based only on the following context about hackathons and the Hackfolio platform:

%s

---

Answer the question based on the above context: %s

FORMAT YOUR RESPONSE EXACTLY AS FOLLOWS:
1. Start with a friendly greeting
2. Provide a short paraphrased answer (1-2 sentences)
3. Break down the solution into clear steps using "**Steps:**" heading
4. Use numbered steps (1., 2., 3., etc.)

EXAMPLE FORMAT:
Hi Builder! 👋

[Short answer in 1-2 sentences]

**Steps:**
1. [First step]
2. [Second step]
3. [Third step]

IMPORTANT RULES:
- If the context doesn't contain enough specific information, respond with "UNCERTAIN"
- If you can answer but are not completely confident, start with "PARTIAL:"
- Only give confident answers when context clearly addresses the question
- Keep steps concise and actionable
- Use simple, clear language`

// uncertainSentinel and partialPrefix are the free-text markers the answer
// prompt instructs the model to emit.
const (
	uncertainSentinel = "UNCERTAIN"
	partialPrefix     = "PARTIAL:"
)

const partialBanner = "⚠️ **Partial answer** (some details might be missing):\n\n"

// Options configures answer formatting.
type Options struct {
	// BaseURL is the public documentation root citations link to.
	BaseURL string
	// MaxSources caps the citation list for chat-width constraints.
	MaxSources int
	// Temperature is used for the final answer generation.
	Temperature float32
}

// DefaultOptions returns the formatting defaults.
func DefaultOptions() Options {
	return Options{
		BaseURL:     "https://guide.hackfolio.co/",
		MaxSources:  3,
		Temperature: 0.7,
	}
}

// Answer is a composed user-facing message paired with the decision that
// produced it.
type Answer struct {
	Text     string
	Decision domain.Decision
}

// Composer renders final messages from pipeline outcomes.
type Composer struct {
	llm    Completer
	opts   Options
	logger *slog.Logger
}

// New creates a Composer.
func New(llm Completer, opts Options, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{llm: llm, opts: opts, logger: logger}
}

// Compose generates the final answer from the retrieved context and formats
// it with citations. The model may still bail out via the UNCERTAIN
// sentinel or downgrade via the PARTIAL: prefix; both are resolved here.
// A generation failure renders the error template, never an error return.
func (c *Composer) Compose(ctx context.Context, question, contextBlock string, chunks []domain.ScoredChunk, level domain.ConfidenceLevel, conv conversation.Context) Answer {
	prompt := fmt.Sprintf(answerTemplate, contextBlock, question)

	text, err := c.llm.Complete(ctx, prompt, c.opts.Temperature)
	if err != nil {
		c.logger.Error("compose: answer generation failed", "error", domain.GenerationError("answer", err))
		return Answer{Text: c.ErrorMessage(conv), Decision: domain.DecisionError}
	}

	if strings.Contains(text, uncertainSentinel) {
		return Answer{Text: c.Uncertain(conv, question), Decision: domain.DecisionUncertain}
	}

	decision := domain.DecisionConfident
	var banner string
	if strings.HasPrefix(text, partialPrefix) {
		text = strings.TrimSpace(strings.TrimPrefix(text, partialPrefix))
		if level == domain.ConfidenceMedium {
			banner = partialBanner
			decision = domain.DecisionPartial
		}
	}

	var b strings.Builder
	b.WriteString(banner)
	b.WriteString(text)
	if sources := FormatSources(c.opts.BaseURL, chunks, c.opts.MaxSources); sources != "" {
		b.WriteString("\n\n**Refer documentation for more details**\n")
		b.WriteString(sources)
	}
	if level == domain.ConfidenceMedium {
		b.WriteString("\n\n💡 **Need more specific details?** ")
		b.WriteString(c.askHint(conv))
	}
	return Answer{Text: b.String(), Decision: decision}
}

// NoMatch is the escalation for questions the corpus does not cover.
func (c *Composer) NoMatch(conv conversation.Context) string {
	return c.escalate(conv, "🤔 I couldn't find relevant information for your question in the documentation.", "Could you help with this question?")
}

// ThinContext is the escalation for retrievals that passed the score bars
// but produced too little text to answer from.
func (c *Composer) ThinContext(conv conversation.Context) string {
	return c.escalate(conv, "🤔 I found limited information for your question.", "This might need human expertise!")
}

// LowConfidence is the escalation used when the confidence gate grades the
// context LOW.
func (c *Composer) LowConfidence(conv conversation.Context, question string) string {
	return c.escalate(conv,
		"🤔 I found some information but I'm not confident about the answer to avoid giving incorrect details.",
		fmt.Sprintf("Could you help with this question: '%s'?", question))
}

// Uncertain is the escalation used when the model itself declines via the
// UNCERTAIN sentinel.
func (c *Composer) Uncertain(conv conversation.Context, question string) string {
	return c.escalate(conv,
		"🤔 I don't have enough specific information to answer your question confidently.",
		fmt.Sprintf("Could you help with: '%s'?", question))
}

// ErrorMessage is the universal fallback for any internal failure.
func (c *Composer) ErrorMessage(conv conversation.Context) string {
	return c.escalate(conv, "❌ Sorry, I encountered an error while processing your question.", "Could you help with this technical issue?")
}

// escalate renders body plus a handoff line. Group contexts mention the
// escalation target directly; private contexts redirect to public channels
// instead of naming an individual.
func (c *Composer) escalate(conv conversation.Context, body, ask string) string {
	if conv.Private || conv.EscalationTarget == "" {
		return body + "\n\nPlease ask in one of the public support channels so an organizer can pick this up."
	}
	return fmt.Sprintf("%s\n\n%s %s", body, conv.EscalationTarget, ask)
}

func (c *Composer) askHint(conv conversation.Context) string {
	if conv.Private || conv.EscalationTarget == "" {
		return "Ask an organizer in a public support channel."
	}
	return "Ask " + conv.EscalationTarget
}
