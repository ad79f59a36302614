package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hackfolio/guidebot/engine/domain"
)

const (
	colorAnswered  = 0x00ff00
	colorEscalated = 0xffff00

	// fieldLimit is Discord's embed field value cap.
	fieldLimit = 1024
)

// WebhookSink posts interaction records to a Discord webhook as embeds, the
// format the organizers' monitoring channel expects.
type WebhookSink struct {
	url  string
	http *http.Client
}

// NewWebhookSink creates a WebhookSink. A nil client uses a 10s-timeout
// default.
func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{url: url, http: client}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []embedField `json:"fields"`
	Footer struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

func (s *WebhookSink) Log(ctx context.Context, rec domain.Interaction) error {
	body, err := json.Marshal(webhookPayload{Embeds: []embed{buildEmbed(rec)}})
	if err != nil {
		return fmt.Errorf("audit: marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("audit: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("audit: post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audit: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildEmbed(rec domain.Interaction) embed {
	e := embed{
		Title: fmt.Sprintf("Support Bot Interaction - %s", titleize(rec.Platform)),
		Color: colorAnswered,
		Fields: []embedField{
			{Name: "User", Value: fmt.Sprintf("`%s (ID: %s)`", rec.UserName, rec.UserID), Inline: true},
			{Name: "Query", Value: truncate(rec.Query, fieldLimit)},
			{Name: "Response", Value: truncate(rec.Response, fieldLimit)},
			{Name: "Decision", Value: string(rec.Decision), Inline: true},
		},
	}
	if rec.Decision.Escalated() {
		e.Color = colorEscalated
	}

	if len(rec.Metadata) > 0 {
		var parts []string
		for _, k := range []string{"server", "channel", "chat_type", "chat_title"} {
			if v := rec.Metadata[k]; v != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", titleize(k), v))
			}
		}
		if len(parts) > 0 {
			e.Fields = append(e.Fields, embedField{Name: "Context", Value: strings.Join(parts, " | ")})
		}
	}

	switch rec.Confidence {
	case domain.ConfidenceLow:
		e.Fields = append(e.Fields, embedField{Name: "Confidence", Value: "⚠️ Low confidence response", Inline: true})
	case domain.ConfidenceMedium:
		e.Fields = append(e.Fields, embedField{Name: "Confidence", Value: "ℹ️ Partial confidence response", Inline: true})
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	e.Footer.Text = "Time: " + ts.Format("2006-01-02 15:04:05")
	return e
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func titleize(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
