// Package ollama is an HTTP client for Ollama's embeddings and generate
// APIs. It is the Language Model behind query expansion, confidence
// evaluation, and answer generation, and the embedder behind vector search.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hackfolio/guidebot/pkg/metrics"
	"github.com/hackfolio/guidebot/pkg/resilience"
)

// Client talks to one Ollama instance.
type Client struct {
	baseURL    string
	embedModel string
	chatModel  string
	http       *http.Client
	limiter    *resilience.Limiter
	breaker    *resilience.Breaker

	embedCalls    *metrics.Counter
	generateCalls *metrics.Counter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter rate-limits Complete calls.
func WithLimiter(l *resilience.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBreaker runs Complete calls through a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithMetrics counts embedding and completion calls in the registry.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Client) {
		c.embedCalls = reg.Counter("ollama_embed_calls_total", "Embedding requests sent to Ollama.")
		c.generateCalls = reg.Counter("ollama_generate_calls_total", "Completion requests sent to Ollama.")
	}
}

// New creates a Client for the given base URL and models.
func New(baseURL, embedModel, chatModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		embedModel: embedModel,
		chatModel:  chatModel,
		http:       &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.embedCalls != nil {
		c.embedCalls.Inc()
	}
	var result embedResponse
	if err := c.post(ctx, "/api/embeddings", embedRequest{Model: c.embedModel, Prompt: text}, &result); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete runs a single-turn completion at the given temperature.
// Failures surface as errors, never as an empty string.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	if c.generateCalls != nil {
		c.generateCalls.Inc()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("ollama generate: %w", err)
		}
	}

	var result generateResponse
	call := func(ctx context.Context) error {
		return c.post(ctx, "/api/generate", generateRequest{
			Model:   c.chatModel,
			Prompt:  prompt,
			Stream:  false,
			Options: generateOptions{Temperature: temperature},
		}, &result)
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Call(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if result.Response == "" {
		return "", fmt.Errorf("ollama generate: empty response")
	}
	return result.Response, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
