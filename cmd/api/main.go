// Package main implements the guidebot HTTP API: question answering over
// the documentation corpus, corpus listing, health, and metrics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/hackfolio/guidebot/engine/assist"
	"github.com/hackfolio/guidebot/engine/conversation"
	"github.com/hackfolio/guidebot/engine/registry"
	"github.com/hackfolio/guidebot/engine/semantic"
	"github.com/hackfolio/guidebot/pkg/audit"
	"github.com/hackfolio/guidebot/pkg/metrics"
	"github.com/hackfolio/guidebot/pkg/mid"
	"github.com/hackfolio/guidebot/pkg/ollama"
	"github.com/hackfolio/guidebot/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port             string
	OllamaURL        string
	EmbedModel       string
	ChatModel        string
	QdrantURL        string
	Collection       string
	Neo4jURL         string
	Neo4jUser        string
	Neo4jPass        string
	NATSURL          string
	WebhookURL       string
	DocsBaseURL      string
	EscalationTarget string
	CORSOrigin       string
}

func loadConfig() Config {
	return Config{
		Port:             envOr("PORT", "8080"),
		OllamaURL:        envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:       envOr("EMBED_MODEL", "nomic-embed-text"),
		ChatModel:        envOr("CHAT_MODEL", "llama3.1"),
		QdrantURL:        envOr("QDRANT_URL", "localhost:6334"),
		Collection:       envOr("QDRANT_COLLECTION", "guidebot"),
		Neo4jURL:         envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:        envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:        envOr("NEO4J_PASS", "password"),
		NATSURL:          os.Getenv("NATS_URL"),
		WebhookURL:       os.Getenv("DISCORD_WEBHOOK_URL"),
		DocsBaseURL:      envOr("DOCS_BASE_URL", "https://guide.hackfolio.co/"),
		EscalationTarget: os.Getenv("ESCALATION_TARGET"),
		CORSOrigin:       envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	// --- Language model ---
	llm := ollama.New(cfg.OllamaURL, cfg.EmbedModel, cfg.ChatModel,
		ollama.WithMetrics(reg),
		ollama.WithLimiter(resilience.NewLimiter(resilience.LimiterOpts{Rate: 2, Burst: 4})),
		ollama.WithBreaker(resilience.NewBreaker(resilience.DefaultBreakerOpts)),
	)

	// --- Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()
	searcher := semantic.NewSearcher(llm, vectorStore)

	// --- Neo4j document registry ---
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)
	docs := registry.New(neo4jDriver)

	// --- Audit sinks ---
	var sinks audit.MultiSink
	if cfg.WebhookURL != "" {
		sinks = append(sinks, audit.NewWebhookSink(cfg.WebhookURL, nil))
	}
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("guidebot-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		sinks = append(sinks, audit.NewNATSSink(nc))
	}
	var sink audit.Sink = audit.NopSink{}
	if len(sinks) > 0 {
		sink = audit.Async(sinks, logger)
	}

	// --- Pipeline ---
	opts := assist.DefaultOptions()
	opts.Compose.BaseURL = cfg.DocsBaseURL
	assistant := assist.New(llm, searcher, sink, reg, opts, logger)

	conv := conversation.Context{
		Platform:         "api",
		EscalationTarget: cfg.EscalationTarget,
	}

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("POST /api/ask", handleAsk(assistant, conv))
	mux.Handle("GET /api/docs", handleDocs(docs, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("guidebot-api"),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// AskRequest is the JSON body for POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
	UserName string `json:"user_name,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// AskResponse is the JSON response for POST /api/ask.
type AskResponse struct {
	Answer     string   `json:"answer"`
	Decision   string   `json:"decision"`
	Confidence string   `json:"confidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Escalated  bool     `json:"escalated"`
}

func handleAsk(assistant *assist.Assistant, conv conversation.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Question == "" {
			http.Error(w, `{"error":"question is required"}`, http.StatusBadRequest)
			return
		}

		resp := assistant.Answer(r.Context(), assist.Request{
			Question: req.Question,
			Conv:     conv,
			UserName: req.UserName,
			UserID:   req.UserID,
			Metadata: map[string]string{"channel": "http"},
		})

		sources := make([]string, 0, len(resp.Sources))
		for _, c := range resp.Sources {
			sources = append(sources, c.SourcePath)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AskResponse{
			Answer:     resp.Text,
			Decision:   string(resp.Decision),
			Confidence: string(resp.Confidence),
			Sources:    sources,
			Escalated:  resp.Decision.Escalated(),
		})
	}
}

func handleDocs(docs *registry.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := docs.List(r.Context())
		if err != nil {
			logger.Error("docs listing failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count":     len(list),
			"documents": list,
		})
	}
}
