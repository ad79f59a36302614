// Package main implements the Discord adapter: the bot answers questions
// only in servers and only when mentioned; direct messages get a redirect
// to public channels.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/hackfolio/guidebot/engine/assist"
	"github.com/hackfolio/guidebot/engine/conversation"
	"github.com/hackfolio/guidebot/engine/semantic"
	"github.com/hackfolio/guidebot/pkg/audit"
	"github.com/hackfolio/guidebot/pkg/metrics"
	"github.com/hackfolio/guidebot/pkg/ollama"
	"github.com/hackfolio/guidebot/pkg/resilience"
)

const dmRedirect = `👋 Hi! I only work in Discord servers to help with hackathon questions.

💡 It's always recommended to ask questions in public channels - it helps others who might have the same question and keeps the conversation more engaging.

🙌 And if you ever get stuck, someone from our team will be happy to jump in and help with the context.`

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("discord bot exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token := os.Getenv("DISCORD_BOT_TOKEN")
	if token == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN not set")
	}

	reg := metrics.New()
	reg.ServeAsync(9091)

	llm := ollama.New(
		envOr("OLLAMA_URL", "http://localhost:11434"),
		envOr("EMBED_MODEL", "nomic-embed-text"),
		envOr("CHAT_MODEL", "llama3.1"),
		ollama.WithMetrics(reg),
		ollama.WithLimiter(resilience.NewLimiter(resilience.LimiterOpts{Rate: 2, Burst: 4})),
		ollama.WithBreaker(resilience.NewBreaker(resilience.DefaultBreakerOpts)),
	)

	store, err := semantic.New(envOr("QDRANT_URL", "localhost:6334"), envOr("QDRANT_COLLECTION", "guidebot"))
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()
	searcher := semantic.NewSearcher(llm, store)

	var sinks audit.MultiSink
	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		sinks = append(sinks, audit.NewWebhookSink(url, nil))
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		nc, err := nats.Connect(natsURL, nats.Name("guidebot-discord"))
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

	opts := assist.DefaultOptions()
	opts.Compose.BaseURL = envOr("DOCS_BASE_URL", "https://guide.hackfolio.co/")
	assistant := assist.New(llm, searcher, sink, reg, opts, logger)

	escalationTarget := os.Getenv("ESCALATION_TARGET")

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	session.AddHandler(func(s *discordgo.Session, _ *discordgo.Ready) {
		logger.Info("discord bot ready", "user", s.State.User.Username)
	})
	session.AddHandler(messageHandler(assistant, escalationTarget, logger))

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	defer session.Close()

	logger.Info("discord bot running")
	<-ctx.Done()
	return nil
}

func messageHandler(assistant *assist.Assistant, escalationTarget string, logger *slog.Logger) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
			return
		}

		// DMs get a redirect, never an answer.
		if m.GuildID == "" {
			if _, err := s.ChannelMessageSend(m.ChannelID, dmRedirect); err != nil {
				logger.Error("send dm redirect failed", "err", err)
			}
			return
		}

		if !mentionsBot(m, s.State.User.ID) {
			return
		}

		handles := []string{
			"<@" + s.State.User.ID + ">",
			"<@!" + s.State.User.ID + ">",
		}
		question := conversation.StripHandles(m.Content, handles...)
		if question == "" {
			greeting := fmt.Sprintf("Hello %s! Ask me anything about hackathons, Hackfolio, or project development!", displayName(m))
			if _, err := s.ChannelMessageSend(m.ChannelID, greeting); err != nil {
				logger.Error("send greeting failed", "err", err)
			}
			return
		}

		_ = s.ChannelTyping(m.ChannelID)

		resp := assistant.Answer(context.Background(), assist.Request{
			Question: question,
			Conv: conversation.Context{
				Platform:         "discord",
				EscalationTarget: escalationTarget,
			},
			UserName: m.Author.Username,
			UserID:   m.Author.ID,
			Metadata: map[string]string{
				"server":  m.GuildID,
				"channel": m.ChannelID,
			},
		})

		if _, err := s.ChannelMessageSend(m.ChannelID, resp.Text); err != nil {
			logger.Error("send answer failed", "err", err)
		}
	}
}

func mentionsBot(m *discordgo.MessageCreate, botID string) bool {
	for _, u := range m.Mentions {
		if u.ID == botID {
			return true
		}
	}
	return false
}

func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	return m.Author.Username
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
