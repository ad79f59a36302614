// Package main implements the Telegram adapter. Private chats are
// answered directly; in groups the bot only reacts when mentioned or when
// replying to one of its messages. Slash commands serve preset answers
// without touching the retrieval pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/hackfolio/guidebot/engine/assist"
	"github.com/hackfolio/guidebot/engine/conversation"
	"github.com/hackfolio/guidebot/engine/faq"
	"github.com/hackfolio/guidebot/engine/semantic"
	"github.com/hackfolio/guidebot/pkg/audit"
	"github.com/hackfolio/guidebot/pkg/metrics"
	"github.com/hackfolio/guidebot/pkg/ollama"
	"github.com/hackfolio/guidebot/pkg/resilience"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("telegram bot exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}

	reg := metrics.New()
	reg.ServeAsync(9092)

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
		nc, err := nats.Connect(natsURL, nats.Name("guidebot-telegram"))
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

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("telegram connect: %w", err)
	}
	logger.Info("telegram bot authorized", "user", bot.Self.UserName)

	registerCommands(bot, logger)

	b := &telegramBot{
		api:       bot,
		assistant: assistant,
		target:    envOr("ESCALATION_TARGET", "@hackfolio_team"),
		// Telegram allows ~30 messages per second bot-wide.
		sendLimit: rate.NewLimiter(25, 5),
		logger:    logger,
	}

	updates := bot.GetUpdatesChan(tgbotapi.NewUpdate(0))
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			go b.handle(ctx, update.Message)
		}
	}
}

func registerCommands(bot *tgbotapi.BotAPI, logger *slog.Logger) {
	cmds := make([]tgbotapi.BotCommand, 0, len(faq.Commands()))
	for _, c := range faq.Commands() {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		logger.Warn("set command menu failed", "err", err)
	}
}

type telegramBot struct {
	api       *tgbotapi.BotAPI
	assistant *assist.Assistant
	target    string
	sendLimit *rate.Limiter
	logger    *slog.Logger
}

func (b *telegramBot) handle(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From != nil && msg.From.IsBot {
		return
	}

	if msg.IsCommand() {
		if resp, ok := faq.Lookup(msg.Command()); ok {
			b.send(ctx, msg.Chat.ID, msg.MessageID, resp)
		}
		return
	}

	private := msg.Chat.IsPrivate()
	handle := "@" + b.api.Self.UserName
	replyToBot := msg.ReplyToMessage != nil &&
		msg.ReplyToMessage.From != nil &&
		msg.ReplyToMessage.From.ID == b.api.Self.ID

	if !conversation.Addressed(msg.Text, private, replyToBot, handle) {
		return
	}
	question := conversation.StripHandles(msg.Text, handle)
	if question == "" {
		b.send(ctx, msg.Chat.ID, msg.MessageID, "Hello! How can I help you with your hackathon?")
		return
	}

	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		b.logger.Debug("typing action failed", "err", err)
	}

	var userName, userID string
	if msg.From != nil {
		userName = msg.From.FirstName
		userID = strconv.FormatInt(msg.From.ID, 10)
	}

	resp := b.assistant.Answer(ctx, assist.Request{
		Question: question,
		Conv: conversation.Context{
			Platform:         "telegram",
			Private:          private,
			EscalationTarget: b.target,
		},
		UserName: userName,
		UserID:   userID,
		Metadata: map[string]string{
			"chat_type":  msg.Chat.Type,
			"chat_title": msg.Chat.Title,
		},
	})

	b.send(ctx, msg.Chat.ID, msg.MessageID, resp.Text)
}

func (b *telegramBot) send(ctx context.Context, chatID int64, replyTo int, text string) {
	if err := b.sendLimit.Wait(ctx); err != nil {
		return
	}
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyToMessageID = replyTo
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("send failed", "chat", chatID, "err", err)
		// Markdown parse failures are retried as plain text.
		out.ParseMode = ""
		if _, err := b.api.Send(out); err != nil {
			b.logger.Error("plain-text retry failed", "chat", chatID, "err", err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
