// Package bot is the Telegram boundary: it folds knowledge-base excerpts
// into prompts and relays completions back to the user.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lesli-ai/leslibot/internal/domain"
	"github.com/lesli-ai/leslibot/internal/ingest"
	"github.com/lesli-ai/leslibot/internal/telemetry"
)

// KnowledgeSearcher answers substring queries against the knowledge base.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	Books(ctx context.Context) ([]domain.BookSummary, error)
}

// Completer produces a model reply for a prompt and user message.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Ingester re-runs directory ingestion on the administrative /reload trigger.
type Ingester interface {
	IngestDirectory(ctx context.Context, paths []string) (*ingest.Report, error)
}

// User-visible fallbacks; raw error text never reaches the chat.
const (
	replyNoKnowledge    = "По вашему вопросу в книгах ничего не найдено. Попробуйте переформулировать."
	replyKnowledgeIssue = "База знаний временно недоступна. Попробуйте позже."
	replyModelIssue     = "Не удалось получить ответ. Попробуйте позже."
	replyWelcome        = "Привет! Задайте вопрос, и я отвечу на основе книг из базы знаний. Команды: /books, /reload."
)

const systemPersona = "Ты — ассистент, отвечающий на вопросы по методикам Лесли. " +
	"Отвечай по-русски, опираясь на выдержки из книг ниже. Если выдержки не относятся к вопросу, скажи об этом прямо."

// Config tunes the bot layer.
type Config struct {
	// SearchLimit is how many chunks are retrieved per message.
	SearchLimit int
	// ExcerptChars truncates each chunk before prompt insertion.
	ExcerptChars int
	// BooksDirs is passed through to /reload.
	BooksDirs []string
}

// DefaultConfig provides the bot defaults.
func DefaultConfig() Config {
	return Config{
		SearchLimit:  3,
		ExcerptChars: 500,
	}
}

// Bot runs the Telegram long-polling loop.
type Bot struct {
	api       *tgbotapi.BotAPI
	search    KnowledgeSearcher
	completer Completer
	ingester  Ingester
	cfg       Config
}

// New connects to the Telegram API and builds the bot.
func New(token string, search KnowledgeSearcher, completer Completer, ingester Ingester, cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	api.Debug = false

	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultConfig().SearchLimit
	}
	if cfg.ExcerptChars <= 0 {
		cfg.ExcerptChars = DefaultConfig().ExcerptChars
	}

	return &Bot{
		api:       api,
		search:    search,
		completer: completer,
		ingester:  ingester,
		cfg:       cfg,
	}, nil
}

// Run processes updates until the context is cancelled. Messages are handled
// sequentially; each one is independent and stateless.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	log.Printf("bot: authorized as %s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx, span := telemetry.StartTransaction(ctx, "bot.message", "bot.handle")
	defer span.End()

	log.Printf("bot: [chat %d] %s", msg.Chat.ID, msg.Text)

	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, replyWelcome)
	case "books":
		b.handleBooks(ctx, msg.Chat.ID)
	case "reload":
		b.handleReload(ctx, msg.Chat.ID)
	default:
		b.handleQuestion(ctx, msg)
	}
}

func (b *Bot) handleQuestion(ctx context.Context, msg *tgbotapi.Message) {
	results, err := b.search.Search(ctx, msg.Text, b.cfg.SearchLimit)
	if err != nil {
		log.Printf("bot: search failed: %v", err)
		telemetry.CaptureError(ctx, err)
		b.reply(msg.Chat.ID, replyKnowledgeIssue)
		return
	}
	if len(results) == 0 {
		// "No knowledge" is an explicit, displayable state; we never
		// let the model fabricate book content.
		b.reply(msg.Chat.ID, replyNoKnowledge)
		return
	}

	answer, err := b.completer.Complete(ctx, buildSystemPrompt(systemPersona, results, b.cfg.ExcerptChars), msg.Text)
	if err != nil {
		log.Printf("bot: completion failed: %v", err)
		telemetry.CaptureError(ctx, err)
		b.reply(msg.Chat.ID, replyModelIssue)
		return
	}

	b.reply(msg.Chat.ID, answer)
}

func (b *Bot) handleBooks(ctx context.Context, chatID int64) {
	books, err := b.search.Books(ctx)
	if err != nil {
		log.Printf("bot: listing books failed: %v", err)
		telemetry.CaptureError(ctx, err)
		b.reply(chatID, replyKnowledgeIssue)
		return
	}
	if len(books) == 0 {
		b.reply(chatID, "База знаний пуста.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Загруженные книги:\n")
	for i, book := range books {
		fmt.Fprintf(&sb, "%d. %s (%d частей)\n", i+1, book.BookName, book.ChunkCount)
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleReload(ctx context.Context, chatID int64) {
	report, err := b.ingester.IngestDirectory(ctx, b.cfg.BooksDirs)
	if err != nil {
		log.Printf("bot: reload failed: %v", err)
		telemetry.CaptureError(ctx, err)
		b.reply(chatID, replyKnowledgeIssue)
		return
	}
	b.reply(chatID, fmt.Sprintf("Готово: %d обработано, %d пропущено, %d с ошибками.",
		len(report.Processed), len(report.Skipped), len(report.Failed)))
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("bot: failed to send message: %v", err)
	}
}

// buildSystemPrompt folds retrieved excerpts into the system prompt. Chunk
// content is truncated here, at the caller side of the store boundary.
func buildSystemPrompt(persona string, results []domain.SearchResult, excerptChars int) string {
	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\n\nВыдержки из книг:\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "\n[%s — %s]\n%s\n", r.BookName, r.ChapterLabel, truncateRunes(r.Content, excerptChars))
	}
	return sb.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
