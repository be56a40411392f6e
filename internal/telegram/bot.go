// Package telegram puts the conversation behind a Telegram bot. Each chat is
// one thread; each Telegram user is one optimiser user.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

var tracer = otel.Tracer("telegram")

const helpText = "💳 Card Optimiser\n\n" +
	"Tell me what you're buying, e.g. \"₹2,500 at Amazon\", and I'll pick the card that earns the most.\n\n" +
	"Commands:\n" +
	"/add_card <card terms or JSON> - register a card\n" +
	"/incognito - toggle incognito (nothing is saved or recalled)\n" +
	"/incognito <message> - ask once without saving\n" +
	"/help - show this message"

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Processor runs one conversation turn.
type Processor interface {
	ProcessMessage(ctx context.Context, req *chatdomain.ChatRequest) (*chatdomain.ChatResponse, error)
}

// Bot relays Telegram messages to the chat service.
type Bot struct {
	api    API
	chat   Processor
	logger *zap.Logger

	mu        sync.Mutex
	incognito map[int64]bool
}

// New creates a Bot.
func New(api API, chat Processor, logger *zap.Logger) *Bot {
	return &Bot{
		api:       api,
		chat:      chat,
		logger:    logger,
		incognito: make(map[int64]bool),
	}
}

// Run long-polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers one update. Non-message updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.From == nil {
		return
	}

	ctx, span := tracer.Start(ctx, "Bot.HandleUpdate")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat.id", msg.Chat.ID))

	reply := b.Reply(ctx, msg.Chat.ID, msg.From.ID, msg.Text)
	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		b.logger.Error("telegram send failed",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err),
		)
	}
}

// Reply returns the answer to text sent by fromID in chatID.
func (b *Bot) Reply(ctx context.Context, chatID, fromID int64, text string) string {
	text = strings.Join(strings.Fields(text), " ")
	switch {
	case text == "":
		return helpText
	case text == "/start" || text == "/help":
		return helpText
	case text == "/incognito":
		if b.toggleIncognito(chatID) {
			return "🕶 Incognito on. This chat is not saved and past purchases are not recalled. Send /incognito again to turn it off."
		}
		return "Incognito off."
	}

	incognito := b.isIncognito(chatID)
	if rest, ok := strings.CutPrefix(text, "/incognito "); ok {
		text, incognito = rest, true
	}

	resp, err := b.chat.ProcessMessage(ctx, &chatdomain.ChatRequest{
		UserID:    fmt.Sprintf("tg-%d", fromID),
		ThreadID:  fmt.Sprintf("tg-%d", chatID),
		Message:   text,
		Incognito: incognito,
	})
	if err != nil {
		b.logger.Error("chat turn failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		var verr *domain.ErrValidation
		if errors.As(err, &verr) {
			return helpText
		}
		return "❌ Something went wrong. Please try again."
	}
	return resp.Answer
}

func (b *Bot) toggleIncognito(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.incognito[chatID] = !b.incognito[chatID]
	return b.incognito[chatID]
}

func (b *Bot) isIncognito(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.incognito[chatID]
}
