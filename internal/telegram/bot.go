// Package telegram answers chat-bot questions over Telegram long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"giving-hand-api-server/config"
	"giving-hand-api-server/internal/dialog"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/models"
)

// Donations lists what recipients can claim right now.
type Donations interface {
	AvailableToRecipients(ctx context.Context) ([]models.FoodTicket, error)
}

type Bot struct {
	api       *tgbotapi.BotAPI
	timeout   int
	dialog    *dialog.Bot
	donations Donations
	metrics   *metrics.Metrics
	log       *slog.Logger

	mu    sync.Mutex
	roles map[int64]models.Role // per chat; guest until /role
}

func New(cfg config.TelegramConfig, d *dialog.Bot, donations Donations, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = cfg.Debug

	b := newBot(d, donations, m)
	b.api = api
	b.timeout = cfg.Timeout
	b.log.Info("authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(d *dialog.Bot, donations Donations, m *metrics.Metrics) *Bot {
	return &Bot{
		dialog:    d,
		donations: donations,
		metrics:   m,
		log:       logging.New("telegram"),
		roles:     map[int64]models.Role{},
	}
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout

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
			if update.Message == nil {
				continue
			}
			reply := b.Handle(ctx, update.Message)
			if _, err := b.api.Send(reply); err != nil {
				b.log.Warn("send failed", "chat", update.Message.Chat.ID, "error", err)
			}
		}
	}
}

// Handle builds the reply to one incoming message.
func (b *Bot) Handle(ctx context.Context, msg *tgbotapi.Message) tgbotapi.MessageConfig {
	chatID := msg.Chat.ID
	lang := ""
	if msg.From != nil {
		lang = msg.From.LanguageCode
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return b.dialogReply(chatID, lang, "hello")
		case "role":
			return b.setRole(chatID, lang, msg.CommandArguments())
		case "available":
			return b.available(ctx, chatID)
		case "help":
			return tgbotapi.NewMessage(chatID, "Commands:\n"+
				"/start - Greeting\n"+
				"/role <organization|charity|factory|guest|admin> - Switch the topics I answer for\n"+
				"/available - Food you can claim right now\n"+
				"Anything else is answered by the assistant.")
		default:
			return tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see available commands.")
		}
	}
	return b.dialogReply(chatID, lang, msg.Text)
}

func (b *Bot) role(chatID int64) models.Role {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.roles[chatID]; ok {
		return r
	}
	return models.RoleGuest
}

func (b *Bot) setRole(chatID int64, lang, arg string) tgbotapi.MessageConfig {
	role, err := models.AsRole(strings.ToLower(strings.TrimSpace(arg)))
	if err != nil {
		return tgbotapi.NewMessage(chatID, "Usage: /role organization|charity|factory|guest|admin")
	}
	b.mu.Lock()
	b.roles[chatID] = role
	b.mu.Unlock()
	return b.dialogReply(chatID, lang, "menu")
}

func (b *Bot) dialogReply(chatID int64, lang, text string) tgbotapi.MessageConfig {
	r := b.dialog.Select(b.role(chatID), text)
	if b.metrics != nil {
		b.metrics.ChatReplies.WithLabelValues(string(r.Role), r.Key).Inc()
	}

	out := tgbotapi.NewMessage(chatID, r.Text.In(lang))
	if len(r.Options) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(r.Options))
		for _, o := range r.Options {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(o)))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.OneTimeKeyboard = true
		out.ReplyMarkup = kb
	}
	return out
}

func (b *Bot) available(ctx context.Context, chatID int64) tgbotapi.MessageConfig {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	list, err := b.donations.AvailableToRecipients(ctx)
	if err != nil {
		b.log.Error("list available donations", "error", err)
		return tgbotapi.NewMessage(chatID, "Error fetching donations. Please try again.")
	}
	if len(list) == 0 {
		return tgbotapi.NewMessage(chatID, "No food is waiting right now. Check back soon!")
	}

	var sb strings.Builder
	sb.WriteString("Available now:\n")
	for _, t := range list {
		fmt.Fprintf(&sb, "\n%s - %s, %s, from %s (expires %s)",
			t.ID, t.FoodType, t.QuantityText(), t.OrganizationName, t.ExpiryDate.Format("Jan 2 15:04"))
	}
	return tgbotapi.NewMessage(chatID, sb.String())
}
