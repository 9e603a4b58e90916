package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"giving-hand-api-server/internal/dialog"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/models"
)

type fakeDonations struct {
	list []models.FoodTicket
	err  error
}

func (f fakeDonations) AvailableToRecipients(context.Context) ([]models.FoodTicket, error) {
	return f.list, f.err
}

func message(chatID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, LanguageCode: "en"},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

func TestHandle_DialogAndRoles(t *testing.T) {
	d := dialog.MustLoad()
	m := metrics.New()
	b := newBot(d, fakeDonations{}, m)
	ctx := context.Background()

	reply := b.Handle(ctx, message(1, "asdlkj"))
	fallback, _ := d.Node(models.RoleGuest, dialog.KeyFallback)
	if reply.Text != fallback.Text.En {
		t.Errorf("guest fallback text = %q", reply.Text)
	}
	kb, ok := reply.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok || len(kb.Keyboard) != len(fallback.Options) {
		t.Errorf("keyboard = %+v", reply.ReplyMarkup)
	}

	b.Handle(ctx, message(1, "/role factory"))
	reply = b.Handle(ctx, message(1, "what is in the queue"))
	queue, _ := d.Node(models.RoleFactory, "queue")
	if reply.Text != queue.Text.En {
		t.Errorf("factory reply = %q", reply.Text)
	}

	reply = b.Handle(ctx, message(2, "/role pirate"))
	if !strings.HasPrefix(reply.Text, "Usage:") {
		t.Errorf("bad role reply = %q", reply.Text)
	}
	if got := testutil.ToFloat64(m.ChatReplies.WithLabelValues("guest", dialog.KeyFallback)); got != 1 {
		t.Errorf("guest fallback counter = %v", got)
	}
}

func TestHandle_Available(t *testing.T) {
	ctx := context.Background()
	ticket := models.FoodTicket{
		ID: "TKT-1", FoodType: "Bread", WeightKg: 2, OrganizationName: "Corner Bakery",
		ExpiryDate: time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC),
	}

	b := newBot(dialog.MustLoad(), fakeDonations{list: []models.FoodTicket{ticket}}, nil)
	reply := b.Handle(ctx, message(1, "/available"))
	if !strings.Contains(reply.Text, "TKT-1 - Bread, 2 kg, from Corner Bakery") {
		t.Errorf("listing = %q", reply.Text)
	}

	b = newBot(dialog.MustLoad(), fakeDonations{}, nil)
	if reply := b.Handle(ctx, message(1, "/available")); !strings.Contains(reply.Text, "No food") {
		t.Errorf("empty listing = %q", reply.Text)
	}

	b = newBot(dialog.MustLoad(), fakeDonations{err: errors.New("down")}, nil)
	if reply := b.Handle(ctx, message(1, "/available")); !strings.HasPrefix(reply.Text, "Error") {
		t.Errorf("error listing = %q", reply.Text)
	}
}
