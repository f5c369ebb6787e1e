package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shantoai/studio/internal/models"
)

// Telegram pushes payment lifecycle events to an admin chat. It is
// optional wiring: a nil *Telegram is a valid no-op notifier.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	log.Info("telegram notifier ready", "bot", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

func (t *Telegram) PaymentSubmitted(req models.PaymentRequest) {
	if t == nil {
		return
	}
	t.send(fmt.Sprintf(
		"New payment request\nUser: %s (%s)\nPackage: %s (%d credits, %d BDT)\nTransaction: %s",
		req.UserName, req.UserEmail, req.PackageName, req.PackageCredits, req.PackagePrice, req.TransactionID,
	))
}

func (t *Telegram) PaymentDecided(req models.PaymentRequest) {
	if t == nil {
		return
	}
	t.send(fmt.Sprintf(
		"Payment request %s\nUser: %s (%s)\nPackage: %s",
		req.Status, req.UserName, req.UserEmail, req.PackageName,
	))
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Error("telegram send", "err", err)
	}
}
