// Package telegram adapts Telegram long polling to the dialog machine.
// It carries no business logic: updates go in, replies go out.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"autolead-bot/internal/common/config"
	"autolead-bot/internal/common/logger"
	"autolead-bot/internal/dialog"
)

const fallbackReply = "Извините, произошла ошибка. Пожалуйста, попробуйте еще раз."

// Dialog is the message-handling surface the bot forwards updates to.
type Dialog interface {
	HandleMessage(ctx context.Context, userID int64, text string) ([]dialog.Reply, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	machine Dialog
	log     logger.Logger
	timeout int
}

func NewBot(cfg config.TelegramConfig, machine Dialog, log logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	log.Info("telegram bot authorized", map[string]interface{}{
		"username": api.Self.UserName,
	})
	return &Bot{
		api:     api,
		machine: machine,
		log:     log,
		timeout: cfg.UpdateTimeout,
	}, nil
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.timeout

	updates := b.api.GetUpdatesChan(updateConfig)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	text := messageText(msg)
	if text == "" {
		return
	}

	chatID := msg.Chat.ID
	replies, err := b.machine.HandleMessage(ctx, chatID, text)
	if err != nil {
		b.log.WithError(err).Error("failed to handle message", map[string]interface{}{
			"chat_id": chatID,
		})
		b.send(chatID, fallbackReply)
		return
	}

	for _, reply := range replies {
		b.send(chatID, reply.Text)
	}
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.WithError(err).Warn("failed to send reply", map[string]interface{}{
			"chat_id": chatID,
		})
	}
}

// messageText returns the dialog input for an update. A shared contact
// forwards its phone number as if the user had typed it.
func messageText(msg *tgbotapi.Message) string {
	if msg.Contact != nil && msg.Contact.PhoneNumber != "" {
		return msg.Contact.PhoneNumber
	}
	return msg.Text
}
