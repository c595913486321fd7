package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/metrics"
)

// Responder replies "in place": a message reply sends a new message, a
// callback reply edits the message the button sits under, falling back to
// sending when Telegram rejects the edit (deleted message, media message,
// unchanged content).
type Responder interface {
	Respond(text string, markup *tgbotapi.InlineKeyboardMarkup) error
	ChatID() int64
}

type messageResponder struct {
	bot    *Bot
	chatID int64
}

// MessageResponder replies by sending into the message's chat.
func (b *Bot) MessageResponder(m *tgbotapi.Message) Responder {
	return &messageResponder{bot: b, chatID: m.Chat.ID}
}

func (r *messageResponder) ChatID() int64 { return r.chatID }

func (r *messageResponder) Respond(text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if markup == nil {
		return r.bot.SendMessage(r.chatID, text)
	}
	return r.bot.SendWithMarkup(r.chatID, text, *markup)
}

type callbackResponder struct {
	bot   *Bot
	query *tgbotapi.CallbackQuery
}

// CallbackResponder replies by editing the message the callback came from.
func (b *Bot) CallbackResponder(q *tgbotapi.CallbackQuery) Responder {
	return &callbackResponder{bot: b, query: q}
}

func (r *callbackResponder) ChatID() int64 { return r.query.Message.Chat.ID }

func (r *callbackResponder) Respond(text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := r.query.Message
	chatID := msg.Chat.ID

	var edit tgbotapi.Chattable
	if len(msg.Photo) > 0 || msg.Caption != "" {
		c := tgbotapi.NewEditMessageCaption(chatID, msg.MessageID, text)
		c.ReplyMarkup = markup
		edit = c
	} else {
		c := tgbotapi.NewEditMessageText(chatID, msg.MessageID, text)
		c.ReplyMarkup = markup
		edit = c
	}

	if _, err := r.bot.api.Send(edit); err == nil {
		return nil
	}
	metrics.SendFallbacksTotal.Inc()

	if markup == nil {
		return r.bot.SendMessage(chatID, text)
	}
	return r.bot.SendWithMarkup(chatID, text, *markup)
}
