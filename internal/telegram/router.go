package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger    *logrus.Logger
	handlers  map[string]CommandHandler
	callbacks map[string]CallbackHandler
	replies   map[string]CommandHandler
	dialog    DialogHandler
	photos    PhotoHandler
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot *Bot, message *tgbotapi.Message, args []string) error
}

// CallbackHandler handles inline-keyboard callbacks. data is the full
// callback payload, including the routing prefix.
type CallbackHandler interface {
	Handle(bot *Bot, query *tgbotapi.CallbackQuery, data string) error
}

// DialogHandler receives non-command text. It reports whether the message
// was consumed by an active dialog flow.
type DialogHandler interface {
	Handle(bot *Bot, message *tgbotapi.Message) (bool, error)
}

// PhotoHandler receives photo messages.
type PhotoHandler interface {
	Handle(bot *Bot, message *tgbotapi.Message) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:    logger,
		handlers:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
		replies:   make(map[string]CommandHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers a handler for callback data whose segment
// before the first ":" equals prefix (or the whole payload, for data
// without a colon).
func (r *Router) RegisterCallback(prefix string, handler CallbackHandler) {
	r.callbacks[prefix] = handler
	r.logger.Debugf("Registered callback prefix: %s", prefix)
}

// RegisterReplyButton routes an exact reply-keyboard caption to a command
// handler.
func (r *Router) RegisterReplyButton(caption string, handler CommandHandler) {
	r.replies[caption] = handler
}

// SetDialogHandler installs the fallthrough for free text.
func (r *Router) SetDialogHandler(handler DialogHandler) {
	r.dialog = handler
}

// SetPhotoHandler installs the handler for photo messages.
func (r *Router) SetPhotoHandler(handler PhotoHandler) {
	r.photos = handler
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot *Bot, message *tgbotapi.Message) {
	r.logger.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"username":   message.From.UserName,
		"message_id": message.MessageID,
	}).Debug("Received message")

	if len(message.Photo) > 0 {
		if r.photos != nil {
			if err := r.photos.Handle(bot, message); err != nil {
				r.failed(bot, message, "photo", err)
			}
		}
		return
	}

	if message.Text == "" {
		return
	}

	if message.IsCommand() {
		command := message.Command()
		args := strings.Fields(message.CommandArguments())

		handler, exists := r.handlers[command]
		if !exists {
			r.logger.WithFields(logrus.Fields{
				"command": command,
				"chat_id": message.Chat.ID,
				"user_id": message.From.ID,
			}).Warn("Unknown command")

			bot.SendRaw(tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands."))
			return
		}
		if err := handler.Handle(bot, message, args); err != nil {
			r.failed(bot, message, command, err)
		}
		return
	}

	// Dialog state takes precedence over reply-keyboard captions, so a
	// wizard can accept text that happens to match a button.
	if r.dialog != nil {
		handled, err := r.dialog.Handle(bot, message)
		if err != nil {
			r.failed(bot, message, "dialog", err)
			return
		}
		if handled {
			return
		}
	}

	if handler, ok := r.replies[message.Text]; ok {
		if err := handler.Handle(bot, message, nil); err != nil {
			r.failed(bot, message, message.Text, err)
		}
	}
}

// HandleCallbackQuery handles callback queries from inline keyboards
func (r *Router) HandleCallbackQuery(bot *Bot, query *tgbotapi.CallbackQuery) {
	r.logger.WithFields(logrus.Fields{
		"callback_id": query.ID,
		"user_id":     query.From.ID,
		"data":        query.Data,
	}).Debug("Received callback query")

	prefix := query.Data
	if i := strings.IndexByte(prefix, ':'); i >= 0 {
		prefix = prefix[:i]
	}

	handler, exists := r.callbacks[prefix]
	if !exists {
		r.logger.WithFields(logrus.Fields{
			"data":    query.Data,
			"user_id": query.From.ID,
		}).Warn("Unknown callback")
		bot.AnswerCallback(query.ID, "")
		return
	}

	if err := handler.Handle(bot, query, query.Data); err != nil {
		r.logger.WithFields(logrus.Fields{
			"data":    query.Data,
			"user_id": query.From.ID,
			"error":   err,
		}).Error("Callback handler failed")
		bot.AnswerCallback(query.ID, "Something went wrong, try again.")
	}
}

func (r *Router) failed(bot *Bot, message *tgbotapi.Message, what string, err error) {
	r.logger.WithFields(logrus.Fields{
		"handler": what,
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
		"error":   err,
	}).Error("Handler failed")

	bot.SendRaw(tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your request. Please try again."))
}
