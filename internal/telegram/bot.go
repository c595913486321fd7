package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/teataster/teataster/internal/metrics"
)

// UserLocker serializes update handling for one user. Each update runs on
// its own goroutine, so without it two rapid messages from the same user
// would mutate the same dialog flow concurrently.
type UserLocker interface {
	Lock(userID int64)
	Unlock(userID int64)
}

// Bot wraps the Telegram bot API
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
	router *Router
	locks  UserLocker
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger),
	}, nil
}

// Router exposes the update router for handler registration.
func (b *Bot) Router() *Router {
	return b.router
}

// SetUserLocker installs the per-user lock held across update handling.
func (b *Bot) SetUserLocker(l UserLocker) {
	b.locks = l
}

// SetCommands publishes the command list shown in the Telegram client menu.
func (b *Bot) SetCommands(commands []tgbotapi.BotCommand) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

// Start starts the bot with long polling
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanicsTotal.Inc()
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	if from := update.SentFrom(); from != nil && b.locks != nil {
		b.locks.Lock(from.ID)
		defer b.locks.Unlock(from.ID)
	}

	if update.Message != nil {
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.router.HandleMessage(b, update.Message)
	} else if update.CallbackQuery != nil {
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		b.router.HandleCallbackQuery(b, update.CallbackQuery)
	}
}

// SendMessage sends a Markdown message to a chat
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := b.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// SendWithMarkup sends a message with an arbitrary reply markup attached.
func (b *Bot) SendWithMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup

	_, err := b.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// EditReplyMarkup swaps the inline keyboard under an existing message.
// Telegram rejects no-op edits; those are not worth surfacing.
func (b *Bot) EditReplyMarkup(chatID int64, messageID int, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debugf("Failed to edit reply markup: %v", err)
	}
}

// AnswerCallback acknowledges a callback query to clear the client spinner.
func (b *Bot) AnswerCallback(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Debugf("Failed to answer callback: %v", err)
	}
}

// SendMediaGroup sends an album of photos by file id.
func (b *Bot) SendMediaGroup(chatID int64, fileIDs []string) error {
	media := make([]interface{}, 0, len(fileIDs))
	for _, fid := range fileIDs {
		media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(fid)))
	}
	group := tgbotapi.NewMediaGroup(chatID, media)

	if _, err := b.api.SendMediaGroup(group); err != nil {
		return fmt.Errorf("failed to send media group: %w", err)
	}
	return nil
}

// SendRawMediaGroup sends a prepared media group, e.g. with a caption on
// the first item.
func (b *Bot) SendRawMediaGroup(group tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	return b.api.SendMediaGroup(group)
}

// SendPhoto sends one photo by file id with an optional caption.
func (b *Bot) SendPhoto(chatID int64, fileID, caption string, markup interface{}) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	if markup != nil {
		photo.ReplyMarkup = markup
	}

	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

// SendRaw sends a raw tgbotapi.Chattable message
func (b *Bot) SendRaw(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Errorf("Failed to send message: %v", err)
	}
}
