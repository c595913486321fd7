package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/teataster/teataster/internal/album"
	"github.com/teataster/teataster/internal/analytics"
	"github.com/teataster/teataster/internal/config"
	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/search"
	"github.com/teataster/teataster/internal/service"
	"github.com/teataster/teataster/internal/session"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
)

// Deps bundles everything the handlers share.
type Deps struct {
	Svc       *service.Service
	Sessions  *session.Manager
	Analytics *analytics.Logger
	Albums    *album.Buffer
	Throttle  *search.Throttle
	Config    *config.Config
	Logger    *logrus.Logger
}

// New creates the shared handler dependencies.
func New(svc *service.Service, sessions *session.Manager, tracker *analytics.Logger,
	albums *album.Buffer, throttle *search.Throttle, cfg *config.Config, logger *logrus.Logger,
) *Deps {
	return &Deps{
		Svc:       svc,
		Sessions:  sessions,
		Analytics: tracker,
		Albums:    albums,
		Throttle:  throttle,
		Config:    cfg,
		Logger:    logger,
	}
}

// mainMenu shows the inline main menu in a chat.
func (d *Deps) mainMenu(bot *telegram.Bot, chatID int64) error {
	return bot.SendWithMarkup(chatID,
		"Hi! What are we doing — creating a new record or finding an existing one?",
		ui.MainKeyboard())
}

// sendShortRows sends one result row per message, each with an Open button.
func (d *Deps) sendShortRows(bot *telegram.Bot, chatID int64, rows []*models.Tasting) {
	for _, t := range rows {
		bot.SendRaw(withMarkup(chatID, t.ShortRow(), ui.OpenKeyboard(t.ID)))
	}
}

func withMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	return msg
}

const helpText = "/start — menu\n" +
	"/new — new tasting\n" +
	"/find — search (by name, category, year, rating, last 5)\n" +
	"/last — last 5\n" +
	"/tz — timezone\n" +
	"/menu — show buttons under the input field\n" +
	"/hide — hide the buttons\n" +
	"/reset — reset and return to the menu\n" +
	"/cancel — cancel the current action\n" +
	"/edit <id or #N> — edit a record\n" +
	"/delete <id or #N> — delete a record"

func editMenuText(seqNo int) string {
	return fmt.Sprintf("Editing #%d. Pick a field.", seqNo)
}
