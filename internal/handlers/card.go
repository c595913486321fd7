package handlers

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
)

// ---------------------------------------------------------------------------
// Card – rendering one tasting with its photos
// ---------------------------------------------------------------------------

// sendCardWithMedia delivers a card: photos as an album (captioned when the
// card fits the caption limit), text in as many chunks as needed, and the
// action keyboard exactly once.
func (d *Deps) sendCardWithMedia(bot *telegram.Bot, chatID int64, t *models.Tasting,
	infusions []*models.Infusion, photoIDs []string, photoCount int,
) error {
	text := ui.BuildCardText(t, infusions, photoCount)
	markup := ui.CardActionsKeyboard(t.ID)
	if len(photoIDs) > models.MaxPhotos {
		photoIDs = photoIDs[:models.MaxPhotos]
	}

	markupSent := false
	sendChunks := func() {
		for idx, chunk := range ui.SplitMessage(text, ui.MessageLimit) {
			if idx == 0 && !markupSent {
				bot.SendRaw(withMarkup(chatID, chunk, markup))
				markupSent = true
				continue
			}
			bot.SendRaw(tgbotapi.NewMessage(chatID, chunk))
		}
	}
	ensureActions := func() {
		if !markupSent {
			bot.SendRaw(withMarkup(chatID, "Actions:", markup))
			markupSent = true
		}
	}

	if len(photoIDs) == 0 {
		sendChunks()
		return nil
	}

	useCaption := len(text) <= ui.CaptionLimit
	if useCaption {
		media := make([]interface{}, 0, len(photoIDs))
		for idx, fid := range photoIDs {
			photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(fid))
			if idx == 0 {
				photo.Caption = text
			}
			media = append(media, photo)
		}
		group := tgbotapi.NewMediaGroup(chatID, media)
		if _, err := bot.SendRawMediaGroup(group); err != nil {
			d.Logger.Warnf("Failed to send media group for tasting %d: %v", t.ID, err)
			sendChunks()
			return nil
		}
		ensureActions()
		return nil
	}

	if err := bot.SendMediaGroup(chatID, photoIDs); err != nil {
		d.Logger.Warnf("Failed to send media group for tasting %d: %v", t.ID, err)
	}
	sendChunks()
	return nil
}

// openCard loads and renders one owned tasting.
func (d *Deps) openCard(bot *telegram.Bot, chatID, userID, tastingID int64) error {
	card, err := d.Svc.GetCard(context.Background(), tastingID, userID)
	if err != nil {
		return err
	}
	if card == nil {
		return bot.SendMessage(chatID, "Record not found.")
	}
	return d.sendCardWithMedia(bot, chatID, card.Tasting, card.Infusions, card.PhotoIDs, card.PhotoCount)
}

// ---------------------------------------------------------------------------
// Card callbacks: open:, pics:, back:main, nav:home
// ---------------------------------------------------------------------------

// CardCallback handles opening cards and navigating back to the menu.
type CardCallback struct {
	deps *Deps
}

// NewCardCallback creates the card callback handler.
func NewCardCallback(deps *Deps) *CardCallback {
	return &CardCallback{deps: deps}
}

// Handle processes open/pics/back/nav callbacks.
func (h *CardCallback) Handle(bot *telegram.Bot, query *tgbotapi.CallbackQuery, data string) error {
	d := h.deps
	defer bot.AnswerCallback(query.ID, "")
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	prefix, tail := splitData(data)
	switch prefix {
	case "open":
		tid, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			return nil
		}
		return d.openCard(bot, chatID, userID, tid)

	case "pics":
		tid, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			return nil
		}
		card, err := d.Svc.GetCard(context.Background(), tid, userID)
		if err != nil {
			return err
		}
		if card == nil || len(card.PhotoIDs) == 0 {
			return bot.SendMessage(chatID, "No photos.")
		}
		if len(card.PhotoIDs) == 1 {
			return bot.SendPhoto(chatID, card.PhotoIDs[0], "", nil)
		}
		return bot.SendMediaGroup(chatID, card.PhotoIDs)

	case "back": // back:main
		return d.mainMenu(bot, chatID)

	case "nav": // nav:home
		d.Sessions.Clear(userID)
		return d.mainMenu(bot, chatID)
	}
	return nil
}
