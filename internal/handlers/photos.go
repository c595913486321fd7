package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/session"
	"github.com/teataster/teataster/internal/telegram"
)

// ---------------------------------------------------------------------------
// Photos – the wizard's photo step
// ---------------------------------------------------------------------------

// Photos accepts photo messages during the wizard's photo step. Album items
// are buffered and attached as one batch once the album settles.
type Photos struct {
	deps *Deps
}

// NewPhotos creates the photo handler.
func NewPhotos(deps *Deps) *Photos {
	return &Photos{deps: deps}
}

// Handle processes one photo message.
func (h *Photos) Handle(bot *telegram.Bot, message *tgbotapi.Message) error {
	d := h.deps
	userID := message.From.ID

	sess := d.Sessions.Get(userID)
	if sess == nil || sess.Create == nil || sess.Create.Step != session.StepPhotos {
		return nil
	}
	flow := sess.Create

	if len(flow.Draft.PhotoIDs) >= models.MaxPhotos {
		return bot.SendMessage(message.Chat.ID, fmt.Sprintf(
			"You can attach at most %d photos. Press \"Done\" or \"Skip\".", models.MaxPhotos))
	}

	// largest size is last
	fileID := message.Photo[len(message.Photo)-1].FileID

	if message.MediaGroupID != "" {
		d.Albums.Add(userID, message.MediaGroupID, fileID)
		return nil
	}

	flow.Draft.PhotoIDs = append(flow.Draft.PhotoIDs, fileID)
	return bot.SendMessage(message.Chat.ID, fmt.Sprintf(
		"Added %d/%d. Send more or press \"Done\".", len(flow.Draft.PhotoIDs), models.MaxPhotos))
}

// appendPhotos adds file ids to the draft up to the photo cap and reports
// how many were kept.
func appendPhotos(draft *session.Draft, fileIDs []string) int {
	capacity := models.MaxPhotos - len(draft.PhotoIDs)
	if capacity <= 0 {
		return 0
	}
	if len(fileIDs) > capacity {
		fileIDs = fileIDs[:capacity]
	}
	draft.PhotoIDs = append(draft.PhotoIDs, fileIDs...)
	return len(fileIDs)
}

// attachAlbum appends a settled media group to an active photo step. It
// reports the new photo total and whether part of the album was dropped.
func (d *Deps) attachAlbum(userID int64, fileIDs []string) (total int, truncated, ok bool) {
	sess := d.Sessions.Get(userID)
	if sess == nil || sess.Create == nil || sess.Create.Step != session.StepPhotos {
		return 0, false, false
	}
	flow := sess.Create
	kept := appendPhotos(&flow.Draft, fileIDs)
	return len(flow.Draft.PhotoIDs), kept < len(fileIDs), true
}

// AcceptAlbum is the album buffer's flush callback: it attaches a settled
// media group to the draft, enforcing the photo cap.
func (d *Deps) AcceptAlbum(bot *telegram.Bot, userID int64, fileIDs []string) {
	total, truncated, ok := d.attachAlbum(userID, fileIDs)
	if !ok {
		return
	}

	chatID := userID // private chat
	if truncated {
		if err := bot.SendMessage(chatID, fmt.Sprintf(
			"The limit is %d photos, so I kept only part of the album.", models.MaxPhotos)); err != nil {
			d.Logger.Warnf("Failed to notify about photo limit: %v", err)
		}
	}
	if err := bot.SendMessage(chatID, fmt.Sprintf(
		"Added %d/%d. Send more or press \"Done\".", total, models.MaxPhotos)); err != nil {
		d.Logger.Warnf("Failed to send album status: %v", err)
	}
}
