package handlers

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/session"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
)

// ---------------------------------------------------------------------------
// Edit / delete flow
// ---------------------------------------------------------------------------

// homeKeyboard is the single "back to menu" button shown when an edit
// context turns out to be stale.
func homeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to menu", "nav:home"),
		),
	)
}

// notifyContextLost tells the user once that their edit context is gone.
func (d *Deps) notifyContextLost(r telegram.Responder, flow *session.EditFlow) error {
	if flow != nil && flow.CtxWarned {
		return nil
	}
	if flow != nil {
		flow.CtxWarned = true
	}
	kb := homeKeyboard()
	return r.Respond("The edit context was lost.", &kb)
}

// ensureEditContext re-verifies that the edited tasting still exists and
// belongs to the user before any write.
func (d *Deps) ensureEditContext(r telegram.Responder, userID int64, flow *session.EditFlow) (bool, error) {
	if flow == nil || flow.TastingID == 0 {
		return false, d.notifyContextLost(r, flow)
	}
	t, err := d.Svc.Tastings.GetByID(context.Background(), flow.TastingID)
	if err != nil {
		d.Logger.Warnf("Failed to verify edit context for tasting %d: %v", flow.TastingID, err)
		return false, d.notifyContextLost(r, flow)
	}
	if t == nil || t.UserID != userID {
		d.Logger.Warnf("Edit context invalid owner (tasting=%d, user=%d)", flow.TastingID, userID)
		return false, d.notifyContextLost(r, flow)
	}
	flow.CtxWarned = false
	return true, nil
}

// sendEditMenu shows the field picker for the record being edited.
func (d *Deps) sendEditMenu(bot *telegram.Bot, chatID int64, seqNo int) error {
	return bot.SendWithMarkup(chatID, editMenuText(seqNo), ui.EditFieldsKeyboard())
}

// startEdit begins editing one resolved tasting.
func (d *Deps) startEdit(bot *telegram.Bot, chatID, userID int64, t *models.Tasting) error {
	d.Sessions.StartEdit(userID, t.ID, t.SeqNo)
	return d.sendEditMenu(bot, chatID, t.SeqNo)
}

// handleEditText consumes free text while an edit awaits input. Returns
// false when the edit flow is idle so other routing can run.
func (d *Deps) handleEditText(bot *telegram.Bot, message *tgbotapi.Message, flow *session.EditFlow) (bool, error) {
	if !flow.AwaitingText {
		return false, nil
	}
	r := bot.MessageResponder(message)
	userID := message.From.ID
	chatID := message.Chat.ID

	ok, err := d.ensureEditContext(r, userID, flow)
	if err != nil || !ok {
		return true, err
	}

	if flow.Field == "category" {
		text, errPrompt := validateCategory(message.Text)
		if errPrompt != "" {
			return true, bot.SendMessage(chatID, errPrompt)
		}
		updated, err := d.Svc.UpdateTastingField(context.Background(), flow.TastingID, userID, "category", text)
		if err != nil {
			return true, err
		}
		if !updated {
			return true, d.notifyContextLost(r, flow)
		}
		return true, d.finishFieldEdit(bot, chatID, userID, flow, "category")
	}

	value, errPrompt, column := prepareTextEdit(flow.Field, message.Text)
	if errPrompt != "" {
		return true, bot.SendMessage(chatID, errPrompt)
	}

	updated, err := d.Svc.UpdateTastingField(context.Background(), flow.TastingID, userID, column, value)
	if err != nil {
		return true, err
	}
	if !updated {
		return true, d.notifyContextLost(r, flow)
	}
	return true, d.finishFieldEdit(bot, chatID, userID, flow, flow.Field)
}

// finishFieldEdit acknowledges a write and returns to the field picker.
func (d *Deps) finishFieldEdit(bot *telegram.Bot, chatID, userID int64, flow *session.EditFlow, field string) error {
	flow.Field = ""
	flow.AwaitingText = false
	flow.CtxWarned = false
	d.Analytics.Log(userID, chatID, models.EventFieldEdited, map[string]any{"field": field})

	label := ui.FieldLabels[field]
	if label == "" {
		label = field
	}
	if err := bot.SendMessage(chatID, "Updated "+label+"."); err != nil {
		return err
	}
	return d.sendEditMenu(bot, chatID, flow.SeqNo)
}

// EditCallback handles the edit and delete keyboards.
type EditCallback struct {
	deps *Deps
}

// NewEditCallback creates the edit callback handler.
func NewEditCallback(deps *Deps) *EditCallback {
	return &EditCallback{deps: deps}
}

// Handle processes edit:, efld:, ecat:, erat:, del:, delok:, delno:.
func (h *EditCallback) Handle(bot *telegram.Bot, query *tgbotapi.CallbackQuery, data string) error {
	d := h.deps
	defer bot.AnswerCallback(query.ID, "")
	chatID := query.Message.Chat.ID
	userID := query.From.ID
	r := bot.CallbackResponder(query)

	prefix, tail := splitData(data)
	switch prefix {
	case "edit":
		tid, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			return nil
		}
		t, err := d.Svc.GetCard(context.Background(), tid, userID)
		if err != nil {
			return err
		}
		if t == nil {
			return bot.SendMessage(chatID, "Record not found.")
		}
		return d.startEdit(bot, chatID, userID, t.Tasting)

	case "efld":
		return h.pickField(bot, r, chatID, userID, tail)

	case "ecat":
		return h.pickCategory(bot, r, chatID, userID, tail)

	case "erat":
		return h.pickRating(bot, r, chatID, userID, tail)

	case "del":
		tid, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			return nil
		}
		t, err := d.Svc.ResolveTasting(context.Background(), userID, tail)
		if err != nil {
			return err
		}
		if t == nil {
			return bot.SendMessage(chatID, "Record not found.")
		}
		return bot.SendWithMarkup(chatID,
			fmt.Sprintf("Delete #%d?", t.SeqNo), ui.ConfirmDeleteKeyboard(tid))

	case "delok":
		tid, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			return nil
		}
		deleted, err := d.Svc.DeleteTasting(context.Background(), tid, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return bot.SendMessage(chatID, "Record not found.")
		}
		d.Sessions.Clear(userID)
		d.Analytics.Log(userID, chatID, models.EventTastingDeleted, nil)
		if err := bot.SendMessage(chatID, "Deleted."); err != nil {
			return err
		}
		return d.mainMenu(bot, chatID)

	case "delno":
		return r.Respond("Kept it.", nil)
	}
	return nil
}

func (h *EditCallback) pickField(bot *telegram.Bot, r telegram.Responder, chatID, userID int64, field string) error {
	d := h.deps
	sess := d.Sessions.Get(userID)
	var flow *session.EditFlow
	if sess != nil {
		flow = sess.Edit
	}

	if field == "cancel" {
		d.Sessions.Clear(userID)
		return d.mainMenu(bot, chatID)
	}

	ok, err := d.ensureEditContext(r, userID, flow)
	if err != nil || !ok {
		return err
	}

	switch field {
	case "category":
		flow.Field = "category"
		flow.AwaitingText = false
		kb := ui.EditCategoryKeyboard()
		return r.Respond("Pick a new category:", &kb)
	case "rating":
		flow.Field = "rating"
		flow.AwaitingText = false
		kb := ui.EditRatingKeyboard()
		return r.Respond("Pick a new rating:", &kb)
	}

	spec, known := editTextFields[field]
	if !known {
		return nil
	}
	flow.Field = field
	flow.AwaitingText = true
	return r.Respond(spec.prompt, nil)
}

func (h *EditCallback) pickCategory(bot *telegram.Bot, r telegram.Responder, chatID, userID int64, value string) error {
	d := h.deps
	sess := d.Sessions.Get(userID)
	var flow *session.EditFlow
	if sess != nil {
		flow = sess.Edit
	}

	ok, err := d.ensureEditContext(r, userID, flow)
	if err != nil || !ok {
		return err
	}

	switch value {
	case "__back__":
		flow.Field = ""
		flow.AwaitingText = false
		return d.sendEditMenu(bot, chatID, flow.SeqNo)
	case "__other__":
		flow.Field = "category"
		flow.AwaitingText = true
		return r.Respond("Type the category:", nil)
	}

	updated, err := d.Svc.UpdateTastingField(context.Background(), flow.TastingID, userID, "category", value)
	if err != nil {
		return err
	}
	if !updated {
		return d.notifyContextLost(r, flow)
	}
	return d.finishFieldEdit(bot, chatID, userID, flow, "category")
}

func (h *EditCallback) pickRating(bot *telegram.Bot, r telegram.Responder, chatID, userID int64, value string) error {
	d := h.deps
	sess := d.Sessions.Get(userID)
	var flow *session.EditFlow
	if sess != nil {
		flow = sess.Edit
	}

	ok, err := d.ensureEditContext(r, userID, flow)
	if err != nil || !ok {
		return err
	}

	v, err := strconv.Atoi(value)
	if err != nil || v < 0 || v > 10 {
		return nil
	}
	updated, err := d.Svc.UpdateTastingField(context.Background(), flow.TastingID, userID, "rating", v)
	if err != nil {
		return err
	}
	if !updated {
		return d.notifyContextLost(r, flow)
	}
	return d.finishFieldEdit(bot, chatID, userID, flow, "rating")
}
